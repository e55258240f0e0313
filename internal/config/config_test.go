package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func noEnv(string) (string, bool) { return "", false }

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{Lookup: noEnv})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "gravityforms.yaml", `
server:
  addr: ":9000"
  rate_limit:
    rps: 2.5
    burst: 4
forms:
  source: ./forms.json
  watch: true
submission:
  endpoint: https://lambda.example.com/submit
  verify_key: secret
  timeout: 3s
recaptcha:
  site_key: site
log:
  level: debug
  format: console
theme:
  name: default
  variant: dark
`)

	cfg, err := Load(Options{Path: path, Lookup: noEnv})
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, RateLimitConfig{RPS: 2.5, Burst: 4}, cfg.Server.RateLimit)
	assert.Equal(t, FormsConfig{Source: "./forms.json", Watch: true}, cfg.Forms)
	assert.Equal(t, "https://lambda.example.com/submit", cfg.Submission.Endpoint)
	assert.Equal(t, "secret", cfg.Submission.VerifyKey)
	assert.Equal(t, 3*time.Second, cfg.Submission.Timeout)
	assert.Equal(t, "site", cfg.Recaptcha.SiteKey)
	assert.Equal(t, LogConfig{Level: "debug", Format: "console"}, cfg.Log)
	assert.Equal(t, "dark", cfg.Theme.Variant)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	path := writeFile(t, "gravityforms.yaml", "server:\n  addr: \":9000\"\n")
	env := map[string]string{
		"GRAVITYFORMS_SERVER_ADDR":             ":7000",
		"GRAVITYFORMS_SERVER_RATE_LIMIT_RPS":   "0",
		"GRAVITYFORMS_SERVER_RATE_LIMIT_BURST": "1",
		"GRAVITYFORMS_FORMS_WATCH":             "true",
		"GRAVITYFORMS_SUBMISSION_TIMEOUT":      "250ms",
		"GRAVITYFORMS_SUBMISSION_VERIFY_KEY":   " key ",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg, err := Load(Options{Path: path, Lookup: lookup})
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, RateLimitConfig{RPS: 0, Burst: 1}, cfg.Server.RateLimit)
	assert.True(t, cfg.Forms.Watch)
	assert.Equal(t, 250*time.Millisecond, cfg.Submission.Timeout)
	assert.Equal(t, "key", cfg.Submission.VerifyKey)
}

func TestLoad_EnvFile(t *testing.T) {
	const key = "GRAVITYFORMS_RECAPTCHA_SITE_KEY"
	t.Cleanup(func() { _ = os.Unsetenv(key) })
	envFile := writeFile(t, ".env", key+"=from-dotenv\n")

	cfg, err := Load(Options{EnvFiles: []string{envFile, filepath.Join(t.TempDir(), "missing.env")}})
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Recaptcha.SiteKey)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(Options{Path: filepath.Join(t.TempDir(), "nope.yaml"), Lookup: noEnv})
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("bad env value", func(t *testing.T) {
		_, err := Load(Options{Lookup: func(key string) (string, bool) {
			if key == "GRAVITYFORMS_FORMS_WATCH" {
				return "sometimes", true
			}
			return "", false
		}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GRAVITYFORMS_FORMS_WATCH")
	})

	t.Run("validation", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "log:\n  level: loud\nsubmission:\n  endpoint: not a url\n")
		_, err := Load(Options{Path: path, Lookup: noEnv})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Level")
		assert.Contains(t, err.Error(), "Endpoint")
	})

	t.Run("empty addr", func(t *testing.T) {
		cfg := Default()
		cfg.Server.Addr = ""
		require.Error(t, cfg.Validate())
	})
}
