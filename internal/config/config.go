// Package config loads gravityforms settings from a YAML file, an optional
// .env file and GRAVITYFORMS_* environment variables, in that order of
// precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GRAVITYFORMS_"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Forms      FormsConfig      `yaml:"forms"`
	Submission SubmissionConfig `yaml:"submission"`
	Recaptcha  RecaptchaConfig  `yaml:"recaptcha"`
	Log        LogConfig        `yaml:"log"`
	Theme      ThemeConfig      `yaml:"theme"`
}

type ServerConfig struct {
	Addr      string          `yaml:"addr" validate:"required"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig bounds requests per client IP. RPS of zero disables
// limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" validate:"gte=0"`
	Burst int     `yaml:"burst" validate:"gte=0"`
}

type FormsConfig struct {
	// Source is a descriptor file path or URL.
	Source string `yaml:"source"`
	// Watch reloads Source when the file changes.
	Watch bool `yaml:"watch"`
}

type SubmissionConfig struct {
	Endpoint  string        `yaml:"endpoint" validate:"omitempty,url"`
	VerifyKey string        `yaml:"verify_key"`
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`
}

type RecaptchaConfig struct {
	SiteKey string `yaml:"site_key"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

type ThemeConfig struct {
	Name    string `yaml:"name"`
	Variant string `yaml:"variant"`
	// Manifest points at a go-theme manifest YAML file.
	Manifest string `yaml:"manifest"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:      ":8080",
			RateLimit: RateLimitConfig{RPS: 5, Burst: 10},
		},
		Submission: SubmissionConfig{Timeout: 15 * time.Second},
		Log:        LogConfig{Level: "info", Format: "json"},
	}
}

// Options control where Load looks for settings.
type Options struct {
	// Path is the YAML file; empty skips the file.
	Path string
	// EnvFiles are loaded with godotenv before reading the environment.
	// Missing files are ignored.
	EnvFiles []string
	// Lookup replaces os.LookupEnv, mostly for tests.
	Lookup func(string) (string, bool)
}

// Load builds a validated Config.
func Load(opts Options) (Config, error) {
	cfg := Default()

	if opts.Path != "" {
		raw, err := os.ReadFile(opts.Path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", opts.Path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", opts.Path, err)
		}
	}

	for _, file := range opts.EnvFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load env file %s: %w", file, err)
		}
	}

	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	str("SERVER_ADDR", &cfg.Server.Addr)
	str("FORMS_SOURCE", &cfg.Forms.Source)
	str("SUBMISSION_ENDPOINT", &cfg.Submission.Endpoint)
	str("SUBMISSION_VERIFY_KEY", &cfg.Submission.VerifyKey)
	str("RECAPTCHA_SITE_KEY", &cfg.Recaptcha.SiteKey)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("THEME_NAME", &cfg.Theme.Name)
	str("THEME_VARIANT", &cfg.Theme.Variant)
	str("THEME_MANIFEST", &cfg.Theme.Manifest)

	if v, ok := lookup(EnvPrefix + "SERVER_RATE_LIMIT_RPS"); ok {
		rps, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("config: %sSERVER_RATE_LIMIT_RPS: %w", EnvPrefix, err)
		}
		cfg.Server.RateLimit.RPS = rps
	}
	if v, ok := lookup(EnvPrefix + "SERVER_RATE_LIMIT_BURST"); ok {
		burst, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %sSERVER_RATE_LIMIT_BURST: %w", EnvPrefix, err)
		}
		cfg.Server.RateLimit.Burst = burst
	}
	if v, ok := lookup(EnvPrefix + "FORMS_WATCH"); ok {
		watch, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %sFORMS_WATCH: %w", EnvPrefix, err)
		}
		cfg.Forms.Watch = watch
	}
	if v, ok := lookup(EnvPrefix + "SUBMISSION_TIMEOUT"); ok {
		timeout, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %sSUBMISSION_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.Submission.Timeout = timeout
	}
	return nil
}
