package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-gravityforms/internal/loader"
	"github.com/goliatone/go-gravityforms/pkg/descriptor"
	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/testsupport"
)

func formIDs(forms []model.Form) []int {
	ids := make([]int, 0, len(forms))
	for _, form := range forms {
		ids = append(ids, form.ID)
	}
	return ids
}

func TestWatcher_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forms.json")
	testsupport.WriteForms(t, path, testsupport.ContactForm())

	var calls atomic.Int32
	w, err := New(path, loader.New(descriptor.NewLoaderOptions()), OnReload(func([]model.Form) { calls.Add(1) }))
	require.NoError(t, err)

	require.NoError(t, w.Load(context.Background()))
	assert.Equal(t, []int{1}, formIDs(w.Forms()))
	assert.NoError(t, w.Err())
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcher_LoadMissingFile(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing.json"), loader.New(descriptor.NewLoaderOptions()))
	require.NoError(t, err)

	require.Error(t, w.Load(context.Background()))
	assert.Error(t, w.Err())
	assert.Empty(t, w.Forms())
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forms.json")
	testsupport.WriteForms(t, path, testsupport.ContactForm())

	w, err := New(path, loader.New(descriptor.NewLoaderOptions()), WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Load(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	second := testsupport.ContactForm()
	second.ID = 2
	require.Eventually(t, func() bool {
		testsupport.WriteForms(t, path, testsupport.ContactForm(), second)
		return len(w.Forms()) == 2
	}, 5*time.Second, 100*time.Millisecond)
	assert.Equal(t, []int{1, 2}, formIDs(w.Forms()))

	// A broken file keeps the previous forms.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("{not json"), 0o644)
		return w.Err() != nil
	}, 5*time.Second, 100*time.Millisecond)
	assert.Equal(t, []int{1, 2}, formIDs(w.Forms()))

	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644))
}

func TestNew_RequiresLoader(t *testing.T) {
	_, err := New("forms.json", nil)
	require.Error(t, err)
}
