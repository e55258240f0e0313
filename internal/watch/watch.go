// Package watch keeps a descriptor file loaded and reloads it when it
// changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/goliatone/go-gravityforms/pkg/descriptor"
	"github.com/goliatone/go-gravityforms/pkg/model"
)

// DefaultDebounce batches the burst of events editors emit on save.
const DefaultDebounce = 200 * time.Millisecond

type Option func(*Watcher)

func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// OnReload registers a callback invoked with the forms after every
// successful reload.
func OnReload(fn func([]model.Form)) Option {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// Watcher serves the last successfully decoded forms of a descriptor file.
// A reload that fails keeps the previous forms.
type Watcher struct {
	path     string
	loader   descriptor.Loader
	logger   *zap.Logger
	debounce time.Duration
	onReload func([]model.Form)

	mu      sync.RWMutex
	forms   []model.Form
	lastErr error
}

// New creates a watcher for the descriptor at path.
func New(path string, loader descriptor.Loader, options ...Option) (*Watcher, error) {
	if loader == nil {
		return nil, errors.New("watch: loader is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", path, err)
	}
	w := &Watcher{
		path:     abs,
		loader:   loader,
		logger:   zap.NewNop(),
		debounce: DefaultDebounce,
	}
	for _, opt := range options {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Forms returns the current forms.
func (w *Watcher) Forms() []model.Form {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.forms
}

// Err returns the error of the latest reload, nil when it succeeded.
func (w *Watcher) Err() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastErr
}

// Load decodes the descriptor once.
func (w *Watcher) Load(ctx context.Context) error {
	forms, err := descriptor.Load(ctx, w.loader, descriptor.SourceFromFile(w.path))

	w.mu.Lock()
	w.lastErr = err
	if err == nil {
		w.forms = forms
	}
	callback := w.onReload
	w.mu.Unlock()

	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if callback != nil {
		callback(forms)
	}
	return nil
}

// Run watches the descriptor's directory until ctx is cancelled. The
// directory is watched rather than the file so editors that replace the file
// on save keep triggering reloads.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch: add %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("watching descriptor", zap.String("path", w.path))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending = time.After(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-pending:
			pending = nil
			if err := w.Load(ctx); err != nil {
				w.logger.Warn("descriptor reload failed, keeping previous forms", zap.Error(err))
				continue
			}
			w.logger.Info("descriptor reloaded", zap.Int("forms", len(w.Forms())))
		}
	}
}
