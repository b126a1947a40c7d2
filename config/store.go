package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/fwojciec/parley"
	"github.com/sirupsen/logrus"
)

// Interface compliance check.
var _ parley.Settings = (*Store)(nil)

const defaultDebounce = 500 * time.Millisecond

// Store holds the live configuration. Every load reads the file, then the
// environment, then the caller's overrides, and is validated before it
// replaces the current values. A failed reload keeps the previous values.
type Store struct {
	path      string
	getenv    func(string) string
	overrides func(*Config)
	debounce  time.Duration
	log       logrus.FieldLogger

	mu        sync.RWMutex
	cfg       *Config
	callbacks []func(Config)
}

// StoreOption configures a [Store].
type StoreOption func(*Store)

// WithEnv sets the environment lookup. Defaults to os.Getenv.
func WithEnv(getenv func(string) string) StoreOption {
	return func(s *Store) { s.getenv = getenv }
}

// WithOverrides registers a function applied after the environment on
// every load. Command-line flags use it.
func WithOverrides(fn func(*Config)) StoreOption {
	return func(s *Store) { s.overrides = fn }
}

// WithDebounce sets how long Watch waits for writes to settle.
func WithDebounce(d time.Duration) StoreOption {
	return func(s *Store) { s.debounce = d }
}

// WithLogger sets the logger. Defaults to discarding all output.
func WithLogger(l logrus.FieldLogger) StoreOption {
	return func(s *Store) { s.log = l }
}

// NewStore loads the configuration at path.
func NewStore(path string, opts ...StoreOption) (*Store, error) {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	s := &Store{
		path:     path,
		getenv:   os.Getenv,
		debounce: defaultDebounce,
		log:      discard,
	}
	for _, o := range opts {
		o(s)
	}
	cfg, err := s.load()
	if err != nil {
		return nil, err
	}
	s.cfg = cfg
	return s, nil
}

func (s *Store) load() (*Config, error) {
	cfg, err := Load(s.path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnvOverrides(s.getenv); err != nil {
		return nil, err
	}
	if s.overrides != nil {
		s.overrides(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the config file path.
func (s *Store) Path() string { return s.path }

// Config returns a copy of the current configuration. Slices are shared
// and must not be modified.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.cfg
}

// BaseURL returns the current server base URL.
func (s *Store) BaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.BaseURL
}

// AutoExecute reports whether replies are executed automatically.
func (s *Store) AutoExecute() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.AutoExecute
}

// Model returns the configured default model.
func (s *Store) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Model
}

// OnChange registers fn to run after every successful reload.
func (s *Store) OnChange(fn func(Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

// Reload re-reads the configuration.
func (s *Store) Reload() error {
	cfg, err := s.load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	callbacks := make([]func(Config), len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(*cfg)
	}
	return nil
}

// Watch reloads the configuration whenever the file is written, created or
// renamed into place, until ctx is done. The containing directory is
// watched so editors that replace the file are handled. Watch returns once
// the watcher is running.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return fmt.Errorf("config: watch %s: %w", filepath.Dir(s.path), err)
	}
	go s.watchLoop(ctx, w)
	return nil
}

func (s *Store) watchLoop(ctx context.Context, w *fsnotify.Watcher) {
	defer w.Close()
	target := filepath.Clean(s.path)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(s.debounce, s.reloadFromWatch)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.log.WithError(err).Warn("config watcher error")

		case <-ctx.Done():
			return
		}
	}
}

func (s *Store) reloadFromWatch() {
	if err := s.Reload(); err != nil {
		s.log.WithError(err).WithField("path", s.path).Warn("config reload failed; keeping previous values")
		return
	}
	s.log.WithField("path", s.path).Info("config reloaded")
}
