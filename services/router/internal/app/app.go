package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"knockknock/internal/util"
	"knockknock/pkg/ai"
	"knockknock/pkg/store"
)

// Reader produces a kana reading for Japanese text.
type Reader interface {
	Hiragana(text string) string
}

// Config holds runtime configuration for the router core. Store and
// Generator take precedence over the connection settings when set.
type Config struct {
	Store     store.PhraseStore
	Generator ai.TextGenerator
	Reader    Reader

	StoreOptions store.Options
	Generation   ai.GeneratorConfig

	Now   func() time.Time
	NewID func() string
}

// App dispatches classified requests to the translate and store paths.
// External clients are created on first use and never rebuilt.
type App struct {
	phraseStore func() (store.PhraseStore, error)
	generator   func() (ai.TextGenerator, error)
	reader      Reader
	now         func() time.Time
	newID       func() string

	mu      sync.Mutex
	closers []func() error
}

// New constructs the application. No connection is opened until a request
// needs it.
func New(cfg Config) *App {
	a := &App{
		reader: cfg.Reader,
		now:    cfg.Now,
		newID:  cfg.NewID,
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.newID == nil {
		a.newID = util.NewID
	}

	if cfg.Store != nil {
		a.phraseStore = func() (store.PhraseStore, error) { return cfg.Store, nil }
	} else {
		opts := cfg.StoreOptions
		a.phraseStore = sync.OnceValues(func() (store.PhraseStore, error) {
			s, closeFn, err := store.Open(opts)
			if err != nil {
				return nil, err
			}
			a.addCloser(closeFn)
			return s, nil
		})
	}

	if cfg.Generator != nil {
		a.generator = func() (ai.TextGenerator, error) { return cfg.Generator, nil }
	} else {
		genCfg := cfg.Generation
		a.generator = sync.OnceValues(func() (ai.TextGenerator, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return ai.NewGenerator(ctx, genCfg)
		})
	}
	return a
}

// Warm opens the store and generator eagerly so startup fails fast on bad
// settings.
func (a *App) Warm() error {
	if _, err := a.phraseStore(); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	if _, err := a.generator(); err != nil {
		return fmt.Errorf("init generator: %w", err)
	}
	return nil
}

// Close releases connections opened by the app.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var firstErr error
	for _, fn := range a.closers {
		if err := fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

func (a *App) addCloser(fn func() error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, fn)
}

var (
	sharedOnce sync.Once
	shared     *App
)

// Shared returns the process-wide App, built from cfg on the first call.
// Later calls return the same instance and ignore cfg.
func Shared(cfg Config) *App {
	sharedOnce.Do(func() {
		shared = New(cfg)
	})
	return shared
}
