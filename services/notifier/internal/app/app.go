package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"knockknock/internal/util"
	"knockknock/pkg/domain"
	"knockknock/pkg/notify"
	"knockknock/pkg/store"
)

// Skip reasons reported in RunResult.Reason.
const (
	ReasonConfigMissing = "config_missing"
	ReasonEmptyStore    = "empty_store"
)

// Config holds runtime configuration for the notification job. Store and
// Notifier take precedence over the connection settings when set.
type Config struct {
	TableName       string
	SlackWebhookURL string
	StoreOptions    store.Options
	NotifyTimeout   time.Duration

	Store    store.PhraseStore
	Notifier notify.Notifier
	// IntN returns a uniform index in [0, n). Defaults to math/rand/v2.
	IntN func(n int) int
}

// RunResult summarises one job run.
type RunResult struct {
	Skipped   bool          `json:"skipped"`
	Reason    string        `json:"reason,omitempty"`
	Delivered bool          `json:"delivered"`
	Phrase    domain.Phrase `json:"phrase"`
	Count     int64         `json:"count"`
}

// App picks a random phrase, posts it and counts the delivery.
type App struct {
	tableName  string
	webhookURL string
	intN       func(n int) int

	phraseStore func() (store.PhraseStore, error)
	notifier    func() (notify.Notifier, error)

	running sync.Mutex

	mu      sync.Mutex
	closers []func() error
}

// ackTimeout bounds the count update once a message is out. The update
// ignores cancellation of the run context.
const ackTimeout = 5 * time.Second

// ErrRunInProgress is returned by TryRun while another run holds the job.
var ErrRunInProgress = errors.New("notifier run already in progress")

// New constructs the job. Connections open on the first run.
func New(cfg Config) *App {
	a := &App{
		tableName:  strings.TrimSpace(cfg.TableName),
		webhookURL: strings.TrimSpace(cfg.SlackWebhookURL),
		intN:       cfg.IntN,
	}
	if a.intN == nil {
		a.intN = rand.IntN
	}

	if cfg.Store != nil {
		a.phraseStore = func() (store.PhraseStore, error) { return cfg.Store, nil }
	} else {
		opts := cfg.StoreOptions
		opts.Table = a.tableName
		a.phraseStore = sync.OnceValues(func() (store.PhraseStore, error) {
			s, closeFn, err := store.Open(opts)
			if err != nil {
				return nil, err
			}
			a.mu.Lock()
			a.closers = append(a.closers, closeFn)
			a.mu.Unlock()
			return s, nil
		})
	}

	if cfg.Notifier != nil {
		a.notifier = func() (notify.Notifier, error) { return cfg.Notifier, nil }
	} else {
		url, timeout := a.webhookURL, cfg.NotifyTimeout
		a.notifier = sync.OnceValues(func() (notify.Notifier, error) {
			return notify.NewSlackWebhook(url, timeout)
		})
	}
	return a
}

// Run performs one selection-and-notify pass. Missing table or webhook
// settings and an empty store are skips, not errors. A delivery failure
// aborts before the counter is touched.
func (a *App) Run(ctx context.Context) (RunResult, error) {
	logger := util.LoggerFromContext(ctx).With("job", "notifier")

	if a.tableName == "" || a.webhookURL == "" {
		logger.Error("notifier job skipped: table name or slack webhook url is not configured",
			"table_set", a.tableName != "", "webhook_set", a.webhookURL != "")
		return RunResult{Skipped: true, Reason: ReasonConfigMissing}, nil
	}

	phrases, err := a.phraseStore()
	if err != nil {
		return RunResult{}, fmt.Errorf("open store: %w", err)
	}
	sender, err := a.notifier()
	if err != nil {
		return RunResult{}, fmt.Errorf("init notifier: %w", err)
	}

	all, err := phrases.ScanPhrases(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("load phrases: %w", err)
	}
	if len(all) == 0 {
		logger.Info("no phrases stored, nothing to send")
		return RunResult{Skipped: true, Reason: ReasonEmptyStore}, nil
	}

	picked := all[a.intN(len(all))]
	logger = logger.With("phrase_id", picked.ID)

	if err := sender.SendPhrase(ctx, picked); err != nil {
		logger.Error("phrase delivery failed", "err", err)
		return RunResult{Phrase: picked}, fmt.Errorf("deliver phrase %s: %w", picked.ID, err)
	}

	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ackTimeout)
	count, err := phrases.IncrementCount(ackCtx, picked.Key())
	cancel()
	if err != nil {
		if errors.Is(err, store.ErrPhraseNotFound) {
			logger.Warn("phrase removed before its count was updated")
		} else {
			logger.Error("count update failed after delivery", "err", err)
		}
		return RunResult{Delivered: true, Phrase: picked}, fmt.Errorf("update count for %s: %w", picked.ID, err)
	}

	picked.Count = count
	logger.Info("phrase delivered", slog.Int64("count", count))
	return RunResult{Delivered: true, Phrase: picked, Count: count}, nil
}

// TryRun is Run guarded against overlap within the process. It returns
// ErrRunInProgress instead of waiting.
func (a *App) TryRun(ctx context.Context) (RunResult, error) {
	if !a.running.TryLock() {
		return RunResult{}, ErrRunInProgress
	}
	defer a.running.Unlock()
	return a.Run(ctx)
}

// Close releases connections opened by the job.
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
