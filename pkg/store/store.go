package store

import (
	"context"
	"errors"

	"knockknock/pkg/domain"
)

// ErrPhraseNotFound is returned when a key does not address a stored phrase.
var ErrPhraseNotFound = errors.New("phrase not found")

// PhraseStore persists phrase records.
type PhraseStore interface {
	// PutPhrase writes a new record. Existing keys are overwritten.
	PutPhrase(ctx context.Context, p domain.Phrase) error
	// ScanPhrases returns every record in unspecified order.
	ScanPhrases(ctx context.Context) ([]domain.Phrase, error)
	// IncrementCount atomically adds one to the record's count and returns
	// the new value. Missing records yield ErrPhraseNotFound and are never
	// created.
	IncrementCount(ctx context.Context, key domain.Key) (int64, error)
	GetPhrase(ctx context.Context, key domain.Key) (domain.Phrase, error)
}
