package store

import (
	"context"
	"sync"

	"knockknock/pkg/domain"
)

// MemoryStore keeps phrases in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	phrases map[domain.Key]domain.Phrase
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{phrases: make(map[domain.Key]domain.Phrase)}
}

func (s *MemoryStore) PutPhrase(_ context.Context, p domain.Phrase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phrases[p.Key()] = p
	return nil
}

func (s *MemoryStore) ScanPhrases(_ context.Context) ([]domain.Phrase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Phrase, 0, len(s.phrases))
	for _, p := range s.phrases {
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryStore) IncrementCount(_ context.Context, key domain.Key) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.phrases[key]
	if !ok {
		return 0, ErrPhraseNotFound
	}
	p.Count++
	s.phrases[key] = p
	return p.Count, nil
}

func (s *MemoryStore) GetPhrase(_ context.Context, key domain.Key) (domain.Phrase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.phrases[key]
	if !ok {
		return domain.Phrase{}, ErrPhraseNotFound
	}
	return p, nil
}
