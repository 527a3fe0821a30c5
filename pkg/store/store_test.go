package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"knockknock/pkg/domain"
)

func newRedisTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s, err := NewRedisStore(client, "phrases")
	if err != nil {
		t.Fatalf("new redis store: %v", err)
	}
	return s, mr
}

func testStores(t *testing.T) map[string]PhraseStore {
	redisStore, _ := newRedisTestStore(t)
	return map[string]PhraseStore{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}
}

func samplePhrase(id string) domain.Phrase {
	return domain.Phrase{
		ID:            id,
		Language:      domain.LanguageJapanese,
		Expression:    domain.Expression{JP: "こんにちは", KR: "안녕하세요"},
		Pronunciation: "곤니치와",
		CreatedAt:     1718000000,
	}
}

func TestPhraseStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			want := samplePhrase("p-1")
			if err := s.PutPhrase(ctx, want); err != nil {
				t.Fatalf("put: %v", err)
			}
			got, err := s.GetPhrase(ctx, want.Key())
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got != want {
				t.Fatalf("got %+v, want %+v", got, want)
			}
		})
	}
}

func TestPhraseStoreScan(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := s.ScanPhrases(ctx)
			if err != nil {
				t.Fatalf("scan empty: %v", err)
			}
			if len(empty) != 0 {
				t.Fatalf("expected empty scan, got %d", len(empty))
			}
			for _, id := range []string{"a", "b", "c"} {
				if err := s.PutPhrase(ctx, samplePhrase(id)); err != nil {
					t.Fatalf("put %s: %v", id, err)
				}
			}
			all, err := s.ScanPhrases(ctx)
			if err != nil {
				t.Fatalf("scan: %v", err)
			}
			ids := make([]string, 0, len(all))
			for _, p := range all {
				ids = append(ids, p.ID)
			}
			sort.Strings(ids)
			if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
				t.Fatalf("unexpected ids %v", ids)
			}
		})
	}
}

func TestPhraseStoreIncrement(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			p := samplePhrase("p-inc")
			if err := s.PutPhrase(ctx, p); err != nil {
				t.Fatalf("put: %v", err)
			}
			for want := int64(1); want <= 3; want++ {
				got, err := s.IncrementCount(ctx, p.Key())
				if err != nil {
					t.Fatalf("increment: %v", err)
				}
				if got != want {
					t.Fatalf("count = %d, want %d", got, want)
				}
			}
			stored, err := s.GetPhrase(ctx, p.Key())
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if stored.Count != 3 {
				t.Fatalf("stored count = %d", stored.Count)
			}
		})
	}
}

func TestPhraseStoreIncrementMissing(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			key := domain.Key{ID: "missing", Language: domain.LanguageJapanese}
			if _, err := s.IncrementCount(ctx, key); !errors.Is(err, ErrPhraseNotFound) {
				t.Fatalf("expected ErrPhraseNotFound, got %v", err)
			}
			if _, err := s.GetPhrase(ctx, key); !errors.Is(err, ErrPhraseNotFound) {
				t.Fatalf("increment must not create the record, got %v", err)
			}
		})
	}
}

func TestPhraseStoreConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			p := samplePhrase("p-race")
			if err := s.PutPhrase(ctx, p); err != nil {
				t.Fatalf("put: %v", err)
			}
			const workers = 50
			var wg sync.WaitGroup
			errs := make(chan error, workers)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := s.IncrementCount(ctx, p.Key()); err != nil {
						errs <- err
					}
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Fatalf("increment: %v", err)
			}
			got, err := s.GetPhrase(ctx, p.Key())
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Count != workers {
				t.Fatalf("count = %d, want %d", got.Count, workers)
			}
		})
	}
}

func TestRedisStoreKeyLayout(t *testing.T) {
	s, mr := newRedisTestStore(t)
	if err := s.PutPhrase(context.Background(), samplePhrase("abc")); err != nil {
		t.Fatalf("put: %v", err)
	}
	key := "phrases:phrase:jp:abc"
	if !mr.Exists(key) {
		t.Fatalf("expected hash at %s, keys=%v", key, mr.Keys())
	}
	if got := mr.HGet(key, "count"); got != "0" {
		t.Fatalf("count field = %q", got)
	}
	if got := mr.HGet(key, "jp"); got != "こんにちは" {
		t.Fatalf("jp field = %q", got)
	}
}

func TestRedisStoreScanIgnoresOtherTables(t *testing.T) {
	s, mr := newRedisTestStore(t)
	mr.HSet("other:phrase:jp:x", "id", "x")
	mr.Set("phrasesX", "noise")
	if err := s.PutPhrase(context.Background(), samplePhrase("mine")); err != nil {
		t.Fatalf("put: %v", err)
	}
	all, err := s.ScanPhrases(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(all) != 1 || all[0].ID != "mine" {
		t.Fatalf("unexpected scan result %+v", all)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	s, closeFn, err := Open(Options{Driver: "dynamo"})
	if err == nil || s != nil {
		t.Fatalf("expected error for unknown driver")
	}
	if closeFn == nil || closeFn() != nil {
		t.Fatalf("close func must be a usable no-op")
	}
}

func TestOpenMemory(t *testing.T) {
	s, closeFn, err := Open(Options{Driver: "memory"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeFn()
	if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", s)
	}
}

func TestPhraseModelMapping(t *testing.T) {
	p := samplePhrase("m-1")
	p.Count = 7
	m := phraseToModel(p)
	if m.ExpressionJP != p.Expression.JP || m.DeliveryCount != 7 {
		t.Fatalf("unexpected model %+v", m)
	}
	if back := phraseFromModel(m); back != p {
		t.Fatalf("mapping lost data: %+v", back)
	}
}

func TestTableIdent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "knock-knock", want: "knock_knock"},
		{in: " Phrases ", want: "phrases"},
		{in: "2024 phrases", want: "t2024_phrases"},
		{in: "public.phrases", want: "public_phrases"},
		{in: "", want: "phrase_models"},
	}
	for _, tc := range tests {
		if got := TableIdent(tc.in); got != tc.want {
			t.Fatalf("TableIdent(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
