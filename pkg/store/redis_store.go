package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"knockknock/pkg/domain"
)

const scanBatch = 200

// incrementScript bumps the count field only when the hash already exists.
// Returns -1 for a missing key.
var incrementScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
return redis.call("HINCRBY", KEYS[1], "count", 1)
`)

// RedisStore stores each phrase as a hash at <table>:phrase:<language>:<id>.
type RedisStore struct {
	client redis.UniversalClient
	table  string
}

// NewRedisStore wraps an existing client. table namespaces every key.
func NewRedisStore(client redis.UniversalClient, table string) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, errors.New("table name is required")
	}
	return &RedisStore{client: client, table: table}, nil
}

func (s *RedisStore) key(k domain.Key) string {
	return fmt.Sprintf("%s:phrase:%s:%s", s.table, k.Language, k.ID)
}

func (s *RedisStore) PutPhrase(ctx context.Context, p domain.Phrase) error {
	if err := s.client.HSet(ctx, s.key(p.Key()), phraseFields(p)).Err(); err != nil {
		return fmt.Errorf("put phrase %s: %w", p.ID, err)
	}
	return nil
}

func (s *RedisStore) ScanPhrases(ctx context.Context) ([]domain.Phrase, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.table+":phrase:*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan phrases: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.HGetAll(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("load phrases: %w", err)
	}

	out := make([]domain.Phrase, 0, len(keys))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// removed between SCAN and HGETALL
			continue
		}
		p, err := phraseFromFields(fields)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *RedisStore) IncrementCount(ctx context.Context, key domain.Key) (int64, error) {
	n, err := incrementScript.Run(ctx, s.client, []string{s.key(key)}).Int64()
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", key.ID, err)
	}
	if n < 0 {
		return 0, ErrPhraseNotFound
	}
	return n, nil
}

func (s *RedisStore) GetPhrase(ctx context.Context, key domain.Key) (domain.Phrase, error) {
	fields, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		return domain.Phrase{}, fmt.Errorf("get phrase %s: %w", key.ID, err)
	}
	if len(fields) == 0 {
		return domain.Phrase{}, ErrPhraseNotFound
	}
	return phraseFromFields(fields)
}

func phraseFields(p domain.Phrase) map[string]any {
	return map[string]any{
		"id":            p.ID,
		"language":      p.Language,
		"jp":            p.Expression.JP,
		"kr":            p.Expression.KR,
		"pronunciation": p.Pronunciation,
		"count":         p.Count,
		"created_at":    p.CreatedAt,
	}
}

func phraseFromFields(fields map[string]string) (domain.Phrase, error) {
	count, err := strconv.ParseInt(fields["count"], 10, 64)
	if err != nil {
		return domain.Phrase{}, fmt.Errorf("count: %w", err)
	}
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return domain.Phrase{}, fmt.Errorf("created_at: %w", err)
	}
	return domain.Phrase{
		ID:       fields["id"],
		Language: fields["language"],
		Expression: domain.Expression{
			JP: fields["jp"],
			KR: fields["kr"],
		},
		Pronunciation: fields["pronunciation"],
		Count:         count,
		CreatedAt:     createdAt,
	}, nil
}
