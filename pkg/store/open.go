package store

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Driver names accepted by Open.
const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Options selects and configures a PhraseStore backend.
type Options struct {
	Driver        string
	Table         string
	RedisAddr     string
	RedisPassword string
	DatabaseURL   string
}

// Open builds the configured store. The returned close func releases the
// backend's connections and is never nil.
func Open(opts Options) (PhraseStore, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
		})
		s, err := NewRedisStore(client, opts.Table)
		if err != nil {
			_ = client.Close()
			return nil, noopClose, err
		}
		return s, client.Close, nil
	case DriverPostgres:
		s, err := NewGormStore(opts.DatabaseURL, opts.Table)
		if err != nil {
			return nil, noopClose, err
		}
		return s, s.Close, nil
	case DriverMemory:
		return NewMemoryStore(), noopClose, nil
	default:
		return nil, noopClose, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

func noopClose() error { return nil }
