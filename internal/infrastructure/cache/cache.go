// Package cache provides the prefix cache backends.
package cache

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/prefix"
	"github.com/quanta-kt/CosmicDiversBot/internal/infrastructure/metrics"
)

// Backend types accepted by New.
const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
	TypeNoop   = "noop"
)

// CacheConfig selects and sizes the backend.
type CacheConfig struct {
	Type      string
	RedisURL  string
	MaxSize   int
	Namespace string
}

// PrefixCache is a prefix.Cache that owns resources.
type PrefixCache interface {
	prefix.Cache
	Close() error
}

// New builds the configured backend, wrapped with hit/miss accounting.
func New(cfg CacheConfig, log zerolog.Logger) (PrefixCache, error) {
	var (
		backend PrefixCache
		err     error
	)

	switch cfg.Type {
	case TypeMemory, "":
		backend, err = NewMemoryCache(cfg.MaxSize)
	case TypeRedis:
		backend, err = NewRedisCache(cfg.RedisURL, cfg.Namespace, log)
	case TypeNoop:
		backend = NoopCache{}
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("cache_type", cfg.Type).Msg("prefix cache ready")
	return observed{PrefixCache: backend}, nil
}

type observed struct {
	PrefixCache
}

func (o observed) Get(ctx context.Context, guildID string) (string, bool) {
	value, ok := o.PrefixCache.Get(ctx, guildID)
	metrics.RecordPrefixLookup(ok)
	return value, ok
}
