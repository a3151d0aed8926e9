package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyVersion = "v1"

// RedisCache keeps prefixes in one Redis hash per storage namespace, so
// several bot processes can share it.
type RedisCache struct {
	client redis.UniversalClient
	key    string
	log    zerolog.Logger
}

// NewRedisCache connects to redisURL, which may list several comma-separated
// cluster nodes.
func NewRedisCache(redisURL, namespace string, log zerolog.Logger) (*RedisCache, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("Redis URL must be provided")
	}

	opts, err := buildUniversalOptions(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if len(opts.Addrs) > 1 && opts.DB != 0 {
		log.Warn().Msg("Ignoring non-zero DB when using Redis Cluster configuration")
		opts.DB = 0
	}

	client := redis.NewUniversalClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Msg("Successfully connected to Redis cache")
	return &RedisCache{
		client: client,
		key:    hashKey(namespace),
		log:    log.With().Str("component", "prefix-cache").Logger(),
	}, nil
}

func hashKey(namespace string) string {
	if namespace == "" {
		namespace = "default"
	}
	return "cdbot:" + keyVersion + ":" + namespace + ":prefixes"
}

// Get returns the cached prefix of a guild. Redis failures count as a miss.
func (r *RedisCache) Get(ctx context.Context, guildID string) (string, bool) {
	value, err := r.client.HGet(ctx, r.key, guildID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		r.log.Warn().Err(err).Str("guild_id", guildID).Msg("prefix cache read failed")
		return "", false
	}
	return value, true
}

// Set stores the prefix of a guild.
func (r *RedisCache) Set(ctx context.Context, guildID, value string) error {
	if err := r.client.HSet(ctx, r.key, guildID, value).Err(); err != nil {
		return fmt.Errorf("failed to set prefix in cache: %w", err)
	}
	return nil
}

// Delete drops the cached prefix of a guild.
func (r *RedisCache) Delete(ctx context.Context, guildID string) error {
	if err := r.client.HDel(ctx, r.key, guildID).Err(); err != nil {
		return fmt.Errorf("failed to delete prefix from cache: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

func buildUniversalOptions(raw string) (*redis.UniversalOptions, error) {
	opts := &redis.UniversalOptions{}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if !strings.Contains(part, "://") {
			opts.Addrs = append(opts.Addrs, part)
			continue
		}

		parsed, err := redis.ParseURL(part)
		if err != nil {
			return nil, err
		}
		opts.Addrs = append(opts.Addrs, parsed.Addr)
		if opts.Username == "" {
			opts.Username = parsed.Username
		}
		if opts.Password == "" {
			opts.Password = parsed.Password
		}
		if opts.DB == 0 {
			opts.DB = parsed.DB
		}
		if opts.TLSConfig == nil {
			opts.TLSConfig = parsed.TLSConfig
		}
		if opts.DialTimeout == 0 {
			opts.DialTimeout = parsed.DialTimeout
		}
	}

	if len(opts.Addrs) == 0 {
		return nil, fmt.Errorf("no Redis addresses provided")
	}

	return opts, nil
}
