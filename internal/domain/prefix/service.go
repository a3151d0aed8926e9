// Package prefix keeps the per-guild command prefix: persisted in the
// repository, served from a cache warmed at startup.
package prefix

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quanta-kt/CosmicDiversBot/internal/utils/platformerrors"
)

// MaxLength bounds a prefix override, in characters.
const MaxLength = 6

// Record is one persisted override.
type Record struct {
	GuildID string
	Prefix  string
}

// Repository is the authoritative store.
type Repository interface {
	Upsert(ctx context.Context, guildID, prefix string) error
	Find(ctx context.Context, guildID string) (string, bool, error)
	FindAll(ctx context.Context) ([]Record, error)
}

// Cache is the read path in front of the repository. An empty cached value
// records that the guild uses the default.
type Cache interface {
	Get(ctx context.Context, guildID string) (string, bool)
	Set(ctx context.Context, guildID, prefix string) error
	Delete(ctx context.Context, guildID string) error
}

// Service resolves and updates guild prefixes. SetPrefix is the only writer.
type Service struct {
	repo          Repository
	cache         Cache
	defaultPrefix string
	log           zerolog.Logger
}

// NewService creates the service. Warm must run before the first Resolve.
func NewService(repo Repository, cache Cache, defaultPrefix string, log zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		cache:         cache,
		defaultPrefix: defaultPrefix,
		log:           log.With().Str("component", "prefix-service").Logger(),
	}
}

// Default returns the process-wide fallback prefix.
func (s *Service) Default() string {
	return s.defaultPrefix
}

// Warm loads every persisted override into the cache.
func (s *Service) Warm(ctx context.Context) error {
	records, err := s.repo.FindAll(ctx)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "load guild prefixes")
	}
	for _, r := range records {
		if err := s.cache.Set(ctx, r.GuildID, r.Prefix); err != nil {
			return fmt.Errorf("cache prefix of guild %s: %w", r.GuildID, err)
		}
	}
	s.log.Info().Int("guilds", len(records)).Msg("prefix cache warmed")
	return nil
}

// Resolve returns the prefix of guildID, or the default. A cache miss falls
// back to the repository once and remembers the answer.
func (s *Service) Resolve(ctx context.Context, guildID string) string {
	if guildID == "" {
		return s.defaultPrefix
	}
	if p, ok := s.cache.Get(ctx, guildID); ok {
		return s.orDefault(p)
	}

	p, found, err := s.repo.Find(ctx, guildID)
	if err != nil {
		s.log.Warn().Err(err).Str("guild_id", guildID).Msg("prefix lookup failed, using default")
		return s.defaultPrefix
	}
	if !found {
		p = ""
	}
	if err := s.cache.Set(ctx, guildID, p); err != nil {
		s.log.Warn().Err(err).Str("guild_id", guildID).Msg("cache prefix")
	}
	return s.orDefault(p)
}

// SetPrefix persists a new prefix, then updates the cache. When the write
// fails the cache is left as it was. When only the cache update fails the
// entry is invalidated so the next Resolve reads the stored value.
func (s *Service) SetPrefix(ctx context.Context, guildID, prefix string) error {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInvalidInput,
			"prefix is a required argument that is missing.", nil)
	}
	if len([]rune(prefix)) > MaxLength {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInvalidInput,
			fmt.Sprintf("Prefix length can't exceed %d characters.", MaxLength), nil)
	}

	if err := s.repo.Upsert(ctx, guildID, prefix); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "persist guild prefix")
	}

	if err := s.cache.Set(ctx, guildID, prefix); err != nil {
		s.log.Warn().Err(err).Str("guild_id", guildID).Msg("prefix stored but cache update failed, invalidating")
		if delErr := s.cache.Delete(ctx, guildID); delErr != nil {
			s.log.Error().Err(delErr).Str("guild_id", guildID).Msg("invalidate cached prefix")
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
				fmt.Sprintf("prefix of guild %s stored but the cache still holds the old one", guildID), errors.Join(err, delErr))
		}
	}
	return nil
}

func (s *Service) orDefault(p string) string {
	if p == "" {
		return s.defaultPrefix
	}
	return p
}
