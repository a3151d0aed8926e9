package prefixrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/prefix"
	"github.com/quanta-kt/CosmicDiversBot/internal/infrastructure/database/entities"
	"github.com/quanta-kt/CosmicDiversBot/internal/utils/platformerrors"
)

// PrefixGormRepository implements prefix.Repository using GORM.
type PrefixGormRepository struct {
	db *gorm.DB
}

var _ prefix.Repository = (*PrefixGormRepository)(nil)

// NewPrefixGormRepository constructs a new repository.
func NewPrefixGormRepository(db *gorm.DB) *PrefixGormRepository {
	return &PrefixGormRepository{db: db}
}

// Upsert inserts or replaces the override of a guild.
func (repo *PrefixGormRepository) Upsert(ctx context.Context, guildID, value string) error {
	entity := &entities.GuildPrefix{GuildID: guildID, Prefix: value}

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "guild_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"prefix":     value,
				"updated_at": time.Now(),
			}),
		}).
		Create(entity).
		Error
	if err != nil {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to upsert guild prefix", err, map[string]any{"guild_id": guildID})
	}
	return nil
}

// Find returns the override of a guild, if one is stored.
func (repo *PrefixGormRepository) Find(ctx context.Context, guildID string) (string, bool, error) {
	var entity entities.GuildPrefix
	err := repo.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		First(&entity).
		Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to find guild prefix", err, map[string]any{"guild_id": guildID})
	}
	return entity.Prefix, true, nil
}

// FindAll returns every stored override.
func (repo *PrefixGormRepository) FindAll(ctx context.Context) ([]prefix.Record, error) {
	var rows []entities.GuildPrefix
	if err := repo.db.WithContext(ctx).Order("guild_id").Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to list guild prefixes", err)
	}

	records := make([]prefix.Record, len(rows))
	for i, row := range rows {
		records[i] = row.EtoD()
	}
	return records, nil
}
