package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/quanta-kt/CosmicDiversBot/internal/infrastructure/database/entities"
)

// AutoMigrate applies schema changes for persisted guild settings.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&entities.GuildPrefix{},
	); err != nil {
		return err
	}

	log.Info().Msg("database schema up to date")
	return nil
}
