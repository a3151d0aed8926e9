package entities

import (
	"time"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/prefix"
)

// GuildPrefix is a per-guild command prefix override.
type GuildPrefix struct {
	GuildID   string `gorm:"primaryKey;size:32"`
	Prefix    string `gorm:"size:32;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EtoD converts the row to its domain record.
func (e GuildPrefix) EtoD() prefix.Record {
	return prefix.Record{GuildID: e.GuildID, Prefix: e.Prefix}
}
