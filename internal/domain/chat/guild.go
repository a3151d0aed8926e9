package chat

import (
	"context"
	"time"
)

// Permission is a guild permission bit, matching the platform's bit layout.
type Permission int64

const (
	PermissionKickMembers    Permission = 1 << 1
	PermissionBanMembers     Permission = 1 << 2
	PermissionAdministrator  Permission = 1 << 3
	PermissionManageGuild    Permission = 1 << 5
	PermissionManageMessages Permission = 1 << 13
)

// Has reports whether the set grants p. Administrator grants everything.
func (p Permission) Has(want Permission) bool {
	if p&PermissionAdministrator != 0 {
		return true
	}
	return p&want == want
}

func (p Permission) String() string {
	switch p {
	case PermissionKickMembers:
		return "Kick Members"
	case PermissionBanMembers:
		return "Ban Members"
	case PermissionAdministrator:
		return "Administrator"
	case PermissionManageGuild:
		return "Manage Server"
	case PermissionManageMessages:
		return "Manage Messages"
	default:
		return "Unknown"
	}
}

// Guild is the subset of guild metadata moderation needs.
type Guild struct {
	ID      string
	Name    string
	OwnerID string
}

// Member is a guild member.
type Member struct {
	ID      string
	Name    string
	Bot     bool
	TopRole int
}

// HistoryMessage is a message read back from channel history.
type HistoryMessage struct {
	ID             string
	AuthorID       string
	AuthorBot      bool
	Content        string
	HasAttachments bool
	HasEmbeds      bool
	CreatedAt      time.Time
}

// Moderation is the guild administration surface used by moderation commands.
type Moderation interface {
	BotUserID() string
	Guild(ctx context.Context, guildID string) (Guild, error)
	Member(ctx context.Context, guildID, userID string) (Member, error)
	Permissions(ctx context.Context, channelID, userID string) (Permission, error)
	SendDirect(ctx context.Context, userID string, msg Message) error
	Kick(ctx context.Context, guildID, userID, reason string) error
	Ban(ctx context.Context, guildID, userID, reason string, deleteMessageDays int) error
	// History returns up to limit messages older than before, newest first.
	History(ctx context.Context, channelID, before string, limit int) ([]HistoryMessage, error)
	DeleteMessages(ctx context.Context, channelID string, ids []string) error
}
