package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"
)

// PermissionSource reports channel permissions of a user.
type PermissionSource interface {
	BotUserID() string
	Permissions(ctx context.Context, channelID, userID string) (chat.Permission, error)
}

// GuildOnly rejects invocations from direct messages.
func GuildOnly() Check {
	return func(ctx context.Context, inv *Invocation) error {
		if inv.Message.GuildID == "" {
			return CheckFailed(ctx, "This command cannot be used in private messages.")
		}
		return nil
	}
}

// HasPermissions requires the invoking user to hold every permission in perms.
func HasPermissions(source PermissionSource, perms ...chat.Permission) Check {
	return func(ctx context.Context, inv *Invocation) error {
		missing, err := missingPermissions(ctx, source, inv.Message.ChannelID, inv.Message.AuthorID, perms)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return CheckFailed(ctx, fmt.Sprintf("You are missing %s permission(s) to run this command.", missing))
		}
		return nil
	}
}

// BotHasPermissions requires the bot itself to hold every permission in perms.
func BotHasPermissions(source PermissionSource, perms ...chat.Permission) Check {
	return func(ctx context.Context, inv *Invocation) error {
		missing, err := missingPermissions(ctx, source, inv.Message.ChannelID, source.BotUserID(), perms)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return CheckFailed(ctx, fmt.Sprintf("Bot requires %s permission(s) to run this command.", missing))
		}
		return nil
	}
}

func missingPermissions(ctx context.Context, source PermissionSource, channelID, userID string, perms []chat.Permission) (string, error) {
	granted, err := source.Permissions(ctx, channelID, userID)
	if err != nil {
		return "", fmt.Errorf("resolve permissions of %s: %w", userID, err)
	}

	var missing []string
	for _, p := range perms {
		if !granted.Has(p) {
			missing = append(missing, p.String())
		}
	}
	return strings.Join(missing, ", "), nil
}
