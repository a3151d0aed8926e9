package commands

import (
	"context"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/command"
)

func newPrefixCommand(deps Deps) *command.Command {
	return &command.Command{
		Name:     "prefix",
		Category: CategoryConfig,
		Summary:  "Update bot's prefix for this guild",
		Usage:    "<prefix>",
		Checks: []command.Check{
			command.GuildOnly(),
			command.HasPermissions(deps.Moderation, chat.PermissionManageGuild),
		},
		Handler: func(ctx context.Context, inv *command.Invocation) error {
			value, err := inv.Args.RequireRest(ctx, "prefix")
			if err != nil {
				return err
			}
			if err := deps.Prefixes.SetPrefix(ctx, inv.Message.GuildID, value); err != nil {
				return err
			}
			return sendEmbed(ctx, deps.Client, inv, chat.Embed{
				Description: "Prefix is now set to: " + value,
				Colour:      deps.Settings.InfoColour,
			})
		},
	}
}
