// Package commands defines the bot's command table.
package commands

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/command"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/escalation"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/pagination"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/periodic"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/wiki"
)

// Category names shown in help output.
const (
	CategoryModeration = "Moderation"
	CategoryConfig     = "Config"
	CategoryInfo       = "Info"
	CategoryUtil       = "Util"
	CategoryElements   = "Elements"
)

// PrefixStore updates the prefix of a guild.
type PrefixStore interface {
	SetPrefix(ctx context.Context, guildID, prefix string) error
}

// FailureHandler reports failures that happen after a handler returned.
type FailureHandler interface {
	Handle(ctx context.Context, ic escalation.InvocationContext, err error)
}

// Settings carries the presentation settings of the handlers.
type Settings struct {
	InfoColour        int
	ErrorColour       int
	ThumbnailURL      string
	GithubURL         string
	CreatorName       string
	PaginationTimeout time.Duration
}

// Deps are the collaborators of the command handlers.
type Deps struct {
	Client     chat.Client
	Moderation chat.Moderation
	Prefixes   PrefixStore
	Wiki       wiki.API
	Elements   *periodic.Table
	Sessions   *pagination.Registry
	Failures   FailureHandler
	Settings   Settings
	Log        zerolog.Logger
}

// Register adds every command to reg.
func Register(reg *command.Registry, deps Deps) error {
	reg.DescribeCategory(CategoryModeration, "Commands for server moderation")
	reg.DescribeCategory(CategoryConfig, "Bot configuration/settings")
	reg.DescribeCategory(CategoryUtil, "Utility commands")
	reg.DescribeCategory(CategoryElements, "Periodic table lookups")

	mod := &moderationCommands{deps: deps, now: time.Now}
	util := &utilCommands{deps: deps}

	cmds := []*command.Command{newHelpCommand(reg, deps)}
	cmds = append(cmds, mod.commands()...)
	cmds = append(cmds,
		newPrefixCommand(deps),
		newSourceCommand(deps),
		util.wikiCommand(),
	)
	if deps.Elements != nil {
		cmds = append(cmds, newElementCommand(deps))
	}
	return reg.Register(cmds...)
}

func send(ctx context.Context, client chat.Client, inv *command.Invocation, msg chat.Message) error {
	_, err := client.SendMessage(ctx, inv.Message.ChannelID, msg)
	return err
}

func sendEmbed(ctx context.Context, client chat.Client, inv *command.Invocation, embed chat.Embed) error {
	return send(ctx, client, inv, chat.Message{Embed: &embed})
}
