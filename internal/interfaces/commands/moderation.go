package commands

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/command"
)

const (
	purgeDefault   = 100
	purgeMax       = 1000
	purgeChunk     = 100
	purgeWindow    = 14 * 24 * time.Hour
	purgeNoticeTTL = 5 * time.Second
)

var mentionPattern = regexp.MustCompile(`^<@!?(\d+)>$|^(\d{15,21})$`)

type moderationCommands struct {
	deps Deps
	now  func() time.Time
}

type messageFilter func(chat.HistoryMessage) bool

func (m *moderationCommands) commands() []*command.Command {
	kickChecks := m.checks(chat.PermissionKickMembers)
	banChecks := m.checks(chat.PermissionBanMembers)
	purgeChecks := m.checks(chat.PermissionManageMessages)

	return []*command.Command{
		{
			Name:     "kick",
			Category: CategoryModeration,
			Summary:  "Kick a member from the server",
			Usage:    "<member> [reason]",
			Checks:   kickChecks,
			Handler:  m.kick,
		},
		{
			Name:     "ban",
			Category: CategoryModeration,
			Summary:  "Ban a member form the server.",
			Help: "Ban a member form the server.\n\n" +
				"Note: This command deletes one day worth of the target's messages. Use `ban keep` keep the messages",
			Usage:   "<member> [reason]",
			Checks:  banChecks,
			Handler: m.banHandler(1),
			Subcommands: []*command.Command{
				{
					Name:    "keep",
					Aliases: []string{"save"},
					Summary: "Bans a member from the server, does not delete their messages",
					Usage:   "<member> [reason]",
					Handler: m.banHandler(0),
				},
			},
		},
		{
			Name:     "purge",
			Category: CategoryModeration,
			Summary:  "Deletes messages, optionally supports filters for which messages to delete.",
			Help: "Deletes messages, optionally supports filters for which messages to delete.\n" +
				"See `help purge` for more info on filter sub-commands.",
			Usage:  "[search=100]",
			Checks: purgeChecks,
			Handler: func(ctx context.Context, inv *command.Invocation) error {
				return m.purge(ctx, inv, inv.Args.OptionalInt(purgeDefault), func(chat.HistoryMessage) bool { return true })
			},
			Subcommands: []*command.Command{
				{
					Name:    "user",
					Summary: "Purge messages only from a specific user",
					Usage:   "[search=100] <user>",
					Handler: m.purgeUser,
				},
				{
					Name:    "contains",
					Summary: "Purge messages containing a sub-string",
					Usage:   "[search=100] <contains>",
					Handler: m.purgeContains,
				},
				{
					Name:    "bot",
					Summary: "Purge messages sent by bots, optionally with a prefix",
					Usage:   "[search=100] [prefix]",
					Handler: m.purgeBot,
				},
				{
					Name:    "human",
					Summary: "Purge non-bot messages",
					Usage:   "[search=100]",
					Handler: m.simplePurge(func(msg chat.HistoryMessage) bool { return !msg.AuthorBot }),
				},
				{
					Name:    "files",
					Summary: "Purges all messages with file attachments",
					Usage:   "[search=100]",
					Handler: m.simplePurge(func(msg chat.HistoryMessage) bool { return msg.HasAttachments }),
				},
				{
					Name:    "embeds",
					Summary: "Purge all messages with embeds",
					Usage:   "[search=100]",
					Handler: m.simplePurge(func(msg chat.HistoryMessage) bool { return msg.HasEmbeds }),
				},
			},
		},
	}
}

func (m *moderationCommands) checks(perm chat.Permission) []command.Check {
	return []command.Check{
		command.GuildOnly(),
		command.HasPermissions(m.deps.Moderation, perm),
		command.BotHasPermissions(m.deps.Moderation, perm),
	}
}

func (m *moderationCommands) kick(ctx context.Context, inv *command.Invocation) error {
	target, guild, reason, err := m.prepareAction(ctx, inv, "kick")
	if err != nil {
		return err
	}

	m.notify(ctx, target, fmt.Sprintf("You were kicked from %s\n**Reason:** %s", guild.Name, reason))

	if err := m.deps.Moderation.Kick(ctx, guild.ID, target.ID, reason); err != nil {
		return err
	}
	return sendEmbed(ctx, m.deps.Client, inv, chat.Embed{
		Description: fmt.Sprintf("%s was kicked by %s\n**Reason:** %s", target.Name, inv.Message.AuthorName, reason),
		Colour:      m.deps.Settings.InfoColour,
	})
}

func (m *moderationCommands) banHandler(deleteDays int) command.Handler {
	return func(ctx context.Context, inv *command.Invocation) error {
		target, guild, reason, err := m.prepareAction(ctx, inv, "ban")
		if err != nil {
			return err
		}

		m.notify(ctx, target, fmt.Sprintf("You were banned from %s\n**Reason:** %s", guild.Name, reason))

		if err := m.deps.Moderation.Ban(ctx, guild.ID, target.ID, reason, deleteDays); err != nil {
			return err
		}
		return sendEmbed(ctx, m.deps.Client, inv, chat.Embed{
			Description: fmt.Sprintf("%s was banned by %s\n**Reason:** %s", target.Name, inv.Message.AuthorName, reason),
			Colour:      m.deps.Settings.InfoColour,
		})
	}
}

// prepareAction resolves the target member and enforces the role hierarchy.
// The guild owner may act on anyone.
func (m *moderationCommands) prepareAction(ctx context.Context, inv *command.Invocation, verb string) (chat.Member, chat.Guild, string, error) {
	target, err := m.member(ctx, inv, "member")
	if err != nil {
		return chat.Member{}, chat.Guild{}, "", err
	}
	reason := inv.Args.Rest()
	if reason == "" {
		reason = "None"
	}

	guild, err := m.deps.Moderation.Guild(ctx, inv.Message.GuildID)
	if err != nil {
		return chat.Member{}, chat.Guild{}, "", err
	}
	if inv.Message.AuthorID != guild.OwnerID {
		author, err := m.deps.Moderation.Member(ctx, guild.ID, inv.Message.AuthorID)
		if err != nil {
			return chat.Member{}, chat.Guild{}, "", err
		}
		if author.TopRole <= target.TopRole {
			return chat.Member{}, chat.Guild{}, "", command.CheckFailed(ctx,
				fmt.Sprintf("You are not high enough in role hierarchy to %s that user", verb))
		}
	}
	return target, guild, reason, nil
}

// notify sends a direct message to the target; members may have them disabled.
func (m *moderationCommands) notify(ctx context.Context, target chat.Member, text string) {
	if err := m.deps.Moderation.SendDirect(ctx, target.ID, chat.Message{Content: text}); err != nil {
		m.deps.Log.Debug().Err(err).Str("user_id", target.ID).Msg("direct message to moderation target failed")
	}
}

func (m *moderationCommands) member(ctx context.Context, inv *command.Invocation, name string) (chat.Member, error) {
	arg, err := inv.Args.RequireNext(ctx, name)
	if err != nil {
		return chat.Member{}, err
	}
	id, ok := parseUserID(arg)
	if !ok {
		return chat.Member{}, command.InvalidInput(ctx, fmt.Sprintf("Member \"%s\" not found.", arg))
	}
	member, err := m.deps.Moderation.Member(ctx, inv.Message.GuildID, id)
	if err != nil {
		m.deps.Log.Debug().Err(err).Str("user_id", id).Msg("member lookup failed")
		return chat.Member{}, command.InvalidInput(ctx, fmt.Sprintf("Member \"%s\" not found.", arg))
	}
	return member, nil
}

func (m *moderationCommands) purgeUser(ctx context.Context, inv *command.Invocation) error {
	search := inv.Args.OptionalInt(purgeDefault)
	target, err := m.member(ctx, inv, "user")
	if err != nil {
		return err
	}
	return m.purge(ctx, inv, search, func(msg chat.HistoryMessage) bool { return msg.AuthorID == target.ID })
}

func (m *moderationCommands) purgeContains(ctx context.Context, inv *command.Invocation) error {
	search := inv.Args.OptionalInt(purgeDefault)
	needle, err := inv.Args.RequireRest(ctx, "contains")
	if err != nil {
		return err
	}
	return m.purge(ctx, inv, search, func(msg chat.HistoryMessage) bool { return strings.Contains(msg.Content, needle) })
}

func (m *moderationCommands) purgeBot(ctx context.Context, inv *command.Invocation) error {
	search := inv.Args.OptionalInt(purgeDefault)
	prefix := inv.Args.Rest()
	return m.purge(ctx, inv, search, func(msg chat.HistoryMessage) bool {
		return msg.AuthorBot || (prefix != "" && strings.HasPrefix(msg.Content, prefix))
	})
}

func (m *moderationCommands) simplePurge(filter messageFilter) command.Handler {
	return func(ctx context.Context, inv *command.Invocation) error {
		return m.purge(ctx, inv, inv.Args.OptionalInt(purgeDefault), filter)
	}
}

// purge scans up to search messages older than the invocation, newest first,
// and deletes the ones matching filter in chunks. Messages past the bulk
// delete window end the scan.
func (m *moderationCommands) purge(ctx context.Context, inv *command.Invocation, search int, filter messageFilter) error {
	if search > purgeMax {
		return command.InvalidInput(ctx, fmt.Sprintf("Can't purge more than %d messages at a time.", purgeMax))
	}

	channelID := inv.Message.ChannelID
	cutoff := m.now().Add(-purgeWindow)
	before := inv.Message.ID
	deleted := 0

	for search > 0 {
		limit := min(purgeChunk, search)
		history, err := m.deps.Moderation.History(ctx, channelID, before, limit)
		if err != nil {
			return err
		}

		var ids []string
		expired := false
		for _, msg := range history {
			if msg.CreatedAt.Before(cutoff) {
				expired = true
				break
			}
			if filter(msg) {
				ids = append(ids, msg.ID)
			}
		}
		if err := m.deps.Moderation.DeleteMessages(ctx, channelID, ids); err != nil {
			return err
		}
		deleted += len(ids)

		search -= limit
		if expired || len(history) < limit {
			break
		}
		before = history[len(history)-1].ID
	}

	if err := m.deps.Moderation.DeleteMessages(ctx, channelID, []string{inv.Message.ID}); err != nil {
		m.deps.Log.Debug().Err(err).Str("message_id", inv.Message.ID).Msg("delete purge invocation failed")
	}

	notice := chat.Embed{
		Description: fmt.Sprintf("Sucessfully purged %d messages", deleted),
		Colour:      m.deps.Settings.InfoColour,
	}
	if deleted == 0 {
		notice = chat.Embed{
			Description: "No messages were deleted, make sure messages are not older than 14 days",
			Colour:      m.deps.Settings.ErrorColour,
		}
	}
	return send(ctx, m.deps.Client, inv, chat.Message{Embed: &notice, DeleteAfter: purgeNoticeTTL})
}

func parseUserID(arg string) (string, bool) {
	match := mentionPattern.FindStringSubmatch(strings.TrimSpace(arg))
	if match == nil {
		return "", false
	}
	if match[1] != "" {
		return match[1], true
	}
	return match[2], true
}
