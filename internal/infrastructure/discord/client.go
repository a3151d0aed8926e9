// Package discord adapts the discordgo session to the chat ports.
package discord

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"
	"github.com/quanta-kt/CosmicDiversBot/internal/utils/platformerrors"
)

// Client implements chat.Client and chat.Moderation over one gateway session.
type Client struct {
	session *discordgo.Session
	log     zerolog.Logger
}

var (
	_ chat.Client     = (*Client)(nil)
	_ chat.Moderation = (*Client)(nil)
)

// NewSession creates an unopened session authenticated with a bot token.
func NewSession(token string, httpTimeout time.Duration) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentDirectMessages |
		discordgo.IntentMessageContent
	if httpTimeout > 0 {
		session.Client.Timeout = httpTimeout
	}
	return session, nil
}

// NewClient wraps a session.
func NewClient(session *discordgo.Session, log zerolog.Logger) *Client {
	return &Client{session: session, log: log.With().Str("component", "discord").Logger()}
}

// SendMessage posts msg to a channel.
func (c *Client) SendMessage(ctx context.Context, channelID string, msg chat.Message) (chat.MessageRef, error) {
	sent, err := c.session.ChannelMessageSendComplex(channelID, toMessageSend(msg), discordgo.WithContext(ctx))
	if err != nil {
		return chat.MessageRef{}, gatewayError(ctx, "send message", err, channelID)
	}
	ref := chat.MessageRef{ChannelID: sent.ChannelID, MessageID: sent.ID}
	if msg.DeleteAfter > 0 {
		c.deleteLater(ref, msg.DeleteAfter)
	}
	return ref, nil
}

// EditMessage replaces the content, embed and controls of a sent message.
func (c *Client) EditMessage(ctx context.Context, ref chat.MessageRef, msg chat.Message) error {
	if _, err := c.session.ChannelMessageEditComplex(toMessageEdit(ref, msg), discordgo.WithContext(ctx)); err != nil {
		return gatewayError(ctx, "edit message", err, ref.ChannelID)
	}
	return nil
}

// FetchOperatorWebhook resolves the crash report webhook.
func (c *Client) FetchOperatorWebhook(ctx context.Context, id string) (chat.WebhookTarget, error) {
	hook, err := c.session.Webhook(id, discordgo.WithContext(ctx))
	if err != nil {
		return nil, gatewayError(ctx, "fetch webhook", err, "")
	}
	return &webhookTarget{session: c.session, id: hook.ID, token: hook.Token}, nil
}

// BotUserID returns the identity of the connected bot.
func (c *Client) BotUserID() string {
	if c.session.State == nil || c.session.State.User == nil {
		return ""
	}
	return c.session.State.User.ID
}

// Guild returns guild metadata, from the state cache when possible.
func (c *Client) Guild(ctx context.Context, guildID string) (chat.Guild, error) {
	g, err := c.guild(ctx, guildID)
	if err != nil {
		return chat.Guild{}, err
	}
	return chat.Guild{ID: g.ID, Name: g.Name, OwnerID: g.OwnerID}, nil
}

// Member returns a guild member with the position of their highest role.
func (c *Client) Member(ctx context.Context, guildID, userID string) (chat.Member, error) {
	m, err := c.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return chat.Member{}, gatewayError(ctx, "fetch member", err, guildID)
	}

	roles, err := c.roles(ctx, guildID)
	if err != nil {
		return chat.Member{}, err
	}

	member := chat.Member{ID: userID, TopRole: topRole(m.Roles, roles)}
	if m.User != nil {
		member.Name = m.User.String()
		member.Bot = m.User.Bot
	}
	return member, nil
}

// Permissions returns the effective permissions of a user in a channel.
func (c *Client) Permissions(ctx context.Context, channelID, userID string) (chat.Permission, error) {
	if c.session.StateEnabled {
		if perms, err := c.session.State.UserChannelPermissions(userID, channelID); err == nil {
			return chat.Permission(perms), nil
		}
	}
	perms, err := c.session.UserChannelPermissions(userID, channelID, discordgo.WithContext(ctx))
	if err != nil {
		return 0, gatewayError(ctx, "compute permissions", err, channelID)
	}
	return chat.Permission(perms), nil
}

// SendDirect opens a direct channel with a user and posts msg.
func (c *Client) SendDirect(ctx context.Context, userID string, msg chat.Message) error {
	ch, err := c.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return gatewayError(ctx, "open direct channel", err, "")
	}
	_, err = c.SendMessage(ctx, ch.ID, msg)
	return err
}

// Kick removes a member from a guild.
func (c *Client) Kick(ctx context.Context, guildID, userID, reason string) error {
	if err := c.session.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithContext(ctx)); err != nil {
		return gatewayError(ctx, "kick member", err, guildID)
	}
	return nil
}

// Ban bans a user and deletes their recent messages.
func (c *Client) Ban(ctx context.Context, guildID, userID, reason string, deleteMessageDays int) error {
	if err := c.session.GuildBanCreateWithReason(guildID, userID, reason, deleteMessageDays, discordgo.WithContext(ctx)); err != nil {
		return gatewayError(ctx, "ban member", err, guildID)
	}
	return nil
}

// History returns up to limit (at most 100) messages older than before, newest first.
func (c *Client) History(ctx context.Context, channelID, before string, limit int) ([]chat.HistoryMessage, error) {
	msgs, err := c.session.ChannelMessages(channelID, limit, before, "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, gatewayError(ctx, "read history", err, channelID)
	}
	out := make([]chat.HistoryMessage, len(msgs))
	for i, m := range msgs {
		out[i] = toHistory(m)
	}
	return out, nil
}

// DeleteMessages removes messages from a channel. Bulk deletion takes between
// 2 and 100 messages, so a single message is deleted on its own.
func (c *Client) DeleteMessages(ctx context.Context, channelID string, ids []string) error {
	var err error
	switch len(ids) {
	case 0:
		return nil
	case 1:
		err = c.session.ChannelMessageDelete(channelID, ids[0], discordgo.WithContext(ctx))
	default:
		err = c.session.ChannelMessagesBulkDelete(channelID, ids, discordgo.WithContext(ctx))
	}
	if err != nil {
		return gatewayError(ctx, "delete messages", err, channelID)
	}
	return nil
}

func (c *Client) guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if c.session.StateEnabled {
		if g, err := c.session.State.Guild(guildID); err == nil {
			return g, nil
		}
	}
	g, err := c.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, gatewayError(ctx, "fetch guild", err, guildID)
	}
	return g, nil
}

func (c *Client) roles(ctx context.Context, guildID string) ([]*discordgo.Role, error) {
	if g, err := c.guild(ctx, guildID); err == nil && len(g.Roles) > 0 {
		return g.Roles, nil
	}
	roles, err := c.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, gatewayError(ctx, "fetch roles", err, guildID)
	}
	return roles, nil
}

// guildName is best effort; reports fall back to the id alone.
func (c *Client) guildName(guildID string) string {
	if guildID == "" || !c.session.StateEnabled {
		return ""
	}
	if g, err := c.session.State.Guild(guildID); err == nil {
		return g.Name
	}
	return ""
}

func (c *Client) deleteLater(ref chat.MessageRef, delay time.Duration) {
	time.AfterFunc(delay, func() {
		if err := c.session.ChannelMessageDelete(ref.ChannelID, ref.MessageID); err != nil {
			c.log.Debug().Err(err).Str("message_id", ref.MessageID).Msg("delayed delete failed")
		}
	})
}

func topRole(memberRoles []string, guildRoles []*discordgo.Role) int {
	positions := make(map[string]int, len(guildRoles))
	for _, r := range guildRoles {
		positions[r.ID] = r.Position
	}
	held := make([]int, 0, len(memberRoles))
	for _, id := range memberRoles {
		if pos, ok := positions[id]; ok {
			held = append(held, pos)
		}
	}
	if len(held) == 0 {
		return 0
	}
	sort.Ints(held)
	return held[len(held)-1]
}

func gatewayError(ctx context.Context, op string, err error, channelID string) error {
	fields := map[string]any{"operation": op}
	if channelID != "" {
		fields["channel_id"] = channelID
	}
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerGateway, platformerrors.ErrorTypeExternal, op+" failed", err, fields)
}

type webhookTarget struct {
	session *discordgo.Session
	id      string
	token   string
}

func (w *webhookTarget) Deliver(ctx context.Context, msg chat.Message) error {
	if _, err := w.session.WebhookExecute(w.id, w.token, false, toWebhookParams(msg), discordgo.WithContext(ctx)); err != nil {
		return gatewayError(ctx, "execute webhook", err, "")
	}
	return nil
}
