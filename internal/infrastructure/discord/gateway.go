package discord

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/pagination"
	"github.com/quanta-kt/CosmicDiversBot/internal/infrastructure/observability"
	"github.com/quanta-kt/CosmicDiversBot/internal/utils/platformerrors"
)

// MessageHandler receives every inbound message.
type MessageHandler interface {
	Dispatch(ctx context.Context, msg chat.IncomingMessage)
}

// ControlRouter receives button presses on result browsers.
type ControlRouter interface {
	Dispatch(messageID, userID string, action pagination.Action) bool
}

// ProcessReporter receives failures raised outside any command.
type ProcessReporter interface {
	ReportProcessFailure(ctx context.Context, event string, err error, details ...string)
}

// Gateway owns the websocket connection and fans events out to the core.
type Gateway struct {
	session  *discordgo.Session
	client   *Client
	messages MessageHandler
	controls ControlRouter
	reporter ProcessReporter
	log      zerolog.Logger

	ready atomic.Bool
	mu    sync.RWMutex
	base  context.Context
}

// NewGateway wires the event handlers. Nothing connects until Run.
func NewGateway(session *discordgo.Session, client *Client, messages MessageHandler, controls ControlRouter, reporter ProcessReporter, log zerolog.Logger) *Gateway {
	g := &Gateway{
		session:  session,
		client:   client,
		messages: messages,
		controls: controls,
		reporter: reporter,
		log:      log.With().Str("component", "gateway").Logger(),
		base:     context.Background(),
	}
	session.AddHandler(g.onReady)
	session.AddHandler(g.onMessageCreate)
	session.AddHandler(g.onInteractionCreate)
	return g
}

// Ready reports whether the session is identified.
func (g *Gateway) Ready() bool {
	return g.ready.Load()
}

// Run connects and blocks until ctx is cancelled.
func (g *Gateway) Run(ctx context.Context) error {
	g.mu.Lock()
	g.base = ctx
	g.mu.Unlock()

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	g.log.Info().Msg("gateway connected")

	<-ctx.Done()
	g.ready.Store(false)
	if err := g.session.Close(); err != nil {
		g.log.Warn().Err(err).Msg("gateway close failed")
	}
	g.log.Info().Msg("gateway disconnected")
	return nil
}

func (g *Gateway) context() context.Context {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.base
}

func (g *Gateway) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	g.ready.Store(true)
	g.log.Info().
		Str("user", r.User.String()).
		Int("guilds", len(r.Guilds)).
		Msg("Bot is ready")
}

func (g *Gateway) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	ctx, span := observability.StartEventSpan(g.context(), "on_message")
	defer span.End()
	defer g.guard(ctx, "on_message", m.ID, m.ChannelID)

	msg := toIncoming(m.Message, g.client.BotUserID(), g.client.guildName(m.GuildID))
	g.messages.Dispatch(ctx, msg)
}

func (g *Gateway) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent || i.Message == nil {
		return
	}
	control, ok := controlFromCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}

	ctx, span := observability.StartEventSpan(g.context(), "on_interaction")
	defer span.End()
	defer g.guard(ctx, "on_interaction", i.ID, i.ChannelID)

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}, discordgo.WithContext(ctx)); err != nil {
		g.log.Debug().Err(err).Str("interaction_id", i.ID).Msg("acknowledge interaction failed")
	}

	action, ok := pagination.ParseAction(control)
	if !ok {
		return
	}
	if !g.controls.Dispatch(i.Message.ID, interactionUserID(i.Interaction), action) {
		g.log.Debug().Str("message_id", i.Message.ID).Str("action", string(action)).Msg("control press not routed")
	}
}

// guard turns a panic in an event handler into a process failure report.
func (g *Gateway) guard(ctx context.Context, event string, details ...string) {
	r := recover()
	if r == nil {
		return
	}
	err := platformerrors.FromPanic(ctx, platformerrors.LayerGateway, r, debug.Stack())
	g.log.Error().Err(err).Str("event", event).Msg("event handler panicked")
	g.reporter.ReportProcessFailure(ctx, event, err, details...)
}

func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
