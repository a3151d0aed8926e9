package command

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/escalation"
	"github.com/quanta-kt/CosmicDiversBot/internal/utils/platformerrors"
)

// PrefixResolver returns the active command prefix of a guild.
type PrefixResolver interface {
	Resolve(ctx context.Context, guildID string) string
}

// Reporter receives failed invocations.
type Reporter interface {
	Handle(ctx context.Context, ic escalation.InvocationContext, err error)
}

// Instrumentation wraps every invocation; the returned func is called with
// the outcome once the invocation finished.
type Instrumentation interface {
	StartCommand(ctx context.Context, name string) (context.Context, func(outcome string, err error))
}

type nopInstrumentation struct{}

func (nopInstrumentation) StartCommand(ctx context.Context, _ string) (context.Context, func(string, error)) {
	return ctx, func(string, error) {}
}

// Dispatcher routes inbound messages to registered commands.
type Dispatcher struct {
	registry *Registry
	prefixes PrefixResolver
	client   chat.Client
	reporter Reporter
	instr    Instrumentation
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher. instr may be nil.
func NewDispatcher(registry *Registry, prefixes PrefixResolver, client chat.Client, reporter Reporter, instr Instrumentation, log zerolog.Logger) *Dispatcher {
	if instr == nil {
		instr = nopInstrumentation{}
	}
	return &Dispatcher{
		registry: registry,
		prefixes: prefixes,
		client:   client,
		reporter: reporter,
		instr:    instr,
		log:      log.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch handles one inbound message. Failures never escape; they are
// handed to the reporter.
func (d *Dispatcher) Dispatch(ctx context.Context, msg chat.IncomingMessage) {
	if msg.AuthorBot {
		return
	}

	prefix := d.prefixes.Resolve(ctx, msg.GuildID)
	inv, isCommand := d.parse(msg, prefix)
	if !isCommand {
		if msg.MentionsBot {
			d.replyWithPrefix(ctx, msg, prefix)
		}
		return
	}
	if inv == nil {
		d.log.Debug().Str("content", msg.Content).Msg("unknown command ignored")
		return
	}

	ctx = platformerrors.WithInvocationID(ctx, msg.ID)
	ctx, finish := d.instr.StartCommand(ctx, inv.Command.QualifiedName())

	err := d.invoke(ctx, inv)
	if err == nil {
		finish("ok", nil)
		return
	}

	kind := escalation.Classify(err)
	finish(kind.String(), err)
	d.reporter.Handle(ctx, inv.Context(), err)
}

// parse splits prefix, command name and arguments. It returns isCommand false
// when the message does not start with the prefix, and a nil invocation when
// the name does not resolve.
func (d *Dispatcher) parse(msg chat.IncomingMessage, prefix string) (*Invocation, bool) {
	if prefix == "" || !strings.HasPrefix(msg.Content, prefix) {
		return nil, false
	}

	body := strings.TrimPrefix(msg.Content, prefix)
	name, rest := splitWord(body)
	if name == "" {
		return nil, false
	}

	cmd := d.registry.Lookup(name)
	if cmd == nil {
		return nil, true
	}

	for len(cmd.Subcommands) > 0 {
		word, remainder := splitWord(rest)
		sub := cmd.Subcommand(word)
		if word == "" || sub == nil {
			break
		}
		cmd, rest = sub, remainder
	}

	return &Invocation{
		Message:     msg,
		Prefix:      prefix,
		InvokedWith: strings.ToLower(name),
		Command:     cmd,
		Args:        NewArgs(rest),
	}, true
}

func (d *Dispatcher) invoke(ctx context.Context, inv *Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = platformerrors.FromPanic(ctx, platformerrors.LayerDispatch, r, debug.Stack())
		}
	}()

	for _, cmd := range inv.Command.Chain() {
		for _, check := range cmd.Checks {
			if err := check(ctx, inv); err != nil {
				return err
			}
		}
	}

	if inv.Command.Handler == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDispatch, platformerrors.ErrorTypeInternal,
			fmt.Sprintf("command %q has no handler", inv.Command.QualifiedName()), nil)
	}
	return wrapHandlerError(ctx, inv, inv.Command.Handler(ctx, inv))
}

// wrapHandlerError gives a bare handler error the stack and invocation of the
// dispatch boundary. Typed errors pass through untouched.
func wrapHandlerError(ctx context.Context, inv *Invocation, err error) error {
	if err == nil {
		return nil
	}
	var perr *platformerrors.PlatformError
	if errors.As(err, &perr) {
		return err
	}
	return platformerrors.AsError(ctx, platformerrors.LayerHandler, err,
		fmt.Sprintf("command %q failed", inv.Command.QualifiedName()))
}

func (d *Dispatcher) replyWithPrefix(ctx context.Context, msg chat.IncomingMessage, prefix string) {
	_, err := d.client.SendMessage(ctx, msg.ChannelID, chat.Message{
		Content: fmt.Sprintf("My prefix is: %s\nUse %shelp to get a list of available commands!", prefix, prefix),
		ReplyTo: msg.ID,
	})
	if err != nil {
		d.log.Warn().Err(err).Str("channel_id", msg.ChannelID).Msg("reply to mention")
	}
}

func splitWord(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	idx := strings.IndexFunc(s, unicode.IsSpace)
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx:]
}
