// Package escalation classifies command failures and routes them either back
// to the user or, for unexpected ones, to the operators as crash reports.
package escalation

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"
	"github.com/quanta-kt/CosmicDiversBot/internal/utils/platformerrors"
)

const (
	// ApologyMessage is what users see for an unexpected failure.
	ApologyMessage = "An unexpected error occurred while processing your command.\nThis is most likely a bug in my code."
	// InvalidArgumentsTitle heads input failure messages.
	InvalidArgumentsTitle = "Invalid arguments"
)

// Kind is the classification of a failure.
type Kind int

const (
	KindIgnored Kind = iota
	KindCheckFailure
	KindInputFailure
	KindEmptyResult
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindIgnored:
		return "ignored"
	case KindCheckFailure:
		return "check_failure"
	case KindInputFailure:
		return "input_failure"
	case KindEmptyResult:
		return "empty_result"
	default:
		return "unexpected"
	}
}

// Classify maps err to a Kind by its error type.
func Classify(err error) Kind {
	if err == nil {
		return KindIgnored
	}
	errorType := platformerrors.TypeOf(err)
	if !platformerrors.IsUserFacing(errorType) {
		return KindUnexpected
	}
	switch errorType {
	case platformerrors.ErrorTypeNotFound:
		return KindIgnored
	case platformerrors.ErrorTypeCheckFailed:
		return KindCheckFailure
	case platformerrors.ErrorTypeInvalidInput:
		return KindInputFailure
	case platformerrors.ErrorTypeEmptyResult:
		return KindEmptyResult
	default:
		return KindUnexpected
	}
}

// InvocationContext describes the command invocation a failure belongs to.
type InvocationContext struct {
	Command   string
	GuildID   string
	GuildName string
	ChannelID string
	UserID    string
	UserName  string
	MessageID string
	JumpURL   string
}

// Observer is notified of every crash report.
type Observer interface {
	CrashReported(origin string, delivered bool)
}

type nopObserver struct{}

func (nopObserver) CrashReported(string, bool) {}

// Escalator handles failures raised while processing events.
type Escalator struct {
	client      chat.Client
	webhookID   string
	errorColour int
	infoColour  int
	observer    Observer
	log         zerolog.Logger

	mu     sync.Mutex
	target chat.WebhookTarget
}

// Options configures an Escalator.
type Options struct {
	WebhookID   string
	ErrorColour int
	InfoColour  int
}

// NewEscalator creates an Escalator. observer may be nil.
func NewEscalator(client chat.Client, opts Options, observer Observer, log zerolog.Logger) *Escalator {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Escalator{
		client:      client,
		webhookID:   opts.WebhookID,
		errorColour: opts.ErrorColour,
		infoColour:  opts.InfoColour,
		observer:    observer,
		log:         log.With().Str("component", "escalator").Logger(),
	}
}

// Handle resolves a failure of one command invocation.
func (e *Escalator) Handle(ctx context.Context, ic InvocationContext, err error) {
	if err == nil {
		return
	}
	defer e.recover(ic.Command)

	kind := Classify(err)
	switch kind {
	case KindIgnored:
		return
	case KindCheckFailure:
		e.reply(ctx, ic, chat.Embed{
			Description: userMessage(err, platformerrors.ErrorTypeCheckFailed),
			Colour:      e.errorColour,
		})
		return
	case KindInputFailure:
		e.reply(ctx, ic, chat.Embed{
			Title:       InvalidArgumentsTitle,
			Description: userMessage(err, platformerrors.ErrorTypeInvalidInput),
			Colour:      e.errorColour,
		})
		return
	case KindEmptyResult:
		e.reply(ctx, ic, chat.Embed{
			Description: userMessage(err, platformerrors.ErrorTypeEmptyResult),
			Colour:      e.infoColour,
		})
		return
	}

	if _, sendErr := e.client.SendMessage(ctx, ic.ChannelID, chat.Message{
		Content: ApologyMessage,
		ReplyTo: ic.MessageID,
	}); sendErr != nil {
		e.log.Warn().Err(sendErr).Str("command", ic.Command).Msg("send apology")
	}

	report := e.newReport(commandContext(ic), err)
	e.logFailure(err, report.ID).
		Str("command", ic.Command).
		Str("guild_id", ic.GuildID).
		Str("channel_id", ic.ChannelID).
		Str("user_id", ic.UserID).
		Msg("unexpected command failure")
	e.deliver(ctx, "command", report)
}

// ReportProcessFailure reports a failure that is not tied to a command invocation.
func (e *Escalator) ReportProcessFailure(ctx context.Context, event string, err error, details ...string) {
	if err == nil {
		return
	}
	defer e.recover(event)

	report := e.newReport(eventContext(event, details), err)
	e.logFailure(err, report.ID).Str("event", event).Msg("unexpected event failure")
	e.deliver(ctx, "event", report)
}

func (e *Escalator) newReport(contextMessage string, err error) CrashReport {
	trace, causeTrace := traces(err)
	return CrashReport{
		ID:             uuid.NewString(),
		ContextMessage: contextMessage,
		TraceText:      trace,
		CauseTraceText: causeTrace,
	}
}

func (e *Escalator) reply(ctx context.Context, ic InvocationContext, embed chat.Embed) {
	if _, err := e.client.SendMessage(ctx, ic.ChannelID, chat.Message{Embed: &embed, ReplyTo: ic.MessageID}); err != nil {
		e.log.Warn().Err(err).Str("command", ic.Command).Msg("send failure notice")
	}
}

// deliver makes one attempt; failures are logged and dropped.
func (e *Escalator) deliver(ctx context.Context, origin string, report CrashReport) {
	target, err := e.operatorTarget(ctx)
	if err != nil {
		e.log.Error().Err(err).Str("incident_id", report.ID).Msg("resolve crash report target")
		e.observer.CrashReported(origin, false)
		return
	}

	if err := target.Deliver(ctx, report.Message()); err != nil {
		e.log.Error().Err(err).Str("incident_id", report.ID).Msg("deliver crash report")
		e.observer.CrashReported(origin, false)
		return
	}
	e.observer.CrashReported(origin, true)
}

// operatorTarget resolves the webhook once and keeps it after the first success.
func (e *Escalator) operatorTarget(ctx context.Context) (chat.WebhookTarget, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.target != nil {
		return e.target, nil
	}
	if e.webhookID == "" {
		return nil, fmt.Errorf("no crash report webhook configured")
	}

	target, err := e.client.FetchOperatorWebhook(ctx, e.webhookID)
	if err != nil {
		return nil, fmt.Errorf("fetch webhook %s: %w", e.webhookID, err)
	}
	e.target = target
	return target, nil
}

func (e *Escalator) logFailure(err error, incidentID string) *zerolog.Event {
	event := e.log.Error().Err(err).Str("incident_id", incidentID)
	return platformerrors.WithFields(event, deepest(err))
}

func (e *Escalator) recover(origin string) {
	if r := recover(); r != nil {
		e.log.Error().
			Interface("panic", r).
			Str("origin", origin).
			Bytes("stack", debug.Stack()).
			Msg("escalation panicked")
	}
}
