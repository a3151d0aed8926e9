package pagination

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/wiki"
	"github.com/quanta-kt/CosmicDiversBot/internal/utils/platformerrors"
)

const teardownTimeout = 5 * time.Second

// Source is the lazily fetched result set behind a Controller.
type Source interface {
	EnsureSearched(ctx context.Context) error
	PageCount() int
	FetchPage(ctx context.Context, index int) (wiki.ResultPage, error)
}

// FailureReporter receives render failures that happen after Start returned.
type FailureReporter func(ctx context.Context, err error)

// Options configures one Controller.
type Options struct {
	ChannelID string
	// OwnerID is the only user whose events are processed.
	OwnerID string
	ReplyTo string
	Timeout time.Duration
	Colour  int
	// EmptyMessage is the terminal notice sent when the search finds nothing.
	EmptyMessage string
}

// Controller binds a Source to the interaction events of one rendered message.
type Controller struct {
	source   Source
	client   chat.Client
	registry *Registry
	report   FailureReporter
	opts     Options
	log      zerolog.Logger

	mu        sync.Mutex
	state     State
	index     int
	pageCount int
	ref       chat.MessageRef
	last      chat.Message
	queue     []Action

	wake chan struct{}
	done chan struct{}
}

// NewController creates an active controller positioned at the first page.
func NewController(source Source, client chat.Client, registry *Registry, report FailureReporter, opts Options, log zerolog.Logger) *Controller {
	if opts.Timeout <= 0 {
		opts.Timeout = 180 * time.Second
	}
	if opts.EmptyMessage == "" {
		opts.EmptyMessage = "No results found."
	}
	if report == nil {
		report = func(context.Context, error) {}
	}
	return &Controller{
		source:   source,
		client:   client,
		registry: registry,
		report:   report,
		opts:     opts,
		log:      log.With().Str("component", "pagination").Logger(),
		state:    StateActive,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start renders the first page and, unless the result set is empty, registers
// the controller for interaction events. The returned error is the failure of
// the first render; the controller is closed when it is non-nil.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.source.EnsureSearched(ctx); err != nil {
		if errors.Is(err, wiki.ErrEmptyResultSet) {
			return c.closeEmpty(ctx)
		}
		c.abort()
		return err
	}

	count := c.source.PageCount()
	page, err := c.source.FetchPage(ctx, 0)
	if err != nil {
		c.abort()
		return err
	}

	msg := c.format(page, 0, count)
	msg.Controls = controlsFor(count)
	msg.ReplyTo = c.opts.ReplyTo
	ref, err := c.client.SendMessage(ctx, c.opts.ChannelID, msg)
	if err != nil {
		c.abort()
		return fmt.Errorf("send first page: %w", err)
	}

	c.mu.Lock()
	c.ref = ref
	c.index = 0
	c.pageCount = count
	c.last = msg
	c.mu.Unlock()

	c.registry.run(ctx, ref.MessageID, c)
	return nil
}

// Deliver queues an action from userID. It never blocks; it reports whether
// the action was accepted.
func (c *Controller) Deliver(userID string, action Action) bool {
	if userID != c.opts.OwnerID {
		return false
	}

	c.mu.Lock()
	if c.state.IsTerminal() || c.pageCount == 0 {
		c.mu.Unlock()
		return false
	}
	c.queue = append(c.queue, action)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return true
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentIndex returns the index of the page on display.
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// MessageID returns the id of the rendered message, empty before Start succeeds.
func (c *Controller) MessageID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ref.MessageID
}

// Done is closed once the controller has stopped processing events.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) loop(ctx context.Context) CloseReason {
	timer := time.NewTimer(c.opts.Timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return CloseCancelled
		case <-timer.C:
			return CloseTimeout
		case <-c.wake:
			for {
				action, ok := c.pop()
				if !ok {
					break
				}
				if action == ActionStop {
					return CloseStopped
				}
				c.apply(ctx, action)
				if ctx.Err() != nil {
					return CloseCancelled
				}
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(c.opts.Timeout)
		}
	}
}

func (c *Controller) pop() (Action, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return "", false
	}
	action := c.queue[0]
	c.queue = c.queue[1:]
	return action, true
}

// apply renders the page an action leads to. The index only moves after the
// edit went through; a panicking render is reported like a failed one.
func (c *Controller) apply(ctx context.Context, action Action) {
	defer func() {
		if r := recover(); r != nil {
			err := platformerrors.FromPanic(ctx, platformerrors.LayerDomain, r, debug.Stack())
			err.Context["action"] = string(action)
			platformerrors.LogError(c.log, err)
			c.report(ctx, err)
		}
	}()

	c.mu.Lock()
	current, count, ref := c.index, c.pageCount, c.ref
	c.mu.Unlock()

	next := target(action, current, count)
	if next == current {
		return
	}

	if err := c.source.EnsureSearched(ctx); err != nil {
		c.report(ctx, err)
		return
	}
	page, err := c.source.FetchPage(ctx, next)
	if err != nil {
		c.log.Warn().Err(err).Int("index", next).Msg("render failed")
		c.report(ctx, err)
		return
	}

	msg := c.format(page, next, count)
	msg.Controls = controlsFor(count)
	if err := c.client.EditMessage(ctx, ref, msg); err != nil {
		c.log.Warn().Err(err).Int("index", next).Msg("edit failed")
		c.report(ctx, fmt.Errorf("edit page message: %w", err))
		return
	}

	c.mu.Lock()
	c.index = next
	c.last = msg
	c.mu.Unlock()
}

// finish tears down the controls of the rendered message.
func (c *Controller) finish(ctx context.Context, reason CloseReason) {
	c.mu.Lock()
	c.state = StateClosed
	c.queue = nil
	ref, last := c.ref, c.last
	c.mu.Unlock()

	last.Controls = nil
	last.ReplyTo = ""
	teardownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()
	if err := c.client.EditMessage(teardownCtx, ref, last); err != nil {
		c.log.Debug().Err(err).Str("reason", string(reason)).Msg("teardown failed")
	}
	close(c.done)
}

func (c *Controller) closeEmpty(ctx context.Context) error {
	c.abort()
	_, err := c.client.SendMessage(ctx, c.opts.ChannelID, chat.Message{
		ReplyTo: c.opts.ReplyTo,
		Embed: &chat.Embed{
			Description: c.opts.EmptyMessage,
			Colour:      c.opts.Colour,
		},
	})
	if err != nil {
		return fmt.Errorf("send empty result notice: %w", err)
	}
	return nil
}

func (c *Controller) abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.IsTerminal() {
		c.state = StateClosed
		close(c.done)
	}
}

func (c *Controller) format(page wiki.ResultPage, index, count int) chat.Message {
	return chat.Message{
		Embed: &chat.Embed{
			Title:        page.Title,
			Description:  page.Body,
			URL:          page.LinkURL,
			Colour:       c.opts.Colour,
			ThumbnailURL: page.ThumbnailURL,
			Footer:       fmt.Sprintf("Page %d of %d", index+1, count),
		},
	}
}
