package pagination

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Observer is notified when browsers open and close.
type Observer interface {
	SessionOpened()
	SessionClosed(reason string)
}

type nopObserver struct{}

func (nopObserver) SessionOpened()       {}
func (nopObserver) SessionClosed(string) {}

// Registry routes interaction events to the controller owning the message
// and tracks the goroutines driving them.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Controller
	wg       sync.WaitGroup
	observer Observer
	log      zerolog.Logger
}

// NewRegistry creates an empty registry. observer may be nil.
func NewRegistry(observer Observer, log zerolog.Logger) *Registry {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Registry{
		sessions: make(map[string]*Controller),
		observer: observer,
		log:      log.With().Str("component", "pagination-registry").Logger(),
	}
}

// Dispatch hands an action on messageID to its controller. It reports whether
// a controller accepted it.
func (r *Registry) Dispatch(messageID, userID string, action Action) bool {
	r.mu.Lock()
	c, ok := r.sessions[messageID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	return c.Deliver(userID, action)
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Wait blocks until every session goroutine has exited or timeout elapses.
func (r *Registry) Wait(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.log.Info().Msg("all result browsers closed")
	case <-time.After(timeout):
		r.log.Warn().Int("open", r.Len()).Msg("result browser shutdown timed out")
	}
}

// run drives c until it closes, detached from the span of the invocation that
// opened it.
func (r *Registry) run(ctx context.Context, messageID string, c *Controller) {
	ctx = trace.ContextWithSpanContext(ctx, trace.SpanContext{})

	r.mu.Lock()
	r.sessions[messageID] = c
	r.mu.Unlock()
	r.observer.SessionOpened()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		reason := c.loop(ctx)

		r.mu.Lock()
		delete(r.sessions, messageID)
		r.mu.Unlock()

		c.finish(ctx, reason)
		r.observer.SessionClosed(string(reason))
		r.log.Debug().Str("message_id", messageID).Str("reason", string(reason)).Msg("result browser closed")
	}()
}
