// Package pagination drives an interactive, page-at-a-time browser over a
// lazily fetched result set.
package pagination

import "github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"

// State is the lifecycle state of a Controller.
type State string

const (
	StateActive State = "active"
	StateClosed State = "closed"
)

// IsTerminal reports whether no further events are processed.
func (s State) IsTerminal() bool {
	return s == StateClosed
}

func (s State) String() string {
	return string(s)
}

// Action is a user interaction with the browser.
type Action string

const (
	ActionFirst    Action = "first"
	ActionPrevious Action = "previous"
	ActionNext     Action = "next"
	ActionLast     Action = "last"
	ActionStop     Action = "stop"
)

// ParseAction maps a control back to its action.
func ParseAction(control chat.Control) (Action, bool) {
	switch a := Action(control); a {
	case ActionFirst, ActionPrevious, ActionNext, ActionLast, ActionStop:
		return a, true
	default:
		return "", false
	}
}

// CloseReason records why a Controller left the active state.
type CloseReason string

const (
	CloseStopped   CloseReason = "stop"
	CloseTimeout   CloseReason = "timeout"
	CloseCancelled CloseReason = "cancelled"
	CloseEmpty     CloseReason = "empty"
)

// target returns the index an action moves to, saturating at both ends.
func target(action Action, current, count int) int {
	switch action {
	case ActionFirst:
		return 0
	case ActionPrevious:
		if current > 0 {
			return current - 1
		}
		return 0
	case ActionNext:
		if current < count-1 {
			return current + 1
		}
		return count - 1
	case ActionLast:
		return count - 1
	default:
		return current
	}
}

// controlsFor mirrors the usual menu layout: first/last only pay off beyond two pages.
func controlsFor(count int) []chat.Control {
	if count > 2 {
		return []chat.Control{
			chat.Control(ActionFirst),
			chat.Control(ActionPrevious),
			chat.Control(ActionNext),
			chat.Control(ActionLast),
			chat.Control(ActionStop),
		}
	}
	return []chat.Control{
		chat.Control(ActionPrevious),
		chat.Control(ActionNext),
		chat.Control(ActionStop),
	}
}
