package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/quanta-kt/CosmicDiversBot/internal/utils/platformerrors"
)

type token struct {
	value string
	start int
}

// Args is the argument text following a command name, consumed left to right.
// Double quotes group words into one argument.
type Args struct {
	raw    string
	tokens []token
	pos    int
}

// NewArgs tokenizes raw.
func NewArgs(raw string) *Args {
	return &Args{raw: raw, tokens: tokenize(raw)}
}

func tokenize(raw string) []token {
	var (
		tokens  []token
		current strings.Builder
		start   = -1
		quoted  bool
	)
	flush := func() {
		if start >= 0 {
			tokens = append(tokens, token{value: current.String(), start: start})
		}
		current.Reset()
		start = -1
	}

	for i, r := range raw {
		switch {
		case r == '"':
			if start < 0 {
				start = i
			}
			quoted = !quoted
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			if start < 0 {
				start = i
			}
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// Remaining reports how many arguments are left.
func (a *Args) Remaining() int {
	return len(a.tokens) - a.pos
}

// Peek returns the next argument without consuming it.
func (a *Args) Peek() (string, bool) {
	if a.pos >= len(a.tokens) {
		return "", false
	}
	return a.tokens[a.pos].value, true
}

// Next consumes the next argument.
func (a *Args) Next() (string, bool) {
	v, ok := a.Peek()
	if ok {
		a.pos++
	}
	return v, ok
}

// Rest consumes everything left as raw text.
func (a *Args) Rest() string {
	if a.pos >= len(a.tokens) {
		return ""
	}
	rest := strings.TrimSpace(a.raw[a.tokens[a.pos].start:])
	a.pos = len(a.tokens)
	return rest
}

// RequireNext consumes the next argument or fails with a missing argument error.
func (a *Args) RequireNext(ctx context.Context, name string) (string, error) {
	v, ok := a.Next()
	if !ok {
		return "", MissingArgument(ctx, name)
	}
	return v, nil
}

// RequireRest consumes the remaining text or fails when there is none.
func (a *Args) RequireRest(ctx context.Context, name string) (string, error) {
	rest := a.Rest()
	if rest == "" {
		return "", MissingArgument(ctx, name)
	}
	return rest, nil
}

// OptionalInt consumes the next argument if it is an integer, otherwise
// leaves it in place and returns def.
func (a *Args) OptionalInt(def int) int {
	v, ok := a.Peek()
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	a.pos++
	return n
}

// CheckFailed builds a user check failure.
func CheckFailed(ctx context.Context, message string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDispatch, platformerrors.ErrorTypeCheckFailed, message, nil)
}

// InvalidInput builds a user input failure.
func InvalidInput(ctx context.Context, message string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDispatch, platformerrors.ErrorTypeInvalidInput, message, nil)
}

// MissingArgument builds the input failure for an absent required argument.
func MissingArgument(ctx context.Context, name string) error {
	return InvalidInput(ctx, fmt.Sprintf("%s is a required argument that is missing.", name))
}
