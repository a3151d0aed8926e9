// Package command holds the registered command table and the dispatcher that
// routes inbound messages to it.
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/escalation"
)

// Handler is a command body.
type Handler func(ctx context.Context, inv *Invocation) error

// Check is a precondition evaluated before the handler. A non-nil error
// stops the invocation.
type Check func(ctx context.Context, inv *Invocation) error

// Command is one entry of the command table.
type Command struct {
	Name     string
	Aliases  []string
	Category string
	// Summary is the first line of the help text.
	Summary string
	Help    string
	// Usage lists the arguments, e.g. "<member> [reason]".
	Usage       string
	Checks      []Check
	Handler     Handler
	Subcommands []*Command
	Hidden      bool

	parent *Command
}

// Parent returns the group this command belongs to, or nil.
func (c *Command) Parent() *Command {
	return c.parent
}

// QualifiedName is the full invocation path, e.g. "purge user".
func (c *Command) QualifiedName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.QualifiedName() + " " + c.Name
}

// Subcommand resolves a sub command by name or alias, case-insensitively.
func (c *Command) Subcommand(name string) *Command {
	name = strings.ToLower(name)
	for _, sub := range c.Subcommands {
		if sub.matches(name) {
			return sub
		}
	}
	return nil
}

// Chain returns the commands from the root group down to c.
func (c *Command) Chain() []*Command {
	if c.parent == nil {
		return []*Command{c}
	}
	return append(c.parent.Chain(), c)
}

func (c *Command) matches(name string) bool {
	if strings.EqualFold(c.Name, name) {
		return true
	}
	for _, alias := range c.Aliases {
		if strings.EqualFold(alias, name) {
			return true
		}
	}
	return false
}

// Invocation is one parsed command call.
type Invocation struct {
	Message     chat.IncomingMessage
	Prefix      string
	InvokedWith string
	Command     *Command
	Args        *Args
}

// Context describes the invocation for failure reporting.
func (inv *Invocation) Context() escalation.InvocationContext {
	return escalation.InvocationContext{
		Command:   inv.Command.QualifiedName(),
		GuildID:   inv.Message.GuildID,
		GuildName: inv.Message.GuildName,
		ChannelID: inv.Message.ChannelID,
		UserID:    inv.Message.AuthorID,
		UserName:  inv.Message.AuthorName,
		MessageID: inv.Message.ID,
		JumpURL:   inv.Message.JumpURL(),
	}
}

// Category groups commands for help output.
type Category struct {
	Name     string
	Summary  string
	Commands []*Command
}

// Registry is the command table. It is built at startup and read-only afterwards.
type Registry struct {
	commands   []*Command
	index      map[string]*Command
	categories []*Category
}

// NewRegistry creates an empty table.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]*Command)}
}

// DescribeCategory sets the summary shown for a category in help output.
func (r *Registry) DescribeCategory(name, summary string) {
	r.category(name).Summary = summary
}

// Register adds top-level commands. Names and aliases must be unique.
func (r *Registry) Register(cmds ...*Command) error {
	for _, cmd := range cmds {
		keys := append([]string{cmd.Name}, cmd.Aliases...)
		for _, key := range keys {
			key = strings.ToLower(key)
			if _, exists := r.index[key]; exists {
				return fmt.Errorf("command %q already registered", key)
			}
		}
		for _, key := range keys {
			r.index[strings.ToLower(key)] = cmd
		}
		link(cmd)
		r.commands = append(r.commands, cmd)
		cat := r.category(cmd.Category)
		cat.Commands = append(cat.Commands, cmd)
	}
	return nil
}

// Lookup resolves a top-level command by name or alias, case-insensitively.
func (r *Registry) Lookup(name string) *Command {
	return r.index[strings.ToLower(name)]
}

// Commands returns the top-level commands in registration order.
func (r *Registry) Commands() []*Command {
	return r.commands
}

// Categories returns categories in the order they were first used.
func (r *Registry) Categories() []*Category {
	return r.categories
}

// FindCategory resolves a category by name, case-insensitively.
func (r *Registry) FindCategory(name string) *Category {
	for _, cat := range r.categories {
		if strings.EqualFold(cat.Name, name) {
			return cat
		}
	}
	return nil
}

func (r *Registry) category(name string) *Category {
	if cat := r.FindCategory(name); cat != nil {
		return cat
	}
	cat := &Category{Name: name}
	r.categories = append(r.categories, cat)
	return cat
}

func link(cmd *Command) {
	for _, sub := range cmd.Subcommands {
		sub.parent = cmd
		if sub.Category == "" {
			sub.Category = cmd.Category
		}
		link(sub)
	}
}
