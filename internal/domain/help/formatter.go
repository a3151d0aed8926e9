package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/command"
)

const (
	// BotTitle heads the overview page.
	BotTitle = "Cosmic Divers Bot"
	// NoCategory names commands registered without a category.
	NoCategory = "Help"
)

// Formatter builds help pages from the command table.
type Formatter struct {
	registry     *command.Registry
	creatorName  string
	thumbnailURL string
	colour       int
	pageSize     int
}

// NewFormatter creates a Formatter.
func NewFormatter(registry *command.Registry, creatorName, thumbnailURL string, colour int) *Formatter {
	return &Formatter{
		registry:     registry,
		creatorName:  creatorName,
		thumbnailURL: thumbnailURL,
		colour:       colour,
		pageSize:     DefaultPageSize,
	}
}

// Request carries the invocation details help output refers back to.
type Request struct {
	Prefix      string
	InvokedWith string
}

// Overview lists every category with its commands.
func (f *Formatter) Overview(req Request) []chat.Embed {
	p := f.paginator(BotTitle)

	categories := append([]*command.Category(nil), f.registry.Categories()...)
	sort.SliceStable(categories, func(i, j int) bool {
		return categoryName(categories[i]) < categoryName(categories[j])
	})
	for _, cat := range categories {
		names := visibleNames(cat.Commands)
		if len(names) == 0 {
			continue
		}
		p.AddLine("**"+categoryName(cat)+"**", false)
		p.AddLine(strings.Join(names, ", "), true)
	}

	f.addEndingNote(p, req)
	return f.pages(p)
}

// Category lists the commands of one category.
func (f *Formatter) Category(req Request, cat *command.Category) []chat.Embed {
	p := f.paginator("Commands category: " + categoryName(cat))
	if cat.Summary != "" {
		p.AddLine(cat.Summary, true)
	}

	visible := visible(cat.Commands)
	if len(visible) > 0 {
		p.AddLine("**"+categoryName(cat)+" Commands**", false)
		for _, cmd := range visible {
			f.addSubcommandLine(p, cmd)
		}
		f.addEndingNote(p, req)
	}
	return f.pages(p)
}

// Command describes a single command, or a group with its sub commands.
func (f *Formatter) Command(req Request, cmd *command.Command) []chat.Embed {
	if len(cmd.Subcommands) == 0 {
		p := f.paginator("Help on command " + cmd.QualifiedName())
		f.addCommandFormatting(p, req, cmd)
		return f.pages(p)
	}

	p := f.paginator("Command group " + cmd.QualifiedName())
	f.addCommandFormatting(p, req, cmd)
	subs := visible(cmd.Subcommands)
	if len(subs) > 0 {
		p.AddLine("**Commands**", false)
		for _, sub := range subs {
			f.addSubcommandLine(p, sub)
		}
		f.addEndingNote(p, req)
	}
	return f.pages(p)
}

// NotFound is the reply for an unknown help topic.
func NotFound(topic string) string {
	return fmt.Sprintf("No command called \"%s\" found.", topic)
}

// NoSubcommand is the reply for an unknown sub command of a group.
func NoSubcommand(group *command.Command, name string) string {
	if len(group.Subcommands) == 0 {
		return fmt.Sprintf("Command \"%s\" has no subcommands.", group.QualifiedName())
	}
	return fmt.Sprintf("Command \"%s\" has no subcommand named %s", group.QualifiedName(), name)
}

// Signature renders the syntax line of a command.
func Signature(prefix string, cmd *command.Command) string {
	return strings.TrimSpace(prefix + cmd.QualifiedName() + " " + cmd.Usage)
}

func (f *Formatter) addCommandFormatting(p *Paginator, req Request, cmd *command.Command) {
	p.AddLine(fmt.Sprintf("**Syntax:** `%s`", Signature(req.Prefix, cmd)), false)

	text := cmd.Help
	if text == "" {
		text = cmd.Summary
	}
	if text != "" {
		for _, line := range strings.Split(text, "\n") {
			p.AddLine(line, false)
		}
		p.AddLine("", false)
	}

	if len(cmd.Aliases) > 0 {
		aliases := make([]string, len(cmd.Aliases))
		for i, a := range cmd.Aliases {
			aliases[i] = "`" + a + "`"
		}
		p.AddLine("**Aliases:** "+strings.Join(aliases, ", "), false)
	}
}

func (f *Formatter) addSubcommandLine(p *Paginator, cmd *command.Command) {
	line := "`" + cmd.QualifiedName() + "`"
	if cmd.Summary != "" {
		line += " " + cmd.Summary
	}
	p.AddLine(line, false)
}

func (f *Formatter) addEndingNote(p *Paginator, req Request) {
	p.AddLine("", false)
	p.AddLine(fmt.Sprintf("Use `%s%s [command]` for more info on a command.\n"+
		"You can also use `%s%s [category]` for more info on a category.\n\n"+
		"Made with <3 by **%s**", req.Prefix, req.InvokedWith, req.Prefix, req.InvokedWith, f.creatorName), false)
}

func (f *Formatter) paginator(title string) *Paginator {
	p := NewPaginator(f.pageSize)
	p.Title = title
	return p
}

func (f *Formatter) pages(p *Paginator) []chat.Embed {
	return p.Pages(f.colour, f.thumbnailURL)
}

func visible(cmds []*command.Command) []*command.Command {
	out := make([]*command.Command, 0, len(cmds))
	for _, cmd := range cmds {
		if !cmd.Hidden {
			out = append(out, cmd)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func visibleNames(cmds []*command.Command) []string {
	vis := visible(cmds)
	names := make([]string, len(vis))
	for i, cmd := range vis {
		names[i] = "`" + cmd.Name + "`"
	}
	return names
}

func categoryName(cat *command.Category) string {
	if cat.Name == "" {
		return NoCategory
	}
	return cat.Name
}
