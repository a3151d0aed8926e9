package commands

import (
	"context"
	"strings"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/command"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/help"
)

func newHelpCommand(reg *command.Registry, deps Deps) *command.Command {
	formatter := help.NewFormatter(reg, deps.Settings.CreatorName, deps.Settings.ThumbnailURL, deps.Settings.InfoColour)

	return &command.Command{
		Name:    "help",
		Summary: "Shows this message",
		Usage:   "[command]",
		Handler: func(ctx context.Context, inv *command.Invocation) error {
			req := help.Request{Prefix: inv.Prefix, InvokedWith: inv.InvokedWith}

			var words []string
			for {
				w, ok := inv.Args.Next()
				if !ok {
					break
				}
				words = append(words, w)
			}

			pages, notice := resolveHelp(reg, formatter, req, words)
			if notice != "" {
				return send(ctx, deps.Client, inv, chat.Message{Content: notice})
			}
			for i := range pages {
				if err := send(ctx, deps.Client, inv, chat.Message{Embed: &pages[i]}); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// resolveHelp picks the help pages for the requested topic, or a notice when
// the topic does not exist.
func resolveHelp(reg *command.Registry, f *help.Formatter, req help.Request, words []string) ([]chat.Embed, string) {
	if len(words) == 0 {
		return f.Overview(req), ""
	}

	if len(words) == 1 {
		if cat := reg.FindCategory(words[0]); cat != nil && cat.Name != "" {
			return f.Category(req, cat), ""
		}
	}

	cmd := reg.Lookup(words[0])
	if cmd == nil || cmd.Hidden {
		return nil, help.NotFound(words[0])
	}
	for _, w := range words[1:] {
		sub := cmd.Subcommand(w)
		if sub == nil || sub.Hidden {
			return nil, help.NoSubcommand(cmd, strings.TrimSpace(w))
		}
		cmd = sub
	}
	return f.Command(req, cmd), ""
}
