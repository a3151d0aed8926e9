package commands

import (
	"context"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/command"
)

func newElementCommand(deps Deps) *command.Command {
	return &command.Command{
		Name:     "element",
		Aliases:  []string{"atom"},
		Category: CategoryElements,
		Summary:  "Look up an element by atomic number or name",
		Usage:    "<number|name>",
		Handler: func(ctx context.Context, inv *command.Invocation) error {
			query, err := inv.Args.RequireRest(ctx, "element")
			if err != nil {
				return err
			}
			element, err := deps.Elements.Lookup(ctx, query)
			if err != nil {
				return err
			}
			return sendEmbed(ctx, deps.Client, inv, element.Embed())
		},
	}
}
