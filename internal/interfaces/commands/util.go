package commands

import (
	"context"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/command"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/pagination"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/wiki"
)

const noArticlesFound = "No articles found."

type utilCommands struct {
	deps Deps
}

func (u *utilCommands) wikiCommand() *command.Command {
	return &command.Command{
		Name:     "wiki",
		Category: CategoryUtil,
		Summary:  "Fetch articles from Wikipedia.org",
		Usage:    "<query>",
		Handler:  u.wiki,
	}
}

func (u *utilCommands) wiki(ctx context.Context, inv *command.Invocation) error {
	query, err := inv.Args.RequireRest(ctx, "query")
	if err != nil {
		return err
	}

	ic := inv.Context()
	report := func(ctx context.Context, err error) {
		u.deps.Failures.Handle(ctx, ic, err)
	}

	controller := pagination.NewController(
		wiki.NewSource(u.deps.Wiki, query),
		u.deps.Client,
		u.deps.Sessions,
		report,
		pagination.Options{
			ChannelID:    inv.Message.ChannelID,
			OwnerID:      inv.Message.AuthorID,
			ReplyTo:      inv.Message.ID,
			Timeout:      u.deps.Settings.PaginationTimeout,
			Colour:       u.deps.Settings.InfoColour,
			EmptyMessage: noArticlesFound,
		},
		u.deps.Log,
	)
	return controller.Start(ctx)
}
