package commands

import (
	"context"
	"fmt"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/command"
)

const sourceThumbnail = "https://i.imgur.com/Bq0JdS3.png"

func newSourceCommand(deps Deps) *command.Command {
	return &command.Command{
		Name:     "source",
		Category: CategoryInfo,
		Summary:  "Get a link to view my source code!",
		Handler: func(ctx context.Context, inv *command.Invocation) error {
			return sendEmbed(ctx, deps.Client, inv, chat.Embed{
				Description:  fmt.Sprintf("My source code is available [here](%s)", deps.Settings.GithubURL),
				Colour:       deps.Settings.InfoColour,
				ThumbnailURL: sourceThumbnail,
				Footer:       "Feel free to open an issue or a PR",
			})
		},
	}
}
