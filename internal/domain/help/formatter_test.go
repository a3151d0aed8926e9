package help_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/command"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/help"
)

func newRegistry(t *testing.T) *command.Registry {
	t.Helper()
	reg := command.NewRegistry()
	reg.DescribeCategory("Moderation", "Commands to keep the server tidy.")
	require.NoError(t, reg.Register(
		&command.Command{Name: "help", Summary: "Shows this message", Usage: "[command]"},
		&command.Command{Name: "kick", Category: "Moderation", Summary: "Kicks a member", Usage: "<member> [reason]"},
		&command.Command{
			Name:     "purge",
			Aliases:  []string{"clean", "clear"},
			Category: "Moderation",
			Summary:  "Deletes messages in bulk",
			Usage:    "[limit=100]",
			Subcommands: []*command.Command{
				{Name: "user", Summary: "Deletes messages by a user", Usage: "<user> [limit=100]"},
				{Name: "secret", Hidden: true},
			},
		},
		&command.Command{Name: "wiki", Category: "Util", Summary: "Searches Wikipedia", Usage: "<query>"},
		&command.Command{Name: "debug", Category: "Util", Hidden: true},
	))
	return reg
}

func TestOverview(t *testing.T) {
	f := help.NewFormatter(newRegistry(t), "creator", "https://thumb", 0x09d03a)

	pages := f.Overview(help.Request{Prefix: "~", InvokedWith: "help"})
	require.Len(t, pages, 1)

	page := pages[0]
	assert.Equal(t, help.BotTitle, page.Title)
	assert.Equal(t, "https://thumb", page.ThumbnailURL)
	assert.Equal(t, 0x09d03a, page.Colour)

	helpAt := strings.Index(page.Description, "**Help**")
	modAt := strings.Index(page.Description, "**Moderation**")
	utilAt := strings.Index(page.Description, "**Util**")
	assert.True(t, helpAt >= 0 && helpAt < modAt && modAt < utilAt, page.Description)
	assert.Contains(t, page.Description, "`kick`, `purge`")
	assert.NotContains(t, page.Description, "debug")
	assert.True(t, strings.HasSuffix(page.Description,
		"Use `~help [command]` for more info on a command.\n"+
			"You can also use `~help [category]` for more info on a category.\n\n"+
			"Made with <3 by **creator**"))
}

func TestCategory(t *testing.T) {
	reg := newRegistry(t)
	f := help.NewFormatter(reg, "creator", "", 1)

	pages := f.Category(help.Request{Prefix: "!", InvokedWith: "h"}, reg.FindCategory("moderation"))
	require.Len(t, pages, 1)
	assert.Equal(t, "Commands category: Moderation", pages[0].Title)

	desc := pages[0].Description
	assert.True(t, strings.HasPrefix(desc, "Commands to keep the server tidy.\n\n**Moderation Commands**\n"), desc)
	assert.Contains(t, desc, "`kick` Kicks a member\n`purge` Deletes messages in bulk")
	assert.Contains(t, desc, "Use `!h [command]`")
}

func TestCommand(t *testing.T) {
	reg := newRegistry(t)
	f := help.NewFormatter(reg, "creator", "", 1)
	req := help.Request{Prefix: "~", InvokedWith: "help"}

	t.Run("single", func(t *testing.T) {
		pages := f.Command(req, reg.Lookup("kick"))
		require.Len(t, pages, 1)
		assert.Equal(t, "Help on command kick", pages[0].Title)
		assert.Equal(t, "**Syntax:** `~kick <member> [reason]`\nKicks a member", pages[0].Description)
	})

	t.Run("group", func(t *testing.T) {
		pages := f.Command(req, reg.Lookup("clean"))
		require.Len(t, pages, 1)
		assert.Equal(t, "Command group purge", pages[0].Title)

		desc := pages[0].Description
		assert.Contains(t, desc, "**Syntax:** `~purge [limit=100]`")
		assert.Contains(t, desc, "**Aliases:** `clean`, `clear`")
		assert.Contains(t, desc, "**Commands**\n`purge user` Deletes messages by a user")
		assert.NotContains(t, desc, "secret")
	})

	t.Run("subcommand", func(t *testing.T) {
		pages := f.Command(req, reg.Lookup("purge").Subcommand("USER"))
		require.Len(t, pages, 1)
		assert.Equal(t, "Help on command purge user", pages[0].Title)
		assert.Contains(t, pages[0].Description, "`~purge user <user> [limit=100]`")
	})
}

func TestPaginator_SplitsPages(t *testing.T) {
	p := help.NewPaginator(20)
	p.Title = "T"
	p.AddLine("0123456789", false)
	p.AddLine("abcdefghij", false)
	p.AddLine(strings.Repeat("x", 45), false)

	pages := p.Pages(0, "")
	require.Len(t, pages, 5)
	assert.Equal(t, "0123456789", pages[0].Description)
	assert.Equal(t, "abcdefghij", pages[1].Description)
	assert.Equal(t, strings.Repeat("x", 20), pages[2].Description)
	assert.Equal(t, strings.Repeat("x", 20), pages[3].Description)
	assert.Equal(t, strings.Repeat("x", 5), pages[4].Description)
	for _, page := range pages {
		assert.Equal(t, "T", page.Title)
		assert.LessOrEqual(t, len(page.Description), 20)
	}
}

func TestNotFound(t *testing.T) {
	assert.Equal(t, `No command called "nope" found.`, help.NotFound("nope"))

	reg := newRegistry(t)
	assert.Equal(t, `Command "purge" has no subcommand named x`, help.NoSubcommand(reg.Lookup("purge"), "x"))
	assert.Equal(t, `Command "kick" has no subcommands.`, help.NoSubcommand(reg.Lookup("kick"), "x"))
}
