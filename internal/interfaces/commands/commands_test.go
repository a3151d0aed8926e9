package commands_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/command"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/escalation"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/pagination"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/periodic"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/wiki"
	"github.com/quanta-kt/CosmicDiversBot/internal/interfaces/commands"
	"github.com/quanta-kt/CosmicDiversBot/internal/utils/platformerrors"
)

const (
	guildID   = "guild-1"
	channelID = "chan-1"
	ownerID   = "owner"
	modID     = "moderator"
	targetID  = "111111111111111111"
	botID     = "bot"

	infoColour  = 0x09d03a
	errorColour = 0xff0000
)

type MockClient struct {
	mu   sync.Mutex
	sent []chat.Message
}

func (m *MockClient) SendMessage(_ context.Context, channelID string, msg chat.Message) (chat.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return chat.MessageRef{ChannelID: channelID, MessageID: fmt.Sprintf("sent-%d", len(m.sent))}, nil
}

func (m *MockClient) EditMessage(context.Context, chat.MessageRef, chat.Message) error { return nil }

func (m *MockClient) FetchOperatorWebhook(context.Context, string) (chat.WebhookTarget, error) {
	return nil, errors.New("unused")
}

func (m *MockClient) last(t *testing.T) chat.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1]
}

type banCall struct {
	userID     string
	reason     string
	deleteDays int
}

type MockModeration struct {
	members map[string]chat.Member
	perms   map[string]chat.Permission
	history []chat.HistoryMessage

	directs []string
	kicked  []string
	banned  []banCall
	deleted []string
}

func newModeration() *MockModeration {
	all := chat.PermissionKickMembers | chat.PermissionBanMembers | chat.PermissionManageMessages | chat.PermissionManageGuild
	return &MockModeration{
		members: map[string]chat.Member{
			ownerID:  {ID: ownerID, Name: "owner#0001", TopRole: 1},
			modID:    {ID: modID, Name: "mod#0002", TopRole: 5},
			targetID: {ID: targetID, Name: "target#0003", TopRole: 3},
		},
		perms: map[string]chat.Permission{ownerID: all, modID: all, botID: all},
	}
}

func (m *MockModeration) BotUserID() string { return botID }

func (m *MockModeration) Guild(context.Context, string) (chat.Guild, error) {
	return chat.Guild{ID: guildID, Name: "Cosmic Divers", OwnerID: ownerID}, nil
}

func (m *MockModeration) Member(_ context.Context, _ string, userID string) (chat.Member, error) {
	member, ok := m.members[userID]
	if !ok {
		return chat.Member{}, errors.New("unknown member")
	}
	return member, nil
}

func (m *MockModeration) Permissions(_ context.Context, _ string, userID string) (chat.Permission, error) {
	return m.perms[userID], nil
}

func (m *MockModeration) SendDirect(_ context.Context, _ string, msg chat.Message) error {
	m.directs = append(m.directs, msg.Content)
	return nil
}

func (m *MockModeration) Kick(_ context.Context, _ string, userID, _ string) error {
	m.kicked = append(m.kicked, userID)
	return nil
}

func (m *MockModeration) Ban(_ context.Context, _ string, userID, reason string, deleteDays int) error {
	m.banned = append(m.banned, banCall{userID: userID, reason: reason, deleteDays: deleteDays})
	return nil
}

func (m *MockModeration) History(_ context.Context, _ string, before string, limit int) ([]chat.HistoryMessage, error) {
	start := 0
	for i, msg := range m.history {
		if msg.ID == before {
			start = i + 1
		}
	}
	end := min(start+limit, len(m.history))
	if start >= end {
		return nil, nil
	}
	return m.history[start:end], nil
}

func (m *MockModeration) DeleteMessages(_ context.Context, _ string, ids []string) error {
	m.deleted = append(m.deleted, ids...)
	return nil
}

type MockPrefixes struct {
	prefixes map[string]string
}

func (m *MockPrefixes) Resolve(_ context.Context, guildID string) string {
	if p, ok := m.prefixes[guildID]; ok {
		return p
	}
	return "~"
}

func (m *MockPrefixes) SetPrefix(_ context.Context, guildID, prefix string) error {
	m.prefixes[guildID] = prefix
	return nil
}

type MockReporter struct {
	mu     sync.Mutex
	errors []error
}

func (m *MockReporter) Handle(_ context.Context, _ escalation.InvocationContext, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, err)
}

type stubWiki struct {
	stubs []wiki.Stub
}

func (s *stubWiki) Search(context.Context, string, int) ([]wiki.Stub, error) { return s.stubs, nil }

func (s *stubWiki) PageExtract(context.Context, int64) (string, error) { return "An extract.", nil }

type fixture struct {
	dispatcher *command.Dispatcher
	client     *MockClient
	moderation *MockModeration
	prefixes   *MockPrefixes
	reporter   *MockReporter
	wiki       *stubWiki
	sessions   *pagination.Registry
	registry   *command.Registry
}

const tableJSON = `{"elements": [{"name": "Hydrogen", "atomic_mass": 1.008, "category": "diatomic nonmetal",
	"number": 1, "period": 1, "phase": "Gas", "source": "https://en.wikipedia.org/wiki/Hydrogen",
	"summary": "Hydrogen is the lightest element.", "symbol": "H", "shells": [1], "cpk-hex": "ffffff"}]}`

func newFixture(t *testing.T) *fixture {
	t.Helper()
	table, err := periodic.Parse(strings.NewReader(tableJSON))
	require.NoError(t, err)

	f := &fixture{
		client:     &MockClient{},
		moderation: newModeration(),
		prefixes:   &MockPrefixes{prefixes: map[string]string{}},
		reporter:   &MockReporter{},
		wiki:       &stubWiki{},
		sessions:   pagination.NewRegistry(nil, zerolog.Nop()),
		registry:   command.NewRegistry(),
	}
	require.NoError(t, commands.Register(f.registry, commands.Deps{
		Client:     f.client,
		Moderation: f.moderation,
		Prefixes:   f.prefixes,
		Wiki:       f.wiki,
		Elements:   table,
		Sessions:   f.sessions,
		Failures:   f.reporter,
		Settings: commands.Settings{
			InfoColour:        infoColour,
			ErrorColour:       errorColour,
			ThumbnailURL:      "https://thumb",
			GithubURL:         "https://github.com/quanta-kt/CosmicDiversBot",
			CreatorName:       "quanta",
			PaginationTimeout: 50 * time.Millisecond,
		},
		Log: zerolog.Nop(),
	}))
	f.dispatcher = command.NewDispatcher(f.registry, f.prefixes, f.client, f.reporter, nil, zerolog.Nop())
	return f
}

func (f *fixture) run(authorID, content string) {
	f.dispatcher.Dispatch(context.Background(), chat.IncomingMessage{
		ID:         "invocation",
		GuildID:    guildID,
		GuildName:  "Cosmic Divers",
		ChannelID:  channelID,
		AuthorID:   authorID,
		AuthorName: f.moderation.members[authorID].Name,
		Content:    content,
	})
}

func (f *fixture) requireFailure(t *testing.T, errorType platformerrors.ErrorType, message string) {
	t.Helper()
	f.reporter.mu.Lock()
	defer f.reporter.mu.Unlock()
	require.Len(t, f.reporter.errors, 1)
	err := f.reporter.errors[0]
	assert.True(t, platformerrors.IsErrorType(err, errorType), err.Error())
	assert.Contains(t, err.Error(), message)
}

func (f *fixture) requireNoFailure(t *testing.T) {
	t.Helper()
	f.reporter.mu.Lock()
	defer f.reporter.mu.Unlock()
	require.Empty(t, f.reporter.errors)
}

func TestKick(t *testing.T) {
	f := newFixture(t)
	f.run(modID, "~kick <@!"+targetID+"> spamming links")
	f.requireNoFailure(t)

	assert.Equal(t, []string{targetID}, f.moderation.kicked)
	assert.Equal(t, []string{"You were kicked from Cosmic Divers\n**Reason:** spamming links"}, f.moderation.directs)

	reply := f.client.last(t)
	require.NotNil(t, reply.Embed)
	assert.Equal(t, "target#0003 was kicked by mod#0002\n**Reason:** spamming links", reply.Embed.Description)
	assert.Equal(t, infoColour, reply.Embed.Colour)
}

func TestKick_OwnerBypassesHierarchy(t *testing.T) {
	f := newFixture(t)
	f.run(ownerID, "~kick "+targetID)
	f.requireNoFailure(t)

	assert.Equal(t, []string{targetID}, f.moderation.kicked)
	assert.Contains(t, f.client.last(t).Embed.Description, "**Reason:** None")
}

func TestKick_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*MockModeration)
		content   string
		errorType platformerrors.ErrorType
		message   string
	}{
		{
			name:      "lower role",
			setup:     func(m *MockModeration) { m.members[modID] = chat.Member{ID: modID, TopRole: 3} },
			content:   "~kick <@" + targetID + ">",
			errorType: platformerrors.ErrorTypeCheckFailed,
			message:   "You are not high enough in role hierarchy to kick that user",
		},
		{
			name:      "missing permission",
			setup:     func(m *MockModeration) { m.perms[modID] = chat.PermissionManageMessages },
			content:   "~kick <@" + targetID + ">",
			errorType: platformerrors.ErrorTypeCheckFailed,
			message:   "You are missing",
		},
		{
			name:      "bot missing permission",
			setup:     func(m *MockModeration) { m.perms[botID] = 0 },
			content:   "~kick <@" + targetID + ">",
			errorType: platformerrors.ErrorTypeCheckFailed,
			message:   "Bot requires",
		},
		{
			name:      "unknown member",
			setup:     func(*MockModeration) {},
			content:   "~kick nobody",
			errorType: platformerrors.ErrorTypeInvalidInput,
			message:   `Member "nobody" not found.`,
		},
		{
			name:      "missing member",
			setup:     func(*MockModeration) {},
			content:   "~kick",
			errorType: platformerrors.ErrorTypeInvalidInput,
			message:   "member is a required argument that is missing.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f.moderation)
			f.run(modID, tt.content)

			f.requireFailure(t, tt.errorType, tt.message)
			assert.Empty(t, f.moderation.kicked)
		})
	}
}

func TestBan(t *testing.T) {
	tests := []struct {
		content    string
		deleteDays int
	}{
		{content: "~ban <@" + targetID + "> raiding", deleteDays: 1},
		{content: "~ban keep <@" + targetID + "> raiding", deleteDays: 0},
		{content: "~ban save <@" + targetID + "> raiding", deleteDays: 0},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			f := newFixture(t)
			f.run(modID, tt.content)
			f.requireNoFailure(t)

			require.Len(t, f.moderation.banned, 1)
			assert.Equal(t, banCall{userID: targetID, reason: "raiding", deleteDays: tt.deleteDays}, f.moderation.banned[0])
			assert.Equal(t, "target#0003 was banned by mod#0002\n**Reason:** raiding", f.client.last(t).Embed.Description)
		})
	}
}

func history(n int, age time.Duration, authorID string) []chat.HistoryMessage {
	out := make([]chat.HistoryMessage, n)
	for i := range out {
		out[i] = chat.HistoryMessage{
			ID:        fmt.Sprintf("h%d", i),
			AuthorID:  authorID,
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: time.Now().Add(-age),
		}
	}
	return out
}

func TestPurge(t *testing.T) {
	f := newFixture(t)
	f.moderation.history = history(250, time.Hour, targetID)

	f.run(modID, "~purge 150")
	f.requireNoFailure(t)

	// 150 scanned messages plus the invocation itself.
	assert.Len(t, f.moderation.deleted, 151)
	assert.Equal(t, "invocation", f.moderation.deleted[150])

	reply := f.client.last(t)
	assert.Equal(t, "Sucessfully purged 150 messages", reply.Embed.Description)
	assert.Equal(t, 5*time.Second, reply.DeleteAfter)
}

func TestPurge_Filters(t *testing.T) {
	msgs := history(6, time.Hour, modID)
	msgs[1].AuthorID = targetID
	msgs[2].AuthorBot = true
	msgs[3].Content = "buy cheap nitro"
	msgs[4].HasAttachments = true
	msgs[5].HasEmbeds = true
	msgs[5].Content = "!rank"

	tests := []struct {
		content string
		want    []string
	}{
		{content: "~purge user <@" + targetID + ">", want: []string{"h1"}},
		{content: "~purge user 1 " + targetID, want: nil},
		{content: "~purge contains nitro", want: []string{"h3"}},
		{content: "~purge bot", want: []string{"h2"}},
		{content: "~purge bot !", want: []string{"h2", "h5"}},
		{content: "~purge human", want: []string{"h0", "h1", "h3", "h4", "h5"}},
		{content: "~purge files", want: []string{"h4"}},
		{content: "~purge embeds", want: []string{"h5"}},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			f := newFixture(t)
			f.moderation.history = msgs
			f.run(modID, tt.content)
			f.requireNoFailure(t)

			assert.Equal(t, append(tt.want, "invocation"), f.moderation.deleted)
		})
	}
}

func TestPurge_StopsAtBulkDeleteWindow(t *testing.T) {
	f := newFixture(t)
	f.moderation.history = append(history(3, time.Hour, targetID), history(3, 15*24*time.Hour, targetID)...)

	f.run(modID, "~purge")
	f.requireNoFailure(t)

	assert.Len(t, f.moderation.deleted, 4)
	assert.Equal(t, "Sucessfully purged 3 messages", f.client.last(t).Embed.Description)
}

func TestPurge_NothingDeleted(t *testing.T) {
	f := newFixture(t)
	f.moderation.history = history(3, 20*24*time.Hour, targetID)

	f.run(modID, "~purge")
	f.requireNoFailure(t)

	reply := f.client.last(t)
	assert.Equal(t, "No messages were deleted, make sure messages are not older than 14 days", reply.Embed.Description)
	assert.Equal(t, errorColour, reply.Embed.Colour)
}

func TestPurge_Limit(t *testing.T) {
	f := newFixture(t)
	f.run(modID, "~purge 1001")

	f.requireFailure(t, platformerrors.ErrorTypeInvalidInput, "Can't purge more than 1000 messages at a time.")
	assert.Empty(t, f.moderation.deleted)
}

func TestPrefix(t *testing.T) {
	f := newFixture(t)
	f.run(modID, "~prefix $$")
	f.requireNoFailure(t)

	assert.Equal(t, "$$", f.prefixes.prefixes[guildID])
	assert.Equal(t, "Prefix is now set to: $$", f.client.last(t).Embed.Description)

	f.run(modID, "$$source")
	f.requireNoFailure(t)
	assert.Contains(t, f.client.last(t).Embed.Description, "https://github.com/quanta-kt/CosmicDiversBot")
}

func TestPrefix_RequiresManageGuild(t *testing.T) {
	f := newFixture(t)
	f.moderation.perms[modID] = chat.PermissionKickMembers
	f.run(modID, "~prefix !")

	f.requireFailure(t, platformerrors.ErrorTypeCheckFailed, "Manage Server")
	assert.Empty(t, f.prefixes.prefixes)
}

func TestSource(t *testing.T) {
	f := newFixture(t)
	f.run(targetID, "~source")
	f.requireNoFailure(t)

	embed := f.client.last(t).Embed
	require.NotNil(t, embed)
	assert.Equal(t, "My source code is available [here](https://github.com/quanta-kt/CosmicDiversBot)", embed.Description)
	assert.Equal(t, "Feel free to open an issue or a PR", embed.Footer)
}

func TestElement(t *testing.T) {
	f := newFixture(t)
	f.run(targetID, "~atom hydrogen")
	f.requireNoFailure(t)
	assert.Equal(t, "Hydrogen", f.client.last(t).Embed.Title)

	f.run(targetID, "~element 0")
	f.requireFailure(t, platformerrors.ErrorTypeInvalidInput, "0 is not a valid atomic number of an atom.")
}

func TestWiki_NoResults(t *testing.T) {
	f := newFixture(t)
	f.run(targetID, "~wiki qwertyuiop")
	f.requireNoFailure(t)

	reply := f.client.last(t)
	assert.Equal(t, "No articles found.", reply.Embed.Description)
	assert.Equal(t, "invocation", reply.ReplyTo)
	assert.Zero(t, f.sessions.Len())
}

func TestWiki_OpensBrowser(t *testing.T) {
	f := newFixture(t)
	f.wiki.stubs = []wiki.Stub{
		{ID: 1, Key: "Cosmic_ray", Title: "Cosmic ray", Description: "Particle"},
		{ID: 2, Key: "Cosmic_dust", Title: "Cosmic dust"},
	}
	f.run(targetID, "~wiki cosmic")
	f.requireNoFailure(t)

	first := f.client.last(t)
	require.NotNil(t, first.Embed)
	assert.Equal(t, "Cosmic ray", first.Embed.Title)
	assert.NotEmpty(t, first.Controls)

	f.sessions.Wait(2 * time.Second)
	assert.Zero(t, f.sessions.Len())
}

func TestWiki_MissingQuery(t *testing.T) {
	f := newFixture(t)
	f.run(targetID, "~wiki")
	f.requireFailure(t, platformerrors.ErrorTypeInvalidInput, "query is a required argument that is missing.")
}

func TestHelp(t *testing.T) {
	tests := []struct {
		content string
		title   string
		notice  string
	}{
		{content: "~help", title: "Cosmic Divers Bot"},
		{content: "~help moderation", title: "Commands category: Moderation"},
		{content: "~help purge", title: "Command group purge"},
		{content: "~help purge user", title: "Help on command purge user"},
		{content: "~help help", title: "Help on command help"},
		{content: "~help nope", notice: `No command called "nope" found.`},
		{content: "~help purge nope", notice: `Command "purge" has no subcommand named nope`},
		{content: "~help kick nope", notice: `Command "kick" has no subcommands.`},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			f := newFixture(t)
			f.run(targetID, tt.content)
			f.requireNoFailure(t)

			reply := f.client.last(t)
			if tt.notice != "" {
				assert.Equal(t, tt.notice, reply.Content)
				return
			}
			require.NotNil(t, reply.Embed)
			assert.Equal(t, tt.title, reply.Embed.Title)
		})
	}
}
