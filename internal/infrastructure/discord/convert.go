package discord

import (
	"bytes"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"
)

// controlPrefix namespaces button custom IDs owned by result browsers.
const controlPrefix = "page:"

var controlEmoji = map[chat.Control]string{
	"first":    "⏮️",
	"previous": "◀️",
	"next":     "▶️",
	"last":     "⏭️",
	"stop":     "⏹️",
}

func toEmbed(e *chat.Embed) *discordgo.MessageEmbed {
	if e == nil {
		return nil
	}
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		URL:         e.URL,
		Color:       e.Colour,
	}
	if e.ThumbnailURL != "" {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.ThumbnailURL}
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return out
}

func toEmbeds(e *chat.Embed) []*discordgo.MessageEmbed {
	if e == nil {
		return []*discordgo.MessageEmbed{}
	}
	return []*discordgo.MessageEmbed{toEmbed(e)}
}

func toFiles(files []chat.File) []*discordgo.File {
	out := make([]*discordgo.File, 0, len(files))
	for _, f := range files {
		out = append(out, &discordgo.File{
			Name:        f.Name,
			ContentType: "text/plain",
			Reader:      bytes.NewReader(f.Content),
		})
	}
	return out
}

// toComponents renders controls as one row of buttons. No controls yields an
// empty, non-nil slice so an edit clears existing buttons.
func toComponents(controls []chat.Control) []discordgo.MessageComponent {
	if len(controls) == 0 {
		return []discordgo.MessageComponent{}
	}
	row := discordgo.ActionsRow{}
	for _, c := range controls {
		button := discordgo.Button{
			Style:    discordgo.SecondaryButton,
			CustomID: controlPrefix + string(c),
		}
		if c == "stop" {
			button.Style = discordgo.DangerButton
		}
		if emoji, ok := controlEmoji[c]; ok {
			button.Emoji = &discordgo.ComponentEmoji{Name: emoji}
		} else {
			button.Label = string(c)
		}
		row.Components = append(row.Components, button)
	}
	return []discordgo.MessageComponent{row}
}

// controlFromCustomID reverses toComponents for an incoming button press.
func controlFromCustomID(id string) (chat.Control, bool) {
	if !strings.HasPrefix(id, controlPrefix) {
		return "", false
	}
	return chat.Control(strings.TrimPrefix(id, controlPrefix)), true
}

func toMessageSend(msg chat.Message) *discordgo.MessageSend {
	send := &discordgo.MessageSend{
		Content:         msg.Content,
		Files:           toFiles(msg.Files),
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers}},
	}
	if msg.Embed != nil {
		send.Embeds = toEmbeds(msg.Embed)
	}
	if len(msg.Controls) > 0 {
		send.Components = toComponents(msg.Controls)
	}
	if msg.ReplyTo != "" {
		send.Reference = &discordgo.MessageReference{MessageID: msg.ReplyTo}
	}
	return send
}

func toMessageEdit(ref chat.MessageRef, msg chat.Message) *discordgo.MessageEdit {
	content := msg.Content
	embeds := toEmbeds(msg.Embed)
	components := toComponents(msg.Controls)
	return &discordgo.MessageEdit{
		ID:         ref.MessageID,
		Channel:    ref.ChannelID,
		Content:    &content,
		Embeds:     &embeds,
		Components: &components,
	}
}

func toWebhookParams(msg chat.Message) *discordgo.WebhookParams {
	params := &discordgo.WebhookParams{
		Content: msg.Content,
		Files:   toFiles(msg.Files),
	}
	if msg.Embed != nil {
		params.Embeds = toEmbeds(msg.Embed)
	}
	return params
}

func toIncoming(m *discordgo.Message, botUserID, guildName string) chat.IncomingMessage {
	in := chat.IncomingMessage{
		ID:        m.ID,
		GuildID:   m.GuildID,
		GuildName: guildName,
		ChannelID: m.ChannelID,
		Content:   m.Content,
	}
	if m.Author != nil {
		in.AuthorID = m.Author.ID
		in.AuthorName = m.Author.String()
		in.AuthorBot = m.Author.Bot
	}
	for _, u := range m.Mentions {
		if u != nil && u.ID == botUserID {
			in.MentionsBot = true
			break
		}
	}
	return in
}

func toHistory(m *discordgo.Message) chat.HistoryMessage {
	h := chat.HistoryMessage{
		ID:             m.ID,
		Content:        m.Content,
		HasAttachments: len(m.Attachments) > 0,
		HasEmbeds:      len(m.Embeds) > 0,
		CreatedAt:      m.Timestamp,
	}
	if m.Author != nil {
		h.AuthorID = m.Author.ID
		h.AuthorBot = m.Author.Bot
	}
	return h
}
