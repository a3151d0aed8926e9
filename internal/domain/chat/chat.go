// Package chat holds the platform-neutral message model and the ports the
// domain uses to talk to the chat platform.
package chat

import (
	"context"
	"time"
)

// Field is a titled block inside an embed.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a rich message card.
type Embed struct {
	Title        string
	Description  string
	URL          string
	Colour       int
	ThumbnailURL string
	Footer       string
	Fields       []Field
}

// File is an attachment.
type File struct {
	Name    string
	Content []byte
}

// Control identifies an interactive button attached to a message.
type Control string

// Message is an outgoing message or a replacement for an existing one.
type Message struct {
	Content string
	Embed   *Embed
	Files   []File
	// Controls lists the buttons shown. An edit replaces the existing set, so
	// an edit without controls removes them.
	Controls []Control
	// ReplyTo references the message being answered, if any.
	ReplyTo string
	// DeleteAfter removes the message after the given delay when positive.
	DeleteAfter time.Duration
}

// MessageRef locates a delivered message.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// IncomingMessage is a message received from the gateway.
type IncomingMessage struct {
	ID          string
	GuildID     string
	GuildName   string
	ChannelID   string
	AuthorID    string
	AuthorName  string
	AuthorBot   bool
	Content     string
	MentionsBot bool
}

// JumpURL returns the permalink of the message.
func (m IncomingMessage) JumpURL() string {
	guild := m.GuildID
	if guild == "" {
		guild = "@me"
	}
	return "https://discord.com/channels/" + guild + "/" + m.ChannelID + "/" + m.ID
}

// WebhookTarget is a fixed delivery destination used for operator reports.
type WebhookTarget interface {
	Deliver(ctx context.Context, msg Message) error
}

// Client is the subset of the chat platform the core depends on.
type Client interface {
	SendMessage(ctx context.Context, channelID string, msg Message) (MessageRef, error)
	EditMessage(ctx context.Context, ref MessageRef, msg Message) error
	FetchOperatorWebhook(ctx context.Context, id string) (WebhookTarget, error)
}
