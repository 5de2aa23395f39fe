// Package platform describes what the bot needs from the chat service. The
// discord subpackage implements it; tests use in-memory fakes.
package platform

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a guild, channel or member is unknown to the platform.
var ErrNotFound = errors.New("not found")

// DefaultAvatarURL is shown for members that left every shared guild.
const DefaultAvatarURL = "https://cdn.discordapp.com/embed/avatars/0.png"

type GuildCounts struct {
	Members int
	Online  int
	Voice   int
}

type GuildInfo struct {
	ID       string
	Name     string
	IconURL  string
	Members  int
	Online   int
	Channels int
}

type User struct {
	ID          string
	DisplayName string
	AvatarURL   string
	Color       int
	Bot         bool
}

func (u User) Mention() string {
	return "<@" + u.ID + ">"
}

// ChannelMention formats a channel reference the way the client renders it.
func ChannelMention(channelID string) string {
	return "<#" + channelID + ">"
}

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

type Embed struct {
	Title         string
	Description   string
	Color         int
	AuthorName    string
	AuthorIconURL string
	ThumbnailURL  string
	Footer        string
	Fields        []EmbedField
}

func (e *Embed) AddField(name, value string, inline bool) {
	e.Fields = append(e.Fields, EmbedField{Name: name, Value: value, Inline: inline})
}

type Message struct {
	Content   string
	Embed     *Embed
	Ephemeral bool
}

// StatChannelIDs are the ids created by CreateStatChannels.
type StatChannelIDs struct {
	Category string
	Members  string
	Online   string
	Voice    string
}

// StatChannelNames are the names used when creating stat channels.
type StatChannelNames struct {
	Category string
	Members  string
	Online   string
	Voice    string
}

type Platform interface {
	BotName() string
	Guilds() []string
	GuildCounts(ctx context.Context, guildID string) (GuildCounts, error)
	GuildInfo(ctx context.Context, guildID string) (GuildInfo, error)
	ChannelName(ctx context.Context, channelID string) (string, error)
	RenameChannel(ctx context.Context, channelID, name string) error
	// CreateStatChannels creates a category holding three voice channels
	// nobody can connect to.
	CreateStatChannels(ctx context.Context, guildID string, names StatChannelNames) (StatChannelIDs, error)
	SendMessage(ctx context.Context, channelID string, msg Message) (string, error)
	EditMessage(ctx context.Context, channelID, messageID, content string) error
	// PurgeMessages deletes up to limit recent messages, only the bot's own
	// when ownOnly is set, and reports how many were removed.
	PurgeMessages(ctx context.Context, channelID string, limit int, ownOnly bool) (int, error)
	// User looks a member up in any shared guild.
	User(userID string) (User, bool)
	Member(guildID, userID string) (User, bool)
	// NotificationChannel is the guild system channel or else its first text channel.
	NotificationChannel(ctx context.Context, guildID string) (string, error)
	SyncCommands(ctx context.Context, guildID string) (int, error)
}
