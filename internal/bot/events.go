package bot

import (
	"context"
	"time"

	"guildpulse/internal/platform"
	"guildpulse/internal/weather"
)

// Event is anything the dispatcher consumes. Kind is used as a metric label.
type Event interface {
	Kind() string
}

type MessageCreated struct {
	GuildID   string
	ChannelID string
	Author    platform.User
	// AuthorIsAdmin is resolved by the platform adapter for text commands.
	AuthorIsAdmin bool
	Content       string
	At            time.Time
}

type VoiceStateChanged struct {
	GuildID         string
	Member          platform.User
	BeforeChannelID string
	AfterChannelID  string
	At              time.Time
}

type MemberJoined struct {
	GuildID  string
	MemberID string
}

type MemberLeft struct {
	GuildID  string
	MemberID string
}

// Ready is delivered once the gateway session is established.
type Ready struct {
	GuildIDs []string
}

// ReconcileTick asks for a stat-channel pass over every bound guild.
type ReconcileTick struct{}

// Responder answers one slash command interaction.
type Responder interface {
	Reply(ctx context.Context, msg platform.Message) error
	// Defer acknowledges the interaction; the answer is sent with Followup.
	Defer(ctx context.Context, ephemeral bool) error
	Followup(ctx context.Context, msg platform.Message) error
}

type CommandInvocation struct {
	Name              string
	GuildID           string
	ChannelID         string
	Invoker           platform.User
	IsAdmin           bool
	CanManageMessages bool
	// Options holds string, integer and channel option values by name.
	Options    map[string]string
	TargetUser *platform.User
	Responder  Responder
}

type CommandInvoked struct {
	Invocation CommandInvocation
}

// weatherCityResolved carries a city lookup done off the loop back to it.
type weatherCityResolved struct {
	invocation CommandInvocation
	city       string
	report     *weather.Report
	err        error
}

func (MessageCreated) Kind() string      { return "message" }
func (VoiceStateChanged) Kind() string   { return "voice_state" }
func (MemberJoined) Kind() string        { return "member_join" }
func (MemberLeft) Kind() string          { return "member_leave" }
func (Ready) Kind() string               { return "ready" }
func (ReconcileTick) Kind() string       { return "reconcile" }
func (CommandInvoked) Kind() string      { return "command" }
func (weatherCityResolved) Kind() string { return "weather_city" }
