package bot

import (
	"context"
	"fmt"

	"guildpulse/internal/platform"
	"guildpulse/internal/providers"
	"guildpulse/internal/services"
)

// Effect is an outbound action returned by the activity handlers.
type Effect interface {
	effect()
}

type SendMessage struct {
	ChannelID string
	Message   platform.Message
}

// NotifyGuild posts into the guild notification channel.
type NotifyGuild struct {
	GuildID string
	Message platform.Message
}

// RefreshStats queues a stat-channel pass for the guild. The pass runs off
// the loop and coalesces with any pass already in flight.
type RefreshStats struct {
	GuildID string
}

type SyncCommands struct {
	GuildID string
}

// Async runs off the dispatcher loop. A non-nil returned event is submitted
// back to the loop.
type Async struct {
	Name string
	Run  func(ctx context.Context) Event
}

func (SendMessage) effect()  {}
func (NotifyGuild) effect()  {}
func (RefreshStats) effect() {}
func (SyncCommands) effect() {}
func (Async) effect()        {}

type StatsRefresher interface {
	ReconcileGuild(ctx context.Context, guildID string) (services.ReconcileReport, error)
}

// Executor applies effects against the platform. Failures are logged and
// never stop the remaining effects.
type Executor struct {
	platform platform.Platform
	refresh  *refreshQueue
	logger   providers.Logger
}

func NewExecutor(p platform.Platform, stats StatsRefresher, logger providers.Logger) *Executor {
	return &Executor{platform: p, refresh: newRefreshQueue(stats, logger), logger: logger}
}

// Wait blocks until queued stat passes have finished.
func (x *Executor) Wait() {
	x.refresh.Wait()
}

func (x *Executor) Apply(ctx context.Context, effects []Effect) {
	for _, eff := range effects {
		if err := x.apply(ctx, eff); err != nil {
			x.logger.Errorf(providers.TypeBot, "%T failed: %s", eff, err)
		}
	}
}

func (x *Executor) apply(ctx context.Context, eff Effect) error {
	switch e := eff.(type) {
	case SendMessage:
		_, err := x.platform.SendMessage(ctx, e.ChannelID, e.Message)
		return err

	case NotifyGuild:
		channelID, err := x.platform.NotificationChannel(ctx, e.GuildID)
		if err != nil {
			return fmt.Errorf("notification channel of guild %s: %w", e.GuildID, err)
		}
		_, err = x.platform.SendMessage(ctx, channelID, e.Message)
		return err

	case RefreshStats:
		x.refresh.Request(ctx, e.GuildID)
		return nil

	case SyncCommands:
		n, err := x.platform.SyncCommands(ctx, e.GuildID)
		if err != nil {
			return fmt.Errorf("sync commands for guild %s: %w", e.GuildID, err)
		}
		x.logger.Infof(providers.TypeBot, "Commands synced for guild %s: %d", e.GuildID, n)
		return nil

	default:
		return fmt.Errorf("unsupported effect %T", eff)
	}
}
