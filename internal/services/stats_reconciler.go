package services

import (
	"context"
	"errors"
	"fmt"

	"guildpulse/internal/models"
	"guildpulse/internal/platform"
	"guildpulse/internal/providers"
	"guildpulse/internal/structures"
)

var ErrUnknownGuild = errors.New("unknown guild")

// Rename results used as metric labels.
const (
	RenameRenamed   = "renamed"
	RenameUnchanged = "unchanged"
	RenameFailed    = "failed"
	RenameMissing   = "missing"
)

type StatsPlatform interface {
	GuildCounts(ctx context.Context, guildID string) (platform.GuildCounts, error)
	ChannelName(ctx context.Context, channelID string) (string, error)
	RenameChannel(ctx context.Context, channelID, name string) error
}

type ReconcileReport struct {
	GuildID   string
	Skipped   bool
	Renamed   int
	Unchanged int
	Missing   int
	Failed    int
}

// StatsReconciler keeps the "live stat" channel names in line with the
// current guild counts. Channels are only renamed when their label changed.
type StatsReconciler struct {
	guilds   *models.GuildConfigStore
	platform StatsPlatform
	labels   structures.StatLabels
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
}

func NewStatsReconciler(conf *structures.Config, guilds *models.GuildConfigStore, p StatsPlatform,
	logger providers.Logger, metrics providers.MetricsProviderInterface) *StatsReconciler {
	return &StatsReconciler{
		guilds:   guilds,
		platform: p,
		labels:   conf.Stats.Labels,
		logger:   logger,
		metrics:  metrics,
	}
}

// Names renders the channel names for counts.
func (r *StatsReconciler) Names(counts platform.GuildCounts) platform.StatChannelNames {
	return platform.StatChannelNames{
		Category: r.labels.Category,
		Members:  fmt.Sprintf(r.labels.Members, counts.Members),
		Online:   fmt.Sprintf(r.labels.Online, counts.Online),
		Voice:    fmt.Sprintf(r.labels.Voice, counts.Voice),
	}
}

func (r *StatsReconciler) ReconcileGuild(ctx context.Context, guildID string) (ReconcileReport, error) {
	report := ReconcileReport{GuildID: guildID}

	cfg, ok := r.guilds.Lookup(guildID)
	if !ok || cfg.Stats == nil {
		report.Skipped = true
		return report, nil
	}

	counts, err := r.platform.GuildCounts(ctx, guildID)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return report, fmt.Errorf("guild %s: %w", guildID, ErrUnknownGuild)
		}
		return report, fmt.Errorf("count guild %s: %w", guildID, err)
	}

	names := r.Names(counts)
	targets := []struct{ channelID, label string }{
		{cfg.Stats.MembersID, names.Members},
		{cfg.Stats.OnlineID, names.Online},
		{cfg.Stats.VoiceID, names.Voice},
	}
	for _, t := range targets {
		if t.channelID == "" {
			continue
		}
		result := r.reconcileChannel(ctx, guildID, t.channelID, t.label)
		r.metrics.IncRenames(result)
		switch result {
		case RenameRenamed:
			report.Renamed++
		case RenameUnchanged:
			report.Unchanged++
		case RenameMissing:
			report.Missing++
		default:
			report.Failed++
		}
	}
	return report, nil
}

func (r *StatsReconciler) reconcileChannel(ctx context.Context, guildID, channelID, label string) string {
	current, err := r.platform.ChannelName(ctx, channelID)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return RenameMissing
		}
		r.logger.Errorf(providers.TypeBot, "Stat channel %s of guild %s: %s", channelID, guildID, err)
		return RenameFailed
	}
	if current == label {
		return RenameUnchanged
	}
	if err := r.platform.RenameChannel(ctx, channelID, label); err != nil {
		r.logger.Errorf(providers.TypeBot, "Rename stat channel %s of guild %s: %s", channelID, guildID, err)
		return RenameFailed
	}
	return RenameRenamed
}
