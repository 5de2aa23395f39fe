package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/atomic"
	"guildpulse/internal/models"
	"guildpulse/internal/platform"
	"guildpulse/internal/providers"
	"guildpulse/internal/structures"
	"guildpulse/internal/weather"
)

var (
	ErrWeatherDisabled = errors.New("weather is disabled")
	ErrDigestRunning   = errors.New("a weather digest is already running")
	ErrNoSubscription  = errors.New("no weather channel or city configured")
)

// Digest results used as metric labels.
const (
	WeatherPosted  = "posted"
	WeatherSkipped = "skipped"
	WeatherFailed  = "failed"
)

type WeatherPlatform interface {
	SendMessage(ctx context.Context, channelID string, msg platform.Message) (string, error)
	PurgeMessages(ctx context.Context, channelID string, limit int, ownOnly bool) (int, error)
}

// WeatherService posts city digests into the guild weather channels. At
// most one digest run is active at a time.
type WeatherService struct {
	enabled    bool
	pacing     time.Duration
	purgeLimit int
	guilds     *models.GuildConfigStore
	provider   weather.Provider
	platform   WeatherPlatform
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
	running    atomic.Bool
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewWeatherService(conf *structures.Config, guilds *models.GuildConfigStore, provider weather.Provider,
	p WeatherPlatform, logger providers.Logger, metrics providers.MetricsProviderInterface) *WeatherService {
	return &WeatherService{
		enabled:    conf.WeatherAvailable(),
		pacing:     conf.Weather.Pacing,
		purgeLimit: conf.Weather.PurgeLimit,
		guilds:     guilds,
		provider:   provider,
		platform:   p,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (w *WeatherService) Available() bool {
	return w.enabled
}

// Resolve finds city and loads its report. weather.ErrPlaceNotFound means
// the city does not exist.
func (w *WeatherService) Resolve(ctx context.Context, city string) (*weather.Report, error) {
	if !w.enabled {
		return nil, ErrWeatherDisabled
	}
	return weather.Resolve(ctx, w.provider, city)
}

// Embed renders report as of now.
func (w *WeatherService) Embed(report *weather.Report) *platform.Embed {
	return weather.BuildEmbed(report, w.now())
}

// PostDigest refreshes the weather channel of one guild and reports how many
// cities were posted.
func (w *WeatherService) PostDigest(ctx context.Context, guildID string) (int, error) {
	if !w.enabled {
		return 0, ErrWeatherDisabled
	}
	if !w.running.CompareAndSwap(false, true) {
		return 0, ErrDigestRunning
	}
	defer w.running.Store(false)

	return w.postDigest(ctx, guildID)
}

func (w *WeatherService) postDigest(ctx context.Context, guildID string) (int, error) {
	sub, ok := w.guilds.WeatherConfig(guildID)
	if !ok || sub.ChannelID == "" || len(sub.Cities) == 0 {
		return 0, ErrNoSubscription
	}

	if _, err := w.platform.PurgeMessages(ctx, sub.ChannelID, w.purgeLimit, true); err != nil {
		w.logger.Warnf(providers.TypeScheduler, "Weather purge in channel %s failed: %s", sub.ChannelID, err)
	}

	posted := 0
	for i, city := range sub.Cities {
		if ctx.Err() != nil {
			return posted, ctx.Err()
		}
		if i > 0 {
			if err := w.sleep(ctx, w.pacing); err != nil {
				return posted, err
			}
		}

		report, err := weather.Resolve(ctx, w.provider, city)
		if err != nil {
			w.logger.Warnf(providers.TypeScheduler, "Weather for %s failed: %s", city, err)
			w.metrics.IncWeatherPosts(WeatherSkipped)
			continue
		}
		if _, err := w.platform.SendMessage(ctx, sub.ChannelID, platform.Message{Embed: w.Embed(report)}); err != nil {
			w.logger.Errorf(providers.TypeScheduler, "Weather post for %s in guild %s failed: %s", city, guildID, err)
			w.metrics.IncWeatherPosts(WeatherFailed)
			continue
		}
		w.metrics.IncWeatherPosts(WeatherPosted)
		posted++
	}
	return posted, nil
}

// RunAll posts the digest of every subscribed guild. It returns false when
// another run was still active.
func (w *WeatherService) RunAll(ctx context.Context) bool {
	if !w.enabled {
		return false
	}
	if !w.running.CompareAndSwap(false, true) {
		w.logger.Warnf(providers.TypeScheduler, "Weather run skipped, previous run still active")
		return false
	}
	defer w.running.Store(false)

	w.logger.Infof(providers.TypeScheduler, "Weather update...")
	for _, gid := range w.guilds.WeatherGuildIDs() {
		if ctx.Err() != nil {
			break
		}
		n, err := w.postDigest(ctx, gid)
		if err != nil {
			w.logger.Errorf(providers.TypeScheduler, "Weather digest for guild %s: %s", gid, err)
			continue
		}
		w.logger.Infof(providers.TypeScheduler, "Weather digest for guild %s: %d cities", gid, n)
	}
	return true
}

// String describes the service state for the liveness page.
func (w *WeatherService) String() string {
	if w.enabled {
		return "ACTIF"
	}
	return "INACTIF"
}
