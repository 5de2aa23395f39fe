package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/roylee0704/gron"
	"guildpulse/internal/bot"
	"guildpulse/internal/models"
	"guildpulse/internal/providers"
	"guildpulse/internal/scheduler/interfaces"
	"guildpulse/internal/structures"
)

// Restorer loads both persisted documents into the stores.
type Restorer interface {
	Restore(profiles *models.ProfileStore, guilds *models.GuildConfigStore) error
}

type WeatherRunner interface {
	RunAll(ctx context.Context) bool
}

type Snapshotter interface {
	Enabled() bool
	Snapshot(now time.Time) (string, error)
}

type Scheduler struct {
	config   *structures.Config
	logger   providers.Logger
	files    Restorer
	backups  Snapshotter
	weather  WeatherRunner
	sink     bot.EventSink
	profiles *models.ProfileStore
	guilds   *models.GuildConfigStore
	cron     *gron.Cron
	opsMu    sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	now      func() time.Time
}

// Init registers the timer jobs and starts them. Jobs that need the bot
// loop only submit an event to it.
func (s *Scheduler) Init() {
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Stats.Interval), func() {
		if err := s.RunReconcile(s.ctx); err != nil {
			s.logger.Warnf(providers.TypeScheduler, "Stats tick not delivered: %s", err)
		}
	})

	if s.config.WeatherAvailable() && s.config.Weather.Interval > 0 {
		s.cron.AddFunc(gron.Every(s.config.Weather.Interval), func() {
			s.RunWeather(s.ctx)
		})
	}

	if s.backups.Enabled() && s.config.Backup.Interval > 0 {
		s.cron.AddFunc(gron.Every(s.config.Backup.Interval), func() {
			if _, err := s.RunBackup(s.now()); err != nil {
				s.logger.Errorf(providers.TypeScheduler, "Backup failed: %s", err)
			}
		})
	}

	s.cron.Start()
	s.logger.Infof(providers.TypeScheduler, "Scheduler started (stats every %s)", s.config.Stats.Interval)
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	s.cancel()
}

// RunReconcile asks the bot loop to refresh every bound stat channel.
func (s *Scheduler) RunReconcile(ctx context.Context) error {
	return s.sink.Submit(ctx, bot.ReconcileTick{})
}

// RunWeather posts the weather digest of every subscribed guild. It
// reports false when the run was skipped.
func (s *Scheduler) RunWeather(ctx context.Context) bool {
	return s.weather.RunAll(ctx)
}

// RunBackup writes one snapshot of both stores.
func (s *Scheduler) RunBackup(now time.Time) (string, error) {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	path, err := s.backups.Snapshot(now)
	if err != nil {
		return "", err
	}
	if path != "" {
		s.logger.Infof(providers.TypeScheduler, "Backup written to %s", path)
	}
	return path, nil
}

func (s *Scheduler) Restore() error {
	if err := s.files.Restore(s.profiles, s.guilds); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	return nil
}

// Persist flushes both stores and takes a final backup. Every step runs
// even when an earlier one fails.
func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeApp, "Persisting profiles and guild configs...")
	var errs []error
	if err := s.profiles.Save(); err != nil {
		errs = append(errs, err)
	}
	if err := s.guilds.Save(); err != nil {
		errs = append(errs, err)
	}
	if s.backups.Enabled() {
		if _, err := s.backups.Snapshot(s.now()); err != nil {
			errs = append(errs, fmt.Errorf("final backup: %w", err))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
	}
	return err
}

func NewScheduler(config *structures.Config, logger providers.Logger, files Restorer, backups Snapshotter,
	weather WeatherRunner, sink bot.EventSink, profiles *models.ProfileStore, guilds *models.GuildConfigStore) interfaces.SchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		config:   config,
		logger:   logger,
		files:    files,
		backups:  backups,
		weather:  weather,
		sink:     sink,
		profiles: profiles,
		guilds:   guilds,
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
	}
}
