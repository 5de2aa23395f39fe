//go:build wireinject
// +build wireinject

package di

import (
	"fmt"

	wire "github.com/google/wire"
	"guildpulse/internal"
	"guildpulse/internal/bot"
	"guildpulse/internal/controllers"
	"guildpulse/internal/models"
	"guildpulse/internal/platform"
	"guildpulse/internal/platform/discord"
	"guildpulse/internal/providers"
	"guildpulse/internal/scheduler"
	"guildpulse/internal/services"
	"guildpulse/internal/storage"
	"guildpulse/internal/structures"
	"guildpulse/internal/weather"
)

var storageSet = wire.NewSet(
	storage.NewZstdCompressor,
	storage.NewFileManager,
	provideBackupManager,
	models.NewProfileStore,
	models.NewGuildConfigStore,
	wire.Bind(new(models.ProfileSink), new(*storage.FileManager)),
	wire.Bind(new(models.GuildConfigSink), new(*storage.FileManager)),
	wire.Bind(new(scheduler.Restorer), new(*storage.FileManager)),
	wire.Bind(new(scheduler.Snapshotter), new(*storage.BackupManager)),
)

var platformSet = wire.NewSet(
	discord.NewGateway,
	wire.Bind(new(platform.Platform), new(*discord.Gateway)),
	wire.Bind(new(services.StatsPlatform), new(*discord.Gateway)),
	wire.Bind(new(services.WeatherPlatform), new(*discord.Gateway)),
	wire.Bind(new(controllers.Directory), new(*discord.Gateway)),
	wire.Bind(new(internal.Session), new(*discord.Gateway)),
	weather.NewClient,
	wire.Bind(new(weather.Provider), new(*weather.Client)),
)

var serviceSet = wire.NewSet(
	services.NewXPEngine,
	wire.Bind(new(services.XPEngineInterface), new(*services.XPEngine)),
	services.NewVoiceSessionTracker,
	services.NewLeaderboardService,
	services.NewStatsReconciler,
	services.NewWeatherService,
	wire.Bind(new(controllers.Ranking), new(*services.LeaderboardService)),
	wire.Bind(new(fmt.Stringer), new(*services.WeatherService)),
	wire.Bind(new(scheduler.WeatherRunner), new(*services.WeatherService)),
)

var botSet = wire.NewSet(
	bot.NewHandler,
	bot.NewExecutor,
	bot.NewDispatcher,
	wire.Bind(new(bot.StatsRefresher), new(*services.StatsReconciler)),
	wire.Bind(new(bot.EventHandler), new(*bot.Handler)),
	wire.Bind(new(bot.EffectApplier), new(*bot.Executor)),
	wire.Bind(new(bot.EventSink), new(*bot.Dispatcher)),
	wire.Bind(new(internal.Loop), new(*bot.Dispatcher)),
)

func InitApp(cfg *structures.CliFlags) (*internal.App, func(), error) {

	wire.Build(
		providers.NewConfigProvider,
		provideLogger,
		providers.NewInstrumentedCacheProvider,
		providers.NewMetricsProvider,

		storageSet,
		platformSet,
		serviceSet,
		botSet,

		scheduler.NewScheduler,
		controllers.NewApiController,
		provideHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil, nil
}
