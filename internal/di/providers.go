package di

import (
	"guildpulse/internal/controllers"
	"guildpulse/internal/models"
	"guildpulse/internal/providers"
	"guildpulse/internal/services"
	"guildpulse/internal/storage"
	"guildpulse/internal/storage/interfaces"
	"guildpulse/internal/structures"
)

func provideLogger(conf *structures.Config) (providers.Logger, func(), error) {
	logger, err := providers.NewLogProvider(conf)
	if err != nil {
		return nil, nil, err
	}
	return logger, logger.Close, nil
}

func provideBackupManager(conf *structures.Config, profiles *models.ProfileStore, guilds *models.GuildConfigStore,
	compressor interfaces.CompressorInterface, logger providers.Logger) (*storage.BackupManager, func()) {
	bm := storage.NewBackupManager(conf, profiles, guilds, compressor, logger)
	return bm, bm.Close
}

// The health controller takes three counters of the same type, so it gets
// an explicit provider.
func provideHealthController(profiles *models.ProfileStore, guilds *models.GuildConfigStore,
	voice *services.VoiceSessionTracker) *controllers.HealthController {
	return controllers.NewHealthController(profiles, guilds, voice)
}
