package providers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"guildpulse/internal/structures"
)

var ErrMissingToken = errors.New("GENERAL_BOT_TOKEN is not set")

func setDefaults(v *viper.Viper) {
	v.SetDefault("discord.queueSize", 256)
	v.SetDefault("webServer.host", "0.0.0.0")
	v.SetDefault("webServer.port", 8080)
	v.SetDefault("persistence.profilesPath", "general_data.json")
	v.SetDefault("persistence.configPath", "server_config.json")
	v.SetDefault("backup.dir", "backups")
	v.SetDefault("backup.interval", "24h")
	v.SetDefault("backup.keep", 7)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("logger.dir", "logs")
	v.SetDefault("xp.messageCooldown", "10s")
	v.SetDefault("xp.messageMin", 15)
	v.SetDefault("xp.messageMax", 25)
	v.SetDefault("xp.voicePerMinute", 10)
	v.SetDefault("stats.interval", "10m")
	v.SetDefault("stats.labels.category", "📊 STATISTIQUES")
	v.SetDefault("stats.labels.members", "👥 Membres : %d")
	v.SetDefault("stats.labels.online", "🟢 En ligne : %d")
	v.SetDefault("stats.labels.voice", "🔊 En vocal : %d")
	v.SetDefault("weather.enabled", true)
	v.SetDefault("weather.baseUrl", "https://webservice.meteofrance.com")
	v.SetDefault("weather.interval", "60m")
	v.SetDefault("weather.pacing", "2s")
	v.SetDefault("weather.purgeLimit", 10)
	v.SetDefault("weather.timeout", "15s")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size", 16)
	v.SetDefault("cache.ttl", "30s")
	v.SetDefault("metrics.enabled", true)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	setDefaults(v)

	_ = v.BindEnv("discord.token", "GENERAL_BOT_TOKEN")
	_ = v.BindEnv("webServer.port", "PORT")
	_ = v.BindEnv("logger.level", "GUILDPULSE_LOG_LEVEL")
	_ = v.BindEnv("weather.token", "METEO_TOKEN")
	_ = v.BindEnv("metrics.enabled", "GUILDPULSE_METRICS_ENABLED")

	if flags.ConfigPath != "" {
		filename := filepath.Base(flags.ConfigPath)
		v.AddConfigPath(filepath.Dir(flags.ConfigPath))
		v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", flags.ConfigPath, err)
			}
		}
	}

	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	if strings.TrimSpace(conf.Discord.Token) == "" {
		return nil, ErrMissingToken
	}

	if err := NewCnfValidator(&conf).Validate(); err != nil {
		return nil, err
	}

	conf.AppName = "GuildPulse"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
