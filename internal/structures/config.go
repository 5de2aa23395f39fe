package structures

import "time"

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1|max:65535"`
}

type DiscordConfig struct {
	Token string `yaml:"token" validate:"required"`
	// Guilds limits slash command registration to these guilds; empty means every joined guild.
	Guilds    []string `yaml:"guilds"`
	QueueSize int      `yaml:"queueSize" validate:"min:1"`
}

type Persistence struct {
	ProfilesPath string `yaml:"profilesPath" validate:"required"`
	ConfigPath   string `yaml:"configPath" validate:"required"`
}

type BackupConfig struct {
	Dir      string        `yaml:"dir"`
	Interval time.Duration `yaml:"interval"`
	Keep     int           `yaml:"keep" validate:"min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required"`
}

type XPConfig struct {
	MessageCooldown time.Duration `yaml:"messageCooldown" validate:"required|min:1"`
	MessageMin      int           `yaml:"messageMin" validate:"required|min:1"`
	MessageMax      int           `yaml:"messageMax" validate:"required|min:1"`
	VoicePerMinute  int           `yaml:"voicePerMinute" validate:"required|min:1"`
}

type StatLabels struct {
	Category string `yaml:"category" validate:"required"`
	Members  string `yaml:"members" validate:"required"`
	Online   string `yaml:"online" validate:"required"`
	Voice    string `yaml:"voice" validate:"required"`
}

type StatsConfig struct {
	Interval time.Duration `yaml:"interval" validate:"required|min:1"`
	Labels   StatLabels    `yaml:"labels"`
}

type WeatherConfig struct {
	Enabled    bool          `yaml:"enabled"`
	BaseURL    string        `yaml:"baseUrl"`
	Token      string        `yaml:"token"`
	Interval   time.Duration `yaml:"interval"`
	Pacing     time.Duration `yaml:"pacing"`
	PurgeLimit int           `yaml:"purgeLimit"`
	Timeout    time.Duration `yaml:"timeout"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	Discord     DiscordConfig `yaml:"discord"`
	WebServer   Server        `yaml:"webServer"`
	Persistence Persistence   `yaml:"persistence"`
	Backup      BackupConfig  `yaml:"backup"`
	Logger      LoggerConfig  `yaml:"logger"`
	XP          XPConfig      `yaml:"xp"`
	Stats       StatsConfig   `yaml:"stats"`
	Weather     WeatherConfig `yaml:"weather"`
	Cache       CacheConfig   `yaml:"cache"`
	Metrics     MetricsConfig `yaml:"metrics"`
}

// WeatherAvailable reports whether the weather feature can run with this configuration.
func (c *Config) WeatherAvailable() bool {
	return c.Weather.Enabled && c.Weather.Token != ""
}
