package models

import (
	"math"
	"time"
)

// DocumentVersion is written into every persisted document. Documents without
// a version are the legacy flat layout and go through migration on load.
const DocumentVersion = 2

// ProfileRecord is the on-disk form of one EngagementProfile. Field names match
// the legacy layout so old files decode into it directly.
type ProfileRecord struct {
	MemberID  string  `json:"id"`
	XP        int64   `json:"xp"`
	Level     int     `json:"level"`
	Messages  int64   `json:"messages"`
	VoiceTime float64 `json:"voice_time"`
	LastXP    float64 `json:"last_xp"`
}

// ProfileDocument keeps profiles as an array so insertion order survives a restart.
type ProfileDocument struct {
	Version  int             `json:"version"`
	Profiles []ProfileRecord `json:"profiles"`
}

type StatChannelsRecord struct {
	Category string `json:"category"`
	Members  string `json:"members"`
	Online   string `json:"online"`
	Voice    string `json:"voice"`
}

type WeatherRecord struct {
	Channel string   `json:"channel"`
	Cities  []string `json:"cities"`
}

type GuildConfigRecord struct {
	StatChannels *StatChannelsRecord `json:"stat_channels,omitempty"`
	Weather      *WeatherRecord      `json:"weather,omitempty"`
}

type GuildConfigDocument struct {
	Version int                           `json:"version"`
	Guilds  map[string]*GuildConfigRecord `json:"guilds"`
}

// Migrate fixes values that older files may carry: missing level, negative counters.
func (r *ProfileRecord) Migrate() {
	if r.Level < 1 {
		r.Level = 1
	}
	if r.XP < 0 {
		r.XP = 0
	}
	if r.Messages < 0 {
		r.Messages = 0
	}
	if r.VoiceTime < 0 || math.IsNaN(r.VoiceTime) {
		r.VoiceTime = 0
	}
	if r.LastXP < 0 {
		r.LastXP = 0
	}
}

func (r ProfileRecord) ToProfile() EngagementProfile {
	return EngagementProfile{
		XP:           r.XP,
		Level:        r.Level,
		MessageCount: r.Messages,
		VoiceSeconds: r.VoiceTime,
		LastXPAt:     unixFloatToTime(r.LastXP),
	}
}

func NewProfileRecord(memberID string, p EngagementProfile) ProfileRecord {
	return ProfileRecord{
		MemberID:  memberID,
		XP:        p.XP,
		Level:     p.Level,
		Messages:  p.MessageCount,
		VoiceTime: p.VoiceSeconds,
		LastXP:    timeToUnixFloat(p.LastXPAt),
	}
}

func (r *GuildConfigRecord) ToConfig() GuildConfig {
	var cfg GuildConfig
	if r == nil {
		return cfg
	}
	if sc := r.StatChannels; sc != nil {
		cfg.Stats = &StatChannels{
			CategoryID: sc.Category,
			MembersID:  sc.Members,
			OnlineID:   sc.Online,
			VoiceID:    sc.Voice,
		}
	}
	if w := r.Weather; w != nil {
		cfg.Weather = &WeatherSubscription{
			ChannelID: w.Channel,
			Cities:    dedupeCities(w.Cities),
		}
	}
	return cfg
}

func NewGuildConfigRecord(cfg GuildConfig) *GuildConfigRecord {
	rec := &GuildConfigRecord{}
	if sc := cfg.Stats; sc != nil {
		rec.StatChannels = &StatChannelsRecord{
			Category: sc.CategoryID,
			Members:  sc.MembersID,
			Online:   sc.OnlineID,
			Voice:    sc.VoiceID,
		}
	}
	if w := cfg.Weather; w != nil {
		cities := make([]string, len(w.Cities))
		copy(cities, w.Cities)
		rec.Weather = &WeatherRecord{Channel: w.ChannelID, Cities: cities}
	}
	return rec
}

func dedupeCities(cities []string) []string {
	out := make([]string, 0, len(cities))
	seen := make(map[string]struct{}, len(cities))
	for _, c := range cities {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func unixFloatToTime(sec float64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*1e9))
}

func timeToUnixFloat(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / 1e9
}
