package models

type StatChannels struct {
	CategoryID string
	MembersID  string
	OnlineID   string
	VoiceID    string
}

type WeatherSubscription struct {
	ChannelID string
	Cities    []string
}

// GuildConfig holds the per-guild feature bindings. Both parts are optional.
type GuildConfig struct {
	Stats   *StatChannels
	Weather *WeatherSubscription
}

// Clone returns a deep copy safe to hand out of the store.
func (c GuildConfig) Clone() GuildConfig {
	var out GuildConfig
	if c.Stats != nil {
		sc := *c.Stats
		out.Stats = &sc
	}
	if c.Weather != nil {
		cities := make([]string, len(c.Weather.Cities))
		copy(cities, c.Weather.Cities)
		out.Weather = &WeatherSubscription{ChannelID: c.Weather.ChannelID, Cities: cities}
	}
	return out
}

func (c *GuildConfig) weather() *WeatherSubscription {
	if c.Weather == nil {
		c.Weather = &WeatherSubscription{Cities: []string{}}
	}
	return c.Weather
}

// AddCity appends name unless an identical name is already tracked.
func (c *GuildConfig) AddCity(name string) bool {
	w := c.weather()
	for _, existing := range w.Cities {
		if existing == name {
			return false
		}
	}
	w.Cities = append(w.Cities, name)
	return true
}

func (c *GuildConfig) RemoveCity(name string) bool {
	if c.Weather == nil {
		return false
	}
	for i, existing := range c.Weather.Cities {
		if existing == name {
			c.Weather.Cities = append(c.Weather.Cities[:i], c.Weather.Cities[i+1:]...)
			return true
		}
	}
	return false
}
