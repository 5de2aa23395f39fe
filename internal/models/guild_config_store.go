package models

import (
	"sort"
	"sync"
)

// GuildConfigSink persists the whole guild configuration document.
type GuildConfigSink interface {
	WriteGuildConfigs(doc *GuildConfigDocument) error
}

type GuildConfigStore struct {
	mu      sync.RWMutex
	configs map[string]*GuildConfig
	sink    GuildConfigSink
}

func NewGuildConfigStore(sink GuildConfigSink) *GuildConfigStore {
	return &GuildConfigStore{
		configs: make(map[string]*GuildConfig),
		sink:    sink,
	}
}

func (gs *GuildConfigStore) getOrCreate(guildID string) *GuildConfig {
	if c, ok := gs.configs[guildID]; ok {
		return c
	}
	c := &GuildConfig{}
	gs.configs[guildID] = c
	return c
}

// Get returns a copy of the guild's config, inserting an empty one if absent.
func (gs *GuildConfigStore) Get(guildID string) GuildConfig {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.getOrCreate(guildID).Clone()
}

func (gs *GuildConfigStore) Lookup(guildID string) (GuildConfig, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	c, ok := gs.configs[guildID]
	if !ok {
		return GuildConfig{}, false
	}
	return c.Clone(), true
}

// Mutate applies fn and saves the document when fn reports a change.
func (gs *GuildConfigStore) Mutate(guildID string, fn func(c *GuildConfig) bool) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if !fn(gs.getOrCreate(guildID)) {
		return nil
	}
	return gs.saveLocked()
}

func (gs *GuildConfigStore) SetStatChannels(guildID string, channels StatChannels) error {
	return gs.Mutate(guildID, func(c *GuildConfig) bool {
		c.Stats = &channels
		return true
	})
}

// SetWeatherChannel binds the digest channel, keeping already tracked cities.
func (gs *GuildConfigStore) SetWeatherChannel(guildID, channelID string) error {
	return gs.Mutate(guildID, func(c *GuildConfig) bool {
		c.weather().ChannelID = channelID
		return true
	})
}

// AddWeatherCity reports false when the exact name is already tracked.
func (gs *GuildConfigStore) AddWeatherCity(guildID, city string) (bool, error) {
	added := false
	err := gs.Mutate(guildID, func(c *GuildConfig) bool {
		added = c.AddCity(city)
		return added
	})
	return added, err
}

// RemoveWeatherCity reports false when the city was not tracked.
func (gs *GuildConfigStore) RemoveWeatherCity(guildID, city string) (bool, error) {
	removed := false
	gs.mu.Lock()
	defer gs.mu.Unlock()
	c, ok := gs.configs[guildID]
	if !ok {
		return false, nil
	}
	if removed = c.RemoveCity(city); !removed {
		return false, nil
	}
	return removed, gs.saveLocked()
}

// WeatherConfig returns the guild's weather subscription, if any.
func (gs *GuildConfigStore) WeatherConfig(guildID string) (WeatherSubscription, bool) {
	c, ok := gs.Lookup(guildID)
	if !ok || c.Weather == nil {
		return WeatherSubscription{}, false
	}
	return *c.Weather, true
}

// StatGuildIDs lists guilds with bound stat channels, sorted.
func (gs *GuildConfigStore) StatGuildIDs() []string {
	return gs.guildIDs(func(c *GuildConfig) bool { return c.Stats != nil })
}

// WeatherGuildIDs lists guilds with a weather channel and at least one city, sorted.
func (gs *GuildConfigStore) WeatherGuildIDs() []string {
	return gs.guildIDs(func(c *GuildConfig) bool {
		return c.Weather != nil && c.Weather.ChannelID != "" && len(c.Weather.Cities) > 0
	})
}

func (gs *GuildConfigStore) guildIDs(match func(c *GuildConfig) bool) []string {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	ids := make([]string, 0, len(gs.configs))
	for id, c := range gs.configs {
		if match(c) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (gs *GuildConfigStore) Save() error {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.saveLocked()
}

func (gs *GuildConfigStore) saveLocked() error {
	if gs.sink == nil {
		return nil
	}
	return gs.sink.WriteGuildConfigs(gs.documentLocked())
}

func (gs *GuildConfigStore) documentLocked() *GuildConfigDocument {
	doc := &GuildConfigDocument{
		Version: DocumentVersion,
		Guilds:  make(map[string]*GuildConfigRecord, len(gs.configs)),
	}
	for id, c := range gs.configs {
		doc.Guilds[id] = NewGuildConfigRecord(*c)
	}
	return doc
}

func (gs *GuildConfigStore) Document() *GuildConfigDocument {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.documentLocked()
}

func (gs *GuildConfigStore) PutRecords(records map[string]*GuildConfigRecord) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.configs = make(map[string]*GuildConfig, len(records))
	for id, rec := range records {
		if id == "" {
			continue
		}
		cfg := rec.ToConfig()
		gs.configs[id] = &cfg
	}
}

func (gs *GuildConfigStore) Len() int {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return len(gs.configs)
}
