package storage

import (
	"bytes"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"guildpulse/internal/models"
)

// snowflake accepts an id written either as a JSON number or a string.
// Older files stored channel ids as bare integers.
type snowflake string

func (s *snowflake) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = snowflake(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = snowflake(n.String())
	return nil
}

type legacyGuildConfig struct {
	Category     snowflake `json:"category"`
	Members      snowflake `json:"members"`
	Online       snowflake `json:"online"`
	Voice        snowflake `json:"voice"`
	MeteoChannel snowflake `json:"meteo_channel"`
	MeteoCities  []string  `json:"meteo_cities"`
}

func (l *legacyGuildConfig) record() *models.GuildConfigRecord {
	rec := &models.GuildConfigRecord{}
	if l.Category != "" || l.Members != "" || l.Online != "" || l.Voice != "" {
		rec.StatChannels = &models.StatChannelsRecord{
			Category: string(l.Category),
			Members:  string(l.Members),
			Online:   string(l.Online),
			Voice:    string(l.Voice),
		}
	}
	if l.MeteoChannel != "" || l.MeteoCities != nil {
		cities := l.MeteoCities
		if cities == nil {
			cities = []string{}
		}
		rec.Weather = &models.WeatherRecord{Channel: string(l.MeteoChannel), Cities: cities}
	}
	return rec
}

// decodeLegacyProfiles reads the flat {"<member id>": {...}} layout. Key order
// is the insertion order of the old store, so the object is walked token by
// token instead of being decoded into a map.
func decodeLegacyProfiles(data []byte) ([]models.ProfileRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var records []models.ProfileRecord
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected member id, got %v", keyTok)
		}

		var rec models.ProfileRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("member %s: %w", key, err)
		}
		rec.MemberID = key
		records = append(records, rec)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return records, nil
}

func decodeLegacyGuildConfigs(data []byte) (map[string]*models.GuildConfigRecord, error) {
	var legacy map[string]*legacyGuildConfig
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}

	out := make(map[string]*models.GuildConfigRecord, len(legacy))
	for gid, l := range legacy {
		if l == nil {
			continue
		}
		out[gid] = l.record()
	}
	return out, nil
}
