package storage

import (
	"errors"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"guildpulse/internal/models"
	"guildpulse/internal/providers"
	"guildpulse/internal/structures"
)

const (
	documentProfiles = "profiles"
	documentGuilds   = "guilds"
)

var ErrUnsupportedVersion = errors.New("unsupported document version")

// FileManager reads and writes the two JSON documents. It implements both
// models.ProfileSink and models.GuildConfigSink.
type FileManager struct {
	profilesPath string
	configPath   string
	logger       providers.Logger
	metrics      providers.MetricsProviderInterface
}

func NewFileManager(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *FileManager {
	return &FileManager{
		profilesPath: conf.Persistence.ProfilesPath,
		configPath:   conf.Persistence.ConfigPath,
		logger:       logger,
		metrics:      metrics,
	}
}

func (f *FileManager) WriteProfiles(doc *models.ProfileDocument) error {
	if err := f.writeJSON(f.profilesPath, doc); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	f.metrics.SetDocumentRecords(documentProfiles, len(doc.Profiles))
	return nil
}

func (f *FileManager) WriteGuildConfigs(doc *models.GuildConfigDocument) error {
	if err := f.writeJSON(f.configPath, doc); err != nil {
		return fmt.Errorf("write guild configs: %w", err)
	}
	f.metrics.SetDocumentRecords(documentGuilds, len(doc.Guilds))
	return nil
}

func (f *FileManager) writeJSON(path string, v interface{}) error {
	start := time.Now()
	defer func() { f.metrics.ObservePersistenceDuration(time.Since(start)) }()

	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data, 0644)
}

// versionProbe tells the current layout apart from the legacy one, which has
// no version key.
type versionProbe struct {
	Version *int `json:"version"`
}

func readDocument(path string) ([]byte, *int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var probe versionProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if probe.Version != nil && *probe.Version > models.DocumentVersion {
		return nil, nil, fmt.Errorf("%s: %w %d", path, ErrUnsupportedVersion, *probe.Version)
	}
	return data, probe.Version, nil
}

// LoadProfiles returns the stored profiles in insertion order. A missing file
// yields no records; a corrupt one is an error.
func (f *FileManager) LoadProfiles() ([]models.ProfileRecord, error) {
	data, version, err := readDocument(f.profilesPath)
	if err != nil || data == nil {
		return nil, err
	}

	if version != nil {
		var doc models.ProfileDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.profilesPath, err)
		}
		f.metrics.SetDocumentRecords(documentProfiles, len(doc.Profiles))
		return doc.Profiles, nil
	}

	f.logger.Warnf(providers.TypeApp, "Legacy profile document found in %s, migrating", f.profilesPath)
	records, err := decodeLegacyProfiles(data)
	if err != nil {
		f.logger.Warnf(providers.TypeApp, "Migration failed")
		return nil, fmt.Errorf("decode legacy %s: %w", f.profilesPath, err)
	}
	f.logger.Warnf(providers.TypeApp, "Migrated %d legacy profiles", len(records))
	f.metrics.SetDocumentRecords(documentProfiles, len(records))
	return records, nil
}

func (f *FileManager) LoadGuildConfigs() (map[string]*models.GuildConfigRecord, error) {
	data, version, err := readDocument(f.configPath)
	if err != nil || data == nil {
		return nil, err
	}

	if version != nil {
		var doc models.GuildConfigDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.configPath, err)
		}
		f.metrics.SetDocumentRecords(documentGuilds, len(doc.Guilds))
		return doc.Guilds, nil
	}

	f.logger.Warnf(providers.TypeApp, "Legacy guild config document found in %s, migrating", f.configPath)
	guilds, err := decodeLegacyGuildConfigs(data)
	if err != nil {
		f.logger.Warnf(providers.TypeApp, "Migration failed")
		return nil, fmt.Errorf("decode legacy %s: %w", f.configPath, err)
	}
	f.logger.Warnf(providers.TypeApp, "Migrated %d legacy guild configs", len(guilds))
	f.metrics.SetDocumentRecords(documentGuilds, len(guilds))
	return guilds, nil
}

// Restore fills both stores from disk. Any read or decode error is returned
// untouched so startup can abort before an empty store overwrites the file.
func (f *FileManager) Restore(profiles *models.ProfileStore, guilds *models.GuildConfigStore) error {
	records, err := f.LoadProfiles()
	if err != nil {
		return err
	}
	profiles.PutRecords(records)

	configs, err := f.LoadGuildConfigs()
	if err != nil {
		return err
	}
	guilds.PutRecords(configs)

	f.logger.Infof(providers.TypeApp, "Restored %d profiles and %d guild configs", profiles.Len(), guilds.Len())
	return nil
}
