package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"guildpulse/internal/models"
	"guildpulse/internal/providers"
	"guildpulse/internal/storage/interfaces"
	"guildpulse/internal/structures"
)

const (
	backupPrefix     = "guildpulse-"
	backupSuffix     = ".json.zst"
	backupTimeLayout = "20060102T150405"
)

// Archive is the content of one backup file.
type Archive struct {
	TakenAt  time.Time                   `json:"taken_at"`
	Profiles *models.ProfileDocument     `json:"profiles"`
	Guilds   *models.GuildConfigDocument `json:"guilds"`
}

// BackupManager writes zstd-compressed snapshots of both stores and keeps
// only the newest ones.
type BackupManager struct {
	dir        string
	keep       int
	profiles   *models.ProfileStore
	guilds     *models.GuildConfigStore
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewBackupManager(conf *structures.Config, profiles *models.ProfileStore, guilds *models.GuildConfigStore,
	compressor interfaces.CompressorInterface, logger providers.Logger) *BackupManager {
	return &BackupManager{
		dir:        conf.Backup.Dir,
		keep:       conf.Backup.Keep,
		profiles:   profiles,
		guilds:     guilds,
		compressor: compressor,
		logger:     logger,
	}
}

func (b *BackupManager) Enabled() bool {
	return b.dir != ""
}

// Snapshot writes one archive named after now and prunes older ones. It
// returns the archive path.
func (b *BackupManager) Snapshot(now time.Time) (string, error) {
	if !b.Enabled() {
		return "", nil
	}

	archive := Archive{
		TakenAt:  now.UTC(),
		Profiles: b.profiles.Document(),
		Guilds:   b.guilds.Document(),
	}
	raw, err := json.Marshal(archive)
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}
	data, err := b.compressor.Compress(raw)
	if err != nil {
		return "", fmt.Errorf("compress backup: %w", err)
	}

	path := filepath.Join(b.dir, backupPrefix+now.UTC().Format(backupTimeLayout)+backupSuffix)
	if err := writeFileAtomic(path, data, 0644); err != nil {
		return "", fmt.Errorf("write backup %s: %w", path, err)
	}

	if err := b.prune(); err != nil {
		b.logger.Warnf(providers.TypeScheduler, "Backup prune failed: %s", err)
	}
	return path, nil
}

// List returns archive file names, oldest first.
func (b *BackupManager) List() ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		names = append(names, name)
	}
	// the timestamp layout sorts lexically
	sort.Strings(names)
	return names, nil
}

func (b *BackupManager) prune() error {
	names, err := b.List()
	if err != nil {
		return err
	}
	if len(names) <= b.keep {
		return nil
	}
	for _, name := range names[:len(names)-b.keep] {
		if err := os.Remove(filepath.Join(b.dir, name)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Open decodes an archive written by Snapshot.
func (b *BackupManager) Open(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw, err := b.compressor.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	var archive Archive
	if err := json.Unmarshal(raw, &archive); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &archive, nil
}

func (b *BackupManager) Close() {
	b.compressor.Close()
}
