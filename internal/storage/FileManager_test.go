package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"guildpulse/internal/models"
	"guildpulse/internal/structures"
	"guildpulse/internal/testutil"
)

func newTestFileManager(t *testing.T) (*FileManager, *testutil.MockMetrics, *testutil.MockLogger) {
	t.Helper()
	dir := t.TempDir()
	conf := &structures.Config{
		Persistence: structures.Persistence{
			ProfilesPath: filepath.Join(dir, "general_data.json"),
			ConfigPath:   filepath.Join(dir, "server_config.json"),
		},
	}
	metrics := testutil.NewMockMetrics()
	logger := &testutil.MockLogger{}
	return NewFileManager(conf, logger, metrics), metrics, logger
}

func TestFileManager_WriteProfiles_CreatesIndentedFile(t *testing.T) {
	fm, metrics, _ := newTestFileManager(t)

	doc := &models.ProfileDocument{
		Version:  models.DocumentVersion,
		Profiles: []models.ProfileRecord{{MemberID: "1", XP: 10, Level: 1}},
	}
	require.NoError(t, fm.WriteProfiles(doc))

	data, err := os.ReadFile(fm.profilesPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "\n    \"version\": 2"))

	_, err = os.Stat(fm.profilesPath + ".tmp")
	assert.True(t, os.IsNotExist(err))

	assert.Equal(t, 1, metrics.DocumentRecords["profiles"])
	assert.Equal(t, 1, metrics.Persistence)
}

func TestFileManager_WriteProfiles_UnwritableDir(t *testing.T) {
	fm, _, _ := newTestFileManager(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	fm.profilesPath = filepath.Join(blocker, "general_data.json")

	err := fm.WriteProfiles(&models.ProfileDocument{Version: models.DocumentVersion})
	assert.Error(t, err)
}

func TestFileManager_LoadProfiles_FileNotExist(t *testing.T) {
	fm, _, _ := newTestFileManager(t)
	records, err := fm.LoadProfiles()
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileManager_ProfilesRoundtrip(t *testing.T) {
	fm, _, _ := newTestFileManager(t)

	store := models.NewProfileStore(fm)
	require.NoError(t, store.Mutate("300", func(p *models.EngagementProfile) bool {
		p.ApplyXP(500)
		p.MessageCount = 4
		p.LastXPAt = time.Unix(1700000000, 0)
		return true
	}))
	require.NoError(t, store.Mutate("100", func(p *models.EngagementProfile) bool {
		p.VoiceSeconds = 90.5
		return true
	}))

	records, err := fm.LoadProfiles()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "300", records[0].MemberID)
	assert.Equal(t, "100", records[1].MemberID)

	restored := models.NewProfileStore(nil)
	restored.PutRecords(records)

	p, ok := restored.Lookup("300")
	require.True(t, ok)
	assert.Equal(t, int64(500), p.XP)
	assert.Equal(t, int64(4), p.MessageCount)
	assert.Equal(t, int64(1700000000), p.LastXPAt.Unix())

	p, ok = restored.Lookup("100")
	require.True(t, ok)
	assert.Equal(t, 90.5, p.VoiceSeconds)
}

func TestFileManager_LoadProfiles_LegacyKeepsKeyOrder(t *testing.T) {
	fm, metrics, logger := newTestFileManager(t)

	legacy := `{
    "900": {"xp": 50, "level": 1, "messages": 3, "voice_time": 12.5, "last_xp": 1700000000.25},
    "100": {"xp": 400, "level": 3, "messages": 20, "last_xp": 0},
    "500": {"xp": 50, "level": 0, "messages": -2, "voice_time": 0, "last_xp": 0}
}`
	require.NoError(t, os.WriteFile(fm.profilesPath, []byte(legacy), 0644))

	records, err := fm.LoadProfiles()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"900", "100", "500"}, []string{records[0].MemberID, records[1].MemberID, records[2].MemberID})
	assert.Equal(t, 12.5, records[0].VoiceTime)
	assert.Zero(t, records[1].VoiceTime)
	assert.Equal(t, 3, metrics.DocumentRecords["profiles"])
	assert.True(t, logger.Contains("warn", "Legacy profile document"))

	store := models.NewProfileStore(nil)
	store.PutRecords(records)
	p, _ := store.Lookup("500")
	assert.Equal(t, 1, p.Level)
	assert.Zero(t, p.MessageCount)

	ranked := store.Ranked()
	assert.Equal(t, "100", ranked[0].MemberID)
	// tie on 50 xp keeps file order
	assert.Equal(t, "900", ranked[1].MemberID)
	assert.Equal(t, "500", ranked[2].MemberID)
}

func TestFileManager_LoadProfiles_Corrupt(t *testing.T) {
	fm, _, _ := newTestFileManager(t)
	require.NoError(t, os.WriteFile(fm.profilesPath, []byte("not json at all"), 0644))

	_, err := fm.LoadProfiles()
	assert.Error(t, err)
}

func TestFileManager_LoadProfiles_LegacyNotAnObject(t *testing.T) {
	fm, _, _ := newTestFileManager(t)
	require.NoError(t, os.WriteFile(fm.profilesPath, []byte(`[1, 2, 3]`), 0644))

	_, err := fm.LoadProfiles()
	assert.Error(t, err)
}

func TestFileManager_LoadProfiles_FutureVersion(t *testing.T) {
	fm, _, _ := newTestFileManager(t)
	require.NoError(t, os.WriteFile(fm.profilesPath, []byte(`{"version": 99, "profiles": []}`), 0644))

	_, err := fm.LoadProfiles()
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestFileManager_GuildConfigsRoundtrip(t *testing.T) {
	fm, metrics, _ := newTestFileManager(t)

	store := models.NewGuildConfigStore(fm)
	require.NoError(t, store.SetStatChannels("g1", models.StatChannels{
		CategoryID: "10", MembersID: "11", OnlineID: "12", VoiceID: "13",
	}))
	require.NoError(t, store.SetWeatherChannel("g2", "20"))
	_, err := store.AddWeatherCity("g2", "Lyon")
	require.NoError(t, err)

	guilds, err := fm.LoadGuildConfigs()
	require.NoError(t, err)
	require.Len(t, guilds, 2)
	assert.Equal(t, 2, metrics.DocumentRecords["guilds"])

	restored := models.NewGuildConfigStore(nil)
	restored.PutRecords(guilds)

	cfg, ok := restored.Lookup("g1")
	require.True(t, ok)
	require.NotNil(t, cfg.Stats)
	assert.Equal(t, "12", cfg.Stats.OnlineID)
	assert.Nil(t, cfg.Weather)

	w, ok := restored.WeatherConfig("g2")
	require.True(t, ok)
	assert.Equal(t, "20", w.ChannelID)
	assert.Equal(t, []string{"Lyon"}, w.Cities)
}

func TestFileManager_LoadGuildConfigs_Legacy(t *testing.T) {
	fm, _, _ := newTestFileManager(t)

	legacy := `{
    "111": {"category": 1180000000000000001, "members": 1180000000000000002, "online": 1180000000000000003, "voice": 1180000000000000004},
    "222": {"meteo_channel": 1180000000000000009, "meteo_cities": ["Paris", "Brest", "Paris"]},
    "333": {"meteo_cities": ["Nice"]}
}`
	require.NoError(t, os.WriteFile(fm.configPath, []byte(legacy), 0644))

	guilds, err := fm.LoadGuildConfigs()
	require.NoError(t, err)
	require.Len(t, guilds, 3)

	require.NotNil(t, guilds["111"].StatChannels)
	assert.Equal(t, "1180000000000000001", guilds["111"].StatChannels.Category)
	assert.Equal(t, "1180000000000000004", guilds["111"].StatChannels.Voice)
	assert.Nil(t, guilds["111"].Weather)

	require.NotNil(t, guilds["222"].Weather)
	assert.Equal(t, "1180000000000000009", guilds["222"].Weather.Channel)
	assert.Nil(t, guilds["222"].StatChannels)

	store := models.NewGuildConfigStore(nil)
	store.PutRecords(guilds)
	w, ok := store.WeatherConfig("222")
	require.True(t, ok)
	assert.Equal(t, []string{"Paris", "Brest"}, w.Cities)

	// cities without a channel are kept but the guild is not scheduled
	assert.Equal(t, []string{"222"}, store.WeatherGuildIDs())
}

func TestFileManager_LegacyThenSaveWritesVersion2(t *testing.T) {
	fm, _, _ := newTestFileManager(t)
	require.NoError(t, os.WriteFile(fm.profilesPath, []byte(`{"7": {"xp": 1, "level": 1, "messages": 1, "last_xp": 0}}`), 0644))

	profiles := models.NewProfileStore(fm)
	guilds := models.NewGuildConfigStore(fm)
	require.NoError(t, fm.Restore(profiles, guilds))
	require.NoError(t, profiles.Save())

	data, err := os.ReadFile(fm.profilesPath)
	require.NoError(t, err)

	var doc models.ProfileDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, models.DocumentVersion, doc.Version)
	require.Len(t, doc.Profiles, 1)
	assert.Equal(t, "7", doc.Profiles[0].MemberID)
}

func TestFileManager_Restore_CorruptConfigAborts(t *testing.T) {
	fm, _, _ := newTestFileManager(t)
	require.NoError(t, os.WriteFile(fm.configPath, []byte("{broken"), 0644))

	profiles := models.NewProfileStore(fm)
	guilds := models.NewGuildConfigStore(fm)
	assert.Error(t, fm.Restore(profiles, guilds))

	// the corrupt file is left alone
	data, err := os.ReadFile(fm.configPath)
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(data))
}

func TestSnowflake_Unmarshal(t *testing.T) {
	var ids []snowflake
	require.NoError(t, json.Unmarshal([]byte(`[123456789012345678, "42", null]`), &ids))
	assert.Equal(t, []snowflake{"123456789012345678", "42", ""}, ids)
}
