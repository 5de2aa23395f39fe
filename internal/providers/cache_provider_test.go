package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"guildpulse/internal/structures"
)

// local mock logger to avoid import cycle with testutil
type cacheTestLogger struct{ warns int }

func (m *cacheTestLogger) Errorf(_ TypeEnum, _ string, _ ...interface{}) {}
func (m *cacheTestLogger) Warnf(_ TypeEnum, _ string, _ ...interface{})  { m.warns++ }
func (m *cacheTestLogger) Debugf(_ TypeEnum, _ string, _ ...interface{}) {}
func (m *cacheTestLogger) Infof(_ TypeEnum, _ string, _ ...interface{})  {}
func (m *cacheTestLogger) Fatalf(_ TypeEnum, _ string, _ ...interface{}) {}
func (m *cacheTestLogger) Close()                                        {}

func cacheConfig(enabled bool, size int, ttl time.Duration) *structures.Config {
	return &structures.Config{
		Cache: structures.CacheConfig{
			Enabled: enabled,
			Size:    size,
			TTL:     ttl,
		},
	}
}

func TestCacheProvider_DisabledNeverStores(t *testing.T) {
	c := NewCacheProvider(cacheConfig(false, 10, 5*time.Second), &cacheTestLogger{})
	_, ok := c.Get("any")
	assert.False(t, ok)
	assert.IsType(t, disabledCache{}, c)
}

func TestCacheProvider_ZeroSizeIsDisabled(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 0, 5*time.Second), &cacheTestLogger{})
	assert.IsType(t, disabledCache{}, c)
}

func TestCacheProvider_EnabledReturnsResponseCache(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 1, 5*time.Second), &cacheTestLogger{})
	assert.IsType(t, &ResponseCache{}, c)
}

func TestCacheProvider_TTLRoundsUpToSeconds(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 1, 100*time.Millisecond), &cacheTestLogger{})
	assert.Equal(t, 1, c.(*ResponseCache).ttl)

	c = NewCacheProvider(cacheConfig(true, 1, 2500*time.Millisecond), &cacheTestLogger{})
	assert.Equal(t, 3, c.(*ResponseCache).ttl)
}

func TestCacheProvider_OversizedResponseIsSkippedAndLoggedOnce(t *testing.T) {
	logger := &cacheTestLogger{}
	c := NewCacheProvider(cacheConfig(true, 1, 5*time.Second), logger)

	big := make([]byte, 4096)
	c.Set("leaderboard", big)
	c.Set("leaderboard", big)

	_, ok := c.Get("leaderboard")
	assert.False(t, ok)
	assert.Equal(t, 1, logger.warns)
}

func TestCacheProvider_SetAndGet(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 1, 5*time.Second), &cacheTestLogger{})

	c.Set("leaderboard", []byte("value1"))
	val, ok := c.Get("leaderboard")
	assert.True(t, ok)
	assert.Equal(t, []byte("value1"), val)
}

func TestCacheProvider_Miss(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 1, 5*time.Second), &cacheTestLogger{})

	val, ok := c.Get("nonexistent")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestCacheProvider_Overwrite(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 1, 5*time.Second), &cacheTestLogger{})

	c.Set("stats", []byte("v1"))
	c.Set("stats", []byte("v2"))

	val, ok := c.Get("stats")
	assert.True(t, ok)
	assert.Equal(t, []byte("v2"), val)
}

func TestDisabledCache_AlwaysMiss(t *testing.T) {
	c := disabledCache{}
	c.Set("key1", []byte("value1"))

	val, ok := c.Get("key1")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestCacheProvider_TTLExpiry(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 1, time.Second), &cacheTestLogger{})

	c.Set("key1", []byte("value1"))
	_, ok := c.Get("key1")
	assert.True(t, ok)

	time.Sleep(2100 * time.Millisecond)

	_, ok = c.Get("key1")
	assert.False(t, ok)
}
