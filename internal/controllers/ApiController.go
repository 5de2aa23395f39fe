package controllers

import (
	"context"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
	"guildpulse/internal/platform"
	"guildpulse/internal/providers"
	"guildpulse/internal/services"
)

// Directory is the read-only platform view the API needs.
type Directory interface {
	BotName() string
	Guilds() []string
	GuildCounts(ctx context.Context, guildID string) (platform.GuildCounts, error)
	User(userID string) (platform.User, bool)
}

type Ranking interface {
	TopN(n int) []services.LeaderboardEntry
}

type leaderboardEntry struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Avatar    string  `json:"avatar"`
	Level     int     `json:"level"`
	XP        int64   `json:"xp"`
	Messages  int64   `json:"messages"`
	VoiceTime float64 `json:"voice_time"`
}

type statsResponse struct {
	Guilds     int `json:"guilds"`
	Members    int `json:"members"`
	Online     int `json:"online"`
	VoiceCount int `json:"voice_count"`
}

type ApiController struct {
	logger      providers.Logger
	directory   Directory
	leaderboard Ranking
	weather     fmt.Stringer
	cache       providers.CacheProviderInterface
}

// NewApiController serves the public API. weather renders the weather
// feature state on the liveness page.
func NewApiController(logger providers.Logger, directory Directory, leaderboard Ranking,
	weather fmt.Stringer, cache providers.CacheProviderInterface) *ApiController {
	return &ApiController{
		logger:      logger,
		directory:   directory,
		leaderboard: leaderboard,
		weather:     weather,
		cache:       cache,
	}
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.logger.Errorf(providers.TypeAPI, "Compute %s: %s", cacheKey, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// Home is the liveness page.
func (ac *ApiController) Home(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("🤖 " + ac.directory.BotName() + " est en ligne ! Météo: " + ac.weather.String()))
}

func (ac *ApiController) Leaderboard(w http.ResponseWriter, _ *http.Request) {
	ac.serveFromCacheOrCompute(w, "leaderboard", func() (any, error) {
		entries := ac.leaderboard.TopN(services.MaxLeaderboard)
		out := make([]leaderboardEntry, 0, len(entries))
		for _, e := range entries {
			item := leaderboardEntry{
				ID:        e.MemberID,
				Name:      "Utilisateur parti",
				Avatar:    platform.DefaultAvatarURL,
				Level:     e.Profile.Level,
				XP:        e.Profile.XP,
				Messages:  e.Profile.MessageCount,
				VoiceTime: e.Profile.VoiceSeconds,
			}
			if u, ok := ac.directory.User(e.MemberID); ok {
				item.Name = u.DisplayName
				item.Avatar = u.AvatarURL
			}
			out = append(out, item)
		}
		return out, nil
	})
}

// Stats sums the counters of every joined guild. Guilds missing from the
// platform cache are skipped.
func (ac *ApiController) Stats(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "stats", func() (any, error) {
		guilds := ac.directory.Guilds()
		resp := statsResponse{Guilds: len(guilds)}
		for _, gid := range guilds {
			c, err := ac.directory.GuildCounts(r.Context(), gid)
			if err != nil {
				ac.logger.Warnf(providers.TypeAPI, "Counts of guild %s: %s", gid, err)
				continue
			}
			resp.Members += c.Members
			resp.Online += c.Online
			resp.VoiceCount += c.Voice
		}
		return resp, nil
	})
}
