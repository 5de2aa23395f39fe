package services

import "guildpulse/internal/models"

const (
	// MaxLeaderboard is the size of the API ranking.
	MaxLeaderboard = 50
	// DisplayLeaderboard is the size of the interactive ranking.
	DisplayLeaderboard = 10
)

type LeaderboardEntry struct {
	Rank     int
	MemberID string
	Profile  models.EngagementProfile
}

// LeaderboardService ranks every stored profile by descending XP. Ties keep
// profile creation order. Ranking is global, not per guild.
type LeaderboardService struct {
	profiles *models.ProfileStore
}

func NewLeaderboardService(profiles *models.ProfileStore) *LeaderboardService {
	return &LeaderboardService{profiles: profiles}
}

// TopN returns the first n ranked profiles, fewer when less exist.
func (l *LeaderboardService) TopN(n int) []LeaderboardEntry {
	n = max(n, 0)
	ranked := l.profiles.Ranked()
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	out := make([]LeaderboardEntry, len(ranked))
	for i, r := range ranked {
		out[i] = LeaderboardEntry{Rank: i + 1, MemberID: r.MemberID, Profile: r.Profile}
	}
	return out
}

// RankOf returns the 1-based position of memberID, false when it has no profile.
func (l *LeaderboardService) RankOf(memberID string) (int, bool) {
	for i, r := range l.profiles.Ranked() {
		if r.MemberID == memberID {
			return i + 1, true
		}
	}
	return 0, false
}
