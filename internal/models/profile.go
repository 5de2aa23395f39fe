package models

import "time"

// EngagementProfile is the XP state of a single member.
type EngagementProfile struct {
	XP           int64
	Level        int
	MessageCount int64
	VoiceSeconds float64
	LastXPAt     time.Time
}

func NewEngagementProfile() EngagementProfile {
	return EngagementProfile{Level: 1}
}

// LevelThreshold returns the xp a member needs to leave the given level.
func LevelThreshold(level int) int64 {
	l := int64(level)
	return 5*l*l + 50*l + 100
}

// NextLevelXP is the threshold of the profile's current level.
func (p EngagementProfile) NextLevelXP() int64 {
	return LevelThreshold(p.Level)
}

// Progress returns xp / threshold clamped to [0, 1].
func (p EngagementProfile) Progress() float64 {
	next := p.NextLevelXP()
	if next <= 0 {
		return 0
	}
	ratio := float64(p.XP) / float64(next)
	switch {
	case ratio < 0:
		return 0
	case ratio > 1:
		return 1
	}
	return ratio
}

// ApplyXP adds amount and levels up while the threshold is reached.
// It reports whether at least one level was gained.
func (p *EngagementProfile) ApplyXP(amount int64) bool {
	p.XP += amount
	leveled := false
	for p.XP >= LevelThreshold(p.Level) {
		p.Level++
		leveled = true
	}
	return leveled
}
