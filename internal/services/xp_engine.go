package services

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"guildpulse/internal/models"
	"guildpulse/internal/providers"
	"guildpulse/internal/structures"
)

var ErrNegativeXP = errors.New("xp amount must not be negative")

// minVoiceSeconds is the shortest session that earns voice XP.
const minVoiceSeconds = 60

type LevelResult struct {
	LeveledUp bool
	Level     int
}

type MessageAward struct {
	LevelResult
	Awarded bool
	Amount  int64
}

type VoiceAward struct {
	LevelResult
	Amount int64
}

type XPEngineInterface interface {
	AwardMessage(memberID string, now time.Time) (MessageAward, error)
	AddXP(memberID string, amount int64) (LevelResult, error)
	AwardVoiceDuration(memberID string, seconds float64) (VoiceAward, error)
}

// XPEngine is the only writer of engagement profiles. Every call that
// changes a profile persists the whole store before returning.
type XPEngine struct {
	profiles       *models.ProfileStore
	metrics        providers.MetricsProviderInterface
	cooldown       time.Duration
	minXP          int
	maxXP          int
	voicePerMinute int
	roll           func(n int) int
}

func NewXPEngine(conf *structures.Config, profiles *models.ProfileStore, metrics providers.MetricsProviderInterface) *XPEngine {
	return &XPEngine{
		profiles:       profiles,
		metrics:        metrics,
		cooldown:       conf.XP.MessageCooldown,
		minXP:          conf.XP.MessageMin,
		maxXP:          conf.XP.MessageMax,
		voicePerMinute: conf.XP.VoicePerMinute,
		roll:           rand.Intn,
	}
}

func (e *XPEngine) rollMessageXP() int64 {
	return int64(e.minXP + e.roll(e.maxXP-e.minXP+1))
}

func (e *XPEngine) AwardMessage(memberID string, now time.Time) (MessageAward, error) {
	var award MessageAward
	err := e.profiles.Mutate(memberID, func(p *models.EngagementProfile) bool {
		if now.Sub(p.LastXPAt) <= e.cooldown {
			award.Level = p.Level
			return false
		}
		award.Awarded = true
		award.Amount = e.rollMessageXP()
		p.MessageCount++
		p.LastXPAt = now
		award.LeveledUp = p.ApplyXP(award.Amount)
		award.Level = p.Level
		return true
	})
	if err != nil {
		return award, fmt.Errorf("award message xp to %s: %w", memberID, err)
	}
	if award.Awarded {
		e.record(providers.SourceMessage, award.Amount, award.LeveledUp)
	}
	return award, nil
}

func (e *XPEngine) AddXP(memberID string, amount int64) (LevelResult, error) {
	if amount < 0 {
		return LevelResult{}, fmt.Errorf("add %d xp to %s: %w", amount, memberID, ErrNegativeXP)
	}

	var res LevelResult
	err := e.profiles.Mutate(memberID, func(p *models.EngagementProfile) bool {
		res.LeveledUp = p.ApplyXP(amount)
		res.Level = p.Level
		return true
	})
	if err != nil {
		return res, fmt.Errorf("add xp to %s: %w", memberID, err)
	}
	e.record(providers.SourceManual, amount, res.LeveledUp)
	return res, nil
}

// VoiceXP is the XP earned by a session of the given length.
func (e *XPEngine) VoiceXP(seconds float64) int64 {
	if seconds < minVoiceSeconds {
		return 0
	}
	return int64(math.Floor(seconds / 60 * float64(e.voicePerMinute)))
}

func (e *XPEngine) AwardVoiceDuration(memberID string, seconds float64) (VoiceAward, error) {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}

	var award VoiceAward
	award.Amount = e.VoiceXP(seconds)
	err := e.profiles.Mutate(memberID, func(p *models.EngagementProfile) bool {
		p.VoiceSeconds += seconds
		if award.Amount > 0 {
			award.LeveledUp = p.ApplyXP(award.Amount)
		}
		award.Level = p.Level
		return true
	})
	if err != nil {
		return award, fmt.Errorf("award voice xp to %s: %w", memberID, err)
	}
	e.record(providers.SourceVoice, award.Amount, award.LeveledUp)
	return award, nil
}

func (e *XPEngine) record(source string, amount int64, leveledUp bool) {
	e.metrics.IncXPAwarded(source, amount)
	if leveledUp {
		e.metrics.IncLevelUps(source)
	}
}
