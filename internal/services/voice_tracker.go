package services

import (
	"sync"
	"time"
)

// VoiceTransition is one voice-state change. Empty channel ids mean "not in voice".
type VoiceTransition struct {
	MemberID        string
	IsBot           bool
	BeforeChannelID string
	AfterChannelID  string
	At              time.Time
}

type VoiceOutcome struct {
	VoiceAward
	Ended    bool
	Duration time.Duration
}

// VoiceSessionTracker keeps join times in memory. Sessions do not survive a
// restart.
type VoiceSessionTracker struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	xp       XPEngineInterface
}

func NewVoiceSessionTracker(xp XPEngineInterface) *VoiceSessionTracker {
	return &VoiceSessionTracker{
		sessions: make(map[string]time.Time),
		xp:       xp,
	}
}

// Observe applies one transition. When a session ends its duration is
// credited through the XP engine and reported in the outcome.
func (t *VoiceSessionTracker) Observe(tr VoiceTransition) (VoiceOutcome, error) {
	if tr.IsBot {
		return VoiceOutcome{}, nil
	}

	wasIn := tr.BeforeChannelID != ""
	isIn := tr.AfterChannelID != ""

	switch {
	case !wasIn && isIn:
		t.mu.Lock()
		t.sessions[tr.MemberID] = tr.At
		t.mu.Unlock()
		return VoiceOutcome{}, nil

	case wasIn && !isIn:
		t.mu.Lock()
		joined, ok := t.sessions[tr.MemberID]
		delete(t.sessions, tr.MemberID)
		t.mu.Unlock()
		if !ok {
			return VoiceOutcome{}, nil
		}

		d := max(tr.At.Sub(joined), 0)
		award, err := t.xp.AwardVoiceDuration(tr.MemberID, d.Seconds())
		return VoiceOutcome{VoiceAward: award, Ended: true, Duration: d}, err
	}
	// channel moves and mute/deafen updates keep the session
	return VoiceOutcome{}, nil
}

// Active returns the join time of memberID's open session.
func (t *VoiceSessionTracker) Active(memberID string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	at, ok := t.sessions[memberID]
	return at, ok
}

func (t *VoiceSessionTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
