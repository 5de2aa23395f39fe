package models

import (
	"sort"
	"sync"
)

// ProfileSink persists the whole profile document.
type ProfileSink interface {
	WriteProfiles(doc *ProfileDocument) error
}

// RankedProfile pairs a profile with its member id.
type RankedProfile struct {
	MemberID string
	Profile  EngagementProfile
}

// ProfileStore owns every EngagementProfile. Insertion order is kept because
// it breaks xp ties in rankings.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*EngagementProfile
	order    []string
	sink     ProfileSink
}

func NewProfileStore(sink ProfileSink) *ProfileStore {
	return &ProfileStore{
		profiles: make(map[string]*EngagementProfile),
		sink:     sink,
	}
}

// getOrCreate must be called under ps.mu.Lock().
func (ps *ProfileStore) getOrCreate(memberID string) *EngagementProfile {
	if p, ok := ps.profiles[memberID]; ok {
		return p
	}
	p := NewEngagementProfile()
	ps.profiles[memberID] = &p
	ps.order = append(ps.order, memberID)
	return &p
}

// Get returns a copy of the member's profile, inserting a default one if absent.
func (ps *ProfileStore) Get(memberID string) EngagementProfile {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return *ps.getOrCreate(memberID)
}

// Lookup returns a copy of the member's profile without creating it.
func (ps *ProfileStore) Lookup(memberID string) (EngagementProfile, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	p, ok := ps.profiles[memberID]
	if !ok {
		return EngagementProfile{}, false
	}
	return *p, true
}

// Mutate applies fn to the member's profile (created if absent). When fn
// reports a change the whole document is saved before Mutate returns.
func (ps *ProfileStore) Mutate(memberID string, fn func(p *EngagementProfile) bool) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if !fn(ps.getOrCreate(memberID)) {
		return nil
	}
	return ps.saveLocked()
}

// Save persists the entire profile map.
func (ps *ProfileStore) Save() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.saveLocked()
}

func (ps *ProfileStore) saveLocked() error {
	if ps.sink == nil {
		return nil
	}
	return ps.sink.WriteProfiles(ps.documentLocked())
}

func (ps *ProfileStore) documentLocked() *ProfileDocument {
	doc := &ProfileDocument{
		Version:  DocumentVersion,
		Profiles: make([]ProfileRecord, 0, len(ps.order)),
	}
	for _, id := range ps.order {
		doc.Profiles = append(doc.Profiles, NewProfileRecord(id, *ps.profiles[id]))
	}
	return doc
}

// Document returns a snapshot in persistence form.
func (ps *ProfileStore) Document() *ProfileDocument {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.documentLocked()
}

// PutRecords replaces the store content with records, keeping their order.
// Duplicate ids keep the first occurrence.
func (ps *ProfileStore) PutRecords(records []ProfileRecord) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.profiles = make(map[string]*EngagementProfile, len(records))
	ps.order = make([]string, 0, len(records))
	for _, rec := range records {
		if rec.MemberID == "" {
			continue
		}
		if _, dup := ps.profiles[rec.MemberID]; dup {
			continue
		}
		rec.Migrate()
		p := rec.ToProfile()
		ps.profiles[rec.MemberID] = &p
		ps.order = append(ps.order, rec.MemberID)
	}
}

func (ps *ProfileStore) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.profiles)
}

// Ranked returns every profile ordered by descending xp, ties in insertion order.
func (ps *ProfileStore) Ranked() []RankedProfile {
	ps.mu.RLock()
	out := make([]RankedProfile, 0, len(ps.order))
	for _, id := range ps.order {
		out = append(out, RankedProfile{MemberID: id, Profile: *ps.profiles[id]})
	}
	ps.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Profile.XP > out[j].Profile.XP
	})
	return out
}
