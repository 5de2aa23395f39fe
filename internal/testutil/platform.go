package testutil

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"guildpulse/internal/platform"
)

type SentMessage struct {
	ChannelID string
	Message   platform.Message
}

type Rename struct {
	ChannelID string
	Name      string
}

// MockPlatform is an in-memory platform.Platform. Errors can be injected per
// channel or per call kind.
type MockPlatform struct {
	mu sync.Mutex

	Name          string
	GuildIDs      []string
	Counts        map[string]platform.GuildCounts
	Infos         map[string]platform.GuildInfo
	ChannelNames  map[string]string
	Users         map[string]platform.User
	Members       map[string]map[string]platform.User
	SystemChannel map[string]string

	RenameErr  map[string]error
	SendErr    error
	PurgeErr   error
	CountsErr  error
	SyncErr    error
	SyncResult int
	CreateErr  error

	Renames []Rename
	Sent    []SentMessage
	Edits   []SentMessage
	Purges  []string
	Synced  []string
	Created []string
	nextID  int
}

func NewMockPlatform() *MockPlatform {
	return &MockPlatform{
		Name:          "GuildPulse",
		Counts:        map[string]platform.GuildCounts{},
		Infos:         map[string]platform.GuildInfo{},
		ChannelNames:  map[string]string{},
		Users:         map[string]platform.User{},
		Members:       map[string]map[string]platform.User{},
		SystemChannel: map[string]string{},
		RenameErr:     map[string]error{},
	}
}

func (m *MockPlatform) BotName() string { return m.Name }

func (m *MockPlatform) Guilds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.GuildIDs...)
}

func (m *MockPlatform) GuildCounts(_ context.Context, guildID string) (platform.GuildCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CountsErr != nil {
		return platform.GuildCounts{}, m.CountsErr
	}
	c, ok := m.Counts[guildID]
	if !ok {
		return c, platform.ErrNotFound
	}
	return c, nil
}

func (m *MockPlatform) GuildInfo(_ context.Context, guildID string) (platform.GuildInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.Infos[guildID]
	if !ok {
		return info, platform.ErrNotFound
	}
	return info, nil
}

func (m *MockPlatform) ChannelName(_ context.Context, channelID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.ChannelNames[channelID]
	if !ok {
		return "", platform.ErrNotFound
	}
	return name, nil
}

func (m *MockPlatform) RenameChannel(_ context.Context, channelID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.RenameErr[channelID]; err != nil {
		return err
	}
	m.Renames = append(m.Renames, Rename{ChannelID: channelID, Name: name})
	m.ChannelNames[channelID] = name
	return nil
}

func (m *MockPlatform) newID() string {
	m.nextID++
	return "mock-" + strconv.Itoa(m.nextID)
}

func (m *MockPlatform) CreateStatChannels(_ context.Context, guildID string, names platform.StatChannelNames) (platform.StatChannelIDs, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return platform.StatChannelIDs{}, m.CreateErr
	}
	ids := platform.StatChannelIDs{Category: m.newID(), Members: m.newID(), Online: m.newID(), Voice: m.newID()}
	m.ChannelNames[ids.Category] = names.Category
	m.ChannelNames[ids.Members] = names.Members
	m.ChannelNames[ids.Online] = names.Online
	m.ChannelNames[ids.Voice] = names.Voice
	m.Created = append(m.Created, guildID)
	return ids, nil
}

func (m *MockPlatform) SendMessage(_ context.Context, channelID string, msg platform.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return "", m.SendErr
	}
	m.Sent = append(m.Sent, SentMessage{ChannelID: channelID, Message: msg})
	return m.newID(), nil
}

func (m *MockPlatform) EditMessage(_ context.Context, channelID, _ string, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edits = append(m.Edits, SentMessage{ChannelID: channelID, Message: platform.Message{Content: content}})
	return nil
}

func (m *MockPlatform) PurgeMessages(_ context.Context, channelID string, limit int, ownOnly bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PurgeErr != nil {
		return 0, m.PurgeErr
	}
	m.Purges = append(m.Purges, fmt.Sprintf("%s:%d:%t", channelID, limit, ownOnly))
	return limit, nil
}

func (m *MockPlatform) User(userID string) (platform.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[userID]
	return u, ok
}

func (m *MockPlatform) Member(guildID, userID string) (platform.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Members[guildID][userID]
	return u, ok
}

func (m *MockPlatform) NotificationChannel(_ context.Context, guildID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.SystemChannel[guildID]
	if !ok {
		return "", platform.ErrNotFound
	}
	return ch, nil
}

func (m *MockPlatform) SyncCommands(_ context.Context, guildID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SyncErr != nil {
		return 0, m.SyncErr
	}
	m.Synced = append(m.Synced, guildID)
	return m.SyncResult, nil
}

// SentTo returns the messages sent to channelID.
func (m *MockPlatform) SentTo(channelID string) []platform.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []platform.Message
	for _, s := range m.Sent {
		if s.ChannelID == channelID {
			out = append(out, s.Message)
		}
	}
	return out
}

var _ platform.Platform = (*MockPlatform)(nil)
