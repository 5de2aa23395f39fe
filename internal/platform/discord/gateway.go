// Package discord implements platform.Platform over the Discord gateway and
// REST API, and feeds gateway events to the bot dispatcher.
package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"guildpulse/internal/bot"
	"guildpulse/internal/platform"
	"guildpulse/internal/providers"
	"guildpulse/internal/structures"
)

const (
	intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentMessageContent |
		discordgo.IntentGuildMembers |
		discordgo.IntentGuildPresences |
		discordgo.IntentGuildVoiceStates

	// bulkDeleteMaxAge is the oldest message the bulk endpoint accepts.
	bulkDeleteMaxAge = 14 * 24 * time.Hour
	fetchLimit       = 100
)

type Gateway struct {
	session *discordgo.Session
	logger  providers.Logger
	sink    bot.EventSink
	ctx     context.Context
	removes []func()
}

func NewGateway(conf *structures.Config, logger providers.Logger) (*Gateway, error) {
	s, err := discordgo.New("Bot " + conf.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = intents
	s.State.TrackPresences = true
	s.State.TrackVoice = true
	s.State.TrackMembers = true
	// Handlers run in gateway order; the dispatcher relies on it.
	s.SyncEvents = true
	// Rate-limited calls fail fast instead of sleeping. Stat renames are
	// retried on the next pass.
	s.ShouldRetryOnRateLimit = false

	return &Gateway{session: s, logger: logger}, nil
}

// Open connects to the gateway and starts forwarding events to sink. ctx
// bounds every Submit made by the event handlers.
func (g *Gateway) Open(ctx context.Context, sink bot.EventSink) error {
	g.ctx = ctx
	g.sink = sink
	g.removes = append(g.removes,
		g.session.AddHandler(g.onReady),
		g.session.AddHandler(g.onMessageCreate),
		g.session.AddHandler(g.onVoiceStateUpdate),
		g.session.AddHandler(g.onMemberAdd),
		g.session.AddHandler(g.onMemberRemove),
		g.session.AddHandler(g.onInteraction),
	)
	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

func (g *Gateway) Close() error {
	for _, remove := range g.removes {
		remove()
	}
	g.removes = nil
	return g.session.Close()
}

func (g *Gateway) submit(ev bot.Event) {
	if g.sink == nil {
		return
	}
	if err := g.sink.Submit(g.ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		g.logger.Warnf(providers.TypeBot, "Dropped %s event: %s", ev.Kind(), err)
	}
}

func (g *Gateway) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	ids := make([]string, 0, len(r.Guilds))
	for _, guild := range r.Guilds {
		ids = append(ids, guild.ID)
	}
	g.logger.Infof(providers.TypeBot, "Connected as %s in %d guilds", r.User.Username, len(ids))
	g.submit(bot.Ready{GuildIDs: ids})
}

func (g *Gateway) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.GuildID == "" {
		return
	}
	ev := bot.MessageCreated{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Author:    platform.User{ID: m.Author.ID, DisplayName: displayName(m.Author), Bot: m.Author.Bot},
		Content:   m.Content,
		At:        time.Now(),
	}
	if m.Member != nil && m.Member.Nick != "" {
		ev.Author.DisplayName = m.Member.Nick
	}
	if ev.Content == bot.SyncTextCommand {
		if perms, err := s.State.UserChannelPermissions(m.Author.ID, m.ChannelID); err == nil {
			ev.AuthorIsAdmin = perms&discordgo.PermissionAdministrator != 0
		}
	}
	g.submit(ev)
}

func (g *Gateway) onVoiceStateUpdate(_ *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.VoiceState == nil {
		return
	}
	ev := bot.VoiceStateChanged{
		GuildID:        v.GuildID,
		Member:         platform.User{ID: v.UserID},
		AfterChannelID: v.ChannelID,
		At:             time.Now(),
	}
	if v.BeforeUpdate != nil {
		ev.BeforeChannelID = v.BeforeUpdate.ChannelID
	}
	if v.Member != nil && v.Member.User != nil {
		ev.Member = toUser(nil, v.Member)
	}
	g.submit(ev)
}

func (g *Gateway) onMemberAdd(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	g.submit(bot.MemberJoined{GuildID: m.GuildID, MemberID: m.User.ID})
}

func (g *Gateway) onMemberRemove(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
	g.submit(bot.MemberLeft{GuildID: m.GuildID, MemberID: m.User.ID})
}

func (g *Gateway) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand || i.Member == nil || i.Member.User == nil {
		return
	}
	data := i.ApplicationCommandData()
	opts, targetID := commandOptions(data)

	inv := bot.CommandInvocation{
		Name:              data.Name,
		GuildID:           i.GuildID,
		ChannelID:         i.ChannelID,
		Invoker:           g.member(i.GuildID, i.Member),
		IsAdmin:           hasPermission(i.Member.Permissions, discordgo.PermissionAdministrator),
		CanManageMessages: hasPermission(i.Member.Permissions, discordgo.PermissionManageMessages),
		Options:           opts,
		Responder:         &interactionResponder{session: s, interaction: i.Interaction},
	}
	if targetID != "" {
		if u, ok := g.Member(i.GuildID, targetID); ok {
			inv.TargetUser = &u
		} else if u, ok := resolvedUser(data, targetID); ok {
			inv.TargetUser = &u
		}
	}
	g.submit(bot.CommandInvoked{Invocation: inv})
}

func (g *Gateway) member(guildID string, m *discordgo.Member) platform.User {
	guild, err := g.session.State.Guild(guildID)
	if err != nil {
		guild = nil
	}
	return toUser(guild, m)
}

func (g *Gateway) BotName() string {
	if g.session.State.User == nil {
		return ""
	}
	return g.session.State.User.Username
}

func (g *Gateway) Guilds() []string {
	g.session.State.RLock()
	defer g.session.State.RUnlock()
	ids := make([]string, 0, len(g.session.State.Guilds))
	for _, guild := range g.session.State.Guilds {
		ids = append(ids, guild.ID)
	}
	return ids
}

func (g *Gateway) guild(guildID string) (*discordgo.Guild, error) {
	guild, err := g.session.State.Guild(guildID)
	if err != nil {
		return nil, translateErr(err)
	}
	return guild, nil
}

func (g *Gateway) GuildCounts(_ context.Context, guildID string) (platform.GuildCounts, error) {
	guild, err := g.guild(guildID)
	if err != nil {
		return platform.GuildCounts{}, err
	}
	g.session.State.RLock()
	defer g.session.State.RUnlock()
	return guildCounts(guild), nil
}

func (g *Gateway) GuildInfo(_ context.Context, guildID string) (platform.GuildInfo, error) {
	guild, err := g.guild(guildID)
	if err != nil {
		return platform.GuildInfo{}, err
	}
	g.session.State.RLock()
	defer g.session.State.RUnlock()
	counts := guildCounts(guild)
	return platform.GuildInfo{
		ID:       guild.ID,
		Name:     guild.Name,
		IconURL:  guild.IconURL("256"),
		Members:  counts.Members,
		Online:   counts.Online,
		Channels: len(guild.Channels),
	}, nil
}

func (g *Gateway) ChannelName(ctx context.Context, channelID string) (string, error) {
	if ch, err := g.session.State.Channel(channelID); err == nil {
		return ch.Name, nil
	}
	ch, err := g.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return "", translateErr(err)
	}
	return ch.Name, nil
}

func (g *Gateway) RenameChannel(ctx context.Context, channelID, name string) error {
	_, err := g.session.ChannelEdit(channelID, &discordgo.ChannelEdit{Name: name}, discordgo.WithContext(ctx))
	return translateErr(err)
}

func (g *Gateway) CreateStatChannels(ctx context.Context, guildID string, names platform.StatChannelNames) (platform.StatChannelIDs, error) {
	var ids platform.StatChannelIDs
	category, err := g.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name: names.Category,
		Type: discordgo.ChannelTypeGuildCategory,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return ids, fmt.Errorf("create category: %w", translateErr(err))
	}
	ids.Category = category.ID

	// @everyone shares the guild id
	locked := []*discordgo.PermissionOverwrite{{
		ID:   guildID,
		Type: discordgo.PermissionOverwriteTypeRole,
		Deny: discordgo.PermissionVoiceConnect,
	}}
	for _, target := range []struct {
		name string
		id   *string
	}{
		{names.Members, &ids.Members},
		{names.Online, &ids.Online},
		{names.Voice, &ids.Voice},
	} {
		ch, err := g.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
			Name:                 target.name,
			Type:                 discordgo.ChannelTypeGuildVoice,
			ParentID:             category.ID,
			PermissionOverwrites: locked,
		}, discordgo.WithContext(ctx))
		if err != nil {
			return ids, fmt.Errorf("create stat channel %q: %w", target.name, translateErr(err))
		}
		*target.id = ch.ID
	}
	return ids, nil
}

func (g *Gateway) SendMessage(ctx context.Context, channelID string, msg platform.Message) (string, error) {
	m, err := g.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: msg.Content,
		Embeds:  embeds(msg.Embed),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", translateErr(err)
	}
	return m.ID, nil
}

func (g *Gateway) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	_, err := g.session.ChannelMessageEdit(channelID, messageID, content, discordgo.WithContext(ctx))
	return translateErr(err)
}

// PurgeMessages looks at the limit most recent messages. Recent ones are
// bulk deleted, older ones one by one.
func (g *Gateway) PurgeMessages(ctx context.Context, channelID string, limit int, ownOnly bool) (int, error) {
	msgs, err := g.session.ChannelMessages(channelID, min(limit, fetchLimit), "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return 0, translateErr(err)
	}

	selfID := ""
	if g.session.State.User != nil {
		selfID = g.session.State.User.ID
	}
	cutoff := time.Now().Add(-bulkDeleteMaxAge)
	var recent, old []string
	for _, m := range msgs {
		if ownOnly && (m.Author == nil || m.Author.ID != selfID) {
			continue
		}
		if m.Timestamp.After(cutoff) {
			recent = append(recent, m.ID)
		} else {
			old = append(old, m.ID)
		}
	}

	deleted := 0
	if len(recent) > 0 {
		if err := g.session.ChannelMessagesBulkDelete(channelID, recent, discordgo.WithContext(ctx)); err != nil {
			return 0, translateErr(err)
		}
		deleted += len(recent)
	}
	for _, id := range old {
		if err := g.session.ChannelMessageDelete(channelID, id, discordgo.WithContext(ctx)); err != nil {
			return deleted, translateErr(err)
		}
		deleted++
	}
	return deleted, nil
}

func (g *Gateway) User(userID string) (platform.User, bool) {
	for _, gid := range g.Guilds() {
		if u, ok := g.Member(gid, userID); ok {
			return u, true
		}
	}
	return platform.User{}, false
}

func (g *Gateway) Member(guildID, userID string) (platform.User, bool) {
	m, err := g.session.State.Member(guildID, userID)
	if err != nil || m.User == nil {
		return platform.User{}, false
	}
	return g.member(guildID, m), true
}

func (g *Gateway) NotificationChannel(_ context.Context, guildID string) (string, error) {
	guild, err := g.guild(guildID)
	if err != nil {
		return "", err
	}
	g.session.State.RLock()
	defer g.session.State.RUnlock()
	id, ok := notificationChannel(guild)
	if !ok {
		return "", fmt.Errorf("guild %s has no text channel: %w", guildID, platform.ErrNotFound)
	}
	return id, nil
}

func (g *Gateway) SyncCommands(ctx context.Context, guildID string) (int, error) {
	if g.session.State.User == nil {
		return 0, errors.New("gateway not ready")
	}
	cmds, err := g.session.ApplicationCommandBulkOverwrite(g.session.State.User.ID, guildID,
		commandDefinitions(bot.Commands), discordgo.WithContext(ctx))
	if err != nil {
		return 0, translateErr(err)
	}
	return len(cmds), nil
}

var _ platform.Platform = (*Gateway)(nil)
