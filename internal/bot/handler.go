package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"guildpulse/internal/models"
	"guildpulse/internal/platform"
	"guildpulse/internal/providers"
	"guildpulse/internal/services"
	"guildpulse/internal/structures"
	"guildpulse/internal/weather"
)

type commandFunc func(ctx context.Context, inv CommandInvocation) []Effect

// Handler turns events into state changes and effects. It is only called
// from the dispatcher goroutine.
type Handler struct {
	platform      platform.Platform
	xp            services.XPEngineInterface
	voice         *services.VoiceSessionTracker
	leaderboard   *services.LeaderboardService
	stats         *services.StatsReconciler
	weather       *services.WeatherService
	profiles      *models.ProfileStore
	guilds        *models.GuildConfigStore
	commandGuilds []string
	logger        providers.Logger
	commands      map[string]commandFunc
}

func NewHandler(conf *structures.Config, p platform.Platform, xp services.XPEngineInterface,
	voice *services.VoiceSessionTracker, leaderboard *services.LeaderboardService,
	stats *services.StatsReconciler, weatherService *services.WeatherService,
	profiles *models.ProfileStore, guilds *models.GuildConfigStore, logger providers.Logger) *Handler {
	h := &Handler{
		platform:      p,
		xp:            xp,
		voice:         voice,
		leaderboard:   leaderboard,
		stats:         stats,
		weather:       weatherService,
		profiles:      profiles,
		guilds:        guilds,
		commandGuilds: conf.Discord.Guilds,
		logger:        logger,
	}
	h.commands = map[string]commandFunc{
		CmdSetupStats:  h.setupStats,
		CmdRank:        h.rank,
		CmdLeaderboard: h.showLeaderboard,
		CmdClear:       h.clear,
		CmdServerInfo:  h.serverInfo,
		CmdMeteoSetup:  h.meteoSetup,
		CmdMeteoAdd:    h.meteoAdd,
		CmdMeteoRemove: h.meteoRemove,
		CmdMeteoList:   h.meteoList,
		CmdMeteoNow:    h.meteoNow,
	}
	return h
}

func (h *Handler) Handle(ctx context.Context, ev Event) []Effect {
	switch e := ev.(type) {
	case MessageCreated:
		return h.onMessage(ctx, e)
	case VoiceStateChanged:
		return h.onVoiceState(e)
	case MemberJoined:
		return []Effect{RefreshStats{GuildID: e.GuildID}}
	case MemberLeft:
		return []Effect{RefreshStats{GuildID: e.GuildID}}
	case Ready:
		return h.onReady(e)
	case ReconcileTick:
		return h.refreshAll()
	case CommandInvoked:
		return h.onCommand(ctx, e.Invocation)
	case weatherCityResolved:
		h.onCityResolved(ctx, e)
		return nil
	default:
		h.logger.Warnf(providers.TypeBot, "Unhandled event %T", ev)
		return nil
	}
}

func (h *Handler) onMessage(ctx context.Context, ev MessageCreated) []Effect {
	if ev.Author.Bot || ev.GuildID == "" {
		return nil
	}

	if strings.TrimSpace(ev.Content) == SyncTextCommand {
		h.syncText(ctx, ev)
	}

	award, err := h.xp.AwardMessage(ev.Author.ID, ev.At)
	if err != nil {
		h.logger.Errorf(providers.TypeBot, "%s", err)
		return nil
	}
	if !award.LeveledUp {
		return nil
	}
	return []Effect{SendMessage{
		ChannelID: ev.ChannelID,
		Message:   platform.Message{Embed: levelUpEmbed(ev.Author, award.Level)},
	}}
}

// syncText answers "!sync" with a progress message edited once the
// registration finished.
func (h *Handler) syncText(ctx context.Context, ev MessageCreated) {
	if !ev.AuthorIsAdmin {
		h.logger.Debugf(providers.TypeBot, "!sync from non admin %s ignored", ev.Author.ID)
		return
	}
	msgID, err := h.platform.SendMessage(ctx, ev.ChannelID, platform.Message{Content: msgSyncRunning})
	if err != nil {
		h.logger.Errorf(providers.TypeBot, "!sync in guild %s: %s", ev.GuildID, err)
		return
	}

	var content string
	if n, err := h.platform.SyncCommands(ctx, ev.GuildID); err != nil {
		content = fmt.Sprintf("❌ Erreur de synchro : %s", err)
	} else {
		content = fmt.Sprintf("✅ **%d** commandes synchronisées !", n)
	}
	if err := h.platform.EditMessage(ctx, ev.ChannelID, msgID, content); err != nil {
		h.logger.Errorf(providers.TypeBot, "!sync edit in guild %s: %s", ev.GuildID, err)
	}
}

func (h *Handler) onVoiceState(ev VoiceStateChanged) []Effect {
	if ev.Member.Bot {
		return nil
	}

	out, err := h.voice.Observe(services.VoiceTransition{
		MemberID:        ev.Member.ID,
		BeforeChannelID: ev.BeforeChannelID,
		AfterChannelID:  ev.AfterChannelID,
		At:              ev.At,
	})
	if err != nil {
		h.logger.Errorf(providers.TypeBot, "%s", err)
	}

	var effects []Effect
	if out.Ended && out.LeveledUp {
		effects = append(effects, NotifyGuild{GuildID: ev.GuildID, Message: voiceLevelUpMessage(ev.Member, out.Level)})
	}
	return append(effects, RefreshStats{GuildID: ev.GuildID})
}

// onReady registers the commands where configured and refreshes every
// bound guild once.
func (h *Handler) onReady(ev Ready) []Effect {
	targets := ev.GuildIDs
	if len(h.commandGuilds) > 0 {
		targets = h.commandGuilds
	}

	effects := make([]Effect, 0, len(targets))
	for _, gid := range targets {
		effects = append(effects, SyncCommands{GuildID: gid})
	}
	return append(effects, h.refreshAll()...)
}

func (h *Handler) refreshAll() []Effect {
	ids := h.guilds.StatGuildIDs()
	effects := make([]Effect, 0, len(ids))
	for _, gid := range ids {
		effects = append(effects, RefreshStats{GuildID: gid})
	}
	return effects
}

func (h *Handler) onCommand(ctx context.Context, inv CommandInvocation) []Effect {
	spec, ok := findCommand(inv.Name)
	run := h.commands[inv.Name]
	if !ok || run == nil {
		h.reply(ctx, inv, ephemeral(msgUnknownCommand))
		return nil
	}
	if (spec.Admin && !inv.IsAdmin) || (spec.ManageMessages && !inv.CanManageMessages) {
		h.reply(ctx, inv, ephemeral(msgForbidden))
		return nil
	}
	return run(ctx, inv)
}

func (h *Handler) reply(ctx context.Context, inv CommandInvocation, msg platform.Message) {
	if err := inv.Responder.Reply(ctx, msg); err != nil {
		h.logger.Errorf(providers.TypeBot, "Reply to /%s failed: %s", inv.Name, err)
	}
}

func (h *Handler) deferReply(ctx context.Context, inv CommandInvocation, hidden bool) bool {
	if err := inv.Responder.Defer(ctx, hidden); err != nil {
		h.logger.Errorf(providers.TypeBot, "Defer of /%s failed: %s", inv.Name, err)
		return false
	}
	return true
}

func (h *Handler) followup(ctx context.Context, inv CommandInvocation, msg platform.Message) {
	if err := inv.Responder.Followup(ctx, msg); err != nil {
		h.logger.Errorf(providers.TypeBot, "Followup of /%s failed: %s", inv.Name, err)
	}
}

func (h *Handler) setupStats(ctx context.Context, inv CommandInvocation) []Effect {
	if !h.deferReply(ctx, inv, false) {
		return nil
	}

	counts, err := h.platform.GuildCounts(ctx, inv.GuildID)
	if err != nil {
		h.followup(ctx, inv, errorMessage(err))
		return nil
	}
	ids, err := h.platform.CreateStatChannels(ctx, inv.GuildID, h.stats.Names(counts))
	if err != nil {
		h.logger.Errorf(providers.TypeBot, "Stat channels for guild %s: %s", inv.GuildID, err)
		h.followup(ctx, inv, errorMessage(err))
		return nil
	}

	err = h.guilds.SetStatChannels(inv.GuildID, models.StatChannels{
		CategoryID: ids.Category,
		MembersID:  ids.Members,
		OnlineID:   ids.Online,
		VoiceID:    ids.Voice,
	})
	if err != nil {
		h.logger.Errorf(providers.TypeBot, "Save stat channels for guild %s: %s", inv.GuildID, err)
		h.followup(ctx, inv, errorMessage(err))
		return nil
	}
	h.followup(ctx, inv, platform.Message{Content: msgStatsInstalled})
	return nil
}

func (h *Handler) rank(ctx context.Context, inv CommandInvocation) []Effect {
	target := inv.Invoker
	if inv.TargetUser != nil {
		target = *inv.TargetUser
	}

	profile, ok := h.profiles.Lookup(target.ID)
	if !ok {
		profile = models.NewEngagementProfile()
	}
	position := "N/A"
	if pos, ok := h.leaderboard.RankOf(target.ID); ok {
		position = strconv.Itoa(pos)
	}

	h.reply(ctx, inv, platform.Message{Embed: rankEmbed(target, profile, position)})
	return nil
}

func (h *Handler) showLeaderboard(ctx context.Context, inv CommandInvocation) []Effect {
	entries := h.leaderboard.TopN(services.DisplayLeaderboard)
	if len(entries) == 0 {
		h.reply(ctx, inv, ephemeral(msgNoData))
		return nil
	}

	embed := leaderboardEmbed(entries, func(memberID string) (string, bool) {
		u, ok := h.platform.Member(inv.GuildID, memberID)
		return u.DisplayName, ok
	})
	h.reply(ctx, inv, platform.Message{Embed: embed})
	return nil
}

func (h *Handler) clear(ctx context.Context, inv CommandInvocation) []Effect {
	n, err := strconv.Atoi(inv.Options["nombre"])
	if err != nil || n < 1 || n > maxClear {
		h.reply(ctx, inv, ephemeral(fmt.Sprintf("❌ Le nombre doit être entre 1 et %d.", maxClear)))
		return nil
	}
	if !h.deferReply(ctx, inv, true) {
		return nil
	}

	deleted, err := h.platform.PurgeMessages(ctx, inv.ChannelID, n, false)
	if err != nil {
		h.logger.Errorf(providers.TypeBot, "Clear in channel %s: %s", inv.ChannelID, err)
		h.followup(ctx, inv, errorMessage(err))
		return nil
	}
	h.followup(ctx, inv, ephemeral(fmt.Sprintf("🧹 **%d** messages nettoyés.", deleted)))
	return nil
}

func (h *Handler) serverInfo(ctx context.Context, inv CommandInvocation) []Effect {
	info, err := h.platform.GuildInfo(ctx, inv.GuildID)
	if err != nil {
		h.reply(ctx, inv, errorMessage(err))
		return nil
	}
	h.reply(ctx, inv, platform.Message{Embed: serverInfoEmbed(info)})
	return nil
}

func (h *Handler) meteoSetup(ctx context.Context, inv CommandInvocation) []Effect {
	if !h.weather.Available() {
		h.reply(ctx, inv, ephemeral(msgWeatherDisabled))
		return nil
	}
	channelID := inv.Options["salon"]
	if err := h.guilds.SetWeatherChannel(inv.GuildID, channelID); err != nil {
		h.reply(ctx, inv, errorMessage(err))
		return nil
	}
	h.reply(ctx, inv, ephemeral(fmt.Sprintf(
		"✅ Le salon météo est défini sur %s. Ajoute des villes avec `/meteo_add`.", platform.ChannelMention(channelID))))
	return nil
}

// meteoAdd looks the city up off the loop; the result comes back as a
// weatherCityResolved event.
func (h *Handler) meteoAdd(ctx context.Context, inv CommandInvocation) []Effect {
	if !h.weather.Available() {
		h.reply(ctx, inv, ephemeral(msgWeatherDisabled))
		return nil
	}
	if !h.deferReply(ctx, inv, false) {
		return nil
	}

	city := strings.TrimSpace(inv.Options["ville"])
	return []Effect{Async{
		Name: "meteo_add " + city,
		Run: func(ctx context.Context) Event {
			report, err := h.weather.Resolve(ctx, city)
			return weatherCityResolved{invocation: inv, city: city, report: report, err: err}
		},
	}}
}

func (h *Handler) onCityResolved(ctx context.Context, ev weatherCityResolved) {
	inv := ev.invocation
	if ev.err != nil {
		if !errors.Is(ev.err, weather.ErrPlaceNotFound) {
			h.logger.Warnf(providers.TypeBot, "Weather lookup for %s: %s", ev.city, ev.err)
		}
		h.followup(ctx, inv, platform.Message{
			Content: fmt.Sprintf("❌ Ville '%s' introuvable sur Météo-France.", ev.city),
		})
		return
	}

	name := ev.report.Place.Name
	added, err := h.guilds.AddWeatherCity(inv.GuildID, name)
	if err != nil {
		h.followup(ctx, inv, errorMessage(err))
		return
	}

	content := fmt.Sprintf("✅ **%s** ajoutée aux prévisions quotidiennes !", name)
	if !added {
		content = fmt.Sprintf("⚠️ **%s** est déjà dans la liste, mais voici la météo :", name)
	}
	h.followup(ctx, inv, platform.Message{Content: content, Embed: h.weather.Embed(ev.report)})
}

func (h *Handler) meteoRemove(ctx context.Context, inv CommandInvocation) []Effect {
	city := strings.TrimSpace(inv.Options["ville"])
	removed, err := h.guilds.RemoveWeatherCity(inv.GuildID, city)
	switch {
	case err != nil:
		h.reply(ctx, inv, errorMessage(err))
	case removed:
		h.reply(ctx, inv, platform.Message{Content: fmt.Sprintf("🗑️ **%s** a été retirée des prévisions automatiques.", city)})
	default:
		h.reply(ctx, inv, ephemeral(fmt.Sprintf("❌ La ville **%s** n'était pas dans la liste.", city)))
	}
	return nil
}

func (h *Handler) meteoList(ctx context.Context, inv CommandInvocation) []Effect {
	sub, _ := h.guilds.WeatherConfig(inv.GuildID)
	if len(sub.Cities) == 0 {
		h.reply(ctx, inv, ephemeral(msgNoCity))
		return nil
	}
	h.reply(ctx, inv, platform.Message{Embed: cityListEmbed(sub.Cities)})
	return nil
}

func (h *Handler) meteoNow(ctx context.Context, inv CommandInvocation) []Effect {
	if !h.weather.Available() {
		h.reply(ctx, inv, ephemeral(msgWeatherDisabled))
		return nil
	}
	h.reply(ctx, inv, ephemeral(msgMeteoForced))

	guildID := inv.GuildID
	return []Effect{Async{
		Name: "meteo_now " + guildID,
		Run: func(ctx context.Context) Event {
			n, err := h.weather.PostDigest(ctx, guildID)
			if err != nil {
				h.logger.Warnf(providers.TypeBot, "Forced weather digest for guild %s: %s", guildID, err)
				return nil
			}
			h.logger.Infof(providers.TypeBot, "Forced weather digest for guild %s: %d cities", guildID, n)
			return nil
		},
	}}
}
