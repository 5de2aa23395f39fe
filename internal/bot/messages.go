package bot

import (
	"fmt"
	"strings"

	"guildpulse/internal/models"
	"guildpulse/internal/platform"
	"guildpulse/internal/services"
)

const (
	colorGold = 0xF1C40F
	colorBlue = 0x3498DB
)

const (
	msgForbidden       = "❌ Tu n'as pas la permission d'utiliser cette commande."
	msgUnknownCommand  = "❌ Commande inconnue."
	msgWeatherDisabled = "❌ Module Météo non disponible."
	msgNoData          = "❌ Pas assez de données."
	msgNoCity          = "📭 Aucune ville n'est suivie pour le moment."
	msgStatsInstalled  = "✅ **Système de stats installé !**"
	msgMeteoForced     = "🔄 Mise à jour forcée en cours..."
	msgSyncRunning     = "🔄 Synchronisation des commandes en cours..."
	msgDepartedMember  = "Utilisateur parti"
	progressBarLength  = 10
)

var medals = []string{"🥇", "🥈", "🥉"}

func errorMessage(err error) platform.Message {
	return platform.Message{Content: "❌ Erreur : " + err.Error(), Ephemeral: true}
}

func ephemeral(content string) platform.Message {
	return platform.Message{Content: content, Ephemeral: true}
}

func levelUpEmbed(u platform.User, level int) *platform.Embed {
	return &platform.Embed{
		Description: fmt.Sprintf("🆙 **Level Up!** %s passe niveau **%d** 🎉", u.Mention(), level),
		Color:       colorGold,
	}
}

func voiceLevelUpMessage(u platform.User, level int) platform.Message {
	return platform.Message{Content: fmt.Sprintf("🎙️ **Vocal Up!** %s passe niveau **%d** !", u.Mention(), level)}
}

// ProgressBar renders ratio as ten squares followed by the percentage.
func ProgressBar(ratio float64) string {
	ratio = min(max(ratio, 0), 1)
	filled := int(ratio * progressBarLength)
	return strings.Repeat("🟩", filled) + strings.Repeat("⬛", progressBarLength-filled) +
		fmt.Sprintf(" %d%%", int(ratio*100))
}

func rankEmbed(u platform.User, p models.EngagementProfile, rank string) *platform.Embed {
	e := &platform.Embed{
		Color:         u.Color,
		AuthorName:    "Progression de " + u.DisplayName,
		AuthorIconURL: u.AvatarURL,
	}
	e.AddField("🏆 Rang", "#"+rank, true)
	e.AddField("⭐ Niveau", fmt.Sprint(p.Level), true)
	e.AddField("✨ XP Total", fmt.Sprint(p.XP), true)
	e.AddField("Prochain niveau", ProgressBar(p.Progress()), false)

	voice := int64(p.VoiceSeconds)
	e.Footer = fmt.Sprintf("✉️ Messages: %d • 🎙️ Vocal: %dh %dm", p.MessageCount, voice/3600, voice%3600/60)
	return e
}

// leaderboardEmbed lists entries with names resolved by name; unknown
// members are shown as departed.
func leaderboardEmbed(entries []services.LeaderboardEntry, name func(memberID string) (string, bool)) *platform.Embed {
	var sb strings.Builder
	for i, entry := range entries {
		display, ok := name(entry.MemberID)
		if !ok {
			display = msgDepartedMember
		}
		badge := fmt.Sprintf("`%d.`", entry.Rank)
		if i < len(medals) {
			badge = medals[i]
		}
		fmt.Fprintf(&sb, "%s **%s** • Lvl %d (*%d XP*)\n", badge, display, entry.Profile.Level, entry.Profile.XP)
	}
	return &platform.Embed{Title: "🏆 Classement du Serveur", Description: sb.String(), Color: colorGold}
}

func serverInfoEmbed(info platform.GuildInfo) *platform.Embed {
	e := &platform.Embed{Title: "Infos " + info.Name, Color: colorBlue, ThumbnailURL: info.IconURL}
	e.AddField("Membres", fmt.Sprint(info.Members), true)
	e.AddField("En ligne", fmt.Sprint(info.Online), true)
	e.AddField("Salons", fmt.Sprint(info.Channels), true)
	return e
}

func cityListEmbed(cities []string) *platform.Embed {
	lines := make([]string, len(cities))
	for i, c := range cities {
		lines[i] = "• " + c
	}
	return &platform.Embed{Title: "🌍 Villes suivies", Description: strings.Join(lines, "\n"), Color: colorBlue}
}
