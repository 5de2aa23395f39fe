package weather

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"guildpulse/internal/platform"
)

const (
	hourlyWindow = 24
	halfWindow   = 12
)

// Icon maps a French condition label to an emoji. Rules are checked in order.
func Icon(desc string) string {
	d := strings.ToLower(desc)
	switch {
	case strings.Contains(d, "neige"):
		return "❄️"
	case strings.Contains(d, "orage"):
		return "⛈️"
	case strings.Contains(d, "pluie"), strings.Contains(d, "averse"):
		return "🌧️"
	case strings.Contains(d, "couvert"), strings.Contains(d, "brume"):
		return "☁️"
	case strings.Contains(d, "nuage"), strings.Contains(d, "éclaircies"):
		return "⛅"
	case strings.Contains(d, "ensoleillé"), strings.Contains(d, "clair"):
		return "☀️"
	}
	return "🌍"
}

func Color(icon string) int {
	switch icon {
	case "☀️":
		return 0xFFA500
	case "⛅":
		return 0xF1C40F
	case "☁️":
		return 0x95A5A6
	case "🌧️":
		return 0x3498DB
	case "❄️":
		return 0xFFFFFF
	case "⛈️":
		return 0x8E44AD
	}
	return 0x2ECC71
}

func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "°C"
}

// BuildEmbed renders a city digest: current conditions, rain outlook and
// the next 24 hourly entries split in two columns.
func BuildEmbed(r *Report, now time.Time) *platform.Embed {
	loc := r.Forecast.Location()
	current, _ := r.Forecast.Current(now)
	icon := Icon(current.Weather.Desc)

	e := &platform.Embed{
		Title:       fmt.Sprintf("%s Météo à %s", icon, r.Place.Name),
		Description: fmt.Sprintf("📍 **%s** (%s)", r.Place.Admin2, r.Place.Country),
		Color:       Color(icon),
	}

	e.AddField("🌡️ Actuellement", fmt.Sprintf("**%s**\n*%s*", formatTemp(current.T.Value), current.Weather.Desc), true)

	if r.NextRain != nil {
		e.AddField("☔ Risque Pluie", fmt.Sprintf("⚠️ Arrive à **%s**", r.NextRain.In(loc).Format("15:04")), true)
	} else {
		e.AddField("☔ Risque Pluie", "Rien dans l'heure", true)
	}

	var first, second strings.Builder
	count := 0
	for _, h := range r.Forecast.Hourly {
		if h.DT < now.Unix() {
			continue
		}
		if count >= hourlyWindow {
			break
		}
		line := fmt.Sprintf("`%s` %s **%s**\n", h.Time().In(loc).Format("15h"), Icon(h.Weather.Desc), formatTemp(h.T.Value))
		if count < halfWindow {
			first.WriteString(line)
		} else {
			second.WriteString(line)
		}
		count++
	}
	if first.Len() > 0 {
		e.AddField("🕐 Prochaines 12h", first.String(), true)
	}
	if second.Len() > 0 {
		e.AddField("🕐 Suite (12h-24h)", second.String(), true)
	}

	e.Footer = fmt.Sprintf("Données Météo-France • Actualisé à %s", now.In(loc).Format("15:04"))
	return e
}
