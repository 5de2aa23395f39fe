package weather

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIcon(t *testing.T) {
	cases := map[string]string{
		"Neige faible":         "❄️",
		"Orages":               "⛈️",
		"Pluie modérée":        "🌧️",
		"Averses":              "🌧️",
		"Couvert":              "☁️",
		"Brume":                "☁️",
		"Très nuageux":         "⛅",
		"Éclaircies":           "⛅",
		"Ensoleillé":           "☀️",
		"Ciel clair":           "☀️",
		"Pluie et neige mêlée": "❄️",
		"Vent fort":            "🌍",
	}
	for desc, icon := range cases {
		assert.Equal(t, icon, Icon(desc), desc)
	}
}

func TestColor(t *testing.T) {
	assert.Equal(t, 0xFFA500, Color("☀️"))
	assert.Equal(t, 0x3498DB, Color("🌧️"))
	assert.Equal(t, 0x2ECC71, Color("🌍"))
}

func hourly(start time.Time, n int) []HourlyForecast {
	out := make([]HourlyForecast, n)
	for i := range out {
		out[i] = HourlyForecast{
			DT:      start.Add(time.Duration(i) * time.Hour).Unix(),
			T:       Temperature{Value: float64(10 + i)},
			Weather: Conditions{Desc: "Ensoleillé"},
		}
	}
	return out
}

func TestBuildEmbed_Layout(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)
	report := &Report{
		Place: Place{Name: "Lyon", Admin2: "69", Country: "FR"},
		Forecast: &Forecast{
			Position: Position{Timezone: "UTC"},
			Hourly:   hourly(now.Add(-90*time.Minute), 30),
		},
	}

	e := BuildEmbed(report, now)
	assert.Equal(t, "☀️ Météo à Lyon", e.Title)
	assert.Equal(t, "📍 **69** (FR)", e.Description)
	assert.Equal(t, 0xFFA500, e.Color)
	assert.Equal(t, "Données Météo-France • Actualisé à 10:30", e.Footer)

	require.Len(t, e.Fields, 4)
	assert.Equal(t, "🌡️ Actuellement", e.Fields[0].Name)
	assert.Equal(t, "**11°C**\n*Ensoleillé*", e.Fields[0].Value)
	assert.Equal(t, "Rien dans l'heure", e.Fields[1].Value)
	assert.Equal(t, 12, strings.Count(e.Fields[2].Value, "\n"))
	assert.Equal(t, 12, strings.Count(e.Fields[3].Value, "\n"))
	assert.True(t, strings.HasPrefix(e.Fields[2].Value, "`11h` ☀️ **12°C**"))
}

func TestBuildEmbed_RainAndShortForecast(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	rain := now.Add(25 * time.Minute)
	report := &Report{
		Place:    Place{Name: "Brest"},
		Forecast: &Forecast{Position: Position{Timezone: "UTC"}, Hourly: hourly(now, 3)},
		NextRain: &rain,
	}

	e := BuildEmbed(report, now)
	require.Len(t, e.Fields, 3)
	assert.Equal(t, "⚠️ Arrive à **10:25**", e.Fields[1].Value)
	assert.Equal(t, "🕐 Prochaines 12h", e.Fields[2].Name)
}
