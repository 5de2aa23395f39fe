package internal

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"guildpulse/internal/controllers"
	"guildpulse/internal/models"
	"guildpulse/internal/services"
	"guildpulse/internal/testutil"
)

type stateString string

func (s stateString) String() string { return string(s) }

func newRoutesMux(t *testing.T) *http.ServeMux {
	t.Helper()
	p := testutil.NewMockPlatform()
	p.Name = "PulseBot"
	profiles := models.NewProfileStore(nil)
	ac := controllers.NewApiController(&testutil.MockLogger{}, p, services.NewLeaderboardService(profiles),
		stateString("ACTIF"), testutil.NewMockCache())

	mux := http.NewServeMux()
	for _, r := range InitRoutes(ac).GetRoutes() {
		mux.Handle(r.Url, r.Handler)
	}
	return mux
}

func TestInitRoutes_RegistersThreeRoutes(t *testing.T) {
	ac := controllers.NewApiController(&testutil.MockLogger{}, testutil.NewMockPlatform(),
		services.NewLeaderboardService(models.NewProfileStore(nil)), stateString("INACTIF"), testutil.NewMockCache())

	routes := InitRoutes(ac).GetRoutes()
	require.Len(t, routes, 3)

	urls := make([]string, len(routes))
	for i, r := range routes {
		urls[i] = r.Url
	}
	assert.ElementsMatch(t, []string{"/api/leaderboard", "/api/stats", "/{$}"}, urls)
}

func TestInitRoutes_HomeOnlyAtRoot(t *testing.T) {
	mux := newRoutesMux(t)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body, _ := io.ReadAll(rr.Body)
	assert.Contains(t, string(body), "PulseBot est en ligne ! Météo: ACTIF")

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestInitRoutes_MethodEnforcement(t *testing.T) {
	mux := newRoutesMux(t)

	for _, url := range []string{"/api/leaderboard", "/api/stats", "/"} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, url, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, url)
	}
}
