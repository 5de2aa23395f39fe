package internal

import (
	"net/http"

	"guildpulse/internal/controllers"
	"guildpulse/internal/providers"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/api/leaderboard", http.HandlerFunc(apiController.Leaderboard))
	routers.Get("/api/stats", http.HandlerFunc(apiController.Stats))
	routers.Get("/{$}", http.HandlerFunc(apiController.Home))
	return routers
}
