// Package rest wires the HTTP surface of the service.
package rest

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/klauspost/compress/gzhttp"
	"github.com/steamdex/steamdex/internal/auth"
	"github.com/steamdex/steamdex/internal/resolver"
	"github.com/steamdex/steamdex/internal/rest/handler"
	authMiddleware "github.com/steamdex/steamdex/internal/rest/middleware/auth"
	"github.com/steamdex/steamdex/internal/rest/middleware/metrics"
	"github.com/steamdex/steamdex/internal/session"
	"github.com/steamdex/steamdex/internal/setup/config"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// NewServer builds the HTTP handler: resolver routes behind the session
// gate, public auth routes, CORS for the frontend, gzip on the way out.
func NewServer(
	cfg *config.Config, resolvers *resolver.Resolvers, authenticator *auth.Authenticator,
	sessions *session.Manager, logger *zap.Logger,
) http.Handler {
	steamHandler := handler.NewSteamHandler(resolvers, logger)
	authHandler := handler.NewAuthHandler(authenticator, sessions, cfg, logger)
	sessionGate := authMiddleware.New(sessions, cfg.Session.CookieName, logger)
	requestMetrics := metrics.New()

	router := bunrouter.New(bunrouter.Use(requestMetrics.Record))

	router.WithGroup("/api", func(g *bunrouter.Group) {
		g.GET("/metrics", requestMetrics.Handler())
		g.GET("/auth/steam", authHandler.Login)
		g.GET("/auth/steam/return", authHandler.Return)
		g.GET("/auth/logout", authHandler.Logout)
		g.GET("/me", authHandler.Me)

		g.Use(sessionGate.RequireSession).WithGroup("/steam", func(g *bunrouter.Group) {
			g.GET("/:id", steamHandler.GetProfile)
			g.GET("/:id/friends", steamHandler.GetFriends)
			g.GET("/:id/games", steamHandler.GetOwnedGames)
			g.POST("/games", steamHandler.GetGamesInfo)
			g.DELETE("/:id/cache", steamHandler.InvalidateCache)
		})
	})

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	return gzhttp.GzipHandler(corsHandler(router))
}
