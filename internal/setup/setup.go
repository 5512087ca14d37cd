// Package setup performs process initialization: configuration, logging,
// Redis, the catalog snapshot and the upstream client.
package setup

import (
	"context"
	"log"
	"time"

	"github.com/steamdex/steamdex/internal/auth"
	"github.com/steamdex/steamdex/internal/cache"
	"github.com/steamdex/steamdex/internal/catalog"
	"github.com/steamdex/steamdex/internal/redis"
	"github.com/steamdex/steamdex/internal/resolver"
	"github.com/steamdex/steamdex/internal/session"
	"github.com/steamdex/steamdex/internal/setup/config"
	"github.com/steamdex/steamdex/internal/steam"
	"go.uber.org/zap"
)

// Defaults applied when the config leaves the corresponding field unset.
const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultSessionTTL     = 7 * 24 * time.Hour
)

// App bundles every process-wide dependency.
type App struct {
	Config       *config.Config
	ConfigDir    string
	Logger       *zap.Logger
	RedisManager *redis.Manager
	Catalog      *catalog.Index
	Steam        *steam.Client
	Sessions     *session.Manager
	Resolvers    *resolver.Resolvers
	Auth         *auth.Authenticator
}

// InitializeApp performs common setup tasks and returns an App.
func InitializeApp(_ context.Context, logDir string) (*App, error) {
	// Load configuration
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Initialize logging
	logger, err := GetLogger(logDir, cfg.Debug.LogLevel, cfg.Debug.MaxLogsToKeep)
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded configuration", zap.String("configDir", configDir))

	// Load the catalog snapshot; the index is immutable for the process
	// lifetime and shared by every resolver
	index, err := catalog.Load(cfg.Steam.AppListFile)
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded app catalog snapshot", zap.Int("entries", index.Len()))

	// Initialize Redis clients per concern
	redisManager := redis.NewManager(&cfg.Redis, logger)

	cacheClient, err := redisManager.GetClient(redis.CacheDBIndex)
	if err != nil {
		return nil, err
	}

	sessionClient, err := redisManager.GetClient(redis.SessionDBIndex)
	if err != nil {
		return nil, err
	}

	// Build the upstream client with its reliability middleware chain
	requestTimeout := DefaultRequestTimeout
	if cfg.Steam.RequestTimeout > 0 {
		requestTimeout = time.Duration(cfg.Steam.RequestTimeout) * time.Millisecond
	}

	steamClient := steam.NewClient(GetHTTPClient(cfg, logger, requestTimeout), &cfg.Steam, logger)

	// Wire the resolvers and session-backed auth
	store := cache.NewRedisStore(cacheClient, logger)
	resolvers := resolver.New(store, steamClient, index, logger)

	sessionTTL := DefaultSessionTTL
	if cfg.Session.TTLHours > 0 {
		sessionTTL = time.Duration(cfg.Session.TTLHours) * time.Hour
	}

	sessions := session.NewManager(sessionClient, sessionTTL, logger)
	authenticator := auth.New(sessions, resolvers.Profile, &cfg.Auth, logger)

	return &App{
		Config:       cfg,
		ConfigDir:    configDir,
		Logger:       logger,
		RedisManager: redisManager,
		Catalog:      index,
		Steam:        steamClient,
		Sessions:     sessions,
		Resolvers:    resolvers,
		Auth:         authenticator,
	}, nil
}

// Cleanup releases process-wide resources.
func (a *App) Cleanup() {
	a.RedisManager.Close()

	if err := a.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}
}
