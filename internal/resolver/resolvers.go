// Package resolver implements the read-through caching strategy for each
// data class: check the store, on miss call upstream, normalize and merge,
// write back with the class TTL. Store failures always degrade to the miss
// path; they never fail a request.
package resolver

import (
	"context"
	"time"

	"github.com/steamdex/steamdex/internal/cache"
	"github.com/steamdex/steamdex/internal/catalog"
	"github.com/steamdex/steamdex/internal/steam"
	"go.uber.org/zap"
)

// Per-class cache lifetimes. Profiles and app details change rarely, friend
// lists (and the online status embedded in them) change often.
const (
	ProfileTTL = 24 * time.Hour
	FriendsTTL = 15 * time.Minute
	GamesTTL   = time.Hour
	DetailsTTL = 24 * time.Hour
)

func profileKey(subjectID string) string { return "profile:" + subjectID }
func friendsKey(subjectID string) string { return "friends:" + subjectID }
func gamesKey(subjectID string) string   { return "games:" + subjectID }
func detailsKey(appID string) string     { return "games:details:" + appID }

// Upstream is the slice of the Steam client the resolvers depend on.
type Upstream interface {
	GetPlayerSummary(ctx context.Context, steamID string) (*steam.PlayerSummary, error)
	GetPlayerSummaries(ctx context.Context, steamIDs []string) ([]*steam.PlayerSummary, error)
	GetFriendIDs(ctx context.Context, steamID string) ([]string, error)
	GetOwnedGames(ctx context.Context, steamID string) ([]steam.OwnedGame, error)
	GetAppDetails(ctx context.Context, appID string) (*steam.AppDetails, error)
}

// Resolvers bundles one resolver per data class. All resolvers are stateless
// and safe for concurrent reuse.
type Resolvers struct {
	Profile *ProfileResolver
	Friends *FriendsResolver
	Games   *GamesResolver
	Details *DetailsResolver

	store  cache.Store
	logger *zap.Logger
}

// New wires the four resolvers against a shared store, upstream client and
// catalog index.
func New(store cache.Store, upstream Upstream, index *catalog.Index, logger *zap.Logger) *Resolvers {
	logger = logger.Named("resolver")

	return &Resolvers{
		Profile: &ProfileResolver{store: store, upstream: upstream, logger: logger.Named("profile")},
		Friends: &FriendsResolver{store: store, upstream: upstream, logger: logger.Named("friends")},
		Games:   &GamesResolver{store: store, upstream: upstream, index: index, logger: logger.Named("games")},
		Details: &DetailsResolver{store: store, upstream: upstream, index: index, logger: logger.Named("details")},
		store:   store,
		logger:  logger,
	}
}

// Invalidate drops every cached data class for the subject. App details are
// keyed per app, not per subject, and are left to expire on their own.
func (r *Resolvers) Invalidate(ctx context.Context, subjectID string) error {
	if err := ValidateSubjectID(subjectID); err != nil {
		return err
	}

	return r.store.Delete(ctx, profileKey(subjectID), friendsKey(subjectID), gamesKey(subjectID))
}

// writeString stores a value and sets the class TTL, best-effort. A failed
// write leaves the key absent; a failed TTL set leaves the written value
// without expiry. Both are logged and swallowed.
func writeString(ctx context.Context, store cache.Store, logger *zap.Logger, key, value string, ttl time.Duration) {
	if err := store.SetString(ctx, key, value); err != nil {
		logger.Error("Failed to write cache entry", zap.String("key", key), zap.Error(err))
		return
	}

	if err := store.Expire(ctx, key, ttl); err != nil {
		logger.Error("Failed to set cache entry TTL", zap.String("key", key), zap.Error(err))
	}
}

// writeHash stores a field map and sets the class TTL, best-effort.
func writeHash(ctx context.Context, store cache.Store, logger *zap.Logger, key string, fields map[string]string, ttl time.Duration) {
	if err := store.SetHash(ctx, key, fields); err != nil {
		logger.Error("Failed to write cache entry", zap.String("key", key), zap.Error(err))
		return
	}

	if err := store.Expire(ctx, key, ttl); err != nil {
		logger.Error("Failed to set cache entry TTL", zap.String("key", key), zap.Error(err))
	}
}
