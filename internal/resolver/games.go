package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/steamdex/steamdex/internal/cache"
	"github.com/steamdex/steamdex/internal/catalog"
	"github.com/steamdex/steamdex/internal/steam"
	"go.uber.org/zap"
)

// GamesResolver serves a subject's owned games, enriched with static catalog
// metadata for entries the upstream response leaves bare.
type GamesResolver struct {
	store    cache.Store
	upstream Upstream
	index    *catalog.Index
	logger   *zap.Logger
}

// Resolve returns the subject's owned games.
func (r *GamesResolver) Resolve(ctx context.Context, subjectID string) ([]steam.OwnedGame, error) {
	if err := ValidateSubjectID(subjectID); err != nil {
		return nil, err
	}

	key := gamesKey(subjectID)

	if value, lookup := r.store.GetString(ctx, key); lookup == cache.Hit {
		var games []steam.OwnedGame
		if err := sonic.UnmarshalString(value, &games); err == nil {
			return games, nil
		}

		r.logger.Warn("Discarding undecodable games cache entry", zap.String("key", key))
	}

	games, err := r.upstream.GetOwnedGames(ctx, subjectID)
	if err != nil {
		if errors.Is(err, steam.ErrPlayerNotFound) {
			return nil, ErrSubjectNotFound
		}

		return nil, fmt.Errorf("failed to fetch owned games: %w", err)
	}

	// The upstream response is authoritative for subject-specific fields;
	// the catalog only fills in names the response omits
	for i := range games {
		if games[i].Name != "" {
			continue
		}

		if entry, ok := r.index.Lookup(games[i].AppID); ok {
			games[i].Name = entry.Name
		}
	}

	if value, err := sonic.MarshalString(games); err == nil {
		writeString(ctx, r.store, r.logger, key, value, GamesTTL)
	}

	return games, nil
}
