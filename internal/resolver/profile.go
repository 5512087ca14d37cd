package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/steamdex/steamdex/internal/cache"
	"github.com/steamdex/steamdex/internal/steam"
	"go.uber.org/zap"
)

// ProfileResolver serves a subject's profile summary from the cache,
// falling through to upstream on miss.
type ProfileResolver struct {
	store    cache.Store
	upstream Upstream
	logger   *zap.Logger
}

// Resolve returns the subject's profile.
func (r *ProfileResolver) Resolve(ctx context.Context, subjectID string) (*steam.PlayerSummary, error) {
	if err := ValidateSubjectID(subjectID); err != nil {
		return nil, err
	}

	key := profileKey(subjectID)

	if r.store.HashExists(ctx, key, "steamid") == cache.Hit {
		if fields, lookup := r.store.GetHash(ctx, key); lookup == cache.Hit {
			return steam.SummaryFromFields(fields), nil
		}
	}

	summary, err := r.upstream.GetPlayerSummary(ctx, subjectID)
	if err != nil {
		if errors.Is(err, steam.ErrPlayerNotFound) {
			return nil, ErrSubjectNotFound
		}

		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	writeHash(ctx, r.store, r.logger, key, summary.Fields(), ProfileTTL)

	return summary, nil
}
