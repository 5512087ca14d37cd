package resolver

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/steamdex/steamdex/internal/cache"
	"github.com/steamdex/steamdex/internal/steam"
	"go.uber.org/zap"
)

// FriendsResolver serves a subject's friend list with full profile summaries.
// On miss it fans out one batch summary call per id chunk and merges the
// results into a deterministic order.
type FriendsResolver struct {
	store    cache.Store
	upstream Upstream
	logger   *zap.Logger
}

// Resolve returns the subject's friends sorted ascending by numeric id, so
// the merged list is a pure function of its content regardless of which
// chunk fetch completes first.
func (r *FriendsResolver) Resolve(ctx context.Context, subjectID string) ([]*steam.PlayerSummary, error) {
	if err := ValidateSubjectID(subjectID); err != nil {
		return nil, err
	}

	key := friendsKey(subjectID)

	if value, lookup := r.store.GetString(ctx, key); lookup == cache.Hit {
		var friends []*steam.PlayerSummary
		if err := sonic.UnmarshalString(value, &friends); err == nil {
			return friends, nil
		}

		// Corrupt entry, refetch
		r.logger.Warn("Discarding undecodable friend list cache entry", zap.String("key", key))
	}

	friendIDs, err := r.upstream.GetFriendIDs(ctx, subjectID)
	if err != nil {
		if errors.Is(err, steam.ErrFriendsPrivate) {
			// Privacy is a property of the subject's settings, not of our
			// data; never cached
			return nil, ErrFriendListPrivate
		}

		return nil, fmt.Errorf("failed to fetch friend ids: %w", err)
	}

	friends, err := r.upstream.GetPlayerSummaries(ctx, friendIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch friend summaries: %w", err)
	}

	slices.SortFunc(friends, func(a, b *steam.PlayerSummary) int {
		ai, _ := strconv.ParseInt(a.SteamID, 10, 64)
		bi, _ := strconv.ParseInt(b.SteamID, 10, 64)

		return cmp.Compare(ai, bi)
	})

	if value, err := sonic.MarshalString(friends); err == nil {
		writeString(ctx, r.store, r.logger, key, value, FriendsTTL)
	}

	return friends, nil
}
