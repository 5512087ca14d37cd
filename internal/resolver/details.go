package resolver

import (
	"context"
	"errors"

	"github.com/bytedance/sonic"
	"github.com/steamdex/steamdex/internal/cache"
	"github.com/steamdex/steamdex/internal/catalog"
	"github.com/steamdex/steamdex/internal/steam"
	"go.uber.org/zap"
)

// absentSentinel is cached for ids the storefront confirmed it has no entry
// for, so a later lookup distinguishes "known absent" from "not yet cached".
const absentSentinel = "null"

// DetailsResult is the outcome of a batch details resolution. Data maps each
// requested id to its details, or nil when the id could not be resolved.
type DetailsResult struct {
	Data    map[string]*steam.AppDetails
	Count   int
	Skipped int
}

// DetailsResolver serves per-app storefront details in batch, either from
// the static index and cache alone or authoritatively against the storefront.
type DetailsResolver struct {
	store    cache.Store
	upstream Upstream
	index    *catalog.Index
	logger   *zap.Logger
}

// Resolve processes the id batch. With live=false no upstream call is made:
// ids resolve from the static index or the per-id cache, anything else is
// skipped. With live=true cache misses go to the storefront per id; a single
// id's upstream failure degrades that id to absent and never affects the
// remaining ids.
func (r *DetailsResolver) Resolve(ctx context.Context, appIDs []string, live bool) *DetailsResult {
	if live {
		return r.resolveLive(ctx, appIDs)
	}

	return r.resolveOffline(ctx, appIDs)
}

func (r *DetailsResolver) resolveOffline(ctx context.Context, appIDs []string) *DetailsResult {
	result := &DetailsResult{Data: make(map[string]*steam.AppDetails, len(appIDs))}

	for _, appID := range appIDs {
		// The index is authoritative for existence; it supplies id and name
		if entry, ok := r.index.LookupString(appID); ok {
			result.Data[appID] = &steam.AppDetails{SteamAppID: entry.AppID, Name: entry.Name}
			result.Count++

			continue
		}

		if details, ok := r.cachedDetails(ctx, appID); ok && details != nil {
			result.Data[appID] = details
			result.Count++

			continue
		}

		result.Data[appID] = nil
		result.Skipped++
	}

	return result
}

func (r *DetailsResolver) resolveLive(ctx context.Context, appIDs []string) *DetailsResult {
	result := &DetailsResult{Data: make(map[string]*steam.AppDetails, len(appIDs))}

	for _, appID := range appIDs {
		if value, lookup := r.store.GetString(ctx, detailsKey(appID)); lookup == cache.Hit {
			if value == "" || value == absentSentinel {
				// Previously confirmed absent
				result.Data[appID] = nil
				result.Skipped++

				continue
			}

			var details steam.AppDetails
			if err := sonic.UnmarshalString(value, &details); err == nil {
				result.Data[appID] = &details
				result.Count++

				continue
			}

			r.logger.Warn("Discarding undecodable app details cache entry", zap.String("appId", appID))
		}

		details, err := r.upstream.GetAppDetails(ctx, appID)
		if err != nil {
			if errors.Is(err, steam.ErrAppNotFound) {
				// Confirmed absent, cache the sentinel
				writeString(ctx, r.store, r.logger, detailsKey(appID), absentSentinel, DetailsTTL)
			} else {
				// Transient failure: degrade this id only and leave the
				// cache untouched so a later batch can retry it
				r.logger.Warn("App details fetch failed",
					zap.String("appId", appID),
					zap.Error(err))
			}

			result.Data[appID] = nil
			result.Skipped++

			continue
		}

		if value, err := sonic.MarshalString(details); err == nil {
			writeString(ctx, r.store, r.logger, detailsKey(appID), value, DetailsTTL)
		}

		result.Data[appID] = details
		result.Count++
	}

	return result
}

// cachedDetails reads the per-id detail cache, treating the absent sentinel
// and undecodable entries as not cached.
func (r *DetailsResolver) cachedDetails(ctx context.Context, appID string) (*steam.AppDetails, bool) {
	value, lookup := r.store.GetString(ctx, detailsKey(appID))
	if lookup != cache.Hit {
		return nil, false
	}

	if value == "" || value == absentSentinel {
		return nil, true
	}

	var details steam.AppDetails
	if err := sonic.UnmarshalString(value, &details); err != nil {
		return nil, false
	}

	return &details, true
}
