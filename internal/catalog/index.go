// Package catalog holds the process-lifetime index of known Steam apps,
// loaded once at startup from a local app list snapshot.
package catalog

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bytedance/sonic"
)

// Entry is one known app from the snapshot. The index is authoritative for
// existence and name only; rich detail always comes from the cache or the
// storefront.
type Entry struct {
	AppID int64  `json:"appid"`
	Name  string `json:"name"`
}

type appList struct {
	AppList struct {
		Apps []Entry `json:"apps"`
	} `json:"applist"`
}

// Index is an immutable id lookup over the snapshot. Safe for concurrent
// use once built; it is never mutated after Load returns.
type Index struct {
	byID map[int64]Entry
}

// Load reads the snapshot file ({"applist":{"apps":[...]}}) and builds the
// index.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read app list snapshot: %w", err)
	}

	var list appList
	if err := sonic.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse app list snapshot: %w", err)
	}

	byID := make(map[int64]Entry, len(list.AppList.Apps))
	for _, entry := range list.AppList.Apps {
		byID[entry.AppID] = entry
	}

	return &Index{byID: byID}, nil
}

// Lookup returns the entry for the given app id.
func (i *Index) Lookup(appID int64) (Entry, bool) {
	entry, ok := i.byID[appID]
	return entry, ok
}

// LookupString parses a decimal app id and looks it up. Unparsable ids are
// treated as unknown.
func (i *Index) LookupString(appID string) (Entry, bool) {
	id, err := strconv.ParseInt(appID, 10, 64)
	if err != nil {
		return Entry{}, false
	}

	return i.Lookup(id)
}

// Len returns the number of entries in the index.
func (i *Index) Len() int {
	return len(i.byID)
}
