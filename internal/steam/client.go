// Package steam issues the outbound calls against the Steam Web API and the
// storefront, one method per upstream operation.
package steam

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/jaxron/axonet/pkg/client"
	"github.com/sourcegraph/conc/pool"
	"github.com/steamdex/steamdex/internal/setup/config"
	"go.uber.org/zap"
)

// SummaryBatchSize is the upstream limit on ids per GetPlayerSummaries call.
const SummaryBatchSize = 100

// Default upstream base URLs, overridable through config for tests.
const (
	DefaultAPIURL   = "https://api.steampowered.com"
	DefaultStoreURL = "https://store.steampowered.com"
)

var (
	// ErrFriendsPrivate indicates the subject's friend list is not public.
	ErrFriendsPrivate = errors.New("friend list is private")
	// ErrPlayerNotFound indicates the upstream response held no player data.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrAppNotFound indicates the storefront has no details for the app.
	ErrAppNotFound = errors.New("app not found")
	// ErrBadStatus indicates an unexpected upstream HTTP status.
	ErrBadStatus = errors.New("unexpected upstream status")
)

// Client wraps the Steam Web API and storefront endpoints.
// Safe for concurrent use.
type Client struct {
	http     *client.Client
	apiKey   string
	apiURL   string
	storeURL string
	logger   *zap.Logger
}

// NewClient creates a Steam API client on top of the shared HTTP client.
func NewClient(httpClient *client.Client, cfg *config.Steam, logger *zap.Logger) *Client {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	storeURL := cfg.StoreURL
	if storeURL == "" {
		storeURL = DefaultStoreURL
	}

	return &Client{
		http:     httpClient,
		apiKey:   cfg.APIKey,
		apiURL:   apiURL,
		storeURL: storeURL,
		logger:   logger.Named("steam"),
	}
}

// GetPlayerSummary returns the profile summary for a single player.
// Returns ErrPlayerNotFound when the response holds no player.
func (c *Client) GetPlayerSummary(ctx context.Context, steamID string) (*PlayerSummary, error) {
	players, err := c.fetchSummaryChunk(ctx, []string{steamID})
	if err != nil {
		return nil, err
	}

	if len(players) == 0 {
		return nil, ErrPlayerNotFound
	}

	return players[0], nil
}

// GetPlayerSummaries returns profile summaries for a set of players. The id
// set is partitioned into chunks the upstream accepts and the chunks are
// fetched concurrently; result order is unspecified.
func (c *Client) GetPlayerSummaries(ctx context.Context, steamIDs []string) ([]*PlayerSummary, error) {
	var (
		players = make([]*PlayerSummary, 0, len(steamIDs))
		p       = pool.New().WithContext(ctx).WithCancelOnError()
		mu      sync.Mutex
	)

	for i := 0; i < len(steamIDs); i += SummaryBatchSize {
		end := min(i+SummaryBatchSize, len(steamIDs))
		chunk := steamIDs[i:end]

		p.Go(func(ctx context.Context) error {
			chunkPlayers, err := c.fetchSummaryChunk(ctx, chunk)
			if err != nil {
				return err
			}

			mu.Lock()
			players = append(players, chunkPlayers...)
			mu.Unlock()

			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}

	return players, nil
}

// GetFriendIDs returns the ids of a player's friends.
// Returns ErrFriendsPrivate when the friend list is not public.
func (c *Client) GetFriendIDs(ctx context.Context, steamID string) ([]string, error) {
	resp, err := c.http.NewRequest().
		Method(http.MethodGet).
		URL(c.apiURL + "/ISteamUser/GetFriendList/v1/").
		Query("key", c.apiKey).
		Query("steamid", steamID).
		Query("relationship", "friend").
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get friend list: %w", err)
	}
	defer resp.Body.Close()

	// Steam answers 401 when the subject's friend list is private
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrFriendsPrivate
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var result friendListResponse
	if err := decodeBody(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode friend list: %w", err)
	}

	if result.FriendsList == nil {
		return nil, ErrFriendsPrivate
	}

	friendIDs := make([]string, 0, len(result.FriendsList.Friends))
	for _, friend := range result.FriendsList.Friends {
		friendIDs = append(friendIDs, friend.SteamID)
	}

	return friendIDs, nil
}

// GetOwnedGames returns the games owned by a player.
// Returns ErrPlayerNotFound when the response holds no games field.
func (c *Client) GetOwnedGames(ctx context.Context, steamID string) ([]OwnedGame, error) {
	resp, err := c.http.NewRequest().
		Method(http.MethodGet).
		URL(c.apiURL + "/IPlayerService/GetOwnedGames/v1/").
		Query("key", c.apiKey).
		Query("steamid", steamID).
		Query("include_appinfo", "1").
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get owned games: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var result ownedGamesResponse
	if err := decodeBody(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode owned games: %w", err)
	}

	if result.Response.Games == nil {
		return nil, ErrPlayerNotFound
	}

	return result.Response.Games, nil
}

// GetAppDetails returns the storefront details for a single app.
// Returns ErrAppNotFound when the storefront has no entry for the id.
func (c *Client) GetAppDetails(ctx context.Context, appID string) (*AppDetails, error) {
	resp, err := c.http.NewRequest().
		Method(http.MethodGet).
		URL(c.storeURL + "/api/appdetails").
		Query("appids", appID).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get app details: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var result map[string]appDetailsEntry
	if err := decodeBody(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode app details: %w", err)
	}

	entry, ok := result[appID]
	if !ok || !entry.Success || entry.Data == nil || entry.Data.Name == "" {
		return nil, ErrAppNotFound
	}

	return entry.Data, nil
}

// fetchSummaryChunk issues one GetPlayerSummaries call for up to
// SummaryBatchSize ids.
func (c *Client) fetchSummaryChunk(ctx context.Context, steamIDs []string) ([]*PlayerSummary, error) {
	resp, err := c.http.NewRequest().
		Method(http.MethodGet).
		URL(c.apiURL + "/ISteamUser/GetPlayerSummaries/v2/").
		Query("key", c.apiKey).
		Query("steamids", strings.Join(steamIDs, ",")).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get player summaries: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var result playerSummariesResponse
	if err := decodeBody(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode player summaries: %w", err)
	}

	return result.Response.Players, nil
}

func decodeBody(body io.Reader, v any) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	return sonic.Unmarshal(data, v)
}
