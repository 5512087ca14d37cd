package steam_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jaxron/axonet/pkg/client"
	"github.com/steamdex/steamdex/internal/setup/config"
	"github.com/steamdex/steamdex/internal/steam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *steam.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Steam{
		APIKey:   "test-key",
		APIURL:   server.URL,
		StoreURL: server.URL,
	}

	return steam.NewClient(client.NewClient(), cfg, zap.NewNop())
}

func TestGetPlayerSummariesChunking(t *testing.T) {
	t.Parallel()

	var (
		mu         sync.Mutex
		chunkSizes []int
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/ISteamUser/GetPlayerSummaries/v2/", func(w http.ResponseWriter, r *http.Request) {
		ids := strings.Split(r.URL.Query().Get("steamids"), ",")

		mu.Lock()
		chunkSizes = append(chunkSizes, len(ids))
		mu.Unlock()

		players := make([]string, 0, len(ids))
		for _, id := range ids {
			players = append(players, fmt.Sprintf(`{"steamid":%q}`, id))
		}

		fmt.Fprintf(w, `{"response":{"players":[%s]}}`, strings.Join(players, ","))
	})

	c := newTestClient(t, mux)

	// 250 ids must produce chunks of at most 100
	ids := make([]string, 250)
	for i := range ids {
		ids[i] = fmt.Sprintf("7656119796%07d", i)
	}

	players, err := c.GetPlayerSummaries(t.Context(), ids)
	require.NoError(t, err)
	assert.Len(t, players, 250)
	assert.Len(t, chunkSizes, 3)

	for _, size := range chunkSizes {
		assert.LessOrEqual(t, size, steam.SummaryBatchSize)
	}
}

func TestGetPlayerSummaryNotFound(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/ISteamUser/GetPlayerSummaries/v2/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"response":{"players":[]}}`)
	})

	c := newTestClient(t, mux)

	_, err := c.GetPlayerSummary(t.Context(), "76561197960287930")
	require.ErrorIs(t, err, steam.ErrPlayerNotFound)
}

func TestGetFriendIDsPrivate(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/ISteamUser/GetFriendList/v1/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c := newTestClient(t, mux)

	_, err := c.GetFriendIDs(t.Context(), "76561197960287930")
	require.ErrorIs(t, err, steam.ErrFriendsPrivate)
}

func TestGetFriendIDs(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/ISteamUser/GetFriendList/v1/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"friendslist":{"friends":[
			{"steamid":"76561197960287930","relationship":"friend","friend_since":1451606400},
			{"steamid":"76561197960287931","relationship":"friend","friend_since":1451606401}
		]}}`)
	})

	c := newTestClient(t, mux)

	ids, err := c.GetFriendIDs(t.Context(), "76561197960287932")
	require.NoError(t, err)
	assert.Equal(t, []string{"76561197960287930", "76561197960287931"}, ids)
}

func TestGetOwnedGamesMissingField(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/IPlayerService/GetOwnedGames/v1/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"response":{}}`)
	})

	c := newTestClient(t, mux)

	_, err := c.GetOwnedGames(t.Context(), "76561197960287930")
	require.ErrorIs(t, err, steam.ErrPlayerNotFound)
}

func TestGetAppDetails(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/appdetails", func(w http.ResponseWriter, r *http.Request) {
		appID := r.URL.Query().Get("appids")
		switch appID {
		case "10":
			fmt.Fprint(w, `{"10":{"success":true,"data":{"name":"Counter-Strike","steam_appid":10,"type":"game"}}}`)
		default:
			fmt.Fprintf(w, `{%q:{"success":false}}`, appID)
		}
	})

	c := newTestClient(t, mux)

	details, err := c.GetAppDetails(t.Context(), "10")
	require.NoError(t, err)
	assert.Equal(t, "Counter-Strike", details.Name)
	assert.Equal(t, int64(10), details.SteamAppID)

	_, err = c.GetAppDetails(t.Context(), "999999")
	require.ErrorIs(t, err, steam.ErrAppNotFound)
}
