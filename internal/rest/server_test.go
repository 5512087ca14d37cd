package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/steamdex/steamdex/internal/auth"
	"github.com/steamdex/steamdex/internal/cache"
	"github.com/steamdex/steamdex/internal/catalog"
	"github.com/steamdex/steamdex/internal/resolver"
	"github.com/steamdex/steamdex/internal/rest"
	"github.com/steamdex/steamdex/internal/session"
	"github.com/steamdex/steamdex/internal/setup/config"
	"github.com/steamdex/steamdex/internal/steam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const subjectID = "76561197960287930"

// stubUpstream implements resolver.Upstream for handler tests.
type stubUpstream struct{}

func (stubUpstream) GetPlayerSummary(_ context.Context, steamID string) (*steam.PlayerSummary, error) {
	return &steam.PlayerSummary{SteamID: steamID, PersonaName: "Rabscuttle"}, nil
}

func (stubUpstream) GetPlayerSummaries(_ context.Context, steamIDs []string) ([]*steam.PlayerSummary, error) {
	summaries := make([]*steam.PlayerSummary, 0, len(steamIDs))
	for _, id := range steamIDs {
		summaries = append(summaries, &steam.PlayerSummary{SteamID: id})
	}

	return summaries, nil
}

func (stubUpstream) GetFriendIDs(context.Context, string) ([]string, error) {
	return []string{"76561197960287931"}, nil
}

func (stubUpstream) GetOwnedGames(context.Context, string) ([]steam.OwnedGame, error) {
	return []steam.OwnedGame{{AppID: 10, PlaytimeForever: 120}}, nil
}

func (stubUpstream) GetAppDetails(context.Context, string) (*steam.AppDetails, error) {
	return nil, steam.ErrAppNotFound
}

type envelope struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	Count    *int            `json:"count"`
	Skipped  *int            `json:"skipped"`
	Redirect string          `json:"redirect"`
}

func setupTest(t *testing.T) (http.Handler, *session.Manager, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:       []string{mr.Addr()},
		DisableCache:      true,
		DisableRetry:      true,
		ForceSingleClient: true,
	})
	require.NoError(t, err)

	snapshot := filepath.Join(t.TempDir(), "applist.json")
	require.NoError(t, os.WriteFile(snapshot,
		[]byte(`{"applist":{"apps":[{"appid":10,"name":"Counter-Strike"}]}}`), 0o644))

	index, err := catalog.Load(snapshot)
	require.NoError(t, err)

	cfg := &config.Config{
		Server:  config.Server{AllowedOrigins: []string{"*"}},
		Session: config.Session{CookieName: "steamdex-session", TTLHours: 1},
		Auth: config.Auth{
			Realm:       "http://localhost:3000/",
			ReturnURL:   "http://localhost:3000/api/auth/steam/return",
			RedirectURL: "http://localhost:5173/login",
		},
	}

	logger := zap.NewNop()
	store := cache.NewRedisStore(client, logger)
	resolvers := resolver.New(store, stubUpstream{}, index, logger)
	sessions := session.NewManager(client, time.Hour, logger)
	authenticator := auth.New(sessions, resolvers.Profile, &cfg.Auth, logger)

	handler := rest.NewServer(cfg, resolvers, authenticator, sessions, logger)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return handler, sessions, cleanup
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string, cookie *http.Cookie) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}

	return rec, env
}

func login(t *testing.T, sessions *session.Manager) *http.Cookie {
	t.Helper()

	sess, err := sessions.Create(t.Context(), &steam.PlayerSummary{
		SteamID:     subjectID,
		PersonaName: "Rabscuttle",
	})
	require.NoError(t, err)

	return &http.Cookie{Name: "steamdex-session", Value: sess.Token}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	t.Parallel()
	handler, _, cleanup := setupTest(t)
	defer cleanup()

	targets := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/api/steam/" + subjectID},
		{http.MethodGet, "/api/steam/" + subjectID + "/friends"},
		{http.MethodGet, "/api/steam/" + subjectID + "/games"},
		{http.MethodPost, "/api/steam/games"},
		{http.MethodDelete, "/api/steam/" + subjectID + "/cache"},
	}

	for _, tc := range targets {
		rec, env := doRequest(t, handler, tc.method, tc.target, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.target)
		assert.False(t, env.Success)
		assert.Equal(t, "Unauthorized", env.Message)
	}
}

func TestStaleCookieRejected(t *testing.T) {
	t.Parallel()
	handler, _, cleanup := setupTest(t)
	defer cleanup()

	cookie := &http.Cookie{Name: "steamdex-session", Value: "deadbeef"}
	rec, _ := doRequest(t, handler, http.MethodGet, "/api/steam/"+subjectID, "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetProfile(t *testing.T) {
	t.Parallel()
	handler, sessions, cleanup := setupTest(t)
	defer cleanup()

	cookie := login(t, sessions)

	rec, env := doRequest(t, handler, http.MethodGet, "/api/steam/"+subjectID, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var profile steam.PlayerSummary
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, subjectID, profile.SteamID)
	assert.Equal(t, "Rabscuttle", profile.PersonaName)
}

func TestGetProfileInvalidID(t *testing.T) {
	t.Parallel()
	handler, sessions, cleanup := setupTest(t)
	defer cleanup()

	cookie := login(t, sessions)

	rec, env := doRequest(t, handler, http.MethodGet, "/api/steam/not-an-id", "", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid ID", env.Message)
}

func TestGetOwnedGamesCount(t *testing.T) {
	t.Parallel()
	handler, sessions, cleanup := setupTest(t)
	defer cleanup()

	cookie := login(t, sessions)

	rec, env := doRequest(t, handler, http.MethodGet, "/api/steam/"+subjectID+"/games", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	var games []steam.OwnedGame
	require.NoError(t, json.Unmarshal(env.Data, &games))
	require.Len(t, games, 1)

	// Name joined in from the catalog snapshot
	assert.Equal(t, "Counter-Strike", games[0].Name)
}

func TestGetGamesInfo(t *testing.T) {
	t.Parallel()
	handler, sessions, cleanup := setupTest(t)
	defer cleanup()

	cookie := login(t, sessions)

	body := `{"appIds":["10","999999"]}`
	rec, env := doRequest(t, handler, http.MethodPost, "/api/steam/games", body, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Count)
	require.NotNil(t, env.Skipped)
	assert.Equal(t, 1, *env.Count)
	assert.Equal(t, 1, *env.Skipped)

	var data map[string]*steam.AppDetails
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Contains(t, data, "10")
	require.Contains(t, data, "999999")
	assert.Equal(t, "Counter-Strike", data["10"].Name)
	assert.Nil(t, data["999999"])
}

func TestGetGamesInfoBadBody(t *testing.T) {
	t.Parallel()
	handler, sessions, cleanup := setupTest(t)
	defer cleanup()

	cookie := login(t, sessions)

	rec, _ := doRequest(t, handler, http.MethodPost, "/api/steam/games", `{"liveData":true}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe(t *testing.T) {
	t.Parallel()
	handler, sessions, cleanup := setupTest(t)
	defer cleanup()

	// Without a session the endpoint points at the login flow
	rec, env := doRequest(t, handler, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/api/auth/steam", env.Redirect)

	cookie := login(t, sessions)

	rec, env = doRequest(t, handler, http.MethodGet, "/api/me", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var sess session.Session
	require.NoError(t, json.Unmarshal(env.Data, &sess))
	assert.Equal(t, subjectID, sess.SteamID)
}

func TestLoginRedirect(t *testing.T) {
	t.Parallel()
	handler, _, cleanup := setupTest(t)
	defer cleanup()

	rec, _ := doRequest(t, handler, http.MethodGet, "/api/auth/steam", "", nil)
	assert.Equal(t, http.StatusFound, rec.Code)

	location := rec.Header().Get("Location")
	assert.Contains(t, location, "steamcommunity.com/openid")
	assert.Contains(t, location, "openid.return_to")
}

func TestLogout(t *testing.T) {
	t.Parallel()
	handler, sessions, cleanup := setupTest(t)
	defer cleanup()

	cookie := login(t, sessions)

	rec, env := doRequest(t, handler, http.MethodGet, "/api/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	// The session is gone afterwards
	_, err := sessions.Get(t.Context(), cookie.Value)
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	handler, sessions, cleanup := setupTest(t)
	defer cleanup()

	cookie := login(t, sessions)

	// Drive some traffic so the route counters have something to show
	rec, _ := doRequest(t, handler, http.MethodGet, "/api/steam/"+subjectID, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = doRequest(t, handler, http.MethodGet, "/api/steam/"+subjectID, "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	scrape := httptest.NewRecorder()
	handler.ServeHTTP(scrape, req)

	require.Equal(t, http.StatusOK, scrape.Code)

	body := scrape.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, "http_request_duration_seconds")

	// Route template labels, one series per status
	assert.Contains(t, body, `route="/api/steam/:id",status="200"`)
	assert.Contains(t, body, `route="/api/steam/:id",status="401"`)
}

func TestInvalidateCache(t *testing.T) {
	t.Parallel()
	handler, sessions, cleanup := setupTest(t)
	defer cleanup()

	cookie := login(t, sessions)

	// Warm the profile cache, then clear it
	rec, _ := doRequest(t, handler, http.MethodGet, "/api/steam/"+subjectID, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doRequest(t, handler, http.MethodDelete, "/api/steam/"+subjectID+"/cache", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Cache cleared", env.Message)
}
