package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/steamdex/steamdex/internal/resolver"
	"github.com/steamdex/steamdex/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// SteamHandler serves the cached profile, friend list, game library and
// batch app-details endpoints.
type SteamHandler struct {
	resolvers *resolver.Resolvers
	logger    *zap.Logger
}

// NewSteamHandler creates a new steam data handler.
func NewSteamHandler(resolvers *resolver.Resolvers, logger *zap.Logger) *SteamHandler {
	return &SteamHandler{
		resolvers: resolvers,
		logger:    logger.Named("steam_handler"),
	}
}

// GetProfile handles GET /api/steam/:id.
func (h *SteamHandler) GetProfile(w http.ResponseWriter, req bunrouter.Request) error {
	profile, err := h.resolvers.Profile.Resolve(req.Context(), req.Param("id"))
	if err != nil {
		return h.writeResolverError(w, err)
	}

	return bunrouter.JSON(w, types.Ok(profile))
}

// GetFriends handles GET /api/steam/:id/friends.
func (h *SteamHandler) GetFriends(w http.ResponseWriter, req bunrouter.Request) error {
	friends, err := h.resolvers.Friends.Resolve(req.Context(), req.Param("id"))
	if err != nil {
		return h.writeResolverError(w, err)
	}

	return bunrouter.JSON(w, types.Ok(friends))
}

// GetOwnedGames handles GET /api/steam/:id/games.
func (h *SteamHandler) GetOwnedGames(w http.ResponseWriter, req bunrouter.Request) error {
	games, err := h.resolvers.Games.Resolve(req.Context(), req.Param("id"))
	if err != nil {
		return h.writeResolverError(w, err)
	}

	return bunrouter.JSON(w, types.OkCount(games, len(games)))
}

// gamesInfoRequest is the body of POST /api/steam/games.
type gamesInfoRequest struct {
	AppIDs   []string `json:"appIds"`
	LiveData bool     `json:"liveData"`
}

// GetGamesInfo handles POST /api/steam/games.
func (h *SteamHandler) GetGamesInfo(w http.ResponseWriter, req bunrouter.Request) error {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return bunrouter.JSON(w, types.Error("Invalid request body"))
	}

	var request gamesInfoRequest
	if err := sonic.Unmarshal(body, &request); err != nil || request.AppIDs == nil {
		w.WriteHeader(http.StatusBadRequest)
		return bunrouter.JSON(w, types.Error("Invalid request body"))
	}

	result := h.resolvers.Details.Resolve(req.Context(), request.AppIDs, request.LiveData)

	return bunrouter.JSON(w, types.OkBatch(result.Data, result.Count, result.Skipped))
}

// InvalidateCache handles DELETE /api/steam/:id/cache.
func (h *SteamHandler) InvalidateCache(w http.ResponseWriter, req bunrouter.Request) error {
	if err := h.resolvers.Invalidate(req.Context(), req.Param("id")); err != nil {
		return h.writeResolverError(w, err)
	}

	return bunrouter.JSON(w, types.Response{Success: true, Message: "Cache cleared"})
}

// writeResolverError maps the resolver error taxonomy onto HTTP statuses.
func (h *SteamHandler) writeResolverError(w http.ResponseWriter, err error) error {
	switch {
	case errors.Is(err, resolver.ErrInvalidSubjectID):
		w.WriteHeader(http.StatusBadRequest)
		return bunrouter.JSON(w, types.Error("Invalid ID"))
	case errors.Is(err, resolver.ErrSubjectNotFound):
		w.WriteHeader(http.StatusNotFound)
		return bunrouter.JSON(w, types.Error("Player not found"))
	case errors.Is(err, resolver.ErrFriendListPrivate):
		w.WriteHeader(http.StatusUnauthorized)
		return bunrouter.JSON(w, types.Error("Friend list is private"))
	default:
		h.logger.Error("Request failed", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)

		return bunrouter.JSON(w, types.Error("Internal server error"))
	}
}
