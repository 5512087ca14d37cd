// Package auth gates resolver endpoints behind a live session.
package auth

import (
	"errors"
	"net/http"

	"github.com/steamdex/steamdex/internal/rest/types"
	"github.com/steamdex/steamdex/internal/session"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Middleware rejects requests without a valid session cookie before any
// handler runs.
type Middleware struct {
	sessions   *session.Manager
	cookieName string
	logger     *zap.Logger
}

// New creates the session-gating middleware.
func New(sessions *session.Manager, cookieName string, logger *zap.Logger) *Middleware {
	return &Middleware{
		sessions:   sessions,
		cookieName: cookieName,
		logger:     logger.Named("auth_middleware"),
	}
}

// RequireSession loads the session named by the request cookie and stores it
// in the request context. Requests without one get a fixed 401 response.
func (m *Middleware) RequireSession(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		cookie, err := req.Cookie(m.cookieName)
		if err != nil || cookie.Value == "" {
			return unauthorized(w)
		}

		sess, err := m.sessions.Get(req.Context(), cookie.Value)
		if err != nil {
			if !errors.Is(err, session.ErrSessionNotFound) {
				// A session-store failure cannot authenticate anyone;
				// unlike cache reads there is no degraded path here
				m.logger.Error("Failed to load session", zap.Error(err))
			}

			return unauthorized(w)
		}

		return next(w, req.WithContext(session.NewContext(req.Context(), sess)))
	}
}

func unauthorized(w http.ResponseWriter) error {
	w.WriteHeader(http.StatusUnauthorized)
	return bunrouter.JSON(w, types.Error("Unauthorized"))
}
