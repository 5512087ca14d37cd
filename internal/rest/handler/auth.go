package handler

import (
	"net/http"
	"time"

	"github.com/steamdex/steamdex/internal/auth"
	"github.com/steamdex/steamdex/internal/rest/types"
	"github.com/steamdex/steamdex/internal/session"
	"github.com/steamdex/steamdex/internal/setup/config"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// AuthHandler serves the login handshake and session endpoints.
type AuthHandler struct {
	auth     *auth.Authenticator
	sessions *session.Manager
	cfg      *config.Config
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authenticator *auth.Authenticator, sessions *session.Manager, cfg *config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     authenticator,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger.Named("auth_handler"),
	}
}

// Login handles GET /api/auth/steam by redirecting to the identity provider.
func (h *AuthHandler) Login(w http.ResponseWriter, req bunrouter.Request) error {
	url, err := h.auth.LoginURL()
	if err != nil {
		h.logger.Error("Failed to build login URL", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)

		return bunrouter.JSON(w, types.Error("Internal server error"))
	}

	http.Redirect(w, req.Request, url, http.StatusFound)

	return nil
}

// Return handles GET /api/auth/steam/return: it verifies the provider
// response, sets the session cookie and sends the browser to the frontend.
func (h *AuthHandler) Return(w http.ResponseWriter, req bunrouter.Request) error {
	// Verification needs the full return URL including the provider's query
	requestURL := h.cfg.Auth.ReturnURL + "?" + req.URL.RawQuery

	sess, err := h.auth.HandleReturn(req.Context(), requestURL)
	if err != nil {
		h.logger.Warn("Login verification failed", zap.Error(err))
		w.WriteHeader(http.StatusUnauthorized)

		return bunrouter.JSON(w, types.Error("Login failed"))
	}

	http.SetCookie(w, h.sessionCookie(sess.Token, h.sessionTTL()))
	http.Redirect(w, req.Request, h.cfg.Auth.RedirectURL, http.StatusFound)

	return nil
}

// Logout handles GET /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, req bunrouter.Request) error {
	if cookie, err := req.Cookie(h.cfg.Session.CookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Destroy(req.Context(), cookie.Value); err != nil {
			h.logger.Error("Failed to destroy session", zap.Error(err))
		}
	}

	// Expire the cookie regardless of session state
	http.SetCookie(w, h.sessionCookie("", -time.Hour))

	return bunrouter.JSON(w, types.Response{Success: true, Message: "Logged out"})
}

// Me handles GET /api/me. Unlike the steam routes it answers 401 with a
// redirect hint instead of going through the gating middleware.
func (h *AuthHandler) Me(w http.ResponseWriter, req bunrouter.Request) error {
	cookie, err := req.Cookie(h.cfg.Session.CookieName)
	if err != nil || cookie.Value == "" {
		return h.loginRedirect(w)
	}

	sess, err := h.sessions.Get(req.Context(), cookie.Value)
	if err != nil {
		return h.loginRedirect(w)
	}

	return bunrouter.JSON(w, types.Response{
		Success: true,
		Message: "You are authenticated",
		Data:    sess,
	})
}

func (h *AuthHandler) loginRedirect(w http.ResponseWriter) error {
	w.WriteHeader(http.StatusUnauthorized)
	return bunrouter.JSON(w, types.Response{Success: false, Redirect: "/api/auth/steam"})
}

func (h *AuthHandler) sessionTTL() time.Duration {
	return time.Duration(h.cfg.Session.TTLHours) * time.Hour
}

func (h *AuthHandler) sessionCookie(value string, maxAge time.Duration) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.cfg.Session.Secure {
		sameSite = http.SameSiteNoneMode
	}

	return &http.Cookie{
		Name:     h.cfg.Session.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.cfg.Session.CookieDomain,
		MaxAge:   int(maxAge.Seconds()),
		Secure:   h.cfg.Session.Secure,
		HttpOnly: true,
		SameSite: sameSite,
	}
}
