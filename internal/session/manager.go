// Package session provides Redis-backed session storage keyed by an opaque
// token carried in a cookie.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"github.com/steamdex/steamdex/internal/steam"
	"go.uber.org/zap"
)

// ErrSessionNotFound indicates the token maps to no live session.
var ErrSessionNotFound = errors.New("session not found")

// tokenBytes is the entropy of a session token (hex-encoded to 64 chars).
const tokenBytes = 32

// Session is the authenticated user state stored per token.
type Session struct {
	Token       string    `json:"token"`
	SteamID     string    `json:"steamId"`
	PersonaName string    `json:"personaName"`
	Avatar      string    `json:"avatar"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Manager creates, loads and destroys sessions in Redis. Safe for
// concurrent use.
type Manager struct {
	client rueidis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewManager creates a session manager with the given session lifetime.
func NewManager(client rueidis.Client, ttl time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		client: client,
		ttl:    ttl,
		logger: logger.Named("session"),
	}
}

// Create issues a new session for the authenticated player.
func (m *Manager) Create(ctx context.Context, player *steam.PlayerSummary) (*Session, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	sess := &Session{
		Token:       hex.EncodeToString(buf),
		SteamID:     player.SteamID,
		PersonaName: player.PersonaName,
		Avatar:      player.AvatarFull,
		CreatedAt:   time.Now().UTC(),
	}

	data, err := sonic.MarshalString(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	err = m.client.Do(ctx,
		m.client.B().Set().Key(sessionKey(sess.Token)).Value(data).Ex(m.ttl).Build(),
	).Error()
	if err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	m.logger.Debug("Created session", zap.String("steamId", sess.SteamID))

	return sess, nil
}

// Get loads the session for a token. Returns ErrSessionNotFound for unknown
// or expired tokens.
func (m *Manager) Get(ctx context.Context, token string) (*Session, error) {
	data, err := m.client.Do(ctx, m.client.B().Get().Key(sessionKey(token)).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrSessionNotFound
		}

		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess Session
	if err := sonic.UnmarshalString(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &sess, nil
}

// Destroy removes the session for a token. Destroying an unknown token is
// not an error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	return m.client.Do(ctx, m.client.B().Del().Key(sessionKey(token)).Build()).Error()
}

func sessionKey(token string) string {
	return "session:" + token
}
