// Package auth handles the Steam OpenID 2.0 login handshake and exchanges a
// verified identity for a session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/steamdex/steamdex/internal/resolver"
	"github.com/steamdex/steamdex/internal/session"
	"github.com/steamdex/steamdex/internal/setup/config"
	"github.com/yohcop/openid-go"
	"go.uber.org/zap"
)

// steamOpenIDEndpoint is the Steam community OpenID provider.
const steamOpenIDEndpoint = "https://steamcommunity.com/openid"

// claimedIDPrefix prefixes the claimed id Steam returns; the SteamID64
// follows it.
const claimedIDPrefix = "https://steamcommunity.com/openid/id/"

// ErrInvalidClaimedID indicates the provider returned an identity outside
// the Steam claimed-id namespace.
var ErrInvalidClaimedID = errors.New("claimed id is not a steam identity")

// Authenticator runs the OpenID handshake and issues sessions for verified
// identities.
type Authenticator struct {
	sessions *session.Manager
	profiles *resolver.ProfileResolver
	cfg      *config.Auth
	logger   *zap.Logger

	// Shared verification state across the redirect round-trip
	nonceStore     openid.NonceStore
	discoveryCache openid.DiscoveryCache
}

// New creates an authenticator. The nonce store and discovery cache are
// process-wide; nonces are single-use by contract.
func New(sessions *session.Manager, profiles *resolver.ProfileResolver, cfg *config.Auth, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		sessions:       sessions,
		profiles:       profiles,
		cfg:            cfg,
		logger:         logger.Named("auth"),
		nonceStore:     openid.NewSimpleNonceStore(),
		discoveryCache: openid.NewSimpleDiscoveryCache(),
	}
}

// LoginURL builds the provider URL the browser is redirected to.
func (a *Authenticator) LoginURL() (string, error) {
	url, err := openid.RedirectURL(steamOpenIDEndpoint, a.cfg.ReturnURL, a.cfg.Realm)
	if err != nil {
		return "", fmt.Errorf("failed to build login redirect: %w", err)
	}

	return url, nil
}

// HandleReturn verifies the provider's response (passed as the full return
// URL including its query) and creates a session for the asserted identity.
func (a *Authenticator) HandleReturn(ctx context.Context, requestURL string) (*session.Session, error) {
	claimedID, err := openid.Verify(requestURL, a.discoveryCache, a.nonceStore)
	if err != nil {
		return nil, fmt.Errorf("openid verification failed: %w", err)
	}

	steamID, err := steamIDFromClaimedID(claimedID)
	if err != nil {
		return nil, err
	}

	// The resolver warms the profile cache as a side effect of the login
	profile, err := a.profiles.Resolve(ctx, steamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for login: %w", err)
	}

	sess, err := a.sessions.Create(ctx, profile)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Login completed", zap.String("steamId", steamID))

	return sess, nil
}

// steamIDFromClaimedID extracts and validates the SteamID64 a verified
// claimed id asserts.
func steamIDFromClaimedID(claimedID string) (string, error) {
	steamID, ok := strings.CutPrefix(claimedID, claimedIDPrefix)
	if !ok {
		return "", ErrInvalidClaimedID
	}

	if err := resolver.ValidateSubjectID(steamID); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidClaimedID, steamID)
	}

	return steamID, nil
}
