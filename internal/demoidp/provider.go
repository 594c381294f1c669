package demoidp

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/ory/fosite"
	"github.com/ory/fosite/compose"
)

// Lifetimes of issued codes and tokens.
const (
	CodeLifetime  = 10 * time.Minute
	TokenLifetime = time.Hour
)

// NewProvider composes the OAuth 2.0 provider backing the demo server:
// explicit authorization code grant, refresh tokens, and token
// introspection, with opaque HMAC tokens.
func NewProvider(tokenURL string, store *Store, secret []byte) (fosite.OAuth2Provider, error) {
	// Validate secret length for HMAC-SHA512/256
	if len(secret) < 32 {
		return nil, fmt.Errorf("HMAC secret must be at least 32 bytes long for security, got %d bytes", len(secret))
	}

	fositeConfig := &fosite.Config{
		AccessTokenLifespan:      TokenLifetime,
		RefreshTokenLifespan:     TokenLifetime * 2,
		AuthorizeCodeLifespan:    CodeLifetime,
		TokenURL:                 tokenURL,
		ScopeStrategy:            fosite.HierarchicScopeStrategy,
		AudienceMatchingStrategy: fosite.DefaultAudienceMatchingStrategy,
		// Every exchange gets a refresh token, not just offline scopes.
		RefreshTokenScopes: []string{},
		GlobalSecret:       secret,
	}

	provider := compose.Compose(
		fositeConfig,
		store,
		&compose.CommonStrategy{
			CoreStrategy: compose.NewOAuth2HMACStrategy(fositeConfig),
		},
		compose.OAuth2AuthorizeExplicitFactory,
		compose.OAuth2RefreshTokenGrantFactory,
		compose.OAuth2TokenIntrospectionFactory,
	)

	return provider, nil
}

// GenerateSecret returns a random 32-byte HMAC secret. Demo codes and tokens
// do not need to survive restarts, so a fresh secret per process is fine.
func GenerateSecret() ([]byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generating HMAC secret: %w", err)
	}
	return secret, nil
}
