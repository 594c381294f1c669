// Package idp implements the provider contract against any identity backend
// that speaks the OAuth 2.0 authorization-code flow with an OIDC-shaped
// userinfo endpoint. Endpoints are configured directly; the demo identity
// server and real backends are wired the same way.
package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/shellbridge/authflow/internal/provider"
	"github.com/shellbridge/authflow/internal/session"
)

// Config configures an identity backend.
type Config struct {
	// Name identifies this backend; sign-in requests name it explicitly.
	Name string

	AuthorizationURL string
	TokenURL         string
	UserInfoURL      string

	ClientID     string
	ClientSecret string
	Scopes       []string
}

// IdentityProvider implements provider.Provider over golang.org/x/oauth2.
type IdentityProvider struct {
	name        string
	config      oauth2.Config
	userInfoURL string
	sessions    *session.Store

	mu         sync.Mutex
	lastResult *provider.AuthResult // memo from the latest successful callback
}

var _ provider.Provider = (*IdentityProvider)(nil)

// New creates an identity provider backed by the given endpoints, persisting
// sessions through sessions.
func New(cfg Config, sessions *session.Store) (*IdentityProvider, error) {
	if cfg.AuthorizationURL == "" || cfg.TokenURL == "" {
		return nil, fmt.Errorf("authorizationUrl and tokenUrl are required")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}

	name := cfg.Name
	if name == "" {
		name = "oauth"
	}

	return &IdentityProvider{
		name: name,
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizationURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		sessions:    sessions,
	}, nil
}

// Name returns the backend identifier.
func (p *IdentityProvider) Name() string {
	return p.name
}

// GetOAuthURL builds the authorization URL. The redirect URI is one of the
// two canonical callback destinations chosen by the orchestrator.
func (p *IdentityProvider) GetOAuthURL(_ context.Context, providerName, redirectURI, state string) (string, error) {
	if providerName != "" && providerName != p.name {
		return "", fmt.Errorf("unknown provider %q, this backend serves %q", providerName, p.name)
	}

	cfg := p.config
	cfg.RedirectURL = redirectURI
	return cfg.AuthCodeURL(state), nil
}

// HandleCallback resolves callback parameters into an authenticated result.
// Error pairs take precedence; then an already-present access token is
// accepted as-is; otherwise the authorization code is exchanged.
func (p *IdentityProvider) HandleCallback(ctx context.Context, params provider.CallbackParams) (*provider.AuthResult, error) {
	if code := params.Get("error"); code != "" {
		return nil, &provider.ProtocolError{
			Code:        code,
			Description: params.Get("error_description"),
		}
	}

	var tokens provider.TokenSet

	switch {
	case params.Has("access_token"):
		tokens = provider.TokenSet{
			AccessToken:  params.Get("access_token"),
			RefreshToken: params.Get("refresh_token"),
		}
		if raw := params.Get("expires_in"); raw != "" {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				tokens.ExpiresIn = n
			}
		}

	case params.Has("code"):
		cfg := p.config
		// The orchestrator forwards the canonical redirect URI it dispatched
		// with; the token endpoint requires it to match.
		if uri := params.Get("redirect_uri"); uri != "" {
			cfg.RedirectURL = uri
		}

		tok, err := cfg.Exchange(ctx, params.Get("code"))
		if err != nil {
			return nil, &provider.ExchangeError{Op: "token exchange", Err: err}
		}

		tokens = provider.TokenSet{
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
		}
		if !tok.Expiry.IsZero() {
			tokens.ExpiresIn = int64(time.Until(tok.Expiry).Round(time.Second).Seconds())
		}

	default:
		return nil, &provider.MissingDataError{Field: "code"}
	}

	result := &provider.AuthResult{Tokens: tokens}

	if p.userInfoURL != "" {
		user, err := p.fetchUser(ctx, tokens.AccessToken)
		if err != nil {
			return nil, &provider.ExchangeError{Op: "user lookup", Err: err}
		}
		result.User = user
	}

	p.mu.Lock()
	p.lastResult = result
	p.mu.Unlock()

	return result, nil
}

// SetSession persists the session for the token set. The user record comes
// from the matching callback result when available, otherwise from a fresh
// userinfo lookup.
func (p *IdentityProvider) SetSession(ctx context.Context, tokens provider.TokenSet) error {
	var user provider.UserRecord

	p.mu.Lock()
	last := p.lastResult
	p.mu.Unlock()

	if last != nil && last.User != nil && last.Tokens.AccessToken == tokens.AccessToken {
		user = *last.User
	} else if p.userInfoURL != "" {
		fetched, err := p.fetchUser(ctx, tokens.AccessToken)
		if err != nil {
			return &provider.ExchangeError{Op: "user lookup", Err: err}
		}
		user = *fetched
	}

	_, err := p.sessions.Set(ctx, tokens, user)
	return err
}

// GetSession returns the current session; absence and read failures both
// surface as (nil, nil).
func (p *IdentityProvider) GetSession(ctx context.Context) (*provider.Session, error) {
	return p.sessions.Get(ctx)
}

// SignOut clears the persisted session. Idempotent.
func (p *IdentityProvider) SignOut(ctx context.Context) error {
	return p.sessions.Clear(ctx)
}

// Sessions exposes the underlying store for change subscriptions.
func (p *IdentityProvider) Sessions() *session.Store {
	return p.sessions
}

func (p *IdentityProvider) fetchUser(ctx context.Context, accessToken string) (*provider.UserRecord, error) {
	client := p.config.Client(ctx, &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})

	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("failed to get user info: status %d: %s", resp.StatusCode, body)
	}

	var user provider.UserRecord
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	// OIDC userinfo uses "sub"; fall back to it when no "id" was present.
	if user.ID == "" {
		if sub, ok := user.Extra["sub"].(string); ok {
			user.ID = sub
		}
	}

	return &user, nil
}
