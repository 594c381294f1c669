// Package provider defines the pluggable boundary implemented by each
// identity backend: authorization URL construction, callback resolution, and
// session persistence. The flow orchestrator only ever talks to this
// interface.
package provider

import "context"

// Provider abstracts identity backend operations.
//
// The redirect URI handed to GetOAuthURL is always one of exactly two
// canonical strings (the web or native callback path appended to the app
// base URL) and must be treated as the final client-side destination. Any
// intermediate server-side hop a backend performs is its own concern.
type Provider interface {
	// GetOAuthURL builds the authorization URL for the named backend flow.
	GetOAuthURL(ctx context.Context, providerName, redirectURI, state string) (string, error)

	// HandleCallback resolves callback parameters into an authenticated
	// result. It fails with a *ProtocolError when the params carry an error
	// pair, a *MissingDataError when no code or token is present, and a
	// *ExchangeError when the backend exchange fails.
	HandleCallback(ctx context.Context, params CallbackParams) (*AuthResult, error)

	// SetSession persists the session derived from a token set. When no
	// persistence medium is available this is a silent no-op, not an error.
	SetSession(ctx context.Context, tokens TokenSet) error

	// GetSession returns the current session, or (nil, nil) when none
	// exists. Persistence read failures are absorbed and reported as
	// absence; they are never surfaced to the caller.
	GetSession(ctx context.Context) (*Session, error)

	// SignOut clears any persisted session. Idempotent.
	SignOut(ctx context.Context) error
}
