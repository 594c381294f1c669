// Package flow owns the sign-in, callback-handling, and sign-out state
// transitions of the hybrid web/native OAuth flow. It decides redirect
// targets, generates CSRF state, dispatches to a browser redirect or a
// native secure-session deeplink, and normalizes outcomes into a session.
package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/shellbridge/authflow/internal/crypto"
	"github.com/shellbridge/authflow/internal/deeplink"
	"github.com/shellbridge/authflow/internal/log"
	"github.com/shellbridge/authflow/internal/provider"
	"github.com/shellbridge/authflow/internal/shell"
	"github.com/shellbridge/authflow/internal/storage"
	"github.com/shellbridge/authflow/internal/urlutil"
)

// The two canonical callback destinations. Every redirect URI handed to a
// provider is one of these appended to the app base URL.
const (
	WebCallbackPath    = "/auth/callback"
	NativeCallbackPath = "/native-callback"
)

// StatePrefix keys persisted CSRF state records in storage.
const StatePrefix = "authflow:state:"

// StateTTL bounds how long a state record is kept for correlation.
const StateTTL = 10 * time.Minute

// Config assembles a flow orchestrator. Immutable for the orchestrator's
// lifetime.
type Config struct {
	// AppBaseURL is the embedding application's origin. Trailing slashes
	// are stripped on construction.
	AppBaseURL string

	// NativeScheme is the deeplink scheme of the native shell (e.g. "myapp").
	NativeScheme string

	// Provider is the identity backend handle.
	Provider provider.Provider

	// Storage persists state records for callback correlation. May be nil;
	// state persistence is best-effort and its loss never aborts a flow.
	Storage storage.Storage

	// ShellMarker overrides the user agent marker for native detection.
	ShellMarker string

	// VerifyState turns advisory state correlation into enforcement:
	// callbacks whose state fails verification take the Failed branch.
	VerifyState bool

	// StateSigningKey enables HMAC-signed self-contained state values.
	// Required when VerifyState is set.
	StateSigningKey []byte
}

// Redirect is the dispatch decision produced by SignIn. The HTTP layer
// issues the actual 302; in the native case URL is the secure-session opener
// deeplink carrying the authorization URL.
type Redirect struct {
	Mode shell.Mode
	URL  string
}

// stateRecord is persisted keyed by the state value itself.
type stateRecord struct {
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}

// Flow is the orchestrator. All methods are safe for the single-threaded,
// event-driven host model: no operation blocks on another flow operation.
type Flow struct {
	appBaseURL   string
	nativeScheme string
	provider     provider.Provider
	storage      storage.Storage
	detector     shell.Detector
	verifyState  bool
	signer       *crypto.StateSigner
	now          func() time.Time
}

// New creates a flow orchestrator from cfg.
func New(cfg Config) (*Flow, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if cfg.NativeScheme == "" {
		return nil, fmt.Errorf("nativeScheme is required")
	}

	base, err := urlutil.NormalizeBase(cfg.AppBaseURL)
	if err != nil || base == "" {
		return nil, fmt.Errorf("invalid appBaseUrl %q", cfg.AppBaseURL)
	}

	f := &Flow{
		appBaseURL:   base,
		nativeScheme: cfg.NativeScheme,
		provider:     cfg.Provider,
		storage:      cfg.Storage,
		detector:     shell.NewDetector(cfg.ShellMarker),
		verifyState:  cfg.VerifyState,
		now:          time.Now,
	}

	if cfg.VerifyState {
		if len(cfg.StateSigningKey) == 0 {
			return nil, fmt.Errorf("stateSigningKey is required when verifyState is enabled")
		}
		signer := crypto.NewStateSigner(cfg.StateSigningKey, StateTTL)
		f.signer = &signer
	}

	return f, nil
}

// Detector exposes native-shell detection to the HTTP layer.
func (f *Flow) Detector() shell.Detector {
	return f.detector
}

// RedirectURI returns the canonical client-side destination for the mode.
func (f *Flow) RedirectURI(mode shell.Mode) string {
	if mode == shell.ModeNative {
		return f.appBaseURL + NativeCallbackPath
	}
	return f.appBaseURL + WebCallbackPath
}

// SignIn starts an authorization-code flow for the named backend. The
// runtime mode is detected from userAgent; the returned Redirect is the
// external dispatch the caller must perform. A failed SignIn is not retried
// here; the caller re-initiates.
func (f *Flow) SignIn(ctx context.Context, providerName, userAgent string) (*Redirect, error) {
	mode := f.detector.Detect(userAgent)
	state := f.newState()

	f.storeState(ctx, providerName, state)

	redirectURI := f.RedirectURI(mode)
	authURL, err := f.provider.GetOAuthURL(ctx, providerName, redirectURI, state)
	if err != nil {
		return nil, fmt.Errorf("building authorization URL: %w", err)
	}

	log.LogInfoWithFields("flow", "Sign-in dispatched", map[string]any{
		"provider": providerName,
		"mode":     mode.String(),
	})

	if mode == shell.ModeNative {
		// The shell treats this deeplink as the signal to open an isolated
		// secure browser session on the wrapped URL.
		return &Redirect{
			Mode: mode,
			URL:  deeplink.Build("authorize", map[string]string{"url": authURL}, f.nativeScheme),
		}, nil
	}
	return &Redirect{Mode: mode, URL: authURL}, nil
}

// HandleCallback resolves a delivered callback into a destination string.
// It never fails: every provider or verification error is converted into
// the Failed branch's destination for the requesting environment.
func (f *Flow) HandleCallback(ctx context.Context, params provider.CallbackParams, native bool) string {
	state := params.Get("state")
	f.consumeState(ctx, state)

	if f.verifyState && !f.signer.Validate(state) {
		log.LogWarnWithFields("flow", "State verification failed", map[string]any{
			"native": native,
		})
		return f.failureDestination("state_mismatch", native)
	}

	// Forward the canonical redirect URI used for this leg; token endpoints
	// require it to match the authorization request.
	enriched := make(provider.CallbackParams, len(params)+1)
	for k, v := range params {
		enriched[k] = v
	}
	mode := shell.ModeWeb
	if native {
		mode = shell.ModeNative
	}
	enriched["redirect_uri"] = f.RedirectURI(mode)

	result, err := f.provider.HandleCallback(ctx, enriched)
	if err != nil {
		log.LogWarnWithFields("flow", "Callback failed", map[string]any{
			"native": native,
			"error":  err.Error(),
		})
		return f.failureDestination(err.Error(), native)
	}

	if err := f.provider.SetSession(ctx, result.Tokens); err != nil {
		log.LogErrorWithFields("flow", "Persisting session failed", map[string]any{
			"error": err.Error(),
		})
		return f.failureDestination(err.Error(), native)
	}

	if native {
		params := map[string]string{"access_token": result.Tokens.AccessToken}
		if result.Tokens.RefreshToken != "" {
			params["refresh_token"] = result.Tokens.RefreshToken
		}
		return deeplink.Build("callback", params, f.nativeScheme)
	}

	// Session is already persisted; the web destination carries no tokens.
	return f.appBaseURL + WebCallbackPath
}

// SignOut clears the provider's session. Best-effort: provider failures are
// logged, never surfaced.
func (f *Flow) SignOut(ctx context.Context) {
	if err := f.provider.SignOut(ctx); err != nil {
		log.LogWarnWithFields("flow", "Sign-out failed", map[string]any{
			"error": err.Error(),
		})
	}
}

// Session returns the provider's current session, or nil.
func (f *Flow) Session(ctx context.Context) (*provider.Session, error) {
	return f.provider.GetSession(ctx)
}

// newState generates an unguessable state value. Signed composites are used
// under VerifyState; otherwise a random UUID, with a timestamp+random
// composite as the fallback when UUID generation is unavailable.
func (f *Flow) newState() string {
	if f.signer != nil {
		if state, err := f.signer.Generate(); err == nil {
			return state
		}
	}

	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}

	token, err := crypto.GenerateSecureToken()
	if err != nil {
		token = "fallback"
	}
	return fmt.Sprintf("%d.%s", f.now().UnixMilli(), token)
}

// storeState persists the state record keyed by its own value. Best-effort:
// correlation is advisory unless VerifyState is on, and even then loss of
// the record does not fail verification (the signature carries the proof).
func (f *Flow) storeState(ctx context.Context, providerName, state string) {
	if f.storage == nil {
		return
	}

	data, err := json.Marshal(stateRecord{Provider: providerName, CreatedAt: f.now()})
	if err != nil {
		return
	}
	if err := f.storage.Set(ctx, StatePrefix+state, string(data)); err != nil {
		log.LogDebugWithFields("flow", "State record not persisted", map[string]any{
			"error": err.Error(),
		})
	}
}

// consumeState removes the correlation record for a returned state value.
func (f *Flow) consumeState(ctx context.Context, state string) {
	if f.storage == nil || state == "" {
		return
	}
	if err := f.storage.Delete(ctx, StatePrefix+state); err != nil {
		log.LogDebugWithFields("flow", "State record not consumed", map[string]any{
			"error": err.Error(),
		})
	}
}

// failureDestination builds the error-channel destination for the
// environment: a deeplink parameter for native, a URL-encoded query
// parameter on the web callback path otherwise.
func (f *Flow) failureDestination(message string, native bool) string {
	if native {
		return deeplink.Build("callback", map[string]string{"error": message}, f.nativeScheme)
	}
	return f.appBaseURL + WebCallbackPath + "?error=" + url.QueryEscape(message)
}
