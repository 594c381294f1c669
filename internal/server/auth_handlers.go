package server

import (
	"net/http"

	"github.com/shellbridge/authflow/internal/flow"
	jsonwriter "github.com/shellbridge/authflow/internal/json"
	"github.com/shellbridge/authflow/internal/log"
	"github.com/shellbridge/authflow/internal/provider"
)

// AuthHandlers exposes the fixed route surface consumed by the embedding
// application: /auth/signin, /auth/callback, /native-callback,
// /auth/signout, /auth/session.
type AuthHandlers struct {
	flow *flow.Flow
}

// NewAuthHandlers creates handlers around the orchestrator
func NewAuthHandlers(f *flow.Flow) *AuthHandlers {
	return &AuthHandlers{flow: f}
}

// Register installs the route surface on mux
func (h *AuthHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /auth/signin", h.SignInHandler)
	mux.HandleFunc("POST /auth/signin", h.SignInHandler)
	mux.HandleFunc("GET "+flow.WebCallbackPath, h.WebCallbackHandler)
	mux.HandleFunc("GET "+flow.NativeCallbackPath, h.NativeCallbackHandler)
	mux.HandleFunc("POST /auth/signout", h.SignOutHandler)
	mux.HandleFunc("GET /auth/session", h.SessionHandler)
	mux.Handle("GET /healthz", HealthHandler{})
}

// SignInHandler starts the flow and dispatches the external redirect
func (h *AuthHandlers) SignInHandler(w http.ResponseWriter, r *http.Request) {
	providerName := r.FormValue("provider")

	redirect, err := h.flow.SignIn(r.Context(), providerName, r.UserAgent())
	if err != nil {
		log.LogErrorWithFields("server", "Sign-in failed", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		jsonwriter.WriteInternalServerError(w, "could not start sign-in")
		return
	}

	http.Redirect(w, r, redirect.URL, http.StatusFound)
}

// WebCallbackHandler is the web callback landing page. Requests carrying
// flow parameters are resolved through the orchestrator; everything else
// renders the landing page (which also folds fragment parameters into the
// query string client-side and re-navigates).
func (h *AuthHandlers) WebCallbackHandler(w http.ResponseWriter, r *http.Request) {
	h.handleCallback(w, r, false)
}

// NativeCallbackHandler is the native callback landing page, rendered
// inside the secure native session. Resolution ends in a deeplink redirect
// that hands control back to the shell.
func (h *AuthHandlers) NativeCallbackHandler(w http.ResponseWriter, r *http.Request) {
	h.handleCallback(w, r, true)
}

func (h *AuthHandlers) handleCallback(w http.ResponseWriter, r *http.Request, native bool) {
	params := provider.ParamsFromValues(r.URL.Query())

	if isFlowCallback(params) {
		dest := h.flow.HandleCallback(r.Context(), params, native)
		http.Redirect(w, r, dest, http.StatusFound)
		return
	}

	h.renderLanding(w, r, params.Get("error"))
}

// isFlowCallback distinguishes an identity-server response from a plain
// visit to the landing page. Provider responses carry a code or token, or
// an error alongside the round-tripped state; the orchestrator's own
// failure redirect carries a bare error and must not be re-processed.
func isFlowCallback(params provider.CallbackParams) bool {
	if params.Has("code") || params.Has("access_token") {
		return true
	}
	return params.Has("error") && params.Has("state")
}

func (h *AuthHandlers) renderLanding(w http.ResponseWriter, r *http.Request, errMsg string) {
	data := CallbackPageData{Error: errMsg}

	if errMsg == "" {
		if sess, _ := h.flow.Session(r.Context()); sess != nil {
			data.SignedIn = true
			data.Email = sess.User.Email
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := callbackPageTemplate.Execute(w, data); err != nil {
		log.LogError("Failed to render callback page: %v", err)
	}
}

// SignOutHandler clears the session; always succeeds
func (h *AuthHandlers) SignOutHandler(w http.ResponseWriter, r *http.Request) {
	h.flow.SignOut(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// SessionHandler reports the current session as JSON
func (h *AuthHandlers) SessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.flow.Session(r.Context())
	if sess == nil {
		_ = jsonwriter.Write(w, map[string]any{"authenticated": false})
		return
	}
	_ = jsonwriter.Write(w, map[string]any{
		"authenticated": true,
		"session":       sess,
	})
}
