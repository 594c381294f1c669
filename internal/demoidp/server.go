// Package demoidp is a toy identity server used to exercise the provider
// contract end to end: a fosite-composed OAuth 2.0 provider behind an HTML
// consent form. It is an external collaborator of the flow orchestrator, not
// part of it.
package demoidp

import (
	"net/http"
	"strings"
	"time"

	"github.com/ory/fosite"

	"github.com/shellbridge/authflow/internal/crypto"
	jsonwriter "github.com/shellbridge/authflow/internal/json"
	"github.com/shellbridge/authflow/internal/log"
	"github.com/shellbridge/authflow/internal/provider"
)

// Default identity offered by the consent form.
const (
	defaultEmail = "demo@example.com"
	defaultName  = "Demo User"
)

// Server exposes the demo OAuth surface: GET/POST /authorize, POST /token,
// GET /userinfo.
type Server struct {
	oauth fosite.OAuth2Provider
	store *Store
}

// NewServer creates a demo identity server over the composed provider
func NewServer(oauth fosite.OAuth2Provider, store *Store) *Server {
	return &Server{oauth: oauth, store: store}
}

// Handler returns the route surface
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /authorize", s.authorizeForm)
	mux.HandleFunc("POST /authorize", s.authorizeApprove)
	mux.HandleFunc("POST /token", s.token)
	mux.HandleFunc("GET /userinfo", s.userinfo)
	return mux
}

// authorizeForm validates the authorization request, parks it, and renders
// the consent form with a one-time request id embedded.
func (s *Server) authorizeForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ar, err := s.oauth.NewAuthorizeRequest(ctx, r)
	if err != nil {
		log.LogError("Authorize request error: %v", err)
		s.oauth.WriteAuthorizeError(ctx, w, ar, err)
		return
	}

	requestID, err := crypto.GenerateSecureToken()
	if err != nil {
		log.LogError("Failed to generate request id: %v", err)
		s.oauth.WriteAuthorizeError(ctx, w, ar, fosite.ErrServerError.WithHint("Could not create authorization request"))
		return
	}
	s.store.StorePending(requestID, ar)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := authorizePageTemplate.Execute(w, AuthorizePageData{
		ClientID:  ar.GetClient().GetID(),
		RequestID: requestID,
		Scope:     strings.Join(ar.GetRequestedScopes(), " "),
		Email:     defaultEmail,
		Name:      defaultName,
	}); err != nil {
		log.LogError("Failed to render authorize page: %v", err)
	}
}

// authorizeApprove completes the approval: the form posts the one-time
// request id back, the parked request is granted for the submitted
// identity, and fosite redirects to the client with code and state.
func (s *Server) authorizeApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		WriteJSONError(w, http.StatusBadRequest, NewOAuthError(ErrInvalidRequest, "malformed form body"))
		return
	}

	ar, ok := s.store.ConsumePending(r.PostFormValue("request_id"))
	if !ok {
		WriteJSONError(w, http.StatusBadRequest, NewOAuthError(ErrInvalidRequest, "authorization request is unknown or has expired"))
		return
	}

	user := provider.UserRecord{
		Email: r.PostFormValue("email"),
		Name:  r.PostFormValue("name"),
	}
	if user.Email == "" {
		user.Email = defaultEmail
	}
	if user.Name == "" {
		user.Name = defaultName
	}
	user.ID = "demo-" + strings.SplitN(user.Email, "@", 2)[0]

	for _, scope := range ar.GetRequestedScopes() {
		ar.GrantScope(scope)
	}

	now := time.Now()
	session := &Session{
		DefaultSession: &fosite.DefaultSession{
			Subject: user.ID,
			ExpiresAt: map[fosite.TokenType]time.Time{
				fosite.AccessToken:  now.Add(TokenLifetime),
				fosite.RefreshToken: now.Add(TokenLifetime * 2),
			},
		},
		User: user,
	}

	response, err := s.oauth.NewAuthorizeResponse(ctx, ar, session)
	if err != nil {
		log.LogError("Authorize response error: %v", err)
		s.oauth.WriteAuthorizeError(ctx, w, ar, err)
		return
	}

	s.oauth.WriteAuthorizeResponse(ctx, w, ar, response)
}

// token exchanges a single-use authorization code for a token pair. Client
// authentication, redirect_uri matching, and code invalidation are fosite's.
func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Fosite populates this from the session stored at authorize time
	session := &Session{DefaultSession: &fosite.DefaultSession{}}

	accessRequest, err := s.oauth.NewAccessRequest(ctx, r, session)
	if err != nil {
		log.LogError("Access request error: %v", err)
		s.oauth.WriteAccessError(ctx, w, accessRequest, err)
		return
	}

	response, err := s.oauth.NewAccessResponse(ctx, accessRequest)
	if err != nil {
		log.LogError("Access response error: %v", err)
		s.oauth.WriteAccessError(ctx, w, accessRequest, err)
		return
	}

	s.oauth.WriteAccessResponse(ctx, w, accessRequest, response)
}

// userinfo resolves a bearer token to its user record
func (s *Server) userinfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	auth := r.Header.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		WriteJSONError(w, http.StatusUnauthorized, NewOAuthError(ErrInvalidToken, ""))
		return
	}

	// The session passed to IntrospectToken is not populated; the real
	// session rides on the returned access requester.
	// See https://github.com/ory/fosite/issues/256
	session := &Session{DefaultSession: &fosite.DefaultSession{}}
	_, accessRequest, err := s.oauth.IntrospectToken(ctx, parts[1], fosite.AccessToken, session)
	if err != nil {
		WriteJSONError(w, http.StatusUnauthorized, NewOAuthError(ErrInvalidToken, ""))
		return
	}

	reqSession, ok := accessRequest.GetSession().(*Session)
	if !ok {
		WriteJSONError(w, http.StatusUnauthorized, NewOAuthError(ErrInvalidToken, ""))
		return
	}

	_ = jsonwriter.Write(w, reqSession.User)
}
