package demoidp

import (
	"github.com/ory/fosite"

	"github.com/shellbridge/authflow/internal/provider"
)

// Session extends fosite's default session with the identity approved on the
// consent form. It rides from the authorize request through the token
// exchange into introspection.
type Session struct {
	*fosite.DefaultSession
	User provider.UserRecord `json:"user"`
}

// Clone implements fosite.Session
func (s *Session) Clone() fosite.Session {
	return &Session{
		DefaultSession: s.DefaultSession.Clone().(*fosite.DefaultSession),
		User:           s.User,
	}
}
