package provider

import "encoding/json"

// TokenSet is the immutable product of one successful callback exchange.
// It is only ever replaced, never mutated.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	// ExpiresIn is the token lifetime in seconds; zero means unknown.
	ExpiresIn int64 `json:"expires_in,omitempty"`
}

// Session is the persisted record derived from a TokenSet plus user lookup.
// ExpiresAtMs is fixed at the moment the TokenSet is persisted and never
// recomputed afterwards.
type Session struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAtMs  int64      `json:"expires_at_ms,omitempty"`
	User         UserRecord `json:"user"`
}

// AuthResult is the success payload of a resolved callback.
type AuthResult struct {
	Tokens TokenSet
	User   *UserRecord
}

// UserRecord carries the structured identity fields plus a side channel for
// provider-specific extras, so unknown fields round-trip un-dropped through
// JSON persistence.
type UserRecord struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`

	// Extra holds fields the structured record does not model.
	Extra map[string]any `json:"-"`
}

var userRecordKeys = []string{"id", "email", "name", "avatar_url"}

// UnmarshalJSON decodes the structured fields and captures everything else
// into Extra.
func (u *UserRecord) UnmarshalJSON(data []byte) error {
	type plain UserRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, key := range userRecordKeys {
		delete(raw, key)
	}
	if len(raw) > 0 {
		p.Extra = raw
	}

	*u = UserRecord(p)
	return nil
}

// MarshalJSON re-merges Extra with the structured fields. Structured fields
// win on key collision.
func (u UserRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Extra)+len(userRecordKeys))
	for k, v := range u.Extra {
		out[k] = v
	}

	out["id"] = u.ID
	if u.Email != "" {
		out["email"] = u.Email
	}
	if u.Name != "" {
		out["name"] = u.Name
	}
	if u.AvatarURL != "" {
		out["avatar_url"] = u.AvatarURL
	}

	return json.Marshal(out)
}
