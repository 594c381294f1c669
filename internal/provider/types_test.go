package provider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRecordUnmarshalCapturesUnknownFields(t *testing.T) {
	raw := `{
		"id": "u-1",
		"email": "dev@example.com",
		"name": "Dev",
		"avatar_url": "https://cdn.example.com/a.png",
		"sub": "oidc-subject",
		"locale": "en-US",
		"email_verified": true
	}`

	var user UserRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &user))

	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "dev@example.com", user.Email)
	assert.Equal(t, "Dev", user.Name)
	assert.Equal(t, "https://cdn.example.com/a.png", user.AvatarURL)

	assert.Equal(t, "oidc-subject", user.Extra["sub"])
	assert.Equal(t, "en-US", user.Extra["locale"])
	assert.Equal(t, true, user.Extra["email_verified"])
	assert.NotContains(t, user.Extra, "id")
	assert.NotContains(t, user.Extra, "email")
}

func TestUserRecordRoundTripPreservesExtras(t *testing.T) {
	raw := `{"id":"u-2","email":"a@b.c","team":"platform","plan":"pro"}`

	var user UserRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &user))

	data, err := json.Marshal(user)
	require.NoError(t, err)

	var again UserRecord
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, user, again)
	assert.Equal(t, "platform", again.Extra["team"])
	assert.Equal(t, "pro", again.Extra["plan"])
}

func TestUserRecordMarshalStructuredFieldsWin(t *testing.T) {
	user := UserRecord{
		ID:    "canonical",
		Extra: map[string]any{"id": "stale", "role": "admin"},
	}

	data, err := json.Marshal(user)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "canonical", out["id"])
	assert.Equal(t, "admin", out["role"])
}

func TestProviderErrors(t *testing.T) {
	protocolErr := &ProtocolError{Code: "access_denied", Description: "user cancelled"}
	assert.Equal(t, "access_denied: user cancelled", protocolErr.Error())

	bare := &ProtocolError{Code: "access_denied"}
	assert.Equal(t, "access_denied", bare.Error())

	missing := &MissingDataError{Field: "code"}
	assert.Contains(t, missing.Error(), "code")

	inner := assert.AnError
	exchange := &ExchangeError{Op: "token exchange", Err: inner}
	assert.Contains(t, exchange.Error(), "token exchange")
	assert.ErrorIs(t, exchange, inner)

	readErr := &SessionReadError{Err: inner}
	assert.ErrorIs(t, readErr, inner)
}
