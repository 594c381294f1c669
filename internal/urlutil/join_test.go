package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBase(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{"no trailing slash", "https://app.example.com", "https://app.example.com"},
		{"single trailing slash", "https://app.example.com/", "https://app.example.com"},
		{"multiple trailing slashes", "https://app.example.com///", "https://app.example.com"},
		{"path with trailing slash", "https://app.example.com/base/", "https://app.example.com/base"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeBase(tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJoinPath(t *testing.T) {
	got, err := JoinPath("https://app.example.com", "/auth/callback")
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/auth/callback", got)

	got, err = JoinPath("https://app.example.com/base/", "native-callback")
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/base/native-callback", got)
}
