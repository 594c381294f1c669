package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	t.Setenv("TEST_CLIENT_SECRET", "s3cret")

	path := writeConfig(t, `{
		"version": "v1",
		"app": {
			"baseUrl": "https://app.example.com/",
			"addr": ":8080",
			"nativeScheme": "myapp"
		},
		"auth": {
			"provider": "oauth",
			"authorizationUrl": "https://idp.example.com/authorize",
			"tokenUrl": "https://idp.example.com/token",
			"userInfoUrl": "https://idp.example.com/userinfo",
			"clientId": "client-1",
			"clientSecret": {"$env": "TEST_CLIENT_SECRET"}
		}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://app.example.com", cfg.App.BaseURL, "trailing slash stripped")
	assert.Equal(t, "myapp", cfg.App.NativeScheme)
	assert.Equal(t, "client-1", cfg.Auth.ClientID)
	assert.Equal(t, "s3cret", string(cfg.Auth.ClientSecret))
	assert.Equal(t, StorageMemory, cfg.Auth.Storage, "storage defaults to memory")
}

func TestLoadClientIDFromEnv(t *testing.T) {
	t.Setenv("TEST_CLIENT_ID", "from-env")

	path := writeConfig(t, `{
		"version": "v1",
		"app": {"baseUrl": "https://app.example.com", "addr": ":8080", "nativeScheme": "myapp"},
		"auth": {
			"provider": "oauth",
			"authorizationUrl": "https://idp.example.com/authorize",
			"tokenUrl": "https://idp.example.com/token",
			"clientId": {"$env": "TEST_CLIENT_ID"}
		}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.ClientID)
}

func TestLoadRejectsLiteralSecret(t *testing.T) {
	path := writeConfig(t, `{
		"version": "v1",
		"app": {"baseUrl": "https://app.example.com", "addr": ":8080", "nativeScheme": "myapp"},
		"auth": {
			"provider": "oauth",
			"authorizationUrl": "https://idp.example.com/authorize",
			"tokenUrl": "https://idp.example.com/token",
			"clientId": "client-1",
			"clientSecret": "plaintext-secret"
		}
	}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment variable reference")
}

func TestLoadUnsetEnvReference(t *testing.T) {
	path := writeConfig(t, `{
		"version": "v1",
		"app": {"baseUrl": "https://app.example.com", "addr": ":8080", "nativeScheme": "myapp"},
		"auth": {
			"provider": "oauth",
			"authorizationUrl": "https://idp.example.com/authorize",
			"tokenUrl": "https://idp.example.com/token",
			"clientId": {"$env": "DEFINITELY_NOT_SET_12345"}
		}
	}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFINITELY_NOT_SET_12345")
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	path := writeConfig(t, `{"version": "v99"}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config version")
}

func TestValidateConfig(t *testing.T) {
	base := func() Config {
		return Config{
			Version: "v1",
			App: AppConfig{
				BaseURL:      "https://app.example.com",
				Addr:         ":8080",
				NativeScheme: "myapp",
			},
			Auth: AuthConfig{
				Provider:         "oauth",
				AuthorizationURL: "https://idp.example.com/authorize",
				TokenURL:         "https://idp.example.com/token",
				ClientID:         "client-1",
				Storage:          StorageMemory,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing base URL", func(c *Config) { c.App.BaseURL = "" }, "app.baseUrl"},
		{"missing native scheme", func(c *Config) { c.App.NativeScheme = "" }, "app.nativeScheme"},
		{"missing endpoints", func(c *Config) { c.Auth.TokenURL = "" }, "auth.authorizationUrl and auth.tokenUrl"},
		{"missing client id", func(c *Config) { c.Auth.ClientID = "" }, "auth.clientId"},
		{
			"verify state needs signing key",
			func(c *Config) { c.Auth.VerifyState = true },
			"stateSigningKey",
		},
		{
			"short signing key",
			func(c *Config) {
				c.Auth.VerifyState = true
				c.Auth.StateSigningKey = "too-short"
			},
			"stateSigningKey",
		},
		{
			"firestore needs project",
			func(c *Config) { c.Auth.Storage = StorageFirestore },
			"gcpProject",
		},
		{"unknown storage", func(c *Config) { c.Auth.Storage = "redis" }, "unsupported storage kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := ValidateConfig(&cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
