package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shellbridge/authflow/internal/urlutil"
)

// Load reads, resolves, and validates the config file
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing config JSON: %w", err)
	}

	if config.Version != "v1" {
		return Config{}, fmt.Errorf("unsupported config version: %q", config.Version)
	}

	if err := resolve(&config); err != nil {
		return Config{}, fmt.Errorf("resolving config: %w", err)
	}

	if err := ValidateConfig(&config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// resolve materializes raw values into their computed fields and normalizes
// the base URL.
func resolve(config *Config) error {
	base, err := urlutil.NormalizeBase(config.App.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid app.baseUrl: %w", err)
	}
	config.App.BaseURL = base

	config.Auth.ClientID, err = resolveString(config.Auth.ClientIDRaw, "auth.clientId")
	if err != nil {
		return err
	}

	config.Auth.ClientSecret, err = resolveSecret(config.Auth.ClientSecretRaw, "auth.clientSecret")
	if err != nil {
		return err
	}

	config.Auth.StateSigningKey, err = resolveSecret(config.Auth.StateSigningKeyRaw, "auth.stateSigningKey")
	if err != nil {
		return err
	}

	if config.Auth.Storage == "" {
		config.Auth.Storage = StorageMemory
	}

	return nil
}

// ValidateConfig validates the resolved configuration
func ValidateConfig(config *Config) error {
	if config.App.BaseURL == "" {
		return fmt.Errorf("app.baseUrl is required")
	}
	if config.App.Addr == "" {
		return fmt.Errorf("app.addr is required")
	}
	if config.App.NativeScheme == "" {
		return fmt.Errorf("app.nativeScheme is required")
	}

	if config.Auth.AuthorizationURL == "" || config.Auth.TokenURL == "" {
		return fmt.Errorf("auth.authorizationUrl and auth.tokenUrl are required")
	}
	if config.Auth.ClientID == "" {
		return fmt.Errorf("auth.clientId is required")
	}

	if config.Auth.VerifyState && len(config.Auth.StateSigningKey) < 32 {
		return fmt.Errorf("auth.stateSigningKey must be at least 32 bytes when verifyState is enabled")
	}

	switch config.Auth.Storage {
	case StorageMemory:
	case StorageFirestore:
		if config.Auth.GCPProject == "" {
			return fmt.Errorf("auth.gcpProject is required for firestore storage")
		}
		if config.Auth.FirestoreCollection == "" {
			return fmt.Errorf("auth.firestoreCollection is required for firestore storage")
		}
	default:
		return fmt.Errorf("unsupported storage kind: %q", config.Auth.Storage)
	}

	return nil
}
