package config

import "encoding/json"

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// StorageKind selects the persistence medium for sessions and state records
type StorageKind string

const (
	StorageMemory    StorageKind = "memory"
	StorageFirestore StorageKind = "firestore"
)

// Config is the full application configuration
type Config struct {
	Version string     `json:"version"`
	App     AppConfig  `json:"app"`
	Auth    AuthConfig `json:"auth"`
	DemoIdP *DemoIdP   `json:"demoIdp,omitempty"`
}

// AppConfig describes the embedding application
type AppConfig struct {
	// BaseURL is the application origin; trailing slashes are stripped on load.
	BaseURL string `json:"baseUrl"`
	Addr    string `json:"addr"`

	// NativeScheme is the deeplink scheme the native shell registers.
	NativeScheme string `json:"nativeScheme"`

	// ShellMarker overrides the user agent marker for native detection.
	ShellMarker string `json:"shellMarker,omitempty"`
}

// AuthConfig describes the identity backend and flow hardening options
type AuthConfig struct {
	Provider string `json:"provider"`

	AuthorizationURL string `json:"authorizationUrl"`
	TokenURL         string `json:"tokenUrl"`
	UserInfoURL      string `json:"userInfoUrl,omitempty"`

	ClientIDRaw     json.RawMessage `json:"clientId"`
	ClientSecretRaw json.RawMessage `json:"clientSecret,omitempty"`
	Scopes          []string        `json:"scopes,omitempty"`

	// VerifyState upgrades CSRF state correlation from advisory to enforced.
	VerifyState        bool            `json:"verifyState,omitempty"`
	StateSigningKeyRaw json.RawMessage `json:"stateSigningKey,omitempty"`

	Storage             StorageKind `json:"storage,omitempty"`
	GCPProject          string      `json:"gcpProject,omitempty"`
	FirestoreDatabase   string      `json:"firestoreDatabase,omitempty"`
	FirestoreCollection string      `json:"firestoreCollection,omitempty"`

	// Computed fields, resolved from the raw values at load time
	ClientID        string `json:"-"`
	ClientSecret    Secret `json:"-"`
	StateSigningKey Secret `json:"-"`
}

// DemoIdP configures the bundled demo identity server
type DemoIdP struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
}
