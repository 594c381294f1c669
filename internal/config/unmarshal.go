package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// envRef is the {"$env": "VAR_NAME"} reference form used for secrets
type envRef struct {
	Env string `json:"$env"`
}

// resolveString accepts either a JSON string literal or an env reference.
// An empty raw value resolves to "".
func resolveString(raw json.RawMessage, field string) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	var literal string
	if err := json.Unmarshal(raw, &literal); err == nil {
		return literal, nil
	}

	var ref envRef
	if err := json.Unmarshal(raw, &ref); err != nil || ref.Env == "" {
		return "", fmt.Errorf("%s must be a string or {\"$env\": \"VAR_NAME\"}", field)
	}

	value, ok := os.LookupEnv(ref.Env)
	if !ok {
		return "", fmt.Errorf("%s references environment variable %s, which is not set", field, ref.Env)
	}
	return value, nil
}

// resolveSecret is resolveString for values that must never come from a
// plain config literal.
func resolveSecret(raw json.RawMessage, field string) (Secret, error) {
	if len(raw) == 0 {
		return "", nil
	}

	var literal string
	if err := json.Unmarshal(raw, &literal); err == nil {
		return "", fmt.Errorf("%s must use an environment variable reference for security", field)
	}

	value, err := resolveString(raw, field)
	if err != nil {
		return "", err
	}
	return Secret(value), nil
}
