package crypto

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StateSigner produces self-contained signed OAuth state values of the form
// nonce:timestamp:signature, with a configurable expiry. Used when state
// verification is enforced; plain random state is used otherwise.
type StateSigner struct {
	signingKey []byte
	ttl        time.Duration
}

// NewStateSigner creates a new state signer
func NewStateSigner(signingKey []byte, ttl time.Duration) StateSigner {
	return StateSigner{
		signingKey: signingKey,
		ttl:        ttl,
	}
}

// Generate creates a new signed state value
func (s *StateSigner) Generate() (string, error) {
	nonce, err := GenerateSecureToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	data := nonce + ":" + timestamp
	signature := SignData(data, s.signingKey)

	return fmt.Sprintf("%s:%s:%s", nonce, timestamp, signature), nil
}

// Validate checks if a state value is authentic and not expired
func (s *StateSigner) Validate(state string) bool {
	parts := strings.SplitN(state, ":", 3)
	if len(parts) != 3 {
		return false
	}

	nonce := parts[0]
	timestampStr := parts[1]
	signature := parts[2]

	timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		return false
	}

	if time.Since(time.Unix(timestamp, 0)) > s.ttl {
		return false
	}

	data := nonce + ":" + timestampStr
	return ValidateSignedData(data, signature, s.signingKey)
}
