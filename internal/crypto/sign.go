package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// SignData computes an HMAC-SHA256 signature over data, base64 URL-encoded.
func SignData(data string, signingKey []byte) string {
	mac := hmac.New(sha256.New, signingKey)
	mac.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateSignedData verifies a signature produced by SignData in constant time.
func ValidateSignedData(data, signature string, signingKey []byte) bool {
	expected, err := base64.URLEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, signingKey)
	mac.Write([]byte(data))
	return hmac.Equal(mac.Sum(nil), expected)
}

// HashClientSecret hashes a client secret using bcrypt.
// This should be used before storing the secret.
func HashClientSecret(secret string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
}

// CompareClientSecret checks a plaintext secret against its bcrypt hash.
func CompareClientSecret(hashed []byte, secret string) error {
	return bcrypt.CompareHashAndPassword(hashed, []byte(secret))
}
