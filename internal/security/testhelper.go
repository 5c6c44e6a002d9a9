package security

import "time"

// NewTestTokenProvider returns a TokenProvider with a freshly generated ES256 key pair,
// issuer "test-issuer", audience "test-audience" and a 15 minute TTL. For tests only.
func NewTestTokenProvider() (*TokenProvider, error) {
	signer, pub, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return NewTokenProvider(signer, pub, "test-issuer", "test-audience", 15*time.Minute), nil
}
