package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, badly signed, or issued for another audience.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a token's signature is good but its expiry has passed.
	ErrExpiredToken = errors.New("token expired")
)

// Credential is the verified content of a bearer token.
type Credential struct {
	ID         string
	IdentityID string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

type identityClaims struct {
	jwt.RegisteredClaims
}

// TokenProvider issues and verifies stateless bearer tokens using RS256 or ES256.
// There is no revocation list: a token stays valid until it expires.
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	ttl        time.Duration
	now        func() time.Time
}

// NewTokenProvider returns a TokenProvider that signs with privateKey and verifies with publicKey.
// issuer and audience are set on every token and required on verification.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, ttl time.Duration) *TokenProvider {
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		ttl:        ttl,
		now:        time.Now,
	}
}

// WithClock returns a copy of p that reads the current time from now. Used by tests.
func (p *TokenProvider) WithClock(now func() time.Time) *TokenProvider {
	c := *p
	c.now = now
	return &c
}

// TTL returns the lifetime of issued tokens.
func (p *TokenProvider) TTL() time.Duration {
	return p.ttl
}

// Issue signs a token binding identityID with an expiry. Returns the token and its expiration time.
func (p *TokenProvider) Issue(identityID string) (token string, expiresAt time.Time, err error) {
	if identityID == "" {
		return "", time.Time{}, ErrInvalidToken
	}
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := p.now().UTC()
	expiresAt = now.Add(p.ttl)
	claims := identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   identityID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err = p.sign(claims)
	return token, expiresAt, err
}

func (p *TokenProvider) sign(claims jwt.Claims) (string, error) {
	var method jwt.SigningMethod
	switch p.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidToken
	}
	t := jwt.NewWithClaims(method, claims)
	return t.SignedString(p.privateKey)
}

// Verify checks signature, expiry, issuer and audience and returns the embedded credential.
// Returns ErrExpiredToken for an expired but otherwise valid token and ErrInvalidToken for everything else.
func (p *TokenProvider) Verify(tokenString string) (*Credential, error) {
	alg := KeyAlg(p.publicKey)
	if alg == "" {
		return nil, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &identityClaims{}, func(token *jwt.Token) (interface{}, error) {
		return p.publicKey, nil
	},
		jwt.WithValidMethods([]string{alg}),
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*identityClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	cred := &Credential{
		ID:         claims.ID,
		IdentityID: claims.Subject,
		ExpiresAt:  claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		cred.IssuedAt = claims.IssuedAt.Time
	}
	return cred, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
