package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signer mints EdDSA-signed access tokens. Keys are ephemeral: the service
// generates a fresh keypair at startup and tokens do not outlive the process
// generation they were minted under.
type Signer struct {
	priv   ed25519.PrivateKey
	pub    ed25519.PublicKey
	issuer string
	ttl    time.Duration
}

// NewSigner generates an ephemeral Ed25519 keypair for the given issuer.
func NewSigner(issuer string, ttl time.Duration) (*Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("jwtx: generate key: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Signer{priv: priv, pub: pub, issuer: issuer, ttl: ttl}, nil
}

// Mint creates a signed access token for the given user.
func (s *Signer) Mint(userID, email string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)

	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(s.priv)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwtx: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verifier returns a Verifier backed by this signer's public key.
func (s *Signer) Verifier() Verifier {
	return &edDSAVerifier{pub: s.pub, issuer: s.issuer}
}
