// Package pkce generates Proof Key for Code Exchange credentials (RFC 7636).
//
// A verifier is a random string over [Alphabet]; its challenge is the unpadded base64url
// encoding of the verifier's SHA-256 digest (method S256).
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	// Alphabet is the character set verifiers are drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// VerifierLength is the default verifier length.
	VerifierLength = 64
	// Method is the only challenge method produced by this package.
	Method = "S256"

	minLength = 43
	maxLength = 128
)

var ErrInvalidLength = errors.New("verifier length must be between 43 and 128")

// Credentials holds a verifier and the challenge derived from it.
type Credentials struct {
	Verifier  string
	Challenge string
}

// New generates credentials with a verifier of [VerifierLength] characters.
func New() (Credentials, error) {
	v, err := GenerateVerifier(VerifierLength)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{Verifier: v, Challenge: DeriveChallenge(v)}, nil
}

// GenerateVerifier returns length characters, each chosen by taking a random byte modulo len(Alphabet).
//
// The modulo mapping is slightly biased toward the first 8 characters; the entropy is still well above
// what RFC 7636 requires.
func GenerateVerifier(length int) (string, error) {
	if length < minLength || length > maxLength {
		return "", fmt.Errorf("%w: got %d", ErrInvalidLength, length)
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	for i, b := range buf {
		buf[i] = Alphabet[int(b)%len(Alphabet)]
	}
	return string(buf), nil
}

// DeriveChallenge computes the S256 challenge for verifier.
func DeriveChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
