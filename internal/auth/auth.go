// Package auth mints and verifies HMAC-signed bearer tokens.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Tokens issues and verifies bearer tokens of the form
// base64url(userID:expiryUnix) + "." + base64url(hmac-sha256 signature).
// Deterministic and stateless: no token store, revocation is expiry-only.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

func NewTokens(secret string, ttl time.Duration, clock clockwork.Clock) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, clock: clock}
}

// Mint creates a signed token identifying userID until the configured TTL passes.
func (t *Tokens) Mint(userID uuid.UUID) string {
	expiry := t.clock.Now().Add(t.ttl).Unix()
	payload := fmt.Sprintf("%s:%d", userID, expiry)
	return encode([]byte(payload)) + "." + encode(t.sign(payload))
}

// Verify checks the token's signature and expiry and returns the user ID it names.
func (t *Tokens) Verify(token string) (uuid.UUID, error) {
	payloadPart, signaturePart, ok := strings.Cut(token, ".")
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	payloadBytes, err := decode(payloadPart)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	signature, err := decode(signaturePart)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	payload := string(payloadBytes)
	if !hmac.Equal(signature, t.sign(payload)) {
		return uuid.Nil, ErrInvalidToken
	}

	idPart, expiryPart, ok := strings.Cut(payload, ":")
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	expiry, err := strconv.ParseInt(expiryPart, 10, 64)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	if t.clock.Now().Unix() > expiry {
		return uuid.Nil, ErrExpiredToken
	}

	return userID, nil
}

func (t *Tokens) sign(payload string) []byte {
	h := hmac.New(sha256.New, t.secret)
	h.Write([]byte(payload))
	return h.Sum(nil)
}

func encode(b []byte) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "=")
}

func decode(s string) ([]byte, error) {
	if pad := len(s) % 4; pad != 0 {
		s += strings.Repeat("=", 4-pad)
	}
	return base64.URLEncoding.DecodeString(s)
}

// HashSecret derives the stored hash for a user secret. Salted SHA-256;
// the engine only ever compares hashes, never sees raw credentials twice.
func HashSecret(secret, salt string) string {
	sum := sha256.Sum256([]byte(salt + ":" + secret))
	return encode(sum[:])
}

// VerifySecret compares a candidate secret against a stored hash in constant time.
func VerifySecret(secret, salt, storedHash string) bool {
	return hmac.Equal([]byte(HashSecret(secret, salt)), []byte(storedHash))
}
