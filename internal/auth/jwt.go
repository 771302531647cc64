package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is fixed; there is no refresh flow.
const TokenTTL = time.Hour

// Issuer is stamped on every credential. It is informational and not checked on verify.
const Issuer = "userservice"

var ErrKeyUnavailable = errors.New("verification key unavailable")

// KeyProvider exposes the public verification key without blocking.
// ok is false until a key is available.
type KeyProvider interface {
	PublicKey() (key *rsa.PublicKey, ok bool)
}

// StaticKey is a KeyProvider for a key known at startup.
type StaticKey struct {
	Key *rsa.PublicKey
}

func (k StaticKey) PublicKey() (*rsa.PublicKey, bool) {
	return k.Key, k.Key != nil
}

// Signer issues RS256 credentials. Only the user service holds one.
type Signer struct {
	key *rsa.PrivateKey
}

func NewSigner(key *rsa.PrivateKey) (*Signer, error) {
	if key == nil {
		return nil, errors.New("signing key is required")
	}
	return &Signer{key: key}, nil
}

// PublicKey lets the user service verify its own tokens through the same
// KeyProvider path the other services use.
func (s *Signer) PublicKey() (*rsa.PublicKey, bool) {
	return &s.key.PublicKey, true
}

/* ===================== ISSUE TOKENS ===================== */

// Issue signs a credential for sub that expires exactly TokenTTL after now.
func (s *Signer) Issue(now time.Time, sub Subject) (string, error) {
	if sub.UserID == "" {
		return "", errors.New("user_id is required")
	}

	teams := sub.Teams
	if teams == nil {
		teams = []string{}
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   sub.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			ID:        uuid.NewString(),
		},
		UserID: sub.UserID,
		Name:   sub.Name,
		Email:  sub.Email,
		Role:   sub.Role,
		Teams:  teams,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return t.SignedString(s.key)
}

/* ===================== VERIFY TOKEN ===================== */

// Verify checks the signature against key and the expiry against now.
// The parser accepts RS256 only; HS256 signed with the public key bytes, "none"
// and every other algorithm are rejected before the key is consulted.
// There is no clock skew leeway.
func Verify(tokenString string, key *rsa.PublicKey, now time.Time) (Claims, error) {
	if key == nil {
		return Claims{}, ErrKeyUnavailable
	}

	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return Claims{}, err
	}

	if claims.UserID == "" {
		return Claims{}, errors.New("user_id missing")
	}
	return claims, nil
}

// VerifyWith resolves the key from p first.
func VerifyWith(p KeyProvider, tokenString string, now time.Time) (Claims, error) {
	key, ok := p.PublicKey()
	if !ok {
		return Claims{}, ErrKeyUnavailable
	}
	return Verify(tokenString, key, now)
}
