package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
)

// defaultTokenValidity is the fixed lifetime of an issued session token.
const defaultTokenValidity = 24 * time.Hour

// TokenClaims is the signed content of a session token.
type TokenClaims struct {
	// Username mirrors the identity's login name at issue time.
	Username string `json:"preferred_username"`

	jwt.RegisteredClaims
}

// TokenIssuer issues and verifies stateless signed session tokens.
// Tokens are not persisted; verification is purely cryptographic plus a
// re-read of the identity row by the caller.
type TokenIssuer struct {
	signingKey []byte
	validity   time.Duration
	now        func() time.Time
}

// NewTokenIssuer creates a token issuer. A zero validity selects the fixed
// 24 hour default.
func NewTokenIssuer(signingKey string, validity time.Duration) *TokenIssuer {
	if validity == 0 {
		validity = defaultTokenValidity
	}

	return &TokenIssuer{
		signingKey: []byte(signingKey),
		validity:   validity,
		now:        time.Now,
	}
}

// Issue creates a signed token for the user.
func (t *TokenIssuer) Issue(user *models.User) (string, error) {
	now := t.now()

	claims := TokenClaims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.validity)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}

// Verify checks signature and expiry and returns the embedded claims.
func (t *TokenIssuer) Verify(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return t.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return t.now() }),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return claims, nil
}

// UserID returns the identity id carried in the claims.
func (c *TokenClaims) UserID() (uint64, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	return id, nil
}
