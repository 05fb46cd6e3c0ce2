// Package auth issues and verifies the HS-family session tokens
// human/admin callers present alongside (or instead of) an API key.
// API keys (internal/apikeys) authenticate machine-to-machine calls
// scoped to one brand; session tokens authenticate a signed-in user
// across brands and carry their own claim set.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/umt-agenthub/core/internal/errkind"
)

// Claims is the payload of an issued session token.
type Claims struct {
	UserID string   `json:"user_id"`
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

func (c Claims) hasScope(scope string) bool {
	if scope == "" {
		return true
	}
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// SessionIssuer mints and verifies Claims using a single shared
// secret and signing method, configured from JWT_SECRET/
// JWT_ALGORITHM/JWT_EXPIRY.
type SessionIssuer struct {
	secret []byte
	method jwt.SigningMethod
	expiry time.Duration
}

// NewSessionIssuer builds a SessionIssuer. algorithm must name one of
// the HS-family methods (HS256/HS384/HS512); anything else falls
// back to HS256, matching the "HS-family by default" contract.
func NewSessionIssuer(secret, algorithm string, expiry time.Duration) *SessionIssuer {
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok || method == nil {
		method = jwt.SigningMethodHS256
	}
	if expiry == 0 {
		expiry = time.Hour
	}
	return &SessionIssuer{secret: []byte(secret), method: method, expiry: expiry}
}

// Issue mints a signed token for userID valid for the issuer's
// configured expiry.
func (s *SessionIssuer) Issue(userID string, scopes []string) (string, error) {
	if userID == "" {
		return "", errkind.New(errkind.Validation, "auth: user_id is required")
	}
	now := time.Now().UTC()
	claims := Claims{
		UserID: userID,
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	token := jwt.NewWithClaims(s.method, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errkind.Wrap(errkind.Internal, err)
	}
	return signed, nil
}

// Verify parses and validates presented, checking signature,
// expiry, and (when requiredScope is non-empty) scope membership.
func (s *SessionIssuer) Verify(presented, requiredScope string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(presented, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != s.method.Alg() {
			return nil, fmt.Errorf("auth: unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errkind.New(errkind.AuthN, "auth: invalid or expired session token")
	}
	if !claims.hasScope(requiredScope) {
		return nil, errkind.New(errkind.AuthZ, "auth: session lacks required scope").WithMeta("scope", requiredScope)
	}
	return &claims, nil
}
