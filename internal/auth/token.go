// Package auth issues bearer tokens for the upload API.
//
// Real user authentication lives in a separate service; this package only
// covers what the upload subsystem itself needs — minting tokens for the
// CLI client and tests, in the same shape the API's auth middleware verifies.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssueToken creates a signed HS256 JWT for the given user.
func IssueToken(secret, userID string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
