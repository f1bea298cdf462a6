package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry extracts the expiry claim from a platform token when the
// token happens to be a JWT. The platform treats tokens as opaque, so this
// is display-only information for the status command: the signature is not
// verified and a non-JWT token simply reports no expiry.
func TokenExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser()

	var claims jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
