package pollbase

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpiryBuffer is how close to expiry a token may get before the
// client refreshes it ahead of a request.
const DefaultExpiryBuffer = 5 * time.Minute

// tokenParser decodes claims without verifying the signature. The client is
// not the token's audience verifier; it only needs the exp claim to decide
// when to refresh. Verification happens server-side.
var tokenParser = jwt.NewParser()

// ParseExpiry extracts the expiry timestamp from a JWT access token.
// Tokens without an exp claim report a zero time and no error.
func ParseExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := tokenParser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse access token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

// expiresWithin reports whether the token expires inside the buffer window.
// Malformed tokens count as expiring so the next request forces a refresh
// instead of sending a credential the server will reject anyway.
func expiresWithin(token string, buffer time.Duration, now time.Time) bool {
	exp, err := ParseExpiry(token)
	if err != nil {
		return true
	}
	if exp.IsZero() {
		return false
	}
	return now.Add(buffer).After(exp)
}
