package session

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v4"
)

// Имена JWT claims. Firebase ID tokens carry both user_id and sub.
const (
	jwtClaimUserID  = "user_id"
	jwtClaimSubject = "sub"
)

var ErrNoUserClaim = errors.New("token carries no user id claim")

// UserIDFromToken reads the user id from a bearer token without verifying the
// signature. The backend verifies tokens; the client only needs the id for
// ownership checks in the UI.
func UserIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("failed to parse session token: %w", err)
	}
	return userIDFromClaims(claims)
}

func userIDFromClaims(claims jwt.MapClaims) (string, error) {
	for _, name := range []string{jwtClaimUserID, jwtClaimSubject} {
		raw, ok := claims[name]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case string:
			if v != "" {
				return v, nil
			}
		case float64:
			if v != float64(int64(v)) || v <= 0 {
				return "", fmt.Errorf("invalid user id value in '%s' claim: %v", name, v)
			}
			return strconv.FormatInt(int64(v), 10), nil
		default:
			return "", fmt.Errorf("invalid type for '%s' claim: expected string or number, got %T", name, raw)
		}
	}
	return "", ErrNoUserClaim
}
