package identity

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// DecodeUserID reads the user identifier from a JWT payload without
// verifying the signature. The email claim wins over the subject.
func DecodeUserID(raw string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return "", fmt.Errorf("decoding credential: %w", err)
	}

	if email, ok := claims["email"].(string); ok && strings.TrimSpace(email) != "" {
		return email, nil
	}
	sub, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(sub) == "" {
		return "", ErrNoUserClaim
	}
	return sub, nil
}
