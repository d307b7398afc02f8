// Package auth issues and parses the opaque bearer tokens that identify a session.
package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"henritrip/api/internal/util"
)

const tokenPrefix = "ht"

var ErrInvalidToken = errors.New("invalid token")

// NewSessionToken returns a fresh opaque token. It carries no claims; the
// session store is the only authority on whether it is live.
func NewSessionToken() string {
	return util.NewID(tokenPrefix)
}

// ValidateShape rejects values that could not have been issued by NewSessionToken.
func ValidateShape(token string) error {
	rest, ok := strings.CutPrefix(token, tokenPrefix+"_")
	if !ok || len(rest) != 32 {
		return ErrInvalidToken
	}
	for _, r := range rest {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return ErrInvalidToken
		}
	}
	return nil
}

// BearerToken extracts the credential of an Authorization header. The scheme
// is matched case-insensitively.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return fmt.Sprintf("%x", sum)
}
