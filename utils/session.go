package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionTokenPrefix starts every cart session token
const SessionTokenPrefix = "cart_"

// NewSessionToken returns a fresh cart session token: the prefix, the current
// time in milliseconds and a short random suffix.
func NewSessionToken(now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s%d%s", SessionTokenPrefix, now.UnixMilli(), random[:8])
}

// ValidSessionToken reports whether a client-supplied token is acceptable
func ValidSessionToken(token string) bool {
	if len(token) <= len(SessionTokenPrefix) || len(token) > 64 {
		return false
	}
	if !strings.HasPrefix(token, SessionTokenPrefix) {
		return false
	}
	for _, r := range token[len(SessionTokenPrefix):] {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_' || r == '-') {
			return false
		}
	}
	return true
}
