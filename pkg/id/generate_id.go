package id

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// IsID32 reports whether s is a 32-char lowercase hex id, the format used
// for party identities and generated record ids.
func IsID32(s string) bool { return reHex32.MatchString(s) }

// IsRequestID accepts either a canonical UUID or a 32-char hex id.
func IsRequestID(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if IsID32(s) {
		return true
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	// uuid.Parse also accepts urn/braced forms; only the 36-char form is allowed
	return len(s) == 36 && u.Variant() == uuid.RFC4122
}
