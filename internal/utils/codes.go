package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// LinkCodeLength is the length of a code made by NewLinkCode.
const LinkCodeLength = 32

// NewLinkCode returns 16 random bytes as upper-case hex.
func NewLinkCode() (string, error) {
	b := make([]byte, LinkCodeLength/2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// NormalizeLinkCode accepts what users paste into a chat: any case, quoted,
// with spaces or dashes in between. ok is false unless exactly
// LinkCodeLength hex digits remain.
func NormalizeLinkCode(raw string) (code string, ok bool) {
	var b strings.Builder
	raw = strings.Trim(strings.TrimSpace(raw), "\"'`<>")
	for _, r := range strings.ToUpper(raw) {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'F':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '\t':
		default:
			return "", false
		}
	}
	if b.Len() != LinkCodeLength {
		return "", false
	}
	return b.String(), true
}
