package model

import (
	"strings"

	"github.com/dadyutenga/voucher/internal/domain"
)

// CanonicalMAC normalizes a client hardware address to lowercase
// colon-separated form (aa:bb:cc:dd:ee:ff). Accepted inputs are 12 hex
// digits, optionally separated by colons or hyphens. Anything else fails
// with ErrInvalidClientID so callers can reject bad identifiers before
// contacting the access-point controller.
func CanonicalMAC(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, ":", "")
	s = strings.ReplaceAll(s, "-", "")
	if len(s) != 12 {
		return "", domain.ErrInvalidClientID
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", domain.ErrInvalidClientID
		}
	}
	var b strings.Builder
	for i := 0; i < 12; i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(s[i : i+2])
	}
	return b.String(), nil
}
