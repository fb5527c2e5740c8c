package usecase

import (
	"crypto/rand"
	"io"
)

// generateVoucherCode creates a secure, random, human-readable voucher code.
// The character set avoids visually ambiguous characters (0/O, 1/I/L) so
// codes survive being read off a phone screen and typed into a splash page.
func generateVoucherCode() (string, error) {
	const chars = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	const codeLength = 10

	buffer := make([]byte, codeLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}
	for i := 0; i < codeLength; i++ {
		buffer[i] = chars[int(buffer[i])%len(chars)]
	}
	return string(buffer), nil
}
