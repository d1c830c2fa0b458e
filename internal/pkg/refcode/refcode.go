// Package refcode generates the shareable referral codes printed on every
// account. Codes are uppercase and skip look-alike characters so they
// survive being read aloud or typed from a screenshot.
package refcode

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// DefaultLength gives 29^10 possible codes.
const DefaultLength = 10

// No 0/O, 1/I/L or 5/S.
const alphabet = "2346789ABCDEFGHJKMNPQRTUVWXYZ"

// Generate returns a random code of the given length.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid referral code length: %d", length)
	}

	// Rejection sampling to avoid modulo bias: only bytes below the largest
	// multiple of len(alphabet) are used.
	maxRandomByte := 256 - 256%len(alphabet)

	code := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxRandomByte {
				continue
			}
			code[written] = alphabet[int(b)%len(alphabet)]
			written++
			if written == length {
				break
			}
		}
	}
	return string(code), nil
}

// Normalize maps user input to the stored form.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether code could have been produced by Generate.
func Valid(code string) bool {
	if code == "" {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(alphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
