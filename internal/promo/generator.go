package promo

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Alphabet is the character set promo codes are drawn from: 26 uppercase
// letters plus 10 digits, ~5.17 bits of entropy per character.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generate draws length characters independently and uniformly from the
// alphabet. Example outputs: K7M2X, B3C9Q.
func Generate(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)

	max := big.NewInt(int64(len(Alphabet)))
	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to draw random character: %w", err)
		}
		sb.WriteByte(Alphabet[idx.Int64()])
	}

	return sb.String(), nil
}

// Validate reports whether code has exactly the expected length and only
// contains alphabet characters. Used defensively on inbound codes; generation
// correctness does not depend on it.
func Validate(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(Alphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
