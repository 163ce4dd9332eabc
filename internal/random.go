package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// NewNumericCode returns a numeric string of the given length with each
// digit drawn uniformly from crypto/rand. Leading zeros are valid.
func NewNumericCode(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errors.New("invalid code digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	code := b.String()
	if len(code) != digits {
		return "", fmt.Errorf("invalid code generation length")
	}
	return code, nil
}

// HashCode returns the hex-encoded SHA-256 digest of a recovery code.
// Codes are short-lived and low-entropy by design; only the digest is
// ever persisted.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// CodeHashEqual compares a presented code against a stored digest in
// constant time.
func CodeHashEqual(code, storedHash string) bool {
	computed := HashCode(code)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// IsNumericString reports whether v consists solely of ASCII digits.
func IsNumericString(v string) bool {
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return len(v) > 0
}
