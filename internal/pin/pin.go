// Package pin hashes and verifies the 4-digit PIN that gates every
// balance-mutating operation. PINs are stored as salted bcrypt hashes only.
package pin

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidFormat indicates the raw PIN is not exactly four ASCII digits.
var ErrInvalidFormat = errors.New("pin must be exactly 4 digits")

// Valid reports whether raw is a well-formed PIN.
func Valid(raw string) bool {
	if len(raw) != 4 {
		return false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Hash validates the format and returns a salted bcrypt hash of the PIN.
func Hash(raw string) (string, error) {
	if !Valid(raw) {
		return "", ErrInvalidFormat
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify compares a raw PIN against a stored hash. A mismatch returns false,
// never an error, so callers decide the failure mode.
func Verify(hash, raw string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
