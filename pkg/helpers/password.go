package helpers

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// UnusablePassword is stored instead of a hash for accounts that cannot log
// in with a password (social sign-in registrations). bcrypt hashes never
// start with "!", so verification against it always fails.
const UnusablePassword = "!"

// HashPassword hashes the plain text password using bcrypt
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword compares a bcrypt hash with a plain password
func CompareHashAndPassword(hash string, plain string) bool {
	if !IsUsablePassword(hash) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// IsUsablePassword reports whether the stored value is a real hash rather
// than the unusable sentinel.
func IsUsablePassword(hash string) bool {
	return hash != "" && !strings.HasPrefix(hash, UnusablePassword)
}
