package helpers

import (
	"crypto/rand"
	"math/big"
)

const (
	lowercaseLetters = "abcdefghijklmnopqrstuvwxyz"
	tokenAlphabet    = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// RandomString returns n characters drawn uniformly from alphabet using
// crypto/rand.
func RandomString(n int, alphabet string) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}

// RandomLowercase returns n random lowercase ASCII letters (invite codes).
func RandomLowercase(n int) (string, error) {
	return RandomString(n, lowercaseLetters)
}

// NewActivationToken builds a permanent activation token in the historical
// 13-chars dash 20-chars format.
func NewActivationToken() (string, error) {
	head, err := RandomString(13, tokenAlphabet)
	if err != nil {
		return "", err
	}
	tail, err := RandomString(20, tokenAlphabet)
	if err != nil {
		return "", err
	}
	return head + "-" + tail, nil
}
