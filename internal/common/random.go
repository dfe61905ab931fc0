package common

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

const alphanum = "abcdefghijklmnopqrstuvwxyz0123456789"

// MakeRandHexString generates a random hexadecimal string of the given size.
// The size parameter specifies the number of random bytes to generate, so the
// final string length is twice the size.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// MakeRandAlphanum returns a random string of n lowercase letters and digits.
// It is used for article id suffixes and remote asset filenames, where the
// only requirement is collision resistance, not secrecy.
func MakeRandAlphanum(n int) (string, error) {
	max := big.NewInt(int64(len(alphanum)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphanum[idx.Int64()]
	}
	return string(b), nil
}
