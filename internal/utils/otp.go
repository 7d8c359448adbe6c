package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

// otpSpan covers the six-digit range [100000, 999999].
const (
	otpMin  = 100000
	otpSpan = 900000
)

// GenerateOTP returns a 6-digit numeric code drawn uniformly from
// [100000, 999999] using the crypto/rand source.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(otpMin+n.Int64(), 10), nil
}
