// Package otp generates the short-lived numeric codes mailed to users for
// email verification and password reset.
package otp

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	min  = 1000
	span = 9000
)

// Generate returns a 4-digit code uniformly sampled from [1000, 9999].
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(min+n.Int64(), 10), nil
}
