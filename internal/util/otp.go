package util

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	resetCodeMin = 100000
	resetCodeMax = 999999
)

// GenerateResetCode returns a six digit code drawn uniformly from [100000, 999999].
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(resetCodeMax-resetCodeMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+resetCodeMin, 10), nil
}
