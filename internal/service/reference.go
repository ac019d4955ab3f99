package service

import (
	"crypto/rand"
	"math/big"
)

const (
	referencePrefix   = "APP-"
	referenceLength   = 10
	referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// newReferenceNo returns APP- followed by ten random base36 characters.
func newReferenceNo() (string, error) {
	buf := make([]byte, referenceLength)
	limit := big.NewInt(int64(len(referenceAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = referenceAlphabet[n.Int64()]
	}
	return referencePrefix + string(buf), nil
}
