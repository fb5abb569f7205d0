package uid

import (
	"crypto/rand"
	"math/big"
)

const alnumAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// DefaultAlnumLength is the credential ID length.
const DefaultAlnumLength = 10

// Alnum generates fixed-length random IDs over 0-9A-Za-z.
type Alnum struct {
	length int
}

// NewAlnum returns an Alnum generator. Non-positive lengths fall back to
// DefaultAlnumLength.
func NewAlnum(length int) *Alnum {
	if length < 1 {
		length = DefaultAlnumLength
	}

	return &Alnum{length: length}
}

// Generate returns a new random ID. It panics only if the system random
// source fails, which leaves no safe way to mint credentials.
func (a *Alnum) Generate() string {
	max := big.NewInt(int64(len(alnumAlphabet)))
	out := make([]byte, a.length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("uid: crypto/rand unavailable: " + err.Error())
		}
		out[i] = alnumAlphabet[n.Int64()]
	}

	return string(out)
}
