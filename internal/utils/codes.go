package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Crockford-style alphabet: no I, L, O or U so codes survive being read aloud.
const accessCodeAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// GenerateAccessCode returns a code like ANON-7K2Q-XM4D for anonymous users.
func GenerateAccessCode() (string, error) {
	const groups, groupLen = 2, 4
	var b strings.Builder
	b.WriteString("ANON")
	max := big.NewInt(int64(len(accessCodeAlphabet)))
	for g := 0; g < groups; g++ {
		b.WriteByte('-')
		for i := 0; i < groupLen; i++ {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", err
			}
			b.WriteByte(accessCodeAlphabet[n.Int64()])
		}
	}
	return b.String(), nil
}

// NormalizeCode upper-cases user-typed codes and tracking ids and trims
// surrounding whitespace.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
