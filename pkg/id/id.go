// Package id generates random identifiers for public-facing references.
package id

import (
	"crypto/rand"
	"encoding/hex"
)

// Unambiguous is an uppercase alphabet without characters that are easy to
// confuse when read aloud or printed (0/O, 1/I/L, 2/Z, 5/S, 6/G).
const Unambiguous = "ABCDEFGHJKLMNPQRSTUVWXYZ3789"

// NewCode returns a random string of length n drawn from alphabet.
// Bytes that would bias the distribution are rejected and redrawn.
// It panics if alphabet is empty or longer than 256 characters.
func NewCode(alphabet string, n int) string {
	size := len(alphabet)
	if size == 0 || size > 256 {
		panic("id: alphabet must contain 1 to 256 characters")
	}
	limit := 256 - 256%size

	out := make([]byte, 0, n)
	buf := make([]byte, n+n/2+1)
	for len(out) < n {
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%size])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}

// NewSecret returns 128 random bits hex-encoded as 32 lowercase characters.
func NewSecret() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
