// Package tagid generates the public short codes printed on tag stickers.
//
// Codes are 8 characters drawn from a 31-character alphabet with the
// lookalike characters 0/O, 1/I/L removed, giving ~8.5e11 combinations —
// short enough to type from a sticker, large enough that collisions are a
// retry case, not a design problem. Codes are URL-path safe as-is.
//
// Uniqueness is NOT guaranteed here; it is enforced by the database unique
// index on tags.tag_id. Callers retry generation on a conflict.
package tagid

import (
	"crypto/rand"
)

// Length is the number of characters in a generated code.
const Length = 8

// alphabet omits 0, O, 1, I, and L to keep hand-typed codes unambiguous.
const alphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// New returns a fresh candidate code. Pure apart from reading entropy:
// no I/O, no shared state.
func New() string {
	b := make([]byte, Length)
	// crypto/rand.Read never fails on supported platforms (Go 1.24+).
	if _, err := rand.Read(b); err != nil {
		panic("tagid: entropy source unavailable: " + err.Error())
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b)
}

// Valid reports whether s is a well-formed tag code: exactly Length
// characters, all from the generation alphabet. Used to vet caller-supplied
// codes when claiming a pre-issued tag.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !contains(s[i]) {
			return false
		}
	}
	return true
}

func contains(c byte) bool {
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] == c {
			return true
		}
	}
	return false
}
