package model

import (
	"crypto/rand"
	"strings"
)

const ticketPrefix = "TKT-"

// Crockford-style alphabet: no I, L, O, U, so codes read unambiguously off a
// printed ticket.
const ticketAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const ticketCodeLength = 12

// NewTicketCode returns a caller-facing ticket identifier such as
// TKT-7Q2MF0XJ9K3A. Twelve characters over a 32-symbol alphabet give 60 bits
// of randomness; the storage layer still enforces uniqueness and the
// repository regenerates on the (practically unreachable) collision.
func NewTicketCode() string {
	buf := make([]byte, ticketCodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the platform entropy source is
		// broken; there is no meaningful recovery.
		panic("ticket code generation: " + err.Error())
	}

	var b strings.Builder
	b.Grow(len(ticketPrefix) + ticketCodeLength)
	b.WriteString(ticketPrefix)
	for _, c := range buf {
		b.WriteByte(ticketAlphabet[int(c)%len(ticketAlphabet)])
	}
	return b.String()
}
