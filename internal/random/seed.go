// Package random provides seed generation for the scenario sampler.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
)

// NewSeed returns a high-entropy seed from crypto/rand. Draws made without
// a caller-supplied seed use this and are not reproducible.
func NewSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		// a zero seed still yields a valid draw
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
