// Package xcrypto provides the ristretto255-scalar domain-separated hashing
// primitive used to derive deterministic committee weights for staking.
//
// Adapted from the teacher's internal/ocpcrypto: HashToScalar and Scalar are
// kept near-verbatim (this module's deck-shuffle ciphertext and
// zero-knowledge proof types, and its Transcript/scalar-arithmetic helpers,
// are not — see DESIGN.md's "dropped teacher modules" entry for why).
package xcrypto

import (
	"fmt"

	"github.com/gtank/ristretto255"
)

// Scalar is a ristretto255 scalar (canonical 32-byte little-endian encoding).
type Scalar struct {
	v ristretto255.Scalar
}

func ScalarFromUniformBytes(b []byte) (Scalar, error) {
	if len(b) != 64 {
		return Scalar{}, fmt.Errorf("scalar: expected 64 uniform bytes")
	}
	var s Scalar
	s.v.FromUniformBytes(b)
	return s, nil
}

func (s Scalar) Bytes() []byte {
	return s.v.Bytes()
}

// Uint64 folds the scalar down to a uint64 by taking its low 8 bytes,
// suitable for deriving a bounded committee-weight or shuffle index from an
// otherwise uniformly distributed scalar.
func (s Scalar) Uint64() uint64 {
	b := s.Bytes()
	var x uint64
	for i := 7; i >= 0; i-- {
		x = x<<8 | uint64(b[i])
	}
	return x
}
