package xcrypto

import (
	"crypto/sha512"
	"fmt"
	"hash"
)

var hashToScalarPrefix = []byte("casino-chain/v1|hash_to_scalar|")

func updateLenBytes(h hash.Hash, b []byte) {
	h.Write(u32le(uint32(len(b))))
	h.Write(b)
}

// HashToScalar derives a deterministic ristretto255 scalar from a
// domain-separation label and an ordered list of messages. Used by the
// staking handler to turn a validator's public key into a reproducible
// committee weight.
func HashToScalar(domainSep string, msgs ...[]byte) (Scalar, error) {
	h := sha512.New()
	h.Write(hashToScalarPrefix)
	updateLenBytes(h, []byte(domainSep))
	for _, m := range msgs {
		if m == nil {
			return Scalar{}, fmt.Errorf("hashToScalar: nil msg")
		}
		updateLenBytes(h, m)
	}
	digest := h.Sum(nil)
	return ScalarFromUniformBytes(digest)
}
