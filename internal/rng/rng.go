// Package rng derives deterministic pseudorandom draws from a consensus seed.
//
// Every draw is keyed by (seed, session_id, move_count) so that two replicas
// executing the same block against the same seed produce bit-identical
// shoes, dice rolls and card draws. The construction mirrors the teacher's
// internal/ocpshuffle.DeterministicRng / internal/ocpcrypto.HashToScalar
// keyed-hash stream, adapted to key on the (session, move) pair spec.md
// requires rather than a bare counter.
package rng

import (
	"crypto/sha512"
	"encoding/binary"
)

const domainTag = "nullspace.rng.v1"

// RNG is a deterministic byte stream keyed by (seed, sessionID, moveCount).
// Callers MUST bump moveCount before constructing a new RNG for a new draw;
// reusing (sessionID, moveCount) replays the exact same stream.
type RNG struct {
	seed      []byte
	sessionID uint64
	moveCount uint32
	counter   uint32
}

// New derives an RNG stream for a single move within a session.
func New(seed []byte, sessionID uint64, moveCount uint32) *RNG {
	return &RNG{seed: seed, sessionID: sessionID, moveCount: moveCount}
}

// nextBlock returns the next 64-byte keyed-hash output and advances the
// internal counter, exactly as DeterministicRng.NextScalar advances its
// counter in the teacher's ocpshuffle package.
func (r *RNG) nextBlock() [sha512.Size]byte {
	var sessionBuf [8]byte
	var moveBuf [4]byte
	var counterBuf [4]byte
	binary.BigEndian.PutUint64(sessionBuf[:], r.sessionID)
	binary.BigEndian.PutUint32(moveBuf[:], r.moveCount)
	binary.BigEndian.PutUint32(counterBuf[:], r.counter)
	r.counter++

	h := sha512.New()
	writeLP(h, []byte(domainTag))
	writeLP(h, r.seed)
	writeLP(h, sessionBuf[:])
	writeLP(h, moveBuf[:])
	writeLP(h, counterBuf[:])
	var out [sha512.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

func writeLP(h interface{ Write([]byte) (int, error) }, b []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	h.Write(lenBuf[:])
	h.Write(b)
}

// NextBytes returns n deterministic bytes, consuming as many internal blocks
// as needed.
func (r *RNG) NextBytes(n int) []byte {
	out := make([]byte, 0, n)
	for len(out) < n {
		block := r.nextBlock()
		out = append(out, block[:]...)
	}
	return out[:n]
}

func (r *RNG) nextUint32() uint32 {
	return binary.BigEndian.Uint32(r.NextBytes(4))
}

// RollDie samples one die uniformly over 1..6, discarding biased residues so
// the output distribution is exactly uniform (rejection sampling over the
// largest multiple of 6 below 2^32).
func (r *RNG) RollDie() uint8 {
	const limit = uint32(0xFFFFFFFF) - (uint32(0xFFFFFFFF) % 6)
	for {
		v := r.nextUint32()
		if v < limit {
			return uint8(v%6) + 1
		}
	}
}

// CreateShoe returns a Fisher-Yates shuffled sequence of decks*52 card bytes,
// each in 0..52.
func (r *RNG) CreateShoe(decks int) []uint8 {
	n := decks * 52
	shoe := make([]uint8, n)
	for i := 0; i < n; i++ {
		shoe[i] = uint8(i % 52)
	}
	for i := n - 1; i > 0; i-- {
		j := r.uniformBelow(uint32(i + 1))
		shoe[i], shoe[j] = shoe[j], shoe[i]
	}
	return shoe
}

// CreateShoeExcluding shuffles a fresh shoe then removes the first
// occurrence of each byte in known, preserving the "all unseen cards are
// uniformly likely next" property without ever materializing information
// the player hasn't already seen (no full-shoe peek at deal time).
func (r *RNG) CreateShoeExcluding(known []uint8, decks int) []uint8 {
	shoe := r.CreateShoe(decks)
	for _, k := range known {
		if k == 0xFF {
			continue
		}
		for i, c := range shoe {
			if c == k {
				shoe = append(shoe[:i], shoe[i+1:]...)
				break
			}
		}
	}
	return shoe
}

// uniformBelow samples uniformly in [0, n) via rejection sampling.
func (r *RNG) uniformBelow(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	limit := (uint32(0xFFFFFFFF) / n) * n
	for {
		v := r.nextUint32()
		if v < limit {
			return v % n
		}
	}
}

// DrawCard pops the last card from the shoe, returning (card, true), or
// (0, false) when exhausted. Callers treat an exhausted shoe as a fatal
// GameError.DeckExhausted.
func DrawCard(shoe *[]uint8) (uint8, bool) {
	s := *shoe
	if len(s) == 0 {
		return 0, false
	}
	last := s[len(s)-1]
	*shoe = s[:len(s)-1]
	return last, true
}
