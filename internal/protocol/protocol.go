// Package protocol is the mental-poker action-log validator: a clock-less
// state machine that validates the ordered stream of consensus payloads a
// private-information hand produces (deal commitment, seat acks, per-phase
// reveals, timelock fallback) without ever inspecting the hidden cards
// themselves.
//
// Grounded on the teacher's internal/ocpcrypto and internal/ocpshuffle for
// the *style* of domain-separated hashing and deterministic-derivation
// discipline (a fixed prefix folded into every hash, version bytes pinned
// first); the commitment/ack/reveal/timelock state machine itself is new
// business logic, since the teacher's DKG/epoch-committee machinery drives
// a different protocol (committee deck shuffling, adapted for staking
// instead — see internal/exec/staking.go) rather than this per-hand
// validator.
package protocol

import "lukechampine.com/blake3"

// RevealTTLMillis is the protocol-wide REVEAL_TTL: the minimum wall-clock
// delay after a reveal-only phase begins before a TimelockReveal is
// accepted in place of a cooperative RevealShare.
const RevealTTLMillis uint64 = 30000

// Domain prefixes separate every hashable message type from every other,
// so a hash collision between (say) a DealCommitment preimage and a
// RevealShare preimage can never be engineered.
const (
	domainShuffleContext  = "nullspace.shuffle_context.v1"
	domainDealCommitment  = "nullspace.deal_commitment.v1"
	domainDealAck         = "nullspace.deal_commitment_ack.v1"
	domainRevealShare     = "nullspace.reveal_share.v1"
	domainTimelockReveal  = "nullspace.timelock_reveal.v1"
)

// canonicalHash is the protocol's single hash primitive: blake3 over a
// domain-prefixed preimage. Distinct from internal/xcrypto's
// ristretto255-scalar derivation (used by staking, not by this package).
func canonicalHash(domain string, preimage []byte) [32]byte {
	buf := make([]byte, 0, len(domain)+len(preimage))
	buf = append(buf, domain...)
	buf = append(buf, preimage...)
	return blake3.Sum256(buf)
}

// RevealPhase is the strict reveal ordering spec §4.F.4 requires.
type RevealPhase uint8

const (
	PhasePreflop RevealPhase = iota
	PhaseFlop
	PhaseTurn
	PhaseRiver
	PhaseShowdown
)

func (p RevealPhase) String() string {
	switch p {
	case PhasePreflop:
		return "preflop"
	case PhaseFlop:
		return "flop"
	case PhaseTurn:
		return "turn"
	case PhaseRiver:
		return "river"
	case PhaseShowdown:
		return "showdown"
	default:
		return "unknown"
	}
}

func putU64LE(dst []byte, v uint64) {
	for i := 0; i < 8; i++ {
		dst[i] = byte(v >> (8 * i))
	}
}
