package protocol

// DealCommitment is the dealer's single binding promise for a hand: the
// shuffle it committed to plus the backing artifacts a replica may need
// to backfill. The dealer's signature is never part of the hashed
// preimage (spec §2): it authenticates the commitment but is not itself
// bound by the hash callers compare against.
type DealCommitment struct {
	Version          uint8
	Scope            ScopeBinding
	ShuffleCommitment [32]byte
	ArtifactHashes   [][32]byte
	TimestampMs      uint64
	DealerSignature  []byte
}

// preimage concatenates the domain prefix, version, scope encoding,
// shuffle commitment, artifact hash list, and timestamp, in that order —
// the documented field order spec §6.4 requires.
func (c DealCommitment) preimage() []byte {
	out := make([]byte, 0, 1+64+32+4+len(c.ArtifactHashes)*32+8)
	out = append(out, c.Version)
	out = append(out, c.Scope.encode()...)
	out = append(out, c.ShuffleCommitment[:]...)
	var count [4]byte
	n := uint32(len(c.ArtifactHashes))
	count[0] = byte(n)
	count[1] = byte(n >> 8)
	count[2] = byte(n >> 16)
	count[3] = byte(n >> 24)
	out = append(out, count[:]...)
	for _, h := range c.ArtifactHashes {
		out = append(out, h[:]...)
	}
	var ts [8]byte
	putU64LE(ts[:], c.TimestampMs)
	out = append(out, ts[:]...)
	return out
}

// Hash is the commitment's canonical identifier: every later message in
// the hand (ack, reveal, timelock, game action) carries this value.
func (c DealCommitment) Hash() [32]byte {
	return canonicalHash(domainDealCommitment, c.preimage())
}

// DealCommitmentAck is one seat's acknowledgement of a DealCommitment.
// Deal proceeds only once every seat in scope.seat_order has acked
// exactly once (spec §4.F.3).
type DealCommitmentAck struct {
	CommitmentHash [32]byte
	Seat           uint8
}

// RevealShare is a cooperative reveal of one or more card indices for a
// given phase, contributed by one seat.
type RevealShare struct {
	CommitmentHash [32]byte
	Phase          RevealPhase
	CardIndices    []uint8
	RevealData     []byte
	FromSeat       uint8
}

// TimelockReveal is the non-cooperative fallback: a proof-backed reveal
// accepted only once REVEAL_TTL has elapsed since the reveal-only phase
// began, submitted on behalf of a named timed-out seat.
type TimelockReveal struct {
	CommitmentHash [32]byte
	Phase          RevealPhase
	CardIndices    []uint8
	TimelockProof  []byte
	RevealedValues []uint8
	TimeoutSeat    uint8
}

// TimelockProofVerifier checks a timelock proof against the revealed
// values it backs, pluggable so the validator itself stays clock-less
// and free of any particular timelock-puzzle implementation.
type TimelockProofVerifier interface {
	VerifyTimelockProof(commitmentHash [32]byte, proof []byte, revealedValues []uint8) error
}
