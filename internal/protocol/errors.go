package protocol

import "fmt"

// Error taxonomy for ActionLogValidator, per spec §4.F / §7: these are
// reported to the caller (never fatal to block execution), which decides
// whether to slash or ignore per its own policy.

type DuplicateCommitmentError struct{}

func (e *DuplicateCommitmentError) Error() string {
	return "protocol: duplicate deal commitment for this hand"
}

type CommitmentHashMismatchError struct {
	Expected [32]byte
	Got      [32]byte
}

func (e *CommitmentHashMismatchError) Error() string {
	return fmt.Sprintf("protocol: commitment hash mismatch: expected %x, got %x", e.Expected, e.Got)
}

type RevealPhaseTooEarlyError struct {
	Current   RevealPhase
	Requested RevealPhase
}

func (e *RevealPhaseTooEarlyError) Error() string {
	return fmt.Sprintf("protocol: reveal for phase %s requested before current phase %s completes", e.Requested, e.Current)
}

type RevealPhaseAlreadyCompletedError struct {
	Phase RevealPhase
}

func (e *RevealPhaseAlreadyCompletedError) Error() string {
	return fmt.Sprintf("protocol: phase %s already completed", e.Phase)
}

type ActionDuringRevealOnlyPhaseError struct{}

func (e *ActionDuringRevealOnlyPhaseError) Error() string {
	return "protocol: game action rejected during reveal-only phase"
}

type TimelockRevealBeforeTimeoutError struct {
	NowMs, DeadlineMs uint64
}

func (e *TimelockRevealBeforeTimeoutError) Error() string {
	return fmt.Sprintf("protocol: timelock reveal at %dms before deadline %dms", e.NowMs, e.DeadlineMs)
}

type TimelockCardValueMismatchError struct{}

func (e *TimelockCardValueMismatchError) Error() string {
	return "protocol: timelock card_indices and revealed_values length mismatch"
}

type TimelockCardIndexOutOfBoundsError struct {
	Index, DeckLength uint8
}

func (e *TimelockCardIndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("protocol: timelock card index %d out of bounds for deck length %d", e.Index, e.DeckLength)
}

type TimelockMissingProofError struct{}

func (e *TimelockMissingProofError) Error() string {
	return "protocol: timelock proof missing while revealed values are present"
}

type InvalidTimelockTimeoutSeatError struct {
	Seat uint8
}

func (e *InvalidTimelockTimeoutSeatError) Error() string {
	return fmt.Sprintf("protocol: timeout seat %d not in scope seat order", e.Seat)
}

type TimelockProofInvalidError struct {
	Reason string
}

func (e *TimelockProofInvalidError) Error() string {
	return fmt.Sprintf("protocol: timelock proof invalid: %s", e.Reason)
}

type DuplicateAckError struct {
	Seat uint8
}

func (e *DuplicateAckError) Error() string {
	return fmt.Sprintf("protocol: seat %d already acked this commitment", e.Seat)
}

type SeatNotInScopeError struct {
	Seat uint8
}

func (e *SeatNotInScopeError) Error() string {
	return fmt.Sprintf("protocol: seat %d not present in scope seat order", e.Seat)
}

type AwaitingAcksError struct{}

func (e *AwaitingAcksError) Error() string {
	return "protocol: not all seats have acked the deal commitment yet"
}

type NoCommitmentError struct{}

func (e *NoCommitmentError) Error() string {
	return "protocol: no deal commitment submitted for this hand yet"
}
