package protocol

// stage names the coarse state spec §4.F's per-hand machine moves
// through: AwaitingCommitment → AwaitingAcks → Active → Complete. The
// RevealOnly/RevealOnlyWithTimeout variants overlay Active rather than
// being separate top-level stages, tracked here via revealOnly/
// revealOnlyTimeout booleans alongside the active phase.
type stage uint8

const (
	stageAwaitingCommitment stage = iota
	stageAwaitingAcks
	stageActive
	stageComplete
)

// ActionLogValidator is the per-hand state machine. It is clock-less: all
// timeout logic is a pure function of nowMs (passed with each timelock
// submission), phaseStartMs (passed to EnterRevealOnly) and
// RevealTTLMillis, never of a wall clock the validator reads itself.
type ActionLogValidator struct {
	expectedScope *ShuffleContext
	verifier      TimelockProofVerifier

	st             stage
	commitment     *DealCommitment
	commitmentHash [32]byte
	acked          map[uint8]bool

	currentPhase    RevealPhase
	completedPhases map[RevealPhase]bool

	revealOnly          bool
	revealOnlyTimeout   bool
	phaseStartMs        uint64
	expectedTimeoutSeat uint8
}

// NewActionLogValidator constructs a validator for one hand. expectedScope
// is optional (nil skips scope verification); verifier backs timelock
// proof checks.
func NewActionLogValidator(expectedScope *ShuffleContext, verifier TimelockProofVerifier) *ActionLogValidator {
	return &ActionLogValidator{
		expectedScope:   expectedScope,
		verifier:        verifier,
		st:              stageAwaitingCommitment,
		acked:           map[uint8]bool{},
		completedPhases: map[RevealPhase]bool{},
	}
}

// SubmitDealCommitment accepts the hand's single DealCommitment. A second
// call at any later stage returns DuplicateCommitmentError.
func (v *ActionLogValidator) SubmitDealCommitment(c DealCommitment) ([32]byte, error) {
	if v.st != stageAwaitingCommitment {
		return [32]byte{}, &DuplicateCommitmentError{}
	}
	if v.expectedScope != nil {
		got := ShuffleContext{Version: c.Version, Scope: c.Scope}
		if err := compareShuffleContext(*v.expectedScope, got); err != nil {
			return [32]byte{}, err
		}
	}
	hash := c.Hash()
	v.commitment = &c
	v.commitmentHash = hash
	v.st = stageAwaitingAcks
	return hash, nil
}

func (v *ActionLogValidator) checkHash(h [32]byte) error {
	if v.commitment == nil {
		return &NoCommitmentError{}
	}
	if h != v.commitmentHash {
		return &CommitmentHashMismatchError{Expected: v.commitmentHash, Got: h}
	}
	return nil
}

// SubmitAck records one seat's acknowledgement. Once every seat in
// scope.seat_order has acked exactly once, the hand transitions to
// Active(Preflop).
func (v *ActionLogValidator) SubmitAck(ack DealCommitmentAck) error {
	if err := v.checkHash(ack.CommitmentHash); err != nil {
		return err
	}
	if v.st != stageAwaitingAcks {
		if v.st == stageAwaitingCommitment {
			return &NoCommitmentError{}
		}
		return &DuplicateAckError{Seat: ack.Seat}
	}
	if !v.commitment.Scope.hasSeat(ack.Seat) {
		return &SeatNotInScopeError{Seat: ack.Seat}
	}
	if v.acked[ack.Seat] {
		return &DuplicateAckError{Seat: ack.Seat}
	}
	v.acked[ack.Seat] = true
	if len(v.acked) == len(v.commitment.Scope.SeatOrder) {
		v.st = stageActive
		v.currentPhase = PhasePreflop
	}
	return nil
}

func (v *ActionLogValidator) requireActive() error {
	switch v.st {
	case stageAwaitingCommitment:
		return &NoCommitmentError{}
	case stageAwaitingAcks:
		return &AwaitingAcksError{}
	}
	return nil
}

// SubmitGameAction gates an ordinary (non-reveal) game action: rejected
// while the hand is in a reveal-only window, per spec §4.F.5.
func (v *ActionLogValidator) SubmitGameAction() error {
	if err := v.requireActive(); err != nil {
		return err
	}
	if v.revealOnly {
		return &ActionDuringRevealOnlyPhaseError{}
	}
	return nil
}

// EnterRevealOnly puts the hand into a reveal-only window for the
// current phase, optionally timeout-tracked starting at phaseStartMs for
// expectedSeat (spec §4.F.5's RevealOnlyWithTimeout overlay).
func (v *ActionLogValidator) EnterRevealOnly(withTimeout bool, phaseStartMs uint64, expectedSeat uint8) error {
	if err := v.requireActive(); err != nil {
		return err
	}
	v.revealOnly = true
	v.revealOnlyTimeout = withTimeout
	v.phaseStartMs = phaseStartMs
	v.expectedTimeoutSeat = expectedSeat
	return nil
}

// ExitRevealOnly returns the hand to ordinary Active play.
func (v *ActionLogValidator) ExitRevealOnly() {
	v.revealOnly = false
	v.revealOnlyTimeout = false
}

// SubmitReveal accepts a cooperative reveal for the current phase only;
// it is valid at any time (reveal-only or not), per spec §4.F.5.
func (v *ActionLogValidator) SubmitReveal(r RevealShare) error {
	if err := v.requireActive(); err != nil {
		return err
	}
	if err := v.checkHash(r.CommitmentHash); err != nil {
		return err
	}
	return v.checkPhase(r.Phase)
}

func (v *ActionLogValidator) checkPhase(phase RevealPhase) error {
	if v.completedPhases[phase] || phase < v.currentPhase {
		return &RevealPhaseAlreadyCompletedError{Phase: phase}
	}
	if phase > v.currentPhase {
		return &RevealPhaseTooEarlyError{Current: v.currentPhase, Requested: phase}
	}
	return nil
}

// AdvancePhase marks the current phase complete and moves to next,
// enforcing the strict Preflop → Flop → Turn → River → Showdown order.
// Called by the game layer once it has collected whatever reveals the
// current phase requires.
func (v *ActionLogValidator) AdvancePhase(next RevealPhase) error {
	if err := v.requireActive(); err != nil {
		return err
	}
	if next != v.currentPhase+1 {
		return &RevealPhaseTooEarlyError{Current: v.currentPhase, Requested: next}
	}
	v.completedPhases[v.currentPhase] = true
	v.currentPhase = next
	v.revealOnly = false
	v.revealOnlyTimeout = false
	if next == PhaseShowdown {
		// Showdown itself still runs through this same path; Complete()
		// is a separate, explicit transition once settlement finishes.
	}
	return nil
}

// Complete marks the hand finished. No further messages are accepted.
func (v *ActionLogValidator) Complete() error {
	if err := v.requireActive(); err != nil {
		return err
	}
	v.st = stageComplete
	return nil
}

// SubmitTimelockReveal accepts a non-cooperative, proof-backed reveal once
// REVEAL_TTL has elapsed since the reveal-only window began, per spec
// §4.F.6's ordered validation checklist.
func (v *ActionLogValidator) SubmitTimelockReveal(t TimelockReveal, nowMs uint64) error {
	if err := v.requireActive(); err != nil {
		return err
	}
	if err := v.checkHash(t.CommitmentHash); err != nil {
		return err
	}
	if err := v.checkPhase(t.Phase); err != nil {
		return err
	}
	if !v.revealOnlyTimeout {
		// Outside a timeout-tracked reveal-only window there is no
		// phase_start_ms to measure against; treat conservatively as not
		// yet due.
		return &TimelockRevealBeforeTimeoutError{NowMs: nowMs, DeadlineMs: 0}
	}
	deadline := v.phaseStartMs + RevealTTLMillis
	if nowMs < deadline {
		return &TimelockRevealBeforeTimeoutError{NowMs: nowMs, DeadlineMs: deadline}
	}
	if len(t.CardIndices) != len(t.RevealedValues) {
		return &TimelockCardValueMismatchError{}
	}
	deckLen := v.commitment.Scope.DeckLength
	for _, idx := range t.CardIndices {
		if idx >= deckLen {
			return &TimelockCardIndexOutOfBoundsError{Index: idx, DeckLength: deckLen}
		}
	}
	if len(t.RevealedValues) > 0 && len(t.TimelockProof) == 0 {
		return &TimelockMissingProofError{}
	}
	if !v.commitment.Scope.hasSeat(t.TimeoutSeat) {
		return &InvalidTimelockTimeoutSeatError{Seat: t.TimeoutSeat}
	}
	if v.verifier != nil {
		if err := v.verifier.VerifyTimelockProof(t.CommitmentHash, t.TimelockProof, t.RevealedValues); err != nil {
			return &TimelockProofInvalidError{Reason: err.Error()}
		}
	}
	return nil
}
