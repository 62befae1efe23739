// Package supermode applies the optional post-resolution payout multiplier
// restored from original_source's super::super_mode (apply_super_multiplier_cards).
// Inert unless a session's SuperModeState.IsActive is true; see
// games.SuperModeState and SPEC_FULL.md §3.NEW.
package supermode

// ApplySuperMultiplier scales amount by a multiplier selected from
// multipliers using the session's dealt cards as a deterministic index,
// matching original_source's card-keyed multiplier selection. A nil/empty
// multipliers slice or amount of zero is a no-op.
func ApplySuperMultiplier(dealt []uint8, multipliers []uint8, amount uint64) uint64 {
	if amount == 0 || len(multipliers) == 0 {
		return amount
	}
	idx := 0
	for _, c := range dealt {
		idx += int(c)
	}
	mult := multipliers[idx%len(multipliers)]
	if mult == 0 {
		return amount
	}
	scaled := amount * uint64(mult)
	if uint64(mult) != 0 && scaled/uint64(mult) != amount {
		return ^uint64(0)
	}
	return scaled
}
