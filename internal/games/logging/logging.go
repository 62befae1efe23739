// Package logging builds the structured per-hand JSON log fragments every
// game emits in its GameResult's logs field. Ported from original_source's
// super::logging (clamp_i64, push_resolved_entry, format_card_list), which
// spec.md names (`logs []string`) but does not itself shape.
package logging

import (
	"fmt"
	"math"
	"strings"

	"nullspace.io/casino-chain/internal/cards"
)

// ClampI64 returns v unchanged. original_source saturates an i128 delta
// down to i64 here; Go payout deltas are already int64, so there is nothing
// wider to saturate.
func ClampI64(v int64) int64 { return v }

// ClampI128ToI64 saturates a big.Int-sized delta to i64 bounds. Go lacks a
// native i128; callers that can exceed i64 range pass the value already
// widened via int64 arithmetic with explicit overflow checks upstream
// (see games/payload bet-update deltas), so this clamp only guards the
// rare path where a product of two u64s is reinterpreted as signed.
func ClampI128ToI64(v float64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	if v < math.MinInt64 {
		return math.MinInt64
	}
	return int64(v)
}

// PushResolvedEntry appends a `{"type":"NAME","pnl":N}` fragment to a
// growing resolved-bets JSON array body (comma-separated, no brackets; the
// caller wraps the accumulated string in `[...]`).
func PushResolvedEntry(out *strings.Builder, name string, pnl int64) {
	if out.Len() > 0 {
		out.WriteByte(',')
	}
	fmt.Fprintf(out, `{"type":%q,"pnl":%d}`, name, pnl)
}

// FormatCardList renders a slice of card bytes as the comma-separated body
// of a JSON array of card label strings (no brackets), e.g. card 12 ->
// `"As"`. Unknown/hidden cards render as "??".
func FormatCardList(cs []uint8) string {
	var b strings.Builder
	for i, c := range cs {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%q", cards.String(c))
	}
	return b.String()
}
