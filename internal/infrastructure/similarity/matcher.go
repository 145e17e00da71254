// Package similarity scores token sequences by longest matching blocks.
package similarity

import (
	"slices"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/latexsim/latex-similarity/internal/core/domain"
)

// Match is a block where a[A:A+Size] equals b[B:B+Size].
type Match struct {
	A, B, Size int
}

// Matcher computes the block-matching ratio 2*M/(len(a)+len(b)) with
// difflib's SequenceMatcher. Autojunk stays on: once the second sequence
// has 200 or more tokens, a token occurring in more than 1% of it only
// extends matches and never seeds one.
type Matcher struct{}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// Ratio is symmetric: the pair is put in a fixed order before matching, so
// Ratio(a, b) == Ratio(b, a) exactly.
func (m *Matcher) Ratio(a, b domain.Tokens) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if less(b, a) {
		a, b = b, a
	}

	matched := 0
	for _, blk := range m.MatchingBlocks(a, b) {
		matched += blk.Size
	}
	return 2 * float64(matched) / float64(total)
}

// MatchingBlocks returns the non-overlapping matching blocks of a and b in
// increasing order. Ties resolve to the earliest block in a, then in b.
func (m *Matcher) MatchingBlocks(a, b domain.Tokens) []Match {
	sm := difflib.NewMatcher([]string(a), []string(b))
	blocks := sm.GetMatchingBlocks()

	out := make([]Match, 0, len(blocks))
	for _, blk := range blocks {
		// difflib terminates the list with a zero-size sentinel.
		if blk.Size == 0 {
			continue
		}
		out = append(out, Match{A: blk.A, B: blk.B, Size: blk.Size})
	}
	return out
}

func less(a, b domain.Tokens) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return slices.Compare(a, b) < 0
}
