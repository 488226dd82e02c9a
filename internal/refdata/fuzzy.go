package refdata

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// Default bounds for the fuzzy industry-label policy.
const (
	// DefaultThreshold is the minimum similarity for a fuzzy match to be
	// accepted at all.
	DefaultThreshold = 0.85

	// DefaultMargin is how far below the best score the runner-up must sit.
	// Two near-identical candidates mean the match is ambiguous.
	DefaultMargin = 0.03
)

// ErrIndustryLabelMismatch indicates an industry label could not be matched
// against a cost-of-capital table with sufficient confidence.
var ErrIndustryLabelMismatch = eris.New("industry label mismatch")

// Matcher performs bounded fuzzy resolution of industry labels. A miss is a
// hard failure; it never falls back to "closest regardless of distance".
type Matcher struct {
	threshold float64
	margin    float64
	params    *levenshtein.Params
}

// NewMatcher builds a matcher with the given similarity threshold and
// unambiguity margin. Non-positive values fall back to the defaults.
func NewMatcher(threshold, margin float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if margin <= 0 {
		margin = DefaultMargin
	}
	return &Matcher{
		threshold: threshold,
		margin:    margin,
		params:    levenshtein.NewParams(),
	}
}

// BestMatch resolves label against the table's keys. Candidates are compared
// on canonicalized text; the winner must strictly exceed the threshold and
// lead the runner-up by the margin, otherwise ErrIndustryLabelMismatch.
func (m *Matcher) BestMatch(label string, table map[string]float64) (string, error) {
	want := Canonicalize(label)

	// Exact match after canonicalization short-circuits scoring.
	for key := range table {
		if Canonicalize(key) == want {
			return key, nil
		}
	}

	keys := make([]string, 0, len(table))
	for key := range table {
		keys = append(keys, key)
	}
	sort.Strings(keys) // deterministic tie order

	var (
		best, runnerUp float64
		bestKey        string
	)
	for _, key := range keys {
		score := levenshtein.Similarity(want, Canonicalize(key), m.params)
		if score > best {
			best, runnerUp, bestKey = score, best, key
		} else if score > runnerUp {
			runnerUp = score
		}
	}

	if best <= m.threshold {
		zap.L().Warn("industry label below fuzzy threshold",
			zap.String("label", label),
			zap.String("closest", bestKey),
			zap.Float64("score", best),
		)
		return "", eris.Wrapf(ErrIndustryLabelMismatch,
			"%q: closest candidate %q scored %.3f (threshold %.2f)",
			label, bestKey, best, m.threshold)
	}
	if best-runnerUp < m.margin {
		return "", eris.Wrapf(ErrIndustryLabelMismatch,
			"%q: ambiguous, best %q at %.3f within %.2f of runner-up at %.3f",
			label, bestKey, best, m.margin, runnerUp)
	}
	return bestKey, nil
}

// Canonicalize prepares a label for comparison: NFKC normalization,
// lowercasing, and whitespace collapse. Punctuation is kept so "R&D" and
// "R.D" stay distinct.
func Canonicalize(label string) string {
	s := norm.NFKC.String(label)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}
