package refdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Software (System & Application)", "software (system & application)"},
		{"  Banking   \t Regional ", "banking regional"},
		{"Ｓｏｆｔｗａｒｅ", "software"}, // fullwidth folds under NFKC
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Canonicalize(tt.in))
	}
}

func TestBestMatch_ExactAfterCanonicalization(t *testing.T) {
	m := NewMatcher(0, 0)
	table := map[string]float64{"Software (System & Application)": 0.093}

	key, err := m.BestMatch("software  (system & application)", table)
	require.NoError(t, err)
	assert.Equal(t, "Software (System & Application)", key)
}

func TestBestMatch_CloseVariantAccepted(t *testing.T) {
	m := NewMatcher(0, 0)
	table := map[string]float64{
		"Software (System & Application)":      0.093,
		"Banks (Regional)":                     0.067,
		"Oil/Gas (Production and Exploration)": 0.081,
	}

	key, err := m.BestMatch("Software (Systems & Application)", table)
	require.NoError(t, err)
	assert.Equal(t, "Software (System & Application)", key)
}

func TestBestMatch_BelowThresholdFails(t *testing.T) {
	m := NewMatcher(0.85, 0.03)
	table := map[string]float64{
		"Banks (Regional)": 0.067,
		"Retail (Grocery)": 0.071,
	}

	_, err := m.BestMatch("Semiconductor Equipment", table)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndustryLabelMismatch)
}

func TestBestMatch_ExactlyAtThresholdFails(t *testing.T) {
	// One edit over four characters scores exactly 0.75; the bound is
	// exclusive, so this must miss.
	m := NewMatcher(0.75, 0.03)
	table := map[string]float64{"abcx": 0.05}

	_, err := m.BestMatch("abcd", table)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndustryLabelMismatch)
}

func TestBestMatch_AmbiguousWithinMargin(t *testing.T) {
	m := NewMatcher(0.5, 0.03)
	table := map[string]float64{
		"Banks (Regional A)": 0.067,
		"Banks (Regional B)": 0.068,
	}

	_, err := m.BestMatch("Banks (Regional C)", table)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndustryLabelMismatch)
}

func TestBestMatch_NeverGuessesOnEmptyTable(t *testing.T) {
	m := NewMatcher(0, 0)
	_, err := m.BestMatch("Anything", map[string]float64{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndustryLabelMismatch)
}
