package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriodKind(t *testing.T) {
	tests := []struct {
		fp   string
		want PeriodKind
		ok   bool
	}{
		{"FY", Annual, true},
		{"Q1", Quarterly, true},
		{"Q2", Quarterly, true},
		{"Q3", Quarterly, true},
		{"Q4", Quarterly, true},
		{"H1", "", false},
		{"fy", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		kind, ok := ParsePeriodKind(tt.fp)
		assert.Equal(t, tt.ok, ok, tt.fp)
		assert.Equal(t, tt.want, kind, tt.fp)
	}
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestFilingSeriesValidate(t *testing.T) {
	valid := FilingSeries{
		{Ticker: "ACME", PeriodEnd: day("2023-12-31"), Filed: day("2024-02-15"), Kind: Annual},
		{Ticker: "ACME", PeriodEnd: day("2023-12-31"), Filed: day("2024-02-15"), Kind: Quarterly},
		{Ticker: "ACME", PeriodEnd: day("2024-03-31"), Filed: day("2024-05-01"), Kind: Quarterly},
	}
	require.NoError(t, valid.Validate())
}

func TestFilingSeriesValidate_DuplicateIdentity(t *testing.T) {
	dup := FilingSeries{
		{Ticker: "ACME", PeriodEnd: day("2023-12-31"), Filed: day("2024-02-15"), Kind: Annual},
		{Ticker: "ACME", PeriodEnd: day("2023-12-31"), Filed: day("2024-08-01"), Kind: Annual},
	}
	err := dup.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestFilingSeriesValidate_FiledBeforePeriodEnd(t *testing.T) {
	bad := FilingSeries{
		{Ticker: "ACME", PeriodEnd: day("2023-12-31"), Filed: day("2023-06-01"), Kind: Annual},
	}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before period end")
}

func TestFilingSeriesValidate_Empty(t *testing.T) {
	require.NoError(t, FilingSeries{}.Validate())
}
