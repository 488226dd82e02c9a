package normalize

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundament-io/fundament/internal/facts"
	"github.com/fundament-io/fundament/internal/model"
)

// factsJSON builds a minimal company facts document from value rows.
type valueRow struct {
	tag   string
	unit  string
	end   string
	filed string
	fp    string
	val   float64
}

func factsJSON(t *testing.T, rows []valueRow) *facts.CompanyFacts {
	t.Helper()

	byTag := map[string][]string{}
	units := map[string]string{}
	for _, r := range rows {
		byTag[r.tag] = append(byTag[r.tag],
			fmt.Sprintf(`{"end":%q,"val":%g,"fp":%q,"filed":%q}`, r.end, r.val, r.fp, r.filed))
		units[r.tag] = r.unit
	}

	var tags []string
	for tag, vals := range byTag {
		tags = append(tags, fmt.Sprintf(`%q:{"units":{%q:[%s]}}`,
			tag, units[tag], strings.Join(vals, ",")))
	}
	doc := fmt.Sprintf(`{"cik":1,"entityName":"Acme","facts":{"us-gaap":{%s}}}`,
		strings.Join(tags, ","))

	cf, err := facts.ParseCompanyFacts(strings.NewReader(doc))
	require.NoError(t, err)
	return cf
}

func TestNormalize_GroupsFactsIntoPeriods(t *testing.T) {
	cf := factsJSON(t, []valueRow{
		{"Revenues", "USD", "2023-12-31", "2024-02-15", "FY", 1.5e9},
		{"NetIncomeLoss", "USD", "2023-12-31", "2024-02-15", "FY", 2.1e8},
		{"Revenues", "USD", "2024-03-31", "2024-05-01", "Q1", 4e8},
	})

	series, err := Normalize("ACME", cf)
	require.NoError(t, err)
	require.Len(t, series, 2)

	annual := series[0]
	assert.Equal(t, model.Annual, annual.Kind)
	assert.Equal(t, 1.5e9, annual.Metrics[facts.Revenue])
	assert.Equal(t, 2.1e8, annual.Metrics[facts.NetIncome])

	q1 := series[1]
	assert.Equal(t, model.Quarterly, q1.Kind)
	assert.Equal(t, 4e8, q1.Metrics[facts.Revenue])
}

func TestNormalize_RestatementLaterFiledWins(t *testing.T) {
	cf := factsJSON(t, []valueRow{
		{"Revenues", "USD", "2023-12-31", "2024-02-15", "FY", 1.5e9},
		{"Revenues", "USD", "2023-12-31", "2024-08-01", "FY", 1.48e9}, // restated in a later filing
	})

	series, err := Normalize("ACME", cf)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 1.48e9, series[0].Metrics[facts.Revenue])
	assert.Equal(t, "2024-08-01", series[0].Filed.Format("2006-01-02"))
}

func TestNormalize_OrderIndependent(t *testing.T) {
	rows := []valueRow{
		{"Revenues", "USD", "2023-12-31", "2024-08-01", "FY", 1.48e9},
		{"Revenues", "USD", "2023-12-31", "2024-02-15", "FY", 1.5e9},
	}
	forward, err := Normalize("ACME", factsJSON(t, rows))
	require.NoError(t, err)

	reversed, err := Normalize("ACME", factsJSON(t, []valueRow{rows[1], rows[0]}))
	require.NoError(t, err)

	assert.Equal(t, forward, reversed)
}

func TestNormalize_TagPrecedenceOnSameFiledDate(t *testing.T) {
	// NetIncomeLoss (rank 0) beats ProfitLoss (rank 1) for the same period
	// and filed date.
	cf := factsJSON(t, []valueRow{
		{"ProfitLoss", "USD", "2023-12-31", "2024-02-15", "FY", 2.2e8},
		{"NetIncomeLoss", "USD", "2023-12-31", "2024-02-15", "FY", 2.1e8},
	})

	series, err := Normalize("ACME", cf)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 2.1e8, series[0].Metrics[facts.NetIncome])
}

func TestNormalize_Idempotent(t *testing.T) {
	cf := factsJSON(t, []valueRow{
		{"Revenues", "USD", "2023-12-31", "2024-02-15", "FY", 1.5e9},
		{"Revenues", "USD", "2024-03-31", "2024-05-01", "Q1", 4e8},
		{"NetIncomeLoss", "USD", "2023-12-31", "2024-02-15", "FY", 2.1e8},
	})

	first, err := Normalize("ACME", cf)
	require.NoError(t, err)
	second, err := Normalize("ACME", cf)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalize_NoRecognizedTags(t *testing.T) {
	cf, err := facts.ParseCompanyFacts(strings.NewReader(
		`{"cik":1,"facts":{"us-gaap":{"SomeBrandNewTag":{"units":{"USD":[{"end":"2023-12-31","val":1,"fp":"FY","filed":"2024-02-15"}]}}}}}`))
	require.NoError(t, err)

	_, err = Normalize("ACME", cf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedFiling)
}

func TestNormalize_FiledBeforePeriodEnd(t *testing.T) {
	cf := factsJSON(t, []valueRow{
		{"Revenues", "USD", "2023-12-31", "2023-06-01", "FY", 1.5e9},
	})

	_, err := Normalize("ACME", cf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedFiling)
}

func TestNormalize_UnsupportedFiscalPeriod(t *testing.T) {
	cf := factsJSON(t, []valueRow{
		{"Revenues", "USD", "2023-12-31", "2024-02-15", "H1", 1.5e9},
	})

	_, err := Normalize("ACME", cf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedPeriod)
}

func TestNormalize_BadPeriodEndDate(t *testing.T) {
	cf := factsJSON(t, []valueRow{
		{"Revenues", "USD", "not-a-date", "2024-02-15", "FY", 1.5e9},
	})

	_, err := Normalize("ACME", cf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedFiling)
}

func TestNormalize_SortedByFiledDate(t *testing.T) {
	cf := factsJSON(t, []valueRow{
		{"Revenues", "USD", "2024-03-31", "2024-05-01", "Q1", 4e8},
		{"Revenues", "USD", "2022-12-31", "2023-02-10", "FY", 1.4e9},
		{"Revenues", "USD", "2023-12-31", "2024-02-15", "FY", 1.5e9},
	})

	series, err := Normalize("ACME", cf)
	require.NoError(t, err)
	require.Len(t, series, 3)
	for i := 1; i < len(series); i++ {
		assert.False(t, series[i].Filed.Before(series[i-1].Filed))
	}
}
