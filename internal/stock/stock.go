// Package stock exposes a per-company query handle combining the normalized
// filing series, reference data, and live market data. A Stock is loaded once
// and immutable; every accessor answers as of an explicit query date.
package stock

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/fundament-io/fundament/internal/facts"
	"github.com/fundament-io/fundament/internal/model"
	"github.com/fundament-io/fundament/internal/refdata"
	"github.com/fundament-io/fundament/internal/series"
	"github.com/fundament-io/fundament/pkg/polygon"
)

// Stock is an immutable point-in-time query handle for one company.
type Stock struct {
	ticker string
	series model.FilingSeries
	ref    *refdata.Store
	market polygon.Client
}

// Ticker returns the company ticker.
func (s *Stock) Ticker() string { return s.ticker }

// Series returns the underlying filing series.
func (s *Stock) Series() model.FilingSeries { return s.series }

// Metric resolves a reported metric as of the query date. The date bounds
// the filed date, not the period end.
func (s *Stock) Metric(metric string, asOf time.Time, quarterly bool) (float64, error) {
	v, err := series.Resolve(s.series, metric, asOf, quarterly)
	if err != nil {
		return 0, eris.Wrapf(err, "%s", s.ticker)
	}
	return v, nil
}

// firstOf resolves the first metric in the chain that the as-of filing
// reports. Resolution errors other than a missing metric abort the chain.
func (s *Stock) firstOf(asOf time.Time, quarterly bool, metrics ...string) (float64, error) {
	var lastErr error
	for _, m := range metrics {
		v, err := series.Resolve(s.series, m, asOf, quarterly)
		if err == nil {
			return v, nil
		}
		if !eris.Is(err, series.ErrMetricNotFound) {
			return 0, eris.Wrapf(err, "%s", s.ticker)
		}
		lastErr = err
	}
	return 0, eris.Wrapf(lastErr, "%s", s.ticker)
}

// sumOf adds up whichever of the component metrics the as-of filing reports.
// At least one component must be present.
func (s *Stock) sumOf(asOf time.Time, quarterly bool, metrics ...string) (float64, error) {
	var (
		total float64
		found bool
	)
	for _, m := range metrics {
		v, err := series.Resolve(s.series, m, asOf, quarterly)
		if err == nil {
			total += v
			found = true
			continue
		}
		if !eris.Is(err, series.ErrMetricNotFound) {
			return 0, eris.Wrapf(err, "%s", s.ticker)
		}
	}
	if !found {
		return 0, eris.Wrapf(series.ErrMetricNotFound, "%s: none of %v reported", s.ticker, metrics)
	}
	return total, nil
}

// TotalDebt returns total debt, summing current and noncurrent debt when no
// combined figure is reported.
func (s *Stock) TotalDebt(asOf time.Time, quarterly bool) (float64, error) {
	if v, err := s.Metric(facts.TotalDebt, asOf, quarterly); err == nil {
		return v, nil
	} else if !eris.Is(err, series.ErrMetricNotFound) {
		return 0, err
	}
	return s.sumOf(asOf, quarterly, facts.CurrentDebt, facts.NoncurrentDebt)
}

// DepreciationAmortization returns combined D&A, summing the separate line
// items when no combined figure is reported.
func (s *Stock) DepreciationAmortization(asOf time.Time, quarterly bool) (float64, error) {
	if v, err := s.Metric(facts.DepreciationAmortization, asOf, quarterly); err == nil {
		return v, nil
	} else if !eris.Is(err, series.ErrMetricNotFound) {
		return 0, err
	}
	return s.sumOf(asOf, quarterly, facts.Depreciation, facts.Amortization)
}

// EBIT returns operating earnings before interest and taxes. Falls back from
// the reported figure to pretax income plus interest, then to net income
// plus interest plus taxes.
func (s *Stock) EBIT(asOf time.Time, quarterly bool) (float64, error) {
	if v, err := s.Metric(facts.EBIT, asOf, quarterly); err == nil {
		return v, nil
	} else if !eris.Is(err, series.ErrMetricNotFound) {
		return 0, err
	}

	interest, err := s.Metric(facts.InterestExpense, asOf, quarterly)
	if err != nil && !eris.Is(err, series.ErrMetricNotFound) {
		return 0, err
	}

	if pretax, err := s.Metric(facts.PretaxIncome, asOf, quarterly); err == nil {
		return pretax + interest, nil
	} else if !eris.Is(err, series.ErrMetricNotFound) {
		return 0, err
	}

	net, err := s.Metric(facts.NetIncome, asOf, quarterly)
	if err != nil {
		return 0, err
	}
	tax, err := s.TaxExpense(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	return net + interest + tax, nil
}

// EBITDA returns EBIT plus depreciation and amortization.
func (s *Stock) EBITDA(asOf time.Time, quarterly bool) (float64, error) {
	ebit, err := s.EBIT(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	da, err := s.DepreciationAmortization(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	return ebit + da, nil
}

// TaxExpense returns income tax expense, derived as pretax income minus net
// income when not reported directly.
func (s *Stock) TaxExpense(asOf time.Time, quarterly bool) (float64, error) {
	if v, err := s.Metric(facts.TaxExpense, asOf, quarterly); err == nil {
		return v, nil
	} else if !eris.Is(err, series.ErrMetricNotFound) {
		return 0, err
	}

	pretax, err := s.Metric(facts.PretaxIncome, asOf, quarterly)
	if err != nil {
		return 0, err
	}
	net, err := s.Metric(facts.NetIncome, asOf, quarterly)
	if err != nil {
		return 0, err
	}
	return pretax - net, nil
}

// CurrentAssets returns total current assets, summing the balance sheet
// components when no total is reported.
func (s *Stock) CurrentAssets(asOf time.Time, quarterly bool) (float64, error) {
	if v, err := s.Metric(facts.CurrentAssets, asOf, quarterly); err == nil {
		return v, nil
	} else if !eris.Is(err, series.ErrMetricNotFound) {
		return 0, err
	}
	return s.sumOf(asOf, quarterly,
		facts.Cash, facts.MarketableSecurities, facts.AccountsReceivable,
		facts.Inventory, facts.OtherCurrentAssets)
}

// CurrentLiabilities returns total current liabilities, summing the balance
// sheet components when no total is reported.
func (s *Stock) CurrentLiabilities(asOf time.Time, quarterly bool) (float64, error) {
	if v, err := s.Metric(facts.CurrentLiabilities, asOf, quarterly); err == nil {
		return v, nil
	} else if !eris.Is(err, series.ErrMetricNotFound) {
		return 0, err
	}
	return s.sumOf(asOf, quarterly,
		facts.AccountsPayable, facts.TaxesPayable, facts.AccruedSalaries,
		facts.InterestPayable, facts.DeferredRevenue, facts.AccruedLiabilities,
		facts.OtherCurrentLiabilities)
}

// WorkingCapital returns current assets minus current liabilities.
func (s *Stock) WorkingCapital(asOf time.Time, quarterly bool) (float64, error) {
	assets, err := s.CurrentAssets(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	liabilities, err := s.CurrentLiabilities(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	return assets - liabilities, nil
}

// ChangeInWorkingCapital returns the year-over-year change in working
// capital, comparing the as-of value against the value one year earlier.
func (s *Stock) ChangeInWorkingCapital(asOf time.Time, quarterly bool) (float64, error) {
	current, err := s.WorkingCapital(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	prior, err := s.WorkingCapital(asOf.AddDate(-1, 0, 0), quarterly)
	if err != nil {
		return 0, eris.Wrap(err, "prior year")
	}
	return current - prior, nil
}

// OperatingCashFlow returns cash flow from operations, approximated as net
// income plus D&A minus the change in working capital when not reported.
func (s *Stock) OperatingCashFlow(asOf time.Time, quarterly bool) (float64, error) {
	if v, err := s.Metric(facts.OperatingCashFlowReported, asOf, quarterly); err == nil {
		return v, nil
	} else if !eris.Is(err, series.ErrMetricNotFound) {
		return 0, err
	}

	net, err := s.Metric(facts.NetIncome, asOf, quarterly)
	if err != nil {
		return 0, err
	}
	da, err := s.DepreciationAmortization(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	deltaWC, err := s.ChangeInWorkingCapital(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	return net + da - deltaWC, nil
}

// Capex returns capital expenditures, approximated from the year-over-year
// change in gross PP&E plus D&A when not reported.
func (s *Stock) Capex(asOf time.Time, quarterly bool) (float64, error) {
	if v, err := s.Metric(facts.Capex, asOf, quarterly); err == nil {
		return v, nil
	} else if !eris.Is(err, series.ErrMetricNotFound) {
		return 0, err
	}

	ppe, err := s.Metric(facts.PPEGross, asOf, quarterly)
	if err != nil {
		return 0, err
	}
	prior, err := s.Metric(facts.PPEGross, asOf.AddDate(-1, 0, 0), quarterly)
	if err != nil {
		return 0, eris.Wrap(err, "prior year")
	}
	da, err := s.DepreciationAmortization(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	return ppe - prior + da, nil
}

// UnleveredFreeCashFlow returns EBIT minus taxes plus D&A minus capex minus
// the change in working capital.
func (s *Stock) UnleveredFreeCashFlow(asOf time.Time, quarterly bool) (float64, error) {
	ebit, err := s.EBIT(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	tax, err := s.TaxExpense(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	da, err := s.DepreciationAmortization(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	capex, err := s.Capex(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	deltaWC, err := s.ChangeInWorkingCapital(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	return ebit - tax + da - capex - deltaWC, nil
}

// BookValue returns stockholders' equity, derived from assets minus
// liabilities when not reported directly.
func (s *Stock) BookValue(asOf time.Time, quarterly bool) (float64, error) {
	if v, err := s.Metric(facts.StockholdersEquity, asOf, quarterly); err == nil {
		return v, nil
	} else if !eris.Is(err, series.ErrMetricNotFound) {
		return 0, err
	}

	assets, err := s.Metric(facts.TotalAssets, asOf, quarterly)
	if err != nil {
		return 0, err
	}
	liabilities, err := s.Metric(facts.TotalLiabilities, asOf, quarterly)
	if err != nil {
		return 0, err
	}
	return assets - liabilities, nil
}

// perShare divides a metric by shares outstanding as of the same date.
func (s *Stock) perShare(asOf time.Time, quarterly bool, value float64) (float64, error) {
	shares, err := s.Metric(facts.SharesOutstanding, asOf, quarterly)
	if err != nil {
		return 0, err
	}
	if shares <= 0 {
		return 0, eris.Errorf("%s: non-positive shares outstanding %.0f", s.ticker, shares)
	}
	return value / shares, nil
}

// EarningsPerShare returns net income divided by shares outstanding.
func (s *Stock) EarningsPerShare(asOf time.Time, quarterly bool) (float64, error) {
	net, err := s.Metric(facts.NetIncome, asOf, quarterly)
	if err != nil {
		return 0, err
	}
	return s.perShare(asOf, quarterly, net)
}

// BookValuePerShare returns book value divided by shares outstanding.
func (s *Stock) BookValuePerShare(asOf time.Time, quarterly bool) (float64, error) {
	bv, err := s.BookValue(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	return s.perShare(asOf, quarterly, bv)
}

// SalesPerShare returns revenue divided by shares outstanding.
func (s *Stock) SalesPerShare(asOf time.Time, quarterly bool) (float64, error) {
	rev, err := s.Metric(facts.Revenue, asOf, quarterly)
	if err != nil {
		return 0, err
	}
	return s.perShare(asOf, quarterly, rev)
}

// OperatingCashFlowPerShare returns operating cash flow divided by shares
// outstanding.
func (s *Stock) OperatingCashFlowPerShare(asOf time.Time, quarterly bool) (float64, error) {
	ocf, err := s.OperatingCashFlow(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	return s.perShare(asOf, quarterly, ocf)
}

// CostOfCapital returns the industry cost of capital for the company as of
// the query date's calendar year.
func (s *Stock) CostOfCapital(asOf time.Time) (float64, error) {
	return s.ref.CostOfCapital(s.ticker, asOf)
}
