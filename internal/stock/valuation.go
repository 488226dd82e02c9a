package stock

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fundament-io/fundament/internal/facts"
	"github.com/fundament-io/fundament/internal/series"
)

// Price returns the daily close as of the query date, walking back over
// non-trading days.
func (s *Stock) Price(ctx context.Context, asOf time.Time) (float64, error) {
	if s.market == nil {
		return 0, eris.New("no market data client configured")
	}
	return s.market.Price(ctx, s.ticker, asOf)
}

// RSI returns the 14-day relative strength index as of the query date.
func (s *Stock) RSI(ctx context.Context, asOf time.Time) (float64, error) {
	if s.market == nil {
		return 0, eris.New("no market data client configured")
	}
	return s.market.RSI(ctx, s.ticker, asOf)
}

// MarketCap returns price times shares outstanding.
func (s *Stock) MarketCap(ctx context.Context, asOf time.Time, quarterly bool) (float64, error) {
	price, err := s.Price(ctx, asOf)
	if err != nil {
		return 0, err
	}
	shares, err := s.Metric(facts.SharesOutstanding, asOf, quarterly)
	if err != nil {
		return 0, err
	}
	return price * shares, nil
}

// EnterpriseValue returns market cap plus total debt minus cash and
// marketable securities.
func (s *Stock) EnterpriseValue(ctx context.Context, asOf time.Time, quarterly bool) (float64, error) {
	mc, err := s.MarketCap(ctx, asOf, quarterly)
	if err != nil {
		return 0, err
	}
	debt, err := s.TotalDebt(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	cash, err := s.sumOf(asOf, quarterly, facts.Cash, facts.MarketableSecurities)
	if err != nil && !eris.Is(err, series.ErrMetricNotFound) {
		return 0, err
	}
	return mc + debt - cash, nil
}

// ratio divides price by a per-share figure, guarding the denominator.
func ratio(price, perShare float64, what string) (float64, error) {
	if perShare == 0 {
		return 0, eris.Errorf("zero %s", what)
	}
	return price / perShare, nil
}

// PriceToEarnings returns price over earnings per share.
func (s *Stock) PriceToEarnings(ctx context.Context, asOf time.Time, quarterly bool) (float64, error) {
	price, err := s.Price(ctx, asOf)
	if err != nil {
		return 0, err
	}
	eps, err := s.EarningsPerShare(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	return ratio(price, eps, "earnings per share")
}

// PriceToBook returns price over book value per share.
func (s *Stock) PriceToBook(ctx context.Context, asOf time.Time, quarterly bool) (float64, error) {
	price, err := s.Price(ctx, asOf)
	if err != nil {
		return 0, err
	}
	bvps, err := s.BookValuePerShare(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	return ratio(price, bvps, "book value per share")
}

// PriceToSales returns price over sales per share.
func (s *Stock) PriceToSales(ctx context.Context, asOf time.Time, quarterly bool) (float64, error) {
	price, err := s.Price(ctx, asOf)
	if err != nil {
		return 0, err
	}
	sps, err := s.SalesPerShare(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	return ratio(price, sps, "sales per share")
}

// PriceToCashFlow returns price over operating cash flow per share.
func (s *Stock) PriceToCashFlow(ctx context.Context, asOf time.Time, quarterly bool) (float64, error) {
	price, err := s.Price(ctx, asOf)
	if err != nil {
		return 0, err
	}
	ocfps, err := s.OperatingCashFlowPerShare(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	return ratio(price, ocfps, "operating cash flow per share")
}

// EVToEBITDA returns enterprise value over EBITDA.
func (s *Stock) EVToEBITDA(ctx context.Context, asOf time.Time, quarterly bool) (float64, error) {
	ev, err := s.EnterpriseValue(ctx, asOf, quarterly)
	if err != nil {
		return 0, err
	}
	ebitda, err := s.EBITDA(asOf, quarterly)
	if err != nil {
		return 0, err
	}
	return ratio(ev, ebitda, "ebitda")
}

// ShareholderYield returns dividends plus net share repurchases over market
// cap. Missing components count as zero; issuances offset repurchases.
func (s *Stock) ShareholderYield(ctx context.Context, asOf time.Time, quarterly bool) (float64, error) {
	mc, err := s.MarketCap(ctx, asOf, quarterly)
	if err != nil {
		return 0, err
	}
	if mc == 0 {
		return 0, eris.Errorf("%s: zero market cap", s.ticker)
	}

	component := func(metric string) (float64, error) {
		v, err := s.Metric(metric, asOf, quarterly)
		if err != nil {
			if eris.Is(err, series.ErrMetricNotFound) {
				return 0, nil
			}
			return 0, err
		}
		return v, nil
	}

	dividends, err := component(facts.Dividends)
	if err != nil {
		return 0, err
	}
	repurchases, err := component(facts.ShareRepurchases)
	if err != nil {
		return 0, err
	}
	issuances, err := component(facts.ShareIssuances)
	if err != nil {
		return 0, err
	}

	return (dividends + repurchases - issuances) / mc, nil
}
