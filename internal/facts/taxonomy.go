package facts

// Canonical metric names extracted during normalization. Derived metrics
// (EBITDA, working capital, free cash flow) are computed at query time from
// these; only as-reported line items appear here.
const (
	SharesOutstanding         = "shares_outstanding"
	NetIncome                 = "net_income"
	PretaxIncome              = "pretax_income"
	InterestExpense           = "interest_expense"
	TaxExpense                = "tax_expense"
	Revenue                   = "revenue"
	CostOfRevenue             = "cost_of_revenue"
	OperatingExpenses         = "operating_expenses"
	Depreciation              = "depreciation"
	Amortization              = "amortization"
	DepreciationAmortization  = "depreciation_amortization"
	CurrentDebt               = "current_debt"
	NoncurrentDebt            = "noncurrent_debt"
	TotalDebt                 = "total_debt"
	PPEGross                  = "ppe_gross"
	Capex                     = "capex"
	Cash                      = "cash"
	MarketableSecurities      = "marketable_securities"
	AccountsReceivable        = "accounts_receivable"
	Inventory                 = "inventory"
	OtherCurrentAssets        = "other_current_assets"
	CurrentAssets             = "current_assets"
	TotalAssets               = "total_assets"
	AccountsPayable           = "accounts_payable"
	TaxesPayable              = "taxes_payable"
	AccruedSalaries           = "accrued_salaries"
	InterestPayable           = "interest_payable"
	DeferredRevenue           = "deferred_revenue"
	AccruedLiabilities        = "accrued_liabilities"
	OtherCurrentLiabilities   = "other_current_liabilities"
	CurrentLiabilities        = "current_liabilities"
	TotalLiabilities          = "total_liabilities"
	LiabilitiesAndEquity      = "liabilities_and_equity"
	StockholdersEquity        = "stockholders_equity"
	PreferredStock            = "preferred_stock"
	PreferredDividends        = "preferred_dividends"
	Dividends                 = "dividends"
	ShareRepurchases          = "share_repurchases"
	ShareIssuances            = "share_issuances"
	DebtRepayment             = "debt_repayment"
	DebtIssuance              = "debt_issuance"
	EBIT                      = "ebit"
	OperatingCashFlowReported = "operating_cash_flow"
)

// Chain maps one canonical metric to the XBRL tags that report it, in
// precedence order. When several tags report the same period, the earliest
// tag in the chain wins.
type Chain struct {
	Metric string
	Unit   string
	Tags   []string
}

// Taxonomy is the fixed tag lookup used by the Filing Normalizer. Tag lists
// follow US-GAAP usage across filers; broadest and most standard tags first.
var Taxonomy = []Chain{
	{SharesOutstanding, "shares", []string{
		"EntityCommonStockSharesOutstanding",
		"WeightedAverageNumberOfSharesOutstandingBasic",
		"CommonStockSharesOutstanding",
	}},
	{NetIncome, "USD", []string{
		"NetIncomeLoss",
		"ProfitLoss",
		"NetIncomeLossAvailableToCommonStockholdersBasic",
		"IncomeLossFromContinuingOperations",
	}},
	{PretaxIncome, "USD", []string{
		"IncomeLossFromContinuingOperationsBeforeIncomeTaxesExtraordinaryItemsNoncontrollingInterest",
		"IncomeLossFromContinuingOperationsBeforeIncomeTaxesMinorityInterestAndIncomeLossFromEquityMethodInvestments",
	}},
	{InterestExpense, "USD", []string{
		"InterestExpense",
		"InterestExpenseDebt",
		"InterestAndDebtExpense",
		"InterestExpenseBorrowings",
		"InterestIncomeExpenseNonoperatingNet",
		"InterestCostsIncurred",
		"InterestIncomeExpenseNet",
		"InterestPaidNet",
		"InterestPaid",
	}},
	{TaxExpense, "USD", []string{
		"IncomeTaxExpenseBenefit",
		"IncomeTaxExpenseBenefitContinuingOperations",
		"CurrentIncomeTaxExpenseBenefit",
	}},
	{Revenue, "USD", []string{
		"Revenues",
		"SalesRevenueNet",
		"SalesRevenueGoodsNet",
		"SalesRevenueServicesNet",
		"SalesRevenueNetOfInterestExpense",
		"RevenueFromContractWithCustomerExcludingAssessedTax",
		"RevenueFromContractWithCustomerIncludingAssessedTax",
		"RevenuesNetOfInterestExpense",
		"OperatingLeasesIncomeStatementLeaseRevenue",
		"OperatingLeaseLeaseIncome",
		"RegulatedAndUnregulatedOperatingRevenue",
	}},
	{CostOfRevenue, "USD", []string{
		"CostOfRevenue",
		"CostOfGoodsAndServicesSold",
		"CostOfGoodsSold",
		"CostOfServices",
	}},
	{OperatingExpenses, "USD", []string{
		"OperatingExpenses",
		"OperatingCostsAndExpenses",
	}},
	{Depreciation, "USD", []string{"Depreciation"}},
	{Amortization, "USD", []string{
		"Amortization",
		"AmortizationOfIntangibleAssets",
		"AmortizationOfDebtDiscountPremium",
	}},
	{DepreciationAmortization, "USD", []string{
		"DepreciationAndAmortization",
		"DepreciationDepletionAndAmortization",
		"DepreciationAmortizationAndAccretionNet",
		"OtherDepreciationAndAmortization",
	}},
	{CurrentDebt, "USD", []string{
		"LongTermDebtCurrent",
		"LongTermDebtAndCapitalLeaseObligationsCurrent",
		"DebtCurrent",
		"LongTermDebtMaturitiesRepaymentsOfPrincipalInNextTwelveMonths",
		"LinesOfCreditCurrent",
		"LineOfCredit",
		"OperatingLeaseLiabilityCurrent",
	}},
	{NoncurrentDebt, "USD", []string{
		"LongTermDebtNoncurrent",
		"ConvertibleLongTermNotesPayable",
		"OperatingLeaseLiabilityNoncurrent",
		"UnsecuredLongTermDebt",
		"LongTermDebtAndCapitalLeaseObligations",
	}},
	{TotalDebt, "USD", []string{
		"LongTermDebt",
		"DebtAndCapitalLeaseObligations",
	}},
	{PPEGross, "USD", []string{"PropertyPlantAndEquipmentGross"}},
	{Capex, "USD", []string{
		"CapitalExpenditures",
		"PaymentsToAcquirePropertyPlantAndEquipment",
		"PaymentsToAcquireProductiveAssets",
	}},
	{Cash, "USD", []string{
		"Cash",
		"CashAndCashEquivalentsAtCarryingValue",
		"CashCashEquivalentsRestrictedCashAndRestrictedCashEquivalentsIncludingDisposalGroupAndDiscontinuedOperations",
		"CashCashEquivalentsRestrictedCashAndRestrictedCashEquivalents",
	}},
	{MarketableSecurities, "USD", []string{
		"MarketableSecurities",
		"MarketableSecuritiesCurrent",
	}},
	{AccountsReceivable, "USD", []string{"AccountsReceivableNetCurrent"}},
	{Inventory, "USD", []string{"InventoryNet", "InventoryNetCurrent"}},
	{OtherCurrentAssets, "USD", []string{
		"OtherAssetsCurrent",
		"PrepaidExpenseAndOtherAssetsCurrent",
	}},
	{CurrentAssets, "USD", []string{"AssetsCurrent"}},
	{TotalAssets, "USD", []string{"Assets"}},
	{AccountsPayable, "USD", []string{
		"AccountsPayableCurrent",
		"OtherAccountsPayableAndAccruedLiabilities",
		"AccountsPayableTradeCurrent",
		"AccountsPayableTradeCurrentAndNoncurrent",
	}},
	{TaxesPayable, "USD", []string{
		"TaxesPayableCurrent",
		"TaxesPayableCurrentAndNoncurrent",
		"AccruedIncomeTaxesCurrent",
		"AccruedIncomeTaxes",
		"AccrualForTaxesOtherThanIncomeTaxesCurrent",
	}},
	{AccruedSalaries, "USD", []string{
		"AccruedSalariesAndWagesCurrent",
		"AccruedSalariesCurrent",
	}},
	{InterestPayable, "USD", []string{
		"InterestPayableCurrent",
		"InterestPayableCurrentAndNoncurrent",
	}},
	{DeferredRevenue, "USD", []string{
		"DeferredRevenueCurrent",
		"ContractWithCustomerLiability",
		"ContractWithCustomerLiabilityCurrent",
	}},
	{AccruedLiabilities, "USD", []string{
		"AccruedLiabilitiesCurrent",
		"AccruedInsuranceCurrent",
		"AccruedLiabilitiesCurrentAndNoncurrent",
	}},
	{OtherCurrentLiabilities, "USD", []string{
		"OtherLiabilitiesCurrent",
		"OtherAccruedLiabilitiesCurrent",
		"LiabilitiesOfDisposalGroupIncludingDiscontinuedOperationCurrent",
		"DerivativeLiabilitiesCurrent",
		"LiabilitiesOfDisposalGroupIncludingDiscontinuedOperation",
	}},
	{CurrentLiabilities, "USD", []string{"LiabilitiesCurrent"}},
	{TotalLiabilities, "USD", []string{"Liabilities"}},
	{LiabilitiesAndEquity, "USD", []string{"LiabilitiesAndStockholdersEquity"}},
	{StockholdersEquity, "USD", []string{
		"StockholdersEquity",
		"StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest",
	}},
	{PreferredStock, "USD", []string{
		"PreferredStockValue",
		"PreferredStockValueIncludingPortionAttributableToNoncontrollingInterest",
	}},
	{PreferredDividends, "USD", []string{"DividendsPreferredStock"}},
	{Dividends, "USD", []string{
		"DividendsCommonStockCash",
		"DividendsCash",
		"PaymentsOfDividends",
		"PaymentsOfDividendsCommonStock",
	}},
	{ShareRepurchases, "USD", []string{
		"PaymentsForRepurchaseOfCommonStock",
		"PaymentsForRepurchaseOfEquity",
		"StockRepurchasedDuringPeriodValue",
		"PaymentsForRepurchaseOfRedeemableNoncontrollingInterest",
	}},
	{ShareIssuances, "USD", []string{
		"ProceedsFromIssuanceOfCommonStock",
		"ProceedsFromIssuanceOrSaleOfEquity",
		"ProceedsFromIssuanceOfSharesUnderIncentiveAndShareBasedCompensationPlansIncludingStockOptions",
	}},
	{DebtRepayment, "USD", []string{"RepaymentsOfLongTermDebt"}},
	{DebtIssuance, "USD", []string{
		"ProceedsFromIssuanceOfLongTermDebt",
		"ProceedsFromIssuanceOfSeniorLongTermDebt",
	}},
	{EBIT, "USD", []string{"OperatingIncomeLoss"}},
	{OperatingCashFlowReported, "USD", []string{
		"NetCashProvidedByUsedInOperatingActivities",
		"NetCashProvidedByOperatingActivities",
	}},
}

type tagMapping struct {
	metric string
	unit   string
	rank   int
}

// tagIndex inverts Taxonomy for O(1) tag lookup. A tag maps to exactly one
// canonical metric; the first chain that claims a tag keeps it.
var tagIndex = buildTagIndex()

func buildTagIndex() map[string]tagMapping {
	idx := make(map[string]tagMapping)
	for _, c := range Taxonomy {
		for rank, tag := range c.Tags {
			if _, exists := idx[tag]; exists {
				continue
			}
			idx[tag] = tagMapping{metric: c.Metric, unit: c.Unit, rank: rank}
		}
	}
	return idx
}
