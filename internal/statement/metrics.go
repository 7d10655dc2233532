package statement

import (
	"time"

	"github.com/boddenberg/moneta-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// FixedCostCategories are the category names counted as fixed costs.
var FixedCostCategories = []string{"Software/SaaS", "Hosting"}

// TaxReserveRate is the share of business income set aside for taxes.
var TaxReserveRate = decimal.NewFromFloat(0.30)

// Metrics derives the dashboard figures from a business's live ledger.
// Business metrics cover business-type transactions dated on or after the
// first day of now's month; SaaS metrics cover all business-type
// transactions.
func Metrics(ledger []domain.Transaction, categories []domain.Category, now time.Time) domain.DashboardMetrics {
	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	fixed := make(map[string]bool)
	for _, c := range categories {
		for _, name := range FixedCostCategories {
			if c.Name == name {
				fixed[c.ID] = true
			}
		}
	}

	var (
		mtdIncome, mtdExpenses = decimal.Zero, decimal.Zero
		mrr, totalIncome       = decimal.Zero, decimal.Zero
		fixedCosts             = decimal.Zero
	)

	for _, tx := range ledger {
		if tx.Type != domain.OwnershipBusiness {
			continue
		}
		amount := decimal.NewFromFloat(tx.Amount)

		if amount.IsPositive() {
			totalIncome = totalIncome.Add(amount)
			if tx.SubscriptionType == domain.SubscriptionRecurring {
				mrr = mrr.Add(amount)
			}
		}
		if amount.IsNegative() && fixed[tx.CategoryID] {
			fixedCosts = fixedCosts.Add(amount.Abs())
		}

		if d, ok := parseTxDate(tx.Date); ok && !d.Before(monthStart) {
			switch {
			case amount.IsPositive():
				mtdIncome = mtdIncome.Add(amount)
			case amount.IsNegative():
				mtdExpenses = mtdExpenses.Add(amount.Abs())
			}
		}
	}

	burnVsRevenue := decimal.Zero
	if fixedCosts.IsPositive() && mrr.IsPositive() {
		burnVsRevenue = fixedCosts.Div(mrr).Mul(decimal.NewFromInt(100))
	}

	return domain.DashboardMetrics{
		Business: domain.BusinessMetrics{
			Income:   mtdIncome.InexactFloat64(),
			Expenses: mtdExpenses.InexactFloat64(),
			Net:      mtdIncome.Sub(mtdExpenses).InexactFloat64(),
		},
		SaaS: domain.SaaSMetrics{
			MRR:               mrr.InexactFloat64(),
			TotalIncome:       totalIncome.InexactFloat64(),
			FixedCosts:        fixedCosts.InexactFloat64(),
			TaxReserve:        totalIncome.Mul(TaxReserveRate).InexactFloat64(),
			MonthlyBurnRate:   fixedCosts.InexactFloat64(),
			BurnRateVsRevenue: burnVsRevenue.InexactFloat64(),
		},
	}
}
