package statement

import (
	"github.com/boddenberg/moneta-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// Summarize totals income (positive amounts), expenses (absolute value of
// negative amounts), net and count. Sums are accumulated in decimal so the
// stored summary does not carry float drift.
func Summarize(txs []domain.Transaction) domain.StatementSummary {
	income := decimal.Zero
	expenses := decimal.Zero
	net := decimal.Zero

	for _, tx := range txs {
		amount := decimal.NewFromFloat(tx.Amount)
		net = net.Add(amount)
		switch {
		case amount.IsPositive():
			income = income.Add(amount)
		case amount.IsNegative():
			expenses = expenses.Add(amount.Abs())
		}
	}

	return domain.StatementSummary{
		TotalIncome:      income.InexactFloat64(),
		TotalExpenses:    expenses.InexactFloat64(),
		NetAmount:        net.InexactFloat64(),
		TransactionCount: len(txs),
	}
}
