package statement

import (
	"sort"

	"github.com/boddenberg/moneta-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// BuildAnnual groups the business's monthly statements by year. Years are
// returned newest first and months within a year are sorted descending.
// The result is derived on every call and must not be cached.
func BuildAnnual(statements []domain.MonthlyStatement, businessID string) []domain.AnnualStatement {
	byYear := make(map[int][]domain.MonthlyStatement)
	for _, s := range statements {
		if s.BusinessID != businessID {
			continue
		}
		byYear[s.Year] = append(byYear[s.Year], s)
	}

	annual := make([]domain.AnnualStatement, 0, len(byYear))
	for year, months := range byYear {
		sort.SliceStable(months, func(i, j int) bool { return months[i].Month > months[j].Month })

		income, expenses, net := decimal.Zero, decimal.Zero, decimal.Zero
		count := 0
		for _, m := range months {
			income = income.Add(decimal.NewFromFloat(m.Summary.TotalIncome))
			expenses = expenses.Add(decimal.NewFromFloat(m.Summary.TotalExpenses))
			net = net.Add(decimal.NewFromFloat(m.Summary.NetAmount))
			count += m.Summary.TransactionCount
		}

		annual = append(annual, domain.AnnualStatement{
			Year:              year,
			MonthlyStatements: months,
			AnnualSummary: domain.AnnualSummary{
				TotalIncome:       income.InexactFloat64(),
				TotalExpenses:     expenses.InexactFloat64(),
				NetAmount:         net.InexactFloat64(),
				TotalTransactions: count,
			},
		})
	}

	sort.Slice(annual, func(i, j int) bool { return annual[i].Year > annual[j].Year })
	return annual
}
