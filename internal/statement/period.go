// Package statement holds the pure side of monthly archival: selecting a
// month out of the live ledger, summarising it, and rolling archived
// months up into annual views.
package statement

import (
	"fmt"
	"time"

	"github.com/boddenberg/moneta-ledger/internal/domain"
)

// ID returns the "{year}-{month}" identifier of a statement. Month is
// zero-based.
func ID(year, month int) string {
	return fmt.Sprintf("%d-%d", year, month)
}

// MonthName returns the English long month name for a zero-based month.
func MonthName(month int) string {
	return time.Month(month + 1).String()
}

// InMonth reports whether tx is dated within (year, zero-based month).
// Dates are interpreted in UTC; a date that fails to parse matches nothing.
func InMonth(tx domain.Transaction, year, month int) bool {
	t, ok := parseTxDate(tx.Date)
	if !ok {
		return false
	}
	return t.Year() == year && int(t.Month())-1 == month
}

// InBusiness reports whether tx belongs to the business context. An empty
// businessID only matches transactions that carry no business.
func InBusiness(tx domain.Transaction, businessID string) bool {
	return tx.BusinessID == businessID
}

// Select returns the transactions of ledger that belong to the business
// context and fall within (year, month), preserving ledger order.
func Select(ledger []domain.Transaction, businessID string, year, month int) []domain.Transaction {
	var out []domain.Transaction
	for _, tx := range ledger {
		if InBusiness(tx, businessID) && InMonth(tx, year, month) {
			out = append(out, tx)
		}
	}
	return out
}

// New builds the statement for a non-empty selection.
func New(businessID string, year, month int, txs []domain.Transaction, archivedAt time.Time) *domain.MonthlyStatement {
	frozen := make([]domain.Transaction, len(txs))
	copy(frozen, txs)

	return &domain.MonthlyStatement{
		ID:           ID(year, month),
		Year:         year,
		Month:        month,
		MonthName:    MonthName(month),
		BusinessID:   businessID,
		Transactions: frozen,
		Summary:      Summarize(frozen),
		ArchivedAt:   archivedAt.UnixMilli(),
	}
}

// IDs returns the identifiers of txs.
func IDs(txs []domain.Transaction) []string {
	ids := make([]string, 0, len(txs))
	for _, tx := range txs {
		ids = append(ids, tx.ID)
	}
	return ids
}

func parseTxDate(s string) (time.Time, bool) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
