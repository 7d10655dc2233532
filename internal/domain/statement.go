package domain

// ============================================================
// Statements
// ============================================================

// StatementSummary is computed once when a month is archived.
type StatementSummary struct {
	TotalIncome      float64 `json:"totalIncome"`
	TotalExpenses    float64 `json:"totalExpenses"`
	NetAmount        float64 `json:"netAmount"`
	TransactionCount int     `json:"transactionCount"`
}

// MonthlyStatement is an immutable snapshot of one archived month.
// Month is zero-based (0 = January). A statement is unique per
// (BusinessID, ID).
type MonthlyStatement struct {
	ID           string           `json:"id"` // "{year}-{month}"
	Year         int              `json:"year"`
	Month        int              `json:"month"`
	MonthName    string           `json:"monthName"`
	BusinessID   string           `json:"businessId,omitempty"`
	Transactions []Transaction    `json:"transactions"`
	Summary      StatementSummary `json:"summary"`
	ArchivedAt   int64            `json:"archivedAt"`
}

// AnnualSummary sums the monthly summaries of one year.
type AnnualSummary struct {
	TotalIncome       float64 `json:"totalIncome"`
	TotalExpenses     float64 `json:"totalExpenses"`
	NetAmount         float64 `json:"netAmount"`
	TotalTransactions int     `json:"totalTransactions"`
}

// AnnualStatement is a derived view and is never persisted.
type AnnualStatement struct {
	Year              int                `json:"year"`
	MonthlyStatements []MonthlyStatement `json:"monthlyStatements"`
	AnnualSummary     AnnualSummary      `json:"annualSummary"`
}
