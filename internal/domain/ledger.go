package domain

// ============================================================
// Businesses
// ============================================================

// Business is the scope every ledger operation is filtered by.
type Business struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Currency  string            `json:"currency"`           // ISO 4217, e.g. "USD"
	Timezone  string            `json:"timezone,omitempty"` // IANA, e.g. "America/Los_Angeles"
	CreatedAt int64             `json:"createdAt"`
	Settings  *BusinessSettings `json:"settings,omitempty"`
}

// BusinessSettings holds optional per-business preferences.
type BusinessSettings struct {
	DefaultAccountID string   `json:"defaultAccountId,omitempty"`
	StartingBalance  *float64 `json:"startingBalance,omitempty"`
}

// ============================================================
// Reference data
// ============================================================

// Ownership categories shared by accounts and transactions.
const (
	OwnershipPersonal = "personal"
	OwnershipBusiness = "business"
)

// Account is a money container referenced by transactions.
// Only IsActive may change after creation.
type Account struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`     // checking, credit_card, savings...
	Category string `json:"category"` // personal | business
	IsActive bool   `json:"isActive"`
}

// Category classifies a transaction as income or expense.
type Category struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"` // income | expense
	BusinessRelevant bool   `json:"businessRelevant"`
}

// ============================================================
// Transactions (live ledger)
// ============================================================

// Subscription markers.
const (
	SubscriptionOneTime   = "one-time"
	SubscriptionRecurring = "recurring"
)

// Transaction is a single ledger entry. Amount is signed:
// positive = income, negative = expense.
type Transaction struct {
	ID               string  `json:"id"`
	AccountID        string  `json:"accountId"`
	BusinessID       string  `json:"businessId,omitempty"`
	RecurringID      string  `json:"recurringId,omitempty"`
	Date             string  `json:"date"` // YYYY-MM-DD
	Amount           float64 `json:"amount"`
	CategoryID       string  `json:"categoryId"`
	Description      string  `json:"description"`
	Notes            string  `json:"notes,omitempty"`
	Type             string  `json:"type"` // personal | business
	SubscriptionType string  `json:"subscriptionType,omitempty"`
	BusinessCategory string  `json:"businessCategory,omitempty"`
	CreatedAt        int64   `json:"createdAt,omitempty"`
}

// BusinessMetrics is the month-to-date business summary.
type BusinessMetrics struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
}

// SaaSMetrics summarises recurring revenue against fixed costs.
type SaaSMetrics struct {
	MRR               float64 `json:"mrr"`
	TotalIncome       float64 `json:"totalIncome"`
	FixedCosts        float64 `json:"fixedCosts"`
	TaxReserve        float64 `json:"taxReserve"`
	MonthlyBurnRate   float64 `json:"monthlyBurnRate"`
	BurnRateVsRevenue float64 `json:"burnRateVsRevenue"`
}

// DashboardMetrics is returned by GET /v1/businesses/{businessId}/metrics.
type DashboardMetrics struct {
	Business BusinessMetrics `json:"business"`
	SaaS     SaaSMetrics     `json:"saas"`
}
