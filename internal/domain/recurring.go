package domain

// Frequency of a recurring rule.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
	FrequencyCustom  Frequency = "custom"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly, FrequencyCustom:
		return true
	}
	return false
}

// Recurring is a template that periodically produces ledger transactions.
//
// Amount is always a non-negative magnitude; IsExpense carries the sign.
// DayOfMonth and Weekday are advisory and are not consulted when computing
// the next occurrence. LastRunAt and NextRunAt are epoch milliseconds and
// are nil until the scheduler has run the rule at least once.
type Recurring struct {
	ID           string    `json:"id"`
	BusinessID   string    `json:"businessId,omitempty"`
	AccountID    string    `json:"accountId"`
	Amount       float64   `json:"amount"`
	CategoryID   string    `json:"categoryId"`
	Description  string    `json:"description,omitempty"`
	IsExpense    bool      `json:"isExpense,omitempty"`
	Frequency    Frequency `json:"frequency"`
	DayOfMonth   *int      `json:"dayOfMonth,omitempty"`
	Weekday      *int      `json:"weekday,omitempty"`
	IntervalDays *int      `json:"intervalDays,omitempty"`
	StartDate    string    `json:"startDate"`
	EndDate      string    `json:"endDate,omitempty"`
	Active       bool      `json:"active"`
	LastRunAt    *int64    `json:"lastRunAt,omitempty"`
	NextRunAt    *int64    `json:"nextRunAt,omitempty"`
}

// RunReport summarises one scheduler batch for a business.
type RunReport struct {
	BusinessID        string        `json:"businessId"`
	RulesProcessed    int           `json:"rulesProcessed"`
	RulesUpdated      int           `json:"rulesUpdated"`
	RulesDeactivated  int           `json:"rulesDeactivated"`
	Generated         []Transaction `json:"generated"`
	SkippedDuplicates int           `json:"skippedDuplicates"`
	Failures          []RunFailure  `json:"failures,omitempty"`
}

// RunFailure records a storage failure the scheduler recovered from.
type RunFailure struct {
	Stage  string `json:"stage"` // list_rules, update_rule, list_ledger, append
	RuleID string `json:"ruleId,omitempty"`
	Error  string `json:"error"`
}
