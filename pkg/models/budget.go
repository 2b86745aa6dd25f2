package models

// BudgetPeriod defines the time window for a budget policy.
type BudgetPeriod string

const (
	BudgetDaily   BudgetPeriod = "daily"
	BudgetMonthly BudgetPeriod = "monthly"
)

// BudgetPolicy caps cloud spend in USD per period. When a policy is
// exhausted the router pins queries to the local tier instead of failing
// them.
type BudgetPolicy struct {
	MaxUSD float64      `json:"max_usd" yaml:"max_usd"`
	Period BudgetPeriod `json:"period" yaml:"period"`
}

// BudgetStatus shows current spend against a policy.
type BudgetStatus struct {
	Policy       BudgetPolicy `json:"policy"`
	SpentUSD     float64      `json:"spent_usd"`
	RemainingUSD float64      `json:"remaining_usd"`
}
