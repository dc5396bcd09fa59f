package entity

// BudgetState is a snapshot of the daily spend ledger. Date is the calendar
// day (YYYY-MM-DD) the spend applies to; SpentToday resets to zero exactly
// once when the day rolls over.
type BudgetState struct {
	DailyLimit     float64 `json:"daily_limit"`
	SpentToday     float64 `json:"spent_today"`
	Remaining      float64 `json:"remaining"`
	AlertThreshold float64 `json:"alert_threshold_fraction"`
	Date           string  `json:"date"`
}
