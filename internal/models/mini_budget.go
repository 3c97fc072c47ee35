package models

// MiniBudget is a sub-label inside a budget that transactions may
// additionally reference. It carries no ledger arithmetic of its own.
type MiniBudget struct {
	Base
	BudgetID string  `gorm:"type:uuid;not null;index" json:"budget_id"`
	Name     string  `gorm:"not null" json:"name"`
	Amount   int64   `gorm:"type:bigint;not null" json:"amount"`
	Category *string `json:"category,omitempty"`
}
