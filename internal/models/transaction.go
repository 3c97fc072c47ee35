package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction represents a single income or expense entry. BudgetID is a
// soft reference: the budget may be deleted while the transaction lives
// on, and ledger operations against a missing budget are no-ops.
type Transaction struct {
	Base
	UserID         string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Space          Space           `gorm:"index" json:"space"`
	Type           TransactionType `gorm:"not null" json:"type"`
	Amount         int64           `gorm:"type:bigint;not null" json:"amount"`
	Category       string          `json:"category"`
	Description    string          `json:"description"`
	BudgetID       *string         `gorm:"type:uuid;index" json:"budget_id,omitempty"`
	BudgetCategory *string         `json:"budget_category,omitempty"`
	MiniBudgetID   *string         `gorm:"type:uuid" json:"mini_budget_id,omitempty"`
	OccurredAt     time.Time       `gorm:"not null;index" json:"occurred_at"`
}
