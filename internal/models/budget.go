package models

import "time"

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodWeekly  BudgetPeriod = "weekly"
)

// Budget represents a time-bounded budget in one accounting space.
// TotalBudget and the per-category Budgeted amounts are running totals
// maintained by the ledger applier; they are never written directly by
// user edits.
type Budget struct {
	Base
	UserID      string       `gorm:"type:uuid;not null;index" json:"user_id"`
	Space       Space        `gorm:"index" json:"space"`
	Name        string       `gorm:"not null" json:"name"`
	TotalBudget int64        `gorm:"type:bigint;not null;default:0" json:"total_budget"`
	Period      BudgetPeriod `gorm:"not null" json:"period"`
	StartDate   time.Time    `gorm:"type:date;not null" json:"start_date"`
	EndDate     *time.Time   `gorm:"type:date" json:"end_date,omitempty"`

	// Relationships
	Categories  []BudgetCategory `gorm:"foreignKey:BudgetID" json:"categories,omitempty"`
	MiniBudgets []MiniBudget     `gorm:"foreignKey:BudgetID" json:"mini_budgets,omitempty"`
}

// BudgetCategory is one allocation bucket within a budget. Bucket names
// are an open string set; the usual ones are Essential, Savings,
// Free Spending, Investments, Miscellaneous and Debt Financing.
type BudgetCategory struct {
	Base
	BudgetID string `gorm:"type:uuid;not null;uniqueIndex:idx_budget_category_name" json:"budget_id"`
	Name     string `gorm:"not null;uniqueIndex:idx_budget_category_name" json:"name"`
	Budgeted int64  `gorm:"type:bigint;not null;default:0" json:"budgeted"`
	Spent    int64  `gorm:"type:bigint;not null;default:0" json:"spent"`
}
