package models

import "time"

// Direction is the bank-side direction of an imported record.
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// ImportStatus is the reconciliation state of an imported record.
// Transitions are one-way: pending -> reconciled or pending -> ignored.
type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusReconciled ImportStatus = "reconciled"
	ImportStatusIgnored    ImportStatus = "ignored"
)

// ImportedTransaction is a bank-fed record awaiting reconciliation into
// the ledger. ExternalID is the bank's identifier and deduplicates feed
// deliveries per user.
type ImportedTransaction struct {
	Base
	UserID       string       `gorm:"type:uuid;not null;uniqueIndex:idx_import_user_external" json:"user_id"`
	Space        Space        `gorm:"index" json:"space"`
	AccountRef   string       `gorm:"not null" json:"account_ref"`
	ExternalID   string       `gorm:"not null;uniqueIndex:idx_import_user_external" json:"external_id"`
	Amount       int64        `gorm:"type:bigint;not null" json:"amount"`
	Direction    Direction    `gorm:"not null" json:"direction"`
	Status       ImportStatus `gorm:"not null;default:pending;index" json:"status"`
	OccurredAt   time.Time    `gorm:"not null" json:"occurred_at"`
	ReconciledAt *time.Time   `json:"reconciled_at,omitempty"`
}
