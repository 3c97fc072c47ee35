package bankfeed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"centavo/internal/models"
)

// TransactionEvent is the wire format banks deliver on the feed queue.
// The amount is a decimal string in major units ("45.00"); conversion to
// minor units happens here so nothing downstream ever touches floats.
type TransactionEvent struct {
	UserID     string    `json:"user_id"`
	Space      string    `json:"space"`
	AccountRef string    `json:"account_ref"`
	ExternalID string    `json:"external_id"`
	Amount     string    `json:"amount"`
	Direction  string    `json:"direction"`
	OccurredAt time.Time `json:"occurred_at"`
}

// TransactionEventFromJSON parses a feed delivery body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var event TransactionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// ToJSON converts the event to JSON bytes.
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// MinorUnits converts the decimal amount string to minor units (cents).
// Amounts with more than two fractional digits are rejected rather than
// rounded; a feed that sends sub-cent precision is misconfigured.
func (e *TransactionEvent) MinorUnits() (int64, error) {
	amount, err := decimal.NewFromString(e.Amount)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", e.Amount, err)
	}
	cents := amount.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount %q has sub-cent precision", e.Amount)
	}
	if !cents.IsPositive() {
		return 0, fmt.Errorf("amount %q must be positive", e.Amount)
	}
	return cents.IntPart(), nil
}

// Validate checks the fields that cannot be defaulted.
func (e *TransactionEvent) Validate() error {
	if e.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if e.ExternalID == "" {
		return fmt.Errorf("external_id is required")
	}
	d := models.Direction(e.Direction)
	if d != models.DirectionDebit && d != models.DirectionCredit {
		return fmt.Errorf("direction %q must be 'debit' or 'credit'", e.Direction)
	}
	if !models.Space(e.Space).Valid() {
		return fmt.Errorf("space %q must be 'personal' or 'business'", e.Space)
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("occurred_at is required")
	}
	return nil
}
