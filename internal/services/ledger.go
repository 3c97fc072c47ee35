package services

import (
	"gorm.io/gorm"

	apperrors "centavo/internal/errors"
	"centavo/internal/logger"
	"centavo/internal/models"
)

// ledgerApplier issues the per-field budget increments behind every
// transaction mutation. It is stateless; each method runs on the caller's
// *gorm.DB so a reverse+apply pair shares one database transaction.
type ledgerApplier struct{}

// NewLedgerApplier creates a new LedgerApplier.
func NewLedgerApplier() LedgerApplier {
	return ledgerApplier{}
}

// scopeSpace narrows a query to one accounting space. Business rows match
// exactly; personal additionally matches legacy rows stored without a
// space value.
func scopeSpace(db *gorm.DB, space models.Space) *gorm.DB {
	if space.Normalize() == models.SpaceBusiness {
		return db.Where("space = ?", models.SpaceBusiness)
	}
	return db.Where("(space IS NULL OR space = '' OR space = ?)", models.SpacePersonal)
}

// ApplyContribution adds an income transaction's amount to the budget's
// running total and, when a bucket is named, to that bucket's allocation.
func (ledgerApplier) ApplyContribution(tx *gorm.DB, space models.Space, userID, budgetID string, amount int64, budgetCategory *string) error {
	res := scopeSpace(tx.Model(&models.Budget{}), space).
		Where("id = ? AND user_id = ?", budgetID, userID).
		Update("total_budget", gorm.Expr("total_budget + ?", amount))
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		// Soft reference: the budget may have been removed since the
		// transaction was written.
		logger.Get().Warnw("ledger apply against missing budget",
			"budget_id", budgetID, "user_id", userID, "amount", amount)
		return nil
	}

	if budgetCategory != nil {
		return adjustCategory(tx, budgetID, *budgetCategory, amount)
	}
	return nil
}

// ReverseContribution undoes a contribution. The running total is clamped
// at zero so the aggregate never displays negative; bucket allocations are
// deliberately left unclamped, since unordered partial reversals can
// produce a transient negative allocation that a later increment corrects.
func (ledgerApplier) ReverseContribution(tx *gorm.DB, space models.Space, userID, budgetID string, amount int64, budgetCategory *string) error {
	res := scopeSpace(tx.Model(&models.Budget{}), space).
		Where("id = ? AND user_id = ?", budgetID, userID).
		Update("total_budget", gorm.Expr(
			"CASE WHEN total_budget - ? < 0 THEN 0 ELSE total_budget - ? END", amount, amount))
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		logger.Get().Warnw("ledger reverse against missing budget",
			"budget_id", budgetID, "user_id", userID, "amount", amount)
		return nil
	}

	if budgetCategory != nil {
		return adjustCategory(tx, budgetID, *budgetCategory, -amount)
	}
	return nil
}

// RebalanceContribution applies a single signed delta when a transaction
// stays on the same budget, avoiding a reverse+apply pair and the spurious
// floor-clamp it could trigger on a net-positive change. A negative delta
// still clamps the total at zero.
func (ledgerApplier) RebalanceContribution(tx *gorm.DB, space models.Space, userID, budgetID string, deltaTotal int64, categoryDeltas map[string]int64) error {
	res := scopeSpace(tx.Model(&models.Budget{}), space).
		Where("id = ? AND user_id = ?", budgetID, userID).
		Update("total_budget", gorm.Expr(
			"CASE WHEN total_budget + ? < 0 THEN 0 ELSE total_budget + ? END", deltaTotal, deltaTotal))
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		logger.Get().Warnw("ledger rebalance against missing budget",
			"budget_id", budgetID, "user_id", userID, "delta_total", deltaTotal)
		return nil
	}

	for name, delta := range categoryDeltas {
		if delta == 0 {
			continue
		}
		if err := adjustCategory(tx, budgetID, name, delta); err != nil {
			return err
		}
	}
	return nil
}

// adjustCategory increments a bucket's budgeted figure, creating the
// bucket row on first touch. Bucket names are an open set.
func adjustCategory(tx *gorm.DB, budgetID, name string, delta int64) error {
	res := tx.Model(&models.BudgetCategory{}).
		Where("budget_id = ? AND name = ?", budgetID, name).
		Update("budgeted", gorm.Expr("budgeted + ?", delta))
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	bucket := &models.BudgetCategory{BudgetID: budgetID, Name: name, Budgeted: delta}
	if err := tx.Create(bucket).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
