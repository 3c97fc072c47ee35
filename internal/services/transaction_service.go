package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "centavo/internal/errors"
	"centavo/internal/models"
	"centavo/internal/pagination"
)

// transactionService orchestrates the transaction lifecycle, issuing
// ledger adjustments before persisting the transaction record itself.
type transactionService struct {
	db     *gorm.DB
	ledger LedgerApplier
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, ledger LedgerApplier) TransactionServicer {
	return &transactionService{db: db, ledger: ledger}
}

// CreateTransaction creates a transaction. When it is income linked to a
// budget, the contribution and the insert commit in one database
// transaction: if the budget write fails, no transaction row is recorded.
func (s *transactionService) CreateTransaction(userID string, space models.Space, input CreateTransactionInput) (*models.Transaction, error) {
	var result *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.CreateTransactionInTx(tx, userID, space, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateTransactionInTx runs the create path on an existing transaction
// handle so callers (the import reconciler) can compose it with their own
// writes atomically.
func (s *transactionService) CreateTransactionInTx(tx *gorm.DB, userID string, space models.Space, input CreateTransactionInput) (*models.Transaction, error) {
	if input.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "amount must be greater than zero")
	}
	if input.Type != models.TransactionTypeIncome && input.Type != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}

	if input.OccurredAt.IsZero() {
		input.OccurredAt = time.Now()
	}

	// Budget-scoped metadata cannot exist without a budget.
	if input.BudgetID == nil {
		input.BudgetCategory = nil
		input.MiniBudgetID = nil
	}

	if input.Type == models.TransactionTypeIncome && input.BudgetID != nil {
		if err := s.ledger.ApplyContribution(tx, space, userID, *input.BudgetID, input.Amount, input.BudgetCategory); err != nil {
			return nil, err
		}
	}

	transaction := &models.Transaction{
		UserID:         userID,
		Space:          space.Normalize(),
		Type:           input.Type,
		Amount:         input.Amount,
		Category:       input.Category,
		Description:    input.Description,
		BudgetID:       input.BudgetID,
		BudgetCategory: input.BudgetCategory,
		MiniBudgetID:   input.MiniBudgetID,
		OccurredAt:     input.OccurredAt,
	}

	if err := tx.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return transaction, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's
// transactions in a space.
func (s *transactionService) GetUserTransactions(userID string, space models.Space, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := scopeSpace(s.db.Model(&models.Transaction{}).Where("user_id = ?", userID), space)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("occurred_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("occurred_at >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("occurred_at <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.BudgetID != nil {
		q = q.Where("budget_id = ?", *f.BudgetID)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// getTransactionInSpace fetches a transaction for mutation. The space
// selector scopes which transactions the operation considers, and the
// ledger writes are scoped the same way; a mismatched space must read as
// not found rather than mutate a row whose reversal would no-op against
// a budget in another partition.
func (s *transactionService) getTransactionInSpace(userID string, space models.Space, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := scopeSpace(s.db.Where("id = ? AND user_id = ?", transactionID, userID), space).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// ledgerState is the slice of a transaction the ledger cares about.
type ledgerState struct {
	Type           models.TransactionType
	Amount         int64
	BudgetID       *string
	BudgetCategory *string
}

func (l ledgerState) linked() bool {
	return l.Type == models.TransactionTypeIncome && l.BudgetID != nil
}

// PatchTransaction applies a partial update. The ledger side effects are
// derived from the (previous, next) state pair: a transaction staying on
// the same budget gets a single signed rebalance; a budget change (or a
// type change in or out of income) gets the full reversal and/or full
// application. Exactly one of the two shapes fires. The patch itself is
// always persisted verbatim afterwards, in the same database transaction.
func (s *transactionService) PatchTransaction(userID string, space models.Space, transactionID string, input PatchTransactionInput) (*models.Transaction, error) {
	existing, err := s.getTransactionInSpace(userID, space, transactionID)
	if err != nil {
		return nil, err
	}

	prev := ledgerState{
		Type:           existing.Type,
		Amount:         existing.Amount,
		BudgetID:       existing.BudgetID,
		BudgetCategory: existing.BudgetCategory,
	}
	next, updates, err := mergePatch(existing, input)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if prev.linked() && next.linked() && *prev.BudgetID == *next.BudgetID {
			deltaTotal := next.Amount - prev.Amount
			categoryDeltas := make(map[string]int64)
			if equalPtr(prev.BudgetCategory, next.BudgetCategory) {
				if prev.BudgetCategory != nil {
					categoryDeltas[*prev.BudgetCategory] += deltaTotal
				}
			} else {
				// Relabel moves the historical contribution, so the
				// previous amount changes buckets, not the new one.
				if prev.BudgetCategory != nil {
					categoryDeltas[*prev.BudgetCategory] -= prev.Amount
				}
				if next.BudgetCategory != nil {
					categoryDeltas[*next.BudgetCategory] += prev.Amount
				}
			}
			if err := s.ledger.RebalanceContribution(tx, space, userID, *prev.BudgetID, deltaTotal, categoryDeltas); err != nil {
				return err
			}
		} else {
			if prev.linked() {
				if err := s.ledger.ReverseContribution(tx, space, userID, *prev.BudgetID, prev.Amount, prev.BudgetCategory); err != nil {
					return err
				}
			}
			if next.linked() {
				if err := s.ledger.ApplyContribution(tx, space, userID, *next.BudgetID, next.Amount, next.BudgetCategory); err != nil {
					return err
				}
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(existing).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return existing, nil
}

// mergePatch computes the transaction's next ledger state and the column
// updates the patch requests. Nil input fields leave columns untouched;
// the Clear flags null references out. Dropping the budget also drops the
// budget-scoped metadata.
func mergePatch(existing *models.Transaction, input PatchTransactionInput) (ledgerState, map[string]interface{}, error) {
	next := ledgerState{
		Type:           existing.Type,
		Amount:         existing.Amount,
		BudgetID:       existing.BudgetID,
		BudgetCategory: existing.BudgetCategory,
	}
	updates := make(map[string]interface{})

	if input.Type != nil {
		if *input.Type != models.TransactionTypeIncome && *input.Type != models.TransactionTypeExpense {
			return next, nil, apperrors.ErrInvalidTransactionType
		}
		next.Type = *input.Type
		updates["type"] = *input.Type
	}
	if input.Amount != nil {
		if *input.Amount <= 0 {
			return next, nil, apperrors.WithMessage(apperrors.ErrValidation, "amount must be greater than zero")
		}
		next.Amount = *input.Amount
		updates["amount"] = *input.Amount
	}
	if input.Category != nil {
		updates["category"] = *input.Category
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.OccurredAt != nil {
		updates["occurred_at"] = *input.OccurredAt
	}

	switch {
	case input.ClearBudgetID:
		next.BudgetID = nil
		updates["budget_id"] = nil
	case input.BudgetID != nil:
		next.BudgetID = input.BudgetID
		updates["budget_id"] = *input.BudgetID
	}

	switch {
	case input.ClearBudgetCategory:
		next.BudgetCategory = nil
		updates["budget_category"] = nil
	case input.BudgetCategory != nil:
		next.BudgetCategory = input.BudgetCategory
		updates["budget_category"] = *input.BudgetCategory
	}

	switch {
	case input.ClearMiniBudgetID:
		updates["mini_budget_id"] = nil
	case input.MiniBudgetID != nil:
		updates["mini_budget_id"] = *input.MiniBudgetID
	}

	if next.BudgetID == nil {
		next.BudgetCategory = nil
		if existing.BudgetCategory != nil || input.BudgetCategory != nil {
			updates["budget_category"] = nil
		}
		if existing.MiniBudgetID != nil || input.MiniBudgetID != nil {
			updates["mini_budget_id"] = nil
		}
	}

	return next, updates, nil
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// DeleteTransaction removes a transaction, reversing its ledger
// contribution first so a failed reversal aborts the delete.
func (s *transactionService) DeleteTransaction(userID string, space models.Space, transactionID string) error {
	transaction, err := s.getTransactionInSpace(userID, space, transactionID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if transaction.Type == models.TransactionTypeIncome && transaction.BudgetID != nil {
			if err := s.ledger.ReverseContribution(tx, space, userID, *transaction.BudgetID, transaction.Amount, transaction.BudgetCategory); err != nil {
				return err
			}
		}

		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
