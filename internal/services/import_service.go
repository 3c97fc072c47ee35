package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "centavo/internal/errors"
	"centavo/internal/logger"
	"centavo/internal/models"
	"centavo/internal/pagination"
)

// Default transaction categories for reconciled records without an
// explicit override.
const (
	defaultIncomeCategory  = "Other income"
	defaultExpenseCategory = "Uncategorized"
)

// importService converts pending bank-imported records into ledger
// transactions. Each record is consumed at most once.
type importService struct {
	db           *gorm.DB
	budgets      BudgetServicer
	transactions TransactionServicer
}

// NewImportService creates a new ImportServicer.
func NewImportService(db *gorm.DB, budgets BudgetServicer, transactions TransactionServicer) ImportServicer {
	return &importService{db: db, budgets: budgets, transactions: transactions}
}

// Ingest records a bank-fed transaction as pending. Redelivered feed
// events are detected by (user, external ID) and returned as-is.
func (s *importService) Ingest(userID string, space models.Space, accountRef, externalID string, amount int64, direction models.Direction, occurredAt time.Time) (*models.ImportedTransaction, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "amount must be greater than zero")
	}
	if direction != models.DirectionDebit && direction != models.DirectionCredit {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "direction must be 'debit' or 'credit'")
	}
	if externalID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "external ID is required")
	}

	var existing models.ImportedTransaction
	err := s.db.Where("user_id = ? AND external_id = ?", userID, externalID).First(&existing).Error
	if err == nil {
		logger.Get().Infow("skipping duplicate feed delivery",
			"user_id", userID, "external_id", externalID)
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	imported := &models.ImportedTransaction{
		UserID:     userID,
		Space:      space.Normalize(),
		AccountRef: accountRef,
		ExternalID: externalID,
		Amount:     amount,
		Direction:  direction,
		Status:     models.ImportStatusPending,
		OccurredAt: occurredAt,
	}
	if err := s.db.Create(imported).Error; err != nil {
		// A concurrent delivery can slip past the duplicate check and
		// win the insert on (user_id, external_id); its row is the
		// record to return, not an error.
		var winner models.ImportedTransaction
		if lookupErr := s.db.Where("user_id = ? AND external_id = ?", userID, externalID).
			First(&winner).Error; lookupErr == nil {
			logger.Get().Infow("skipping duplicate feed delivery",
				"user_id", userID, "external_id", externalID)
			return &winner, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return imported, nil
}

// GetUserImports lists imported records in a space, optionally filtered
// by status.
func (s *importService) GetUserImports(userID string, space models.Space, page pagination.PageRequest, status *models.ImportStatus) (*pagination.PageResponse[models.ImportedTransaction], error) {
	page.Defaults()

	base := scopeSpace(s.db.Model(&models.ImportedTransaction{}).Where("user_id = ?", userID), space)
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var imports []models.ImportedTransaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("occurred_at DESC").
		Find(&imports).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(imports, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// getPendingImport fetches an imported record owned by the user in the
// space, failing with a conflict when it has already been settled.
func (s *importService) getPendingImport(userID string, space models.Space, importID string) (*models.ImportedTransaction, error) {
	var imported models.ImportedTransaction
	if err := scopeSpace(s.db.Where("id = ? AND user_id = ?", importID, userID), space).
		First(&imported).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrImportNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if imported.Status != models.ImportStatusPending {
		return nil, apperrors.ErrImportSettled
	}
	return &imported, nil
}

// Reconcile converts a pending imported record into a ledger transaction
// and marks the record reconciled, all in one database transaction. The
// derived transaction attaches to whichever budget's effective range
// covers the record's calendar day, newest start date first, unless the
// caller pins one explicitly.
func (s *importService) Reconcile(userID string, space models.Space, importID string, overrides ReconcileOverrides) (*models.Transaction, error) {
	imported, err := s.getPendingImport(userID, space, importID)
	if err != nil {
		return nil, err
	}

	txType := models.TransactionTypeExpense
	if imported.Direction == models.DirectionCredit {
		txType = models.TransactionTypeIncome
	}
	if overrides.Type != nil {
		txType = *overrides.Type
	}

	category := defaultExpenseCategory
	if txType == models.TransactionTypeIncome {
		category = defaultIncomeCategory
	}
	if overrides.Category != nil {
		category = *overrides.Category
	}

	description := "Imported from " + imported.AccountRef
	if overrides.Description != nil {
		description = *overrides.Description
	}

	var transaction *models.Transaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Budget resolution runs on the same transaction handle as the
		// writes that depend on it, so a budget removed concurrently
		// cannot end up linked to the derived transaction.
		budgetID := overrides.BudgetID
		if budgetID == nil {
			budget, findErr := s.budgets.FindBudgetCoveringInTx(tx, userID, space, DateOnly(imported.OccurredAt))
			if findErr == nil {
				budgetID = &budget.ID
			} else if !errors.Is(findErr, apperrors.ErrBudgetNotFound) {
				return findErr
			}
		}

		budgetCategory := overrides.BudgetCategory
		miniBudgetID := overrides.MiniBudgetID
		if budgetID == nil {
			// Budget-scoped metadata cannot exist without a budget.
			budgetCategory = nil
			miniBudgetID = nil
		}

		var txErr error
		transaction, txErr = s.transactions.CreateTransactionInTx(tx, userID, space, CreateTransactionInput{
			Type:           txType,
			Amount:         imported.Amount,
			Category:       category,
			Description:    description,
			OccurredAt:     imported.OccurredAt,
			BudgetID:       budgetID,
			BudgetCategory: budgetCategory,
			MiniBudgetID:   miniBudgetID,
		})
		if txErr != nil {
			return txErr
		}

		now := time.Now()
		res := tx.Model(imported).
			Where("status = ?", models.ImportStatusPending).
			Updates(map[string]interface{}{
				"status":        models.ImportStatusReconciled,
				"reconciled_at": now,
			})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			// Lost the race to a concurrent reconcile or ignore.
			return apperrors.ErrImportSettled
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return transaction, nil
}

// Ignore marks a pending imported record as ignored. No transaction is
// created and no ledger fields move. Like reconciliation, the transition
// is one-way.
func (s *importService) Ignore(userID string, space models.Space, importID string) error {
	imported, err := s.getPendingImport(userID, space, importID)
	if err != nil {
		return err
	}

	res := s.db.Model(imported).
		Where("status = ?", models.ImportStatusPending).
		Update("status", models.ImportStatusIgnored)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrImportSettled
	}
	return nil
}
