package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "centavo/internal/errors"
	"centavo/internal/models"
)

// miniBudgetService handles mini-budget sub-labels. Mini budgets hang off
// a budget and never touch the ledger arithmetic.
type miniBudgetService struct {
	db *gorm.DB
}

// NewMiniBudgetService creates a new MiniBudgetServicer.
func NewMiniBudgetService(db *gorm.DB) MiniBudgetServicer {
	return &miniBudgetService{db: db}
}

// CreateMiniBudget creates a sub-label under a budget the user owns.
func (s *miniBudgetService) CreateMiniBudget(userID, budgetID, name string, amount int64, category *string) (*models.MiniBudget, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "mini budget name is required")
	}
	if amount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "amount cannot be negative")
	}

	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	mini := &models.MiniBudget{
		BudgetID: budget.ID,
		Name:     name,
		Amount:   amount,
		Category: category,
	}
	if err := s.db.Create(mini).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return mini, nil
}

// GetBudgetMiniBudgets lists the sub-labels of a budget the user owns.
func (s *miniBudgetService) GetBudgetMiniBudgets(userID, budgetID string) ([]models.MiniBudget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var minis []models.MiniBudget
	if err := s.db.Where("budget_id = ?", budgetID).Order("created_at").Find(&minis).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return minis, nil
}

// DeleteMiniBudget removes a sub-label after checking the parent budget
// belongs to the user.
func (s *miniBudgetService) DeleteMiniBudget(userID, miniBudgetID string) error {
	var mini models.MiniBudget
	err := s.db.
		Joins("JOIN budgets ON budgets.id = mini_budgets.budget_id AND budgets.user_id = ? AND budgets.deleted_at IS NULL", userID).
		Where("mini_budgets.id = ?", miniBudgetID).
		First(&mini).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrMiniBudgetNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Delete(&mini).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
