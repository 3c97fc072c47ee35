package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "centavo/internal/errors"
	"centavo/internal/models"
	"centavo/internal/pagination"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db      *gorm.DB
	overlap OverlapStrategy
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, overlap OverlapStrategy) BudgetServicer {
	return &budgetService{db: db, overlap: overlap}
}

// CreateBudget creates a new budget after checking that its effective
// range does not intersect any of the owner's budgets in the same space.
func (s *budgetService) CreateBudget(userID string, space models.Space, input CreateBudgetInput) (*models.Budget, error) {
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "budget name is required")
	}
	if input.TotalBudget < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "total budget cannot be negative")
	}
	if input.Period != models.BudgetPeriodMonthly && input.Period != models.BudgetPeriodWeekly {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "period must be 'monthly' or 'weekly'")
	}

	window := EffectiveRange(input.Period, input.StartDate, input.EndDate)
	if window.Malformed() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "start date is after the effective end date")
	}

	// Overlap check runs against the full list of the owner's budgets in
	// this space; rejection happens before anything is persisted.
	var existing []models.Budget
	if err := scopeSpace(s.db.Where("user_id = ?", userID), space).Find(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if conflict := s.overlap.FindConflict(window, existing); conflict != nil {
		return nil, apperrors.ErrBudgetOverlap
	}

	budget := &models.Budget{
		UserID:      userID,
		Space:       space.Normalize(),
		Name:        input.Name,
		TotalBudget: input.TotalBudget,
		Period:      input.Period,
		StartDate:   window.Start,
		EndDate:     input.EndDate,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for name, budgeted := range input.Categories {
			bucket := &models.BudgetCategory{BudgetID: budget.ID, Name: name, Budgeted: budgeted}
			if err := tx.Create(bucket).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			budget.Categories = append(budget.Categories, *bucket)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return budget, nil
}

// GetUserBudgets returns a paginated list of budgets in a space with an
// optional period filter.
func (s *budgetService) GetUserBudgets(userID string, space models.Space, page pagination.PageRequest, period *models.BudgetPeriod) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := scopeSpace(s.db.Model(&models.Budget{}).Where("user_id = ?", userID), space)
	if period != nil {
		base = base.Where("period = ?", *period)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Categories").Scopes(pagination.Paginate(page)).
		Order("start_date DESC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Categories").Preload("MiniBudgets").
		Where("id = ? AND user_id = ?", budgetID, userID).
		First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates a budget's name and explicit end date. Totals and
// allocations move only through the ledger applier. A changed end date is
// re-checked against the other budgets in the space.
func (s *budgetService) UpdateBudget(userID, budgetID string, name string, endDate *time.Time) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if endDate != nil {
		window := EffectiveRange(budget.Period, budget.StartDate, endDate)
		if window.Malformed() {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "start date is after the effective end date")
		}

		var others []models.Budget
		if err := scopeSpace(s.db.Where("user_id = ? AND id <> ?", userID, budget.ID), budget.Space).
			Find(&others).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if conflict := s.overlap.FindConflict(window, others); conflict != nil {
			return nil, apperrors.ErrBudgetOverlap
		}
		updates["end_date"] = endDate
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return budget, nil
}

// DeleteBudget soft-deletes a budget. Transactions keep their budget_id
// as a dangling soft reference; later reversals against it become no-ops.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// FindBudgetCovering resolves the budget whose effective range contains
// the given calendar day, preferring the most recently started one when
// several match. Returns ErrBudgetNotFound when no budget covers the day.
func (s *budgetService) FindBudgetCovering(userID string, space models.Space, day time.Time) (*models.Budget, error) {
	return s.FindBudgetCoveringInTx(s.db, userID, space, day)
}

// FindBudgetCoveringInTx runs the covering-budget resolution on an
// existing transaction handle so callers (the import reconciler) can keep
// resolution and the writes that depend on it in one database transaction.
func (s *budgetService) FindBudgetCoveringInTx(tx *gorm.DB, userID string, space models.Space, day time.Time) (*models.Budget, error) {
	var budgets []models.Budget
	if err := scopeSpace(tx.Where("user_id = ?", userID), space).
		Order("start_date DESC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range budgets {
		if BudgetWindow(&budgets[i]).Contains(day) {
			return &budgets[i], nil
		}
	}
	return nil, apperrors.ErrBudgetNotFound
}
