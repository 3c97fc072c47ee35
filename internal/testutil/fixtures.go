package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"centavo/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date builds a UTC calendar date, the form budget boundaries use.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Ptr returns a pointer to v, for optional fixture fields.
func Ptr[T any](v T) *T {
	return &v
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    fmt.Sprintf("user%d@test.com", nextID()),
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestBudget creates a monthly budget starting on the given date in
// the personal space.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, startDate time.Time) *models.Budget {
	t.Helper()
	return CreateTestBudgetInSpace(t, db, userID, models.SpacePersonal, startDate)
}

// CreateTestBudgetInSpace creates a monthly budget in the given space.
func CreateTestBudgetInSpace(t *testing.T, db *gorm.DB, userID string, space models.Space, startDate time.Time) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:    userID,
		Space:     space,
		Name:      fmt.Sprintf("Test Budget %d", nextID()),
		Period:    models.BudgetPeriodMonthly,
		StartDate: startDate,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestBucket adds an allocation bucket to a budget.
func CreateTestBucket(t *testing.T, db *gorm.DB, budgetID, name string, budgeted int64) *models.BudgetCategory {
	t.Helper()

	bucket := &models.BudgetCategory{
		BudgetID: budgetID,
		Name:     name,
		Budgeted: budgeted,
	}
	if err := db.Create(bucket).Error; err != nil {
		t.Fatalf("failed to create test bucket: %v", err)
	}
	return bucket
}

// CreateTestTransaction creates an unlinked transaction of the given type
// and amount (in minor units).
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, txType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:     userID,
		Space:      models.SpacePersonal,
		Type:       txType,
		Amount:     amount,
		Category:   "Test",
		OccurredAt: time.Now(),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestImport creates a pending imported transaction.
func CreateTestImport(t *testing.T, db *gorm.DB, userID string, direction models.Direction, amount int64, occurredAt time.Time) *models.ImportedTransaction {
	t.Helper()

	imported := &models.ImportedTransaction{
		UserID:     userID,
		Space:      models.SpacePersonal,
		AccountRef: "acc-test",
		ExternalID: fmt.Sprintf("ext-%d", nextID()),
		Amount:     amount,
		Direction:  direction,
		Status:     models.ImportStatusPending,
		OccurredAt: occurredAt,
	}
	if err := db.Create(imported).Error; err != nil {
		t.Fatalf("failed to create test imported transaction: %v", err)
	}
	return imported
}

// ReloadBudget fetches the current state of a budget with its buckets.
func ReloadBudget(t *testing.T, db *gorm.DB, budgetID string) *models.Budget {
	t.Helper()

	var budget models.Budget
	if err := db.Preload("Categories").Where("id = ?", budgetID).First(&budget).Error; err != nil {
		t.Fatalf("failed to reload budget: %v", err)
	}
	return &budget
}

// BucketAmount returns the budgeted figure of a named bucket, or zero
// when the bucket does not exist.
func BucketAmount(t *testing.T, db *gorm.DB, budgetID, name string) int64 {
	t.Helper()

	var bucket models.BudgetCategory
	err := db.Where("budget_id = ? AND name = ?", budgetID, name).First(&bucket).Error
	if err != nil {
		return 0
	}
	return bucket.Budgeted
}
