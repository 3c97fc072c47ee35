package services

import (
	"time"

	"gorm.io/gorm"

	"centavo/internal/models"
	"centavo/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
}

// LedgerApplier computes and applies the increments an income transaction
// contributes to its linked budget. All methods run against the caller's
// transaction handle so multi-write operations commit atomically. A budget
// that cannot be found for (budgetID, userID, space) is a logged no-op.
type LedgerApplier interface {
	ApplyContribution(tx *gorm.DB, space models.Space, userID, budgetID string, amount int64, budgetCategory *string) error
	ReverseContribution(tx *gorm.DB, space models.Space, userID, budgetID string, amount int64, budgetCategory *string) error
	RebalanceContribution(tx *gorm.DB, space models.Space, userID, budgetID string, deltaTotal int64, categoryDeltas map[string]int64) error
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID string, space models.Space, input CreateBudgetInput) (*models.Budget, error)
	GetUserBudgets(userID string, space models.Space, page pagination.PageRequest, period *models.BudgetPeriod) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, name string, endDate *time.Time) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	FindBudgetCovering(userID string, space models.Space, day time.Time) (*models.Budget, error)
	FindBudgetCoveringInTx(tx *gorm.DB, userID string, space models.Space, day time.Time) (*models.Budget, error)
}

// CreateBudgetInput holds the fields for a new budget. Categories maps
// bucket name to its initial budgeted amount in minor units.
type CreateBudgetInput struct {
	Name        string
	TotalBudget int64
	Period      models.BudgetPeriod
	StartDate   time.Time
	EndDate     *time.Time
	Categories  map[string]int64
}

// CreateTransactionInput holds the fields for a new transaction.
type CreateTransactionInput struct {
	Type           models.TransactionType
	Amount         int64
	Category       string
	Description    string
	OccurredAt     time.Time
	BudgetID       *string
	BudgetCategory *string
	MiniBudgetID   *string
}

// PatchTransactionInput holds a partial update. Nil pointer fields are
// left unchanged; the Clear flags null out the optional references.
type PatchTransactionInput struct {
	Type           *models.TransactionType
	Amount         *int64
	Category       *string
	Description    *string
	OccurredAt     *time.Time
	BudgetID       *string
	BudgetCategory *string
	MiniBudgetID   *string

	ClearBudgetID       bool
	ClearBudgetCategory bool
	ClearMiniBudgetID   bool
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate  *time.Time
	ToDate    *time.Time
	Type      *models.TransactionType
	BudgetID  *string
	MinAmount *int64
	MaxAmount *int64
}

// TransactionServicer defines the contract for transaction lifecycle logic.
type TransactionServicer interface {
	CreateTransaction(userID string, space models.Space, input CreateTransactionInput) (*models.Transaction, error)
	CreateTransactionInTx(tx *gorm.DB, userID string, space models.Space, input CreateTransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID string, space models.Space, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	PatchTransaction(userID string, space models.Space, transactionID string, input PatchTransactionInput) (*models.Transaction, error)
	DeleteTransaction(userID string, space models.Space, transactionID string) error
}

// ReconcileOverrides lets the caller pin fields the reconciler would
// otherwise derive from the imported record.
type ReconcileOverrides struct {
	Type           *models.TransactionType
	Category       *string
	Description    *string
	BudgetID       *string
	BudgetCategory *string
	MiniBudgetID   *string
}

// ImportServicer defines the contract for bank-import reconciliation.
type ImportServicer interface {
	Ingest(userID string, space models.Space, accountRef, externalID string, amount int64, direction models.Direction, occurredAt time.Time) (*models.ImportedTransaction, error)
	GetUserImports(userID string, space models.Space, page pagination.PageRequest, status *models.ImportStatus) (*pagination.PageResponse[models.ImportedTransaction], error)
	Reconcile(userID string, space models.Space, importID string, overrides ReconcileOverrides) (*models.Transaction, error)
	Ignore(userID string, space models.Space, importID string) error
}

// MiniBudgetServicer defines the contract for mini-budget sub-labels.
type MiniBudgetServicer interface {
	CreateMiniBudget(userID, budgetID, name string, amount int64, category *string) (*models.MiniBudget, error)
	GetBudgetMiniBudgets(userID, budgetID string) ([]models.MiniBudget, error)
	DeleteMiniBudget(userID, miniBudgetID string) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
