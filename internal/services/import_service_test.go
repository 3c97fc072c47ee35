package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"centavo/internal/models"
	"centavo/internal/testutil"
)

func setupImportService(db *gorm.DB) ImportServicer {
	ledger := NewLedgerApplier()
	budgets := NewBudgetService(db, NewLinearOverlapScan())
	transactions := NewTransactionService(db, ledger)
	return NewImportService(db, budgets, transactions)
}

func TestIngest(t *testing.T) {
	t.Run("creates_pending_record", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := setupImportService(db)
		user := testutil.CreateTestUser(t, db)

		imported, err := svc.Ingest(user.ID, models.SpacePersonal, "acc-123", "ext-001", 4500, models.DirectionDebit, testutil.Date(2024, 1, 10))
		testutil.AssertNoError(t, err)
		if imported.Status != models.ImportStatusPending {
			t.Errorf("expected pending status, got %s", imported.Status)
		}
	})

	t.Run("duplicate_delivery_returns_existing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := setupImportService(db)
		user := testutil.CreateTestUser(t, db)

		first, err := svc.Ingest(user.ID, models.SpacePersonal, "acc-123", "ext-dup", 4500, models.DirectionDebit, testutil.Date(2024, 1, 10))
		testutil.AssertNoError(t, err)
		second, err := svc.Ingest(user.ID, models.SpacePersonal, "acc-123", "ext-dup", 4500, models.DirectionDebit, testutil.Date(2024, 1, 10))
		testutil.AssertNoError(t, err)

		if first.ID != second.ID {
			t.Error("expected redelivery to return the already-ingested record")
		}

		var count int64
		db.Model(&models.ImportedTransaction{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 1 {
			t.Errorf("expected 1 imported record, got %d", count)
		}
	})

	t.Run("same_external_id_different_users", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := setupImportService(db)
		userA := testutil.CreateTestUser(t, db)
		userB := testutil.CreateTestUser(t, db)

		a, err := svc.Ingest(userA.ID, models.SpacePersonal, "acc-1", "ext-shared", 100, models.DirectionCredit, testutil.Date(2024, 1, 10))
		testutil.AssertNoError(t, err)
		b, err := svc.Ingest(userB.ID, models.SpacePersonal, "acc-2", "ext-shared", 100, models.DirectionCredit, testutil.Date(2024, 1, 10))
		testutil.AssertNoError(t, err)

		if a.ID == b.ID {
			t.Error("expected distinct records per user")
		}
	})

	t.Run("lost_insert_race_returns_winner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := setupImportService(db)
		user := testutil.CreateTestUser(t, db)

		// Wedge a competing delivery into the window between the
		// duplicate check and the insert, so the insert loses on
		// (user_id, external_id).
		var winner *models.ImportedTransaction
		raced := false
		err := db.Callback().Create().Before("gorm:create").Register("wedge_duplicate", func(tx *gorm.DB) {
			if raced || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "imported_transactions" {
				return
			}
			raced = true
			winner = &models.ImportedTransaction{
				UserID:     user.ID,
				Space:      models.SpacePersonal,
				AccountRef: "acc-winner",
				ExternalID: "ext-race",
				Amount:     4500,
				Direction:  models.DirectionDebit,
				Status:     models.ImportStatusPending,
				OccurredAt: testutil.Date(2024, 1, 10),
			}
			if createErr := db.Create(winner).Error; createErr != nil {
				t.Errorf("failed to insert competing record: %v", createErr)
			}
		})
		testutil.AssertNoError(t, err)

		got, err := svc.Ingest(user.ID, models.SpacePersonal, "acc-loser", "ext-race", 4500, models.DirectionDebit, testutil.Date(2024, 1, 10))
		testutil.AssertNoError(t, err)
		if !raced {
			t.Fatal("expected the competing insert to fire")
		}
		if got.ID != winner.ID {
			t.Errorf("expected the winner's record back, got %s", got.ID)
		}
		if got.AccountRef != "acc-winner" {
			t.Errorf("expected the winner's account ref, got %s", got.AccountRef)
		}

		var count int64
		db.Model(&models.ImportedTransaction{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 1 {
			t.Errorf("expected 1 imported record, got %d", count)
		}
	})

	t.Run("rejects_invalid_input", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := setupImportService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Ingest(user.ID, models.SpacePersonal, "acc-1", "ext-1", 0, models.DirectionDebit, time.Now())
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")

		_, err = svc.Ingest(user.ID, models.SpacePersonal, "acc-1", "", 100, models.DirectionDebit, time.Now())
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})
}

func TestReconcile(t *testing.T) {
	t.Run("credit_becomes_income_in_covering_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := setupImportService(db)
		user := testutil.CreateTestUser(t, db)
		budgetA := testutil.CreateTestBudget(t, db, user.ID, testutil.Date(2024, 1, 1))
		testutil.CreateTestBudget(t, db, user.ID, testutil.Date(2024, 2, 1))
		imported := testutil.CreateTestImport(t, db, user.ID, models.DirectionCredit, 6000, testutil.Date(2024, 1, 15))

		tx, err := svc.Reconcile(user.ID, models.SpacePersonal, imported.ID, ReconcileOverrides{})
		testutil.AssertNoError(t, err)

		if tx.Type != models.TransactionTypeIncome {
			t.Errorf("expected income, got %s", tx.Type)
		}
		if tx.Category != "Other income" {
			t.Errorf("expected default income category, got %q", tx.Category)
		}
		if tx.BudgetID == nil || *tx.BudgetID != budgetA.ID {
			t.Error("expected the January budget to cover the record's day")
		}
		if got := testutil.ReloadBudget(t, db, budgetA.ID).TotalBudget; got != 6000 {
			t.Errorf("expected budget total 6000, got %d", got)
		}

		var reloaded models.ImportedTransaction
		testutil.AssertNoError(t, db.Where("id = ?", imported.ID).First(&reloaded).Error)
		if reloaded.Status != models.ImportStatusReconciled {
			t.Errorf("expected reconciled status, got %s", reloaded.Status)
		}
		if reloaded.ReconciledAt == nil {
			t.Error("expected reconciled_at to be set")
		}
	})

	t.Run("debit_becomes_expense_with_default_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := setupImportService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, testutil.Date(2024, 1, 1))
		imported := testutil.CreateTestImport(t, db, user.ID, models.DirectionDebit, 2500, testutil.Date(2024, 1, 20))

		tx, err := svc.Reconcile(user.ID, models.SpacePersonal, imported.ID, ReconcileOverrides{})
		testutil.AssertNoError(t, err)

		if tx.Type != models.TransactionTypeExpense {
			t.Errorf("expected expense, got %s", tx.Type)
		}
		if tx.Category != "Uncategorized" {
			t.Errorf("expected default expense category, got %q", tx.Category)
		}
		if got := testutil.ReloadBudget(t, db, budget.ID).TotalBudget; got != 0 {
			t.Errorf("expected expense to leave the budget total at 0, got %d", got)
		}
	})

	t.Run("no_covering_budget_nulls_metadata", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := setupImportService(db)
		user := testutil.CreateTestUser(t, db)
		imported := testutil.CreateTestImport(t, db, user.ID, models.DirectionCredit, 1000, testutil.Date(2024, 6, 1))

		tx, err := svc.Reconcile(user.ID, models.SpacePersonal, imported.ID, ReconcileOverrides{
			BudgetCategory: testutil.Ptr("Essential"),
		})
		testutil.AssertNoError(t, err)

		if tx.BudgetID != nil {
			t.Error("expected no budget link without a covering budget")
		}
		if tx.BudgetCategory != nil {
			t.Error("expected budget category dropped without a budget")
		}
	})

	t.Run("resolution_sees_budgets_at_settle_time", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := setupImportService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, testutil.Date(2024, 1, 1))
		imported := testutil.CreateTestImport(t, db, user.ID, models.DirectionCredit, 1000, testutil.Date(2024, 1, 15))

		// The budget covering the record is gone by the time the user
		// reconciles; the derived transaction must not link to it.
		testutil.AssertNoError(t, db.Delete(budget).Error)

		tx, err := svc.Reconcile(user.ID, models.SpacePersonal, imported.ID, ReconcileOverrides{})
		testutil.AssertNoError(t, err)
		if tx.BudgetID != nil {
			t.Error("expected no link to a deleted budget")
		}
	})

	t.Run("overrides_win", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := setupImportService(db)
		user := testutil.CreateTestUser(t, db)
		covering := testutil.CreateTestBudget(t, db, user.ID, testutil.Date(2024, 1, 1))
		pinned := testutil.CreateTestBudget(t, db, user.ID, testutil.Date(2024, 3, 1))
		imported := testutil.CreateTestImport(t, db, user.ID, models.DirectionCredit, 800, testutil.Date(2024, 1, 15))

		tx, err := svc.Reconcile(user.ID, models.SpacePersonal, imported.ID, ReconcileOverrides{
			BudgetID: &pinned.ID,
			Category: testutil.Ptr("Refund"),
		})
		testutil.AssertNoError(t, err)

		if tx.BudgetID == nil || *tx.BudgetID != pinned.ID {
			t.Error("expected pinned budget to override date matching")
		}
		if tx.Category != "Refund" {
			t.Errorf("expected overridden category, got %q", tx.Category)
		}
		if got := testutil.ReloadBudget(t, db, covering.ID).TotalBudget; got != 0 {
			t.Errorf("expected covering budget untouched, got %d", got)
		}
		if got := testutil.ReloadBudget(t, db, pinned.ID).TotalBudget; got != 800 {
			t.Errorf("expected pinned budget total 800, got %d", got)
		}
	})

	t.Run("double_reconcile_conflicts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := setupImportService(db)
		user := testutil.CreateTestUser(t, db)
		imported := testutil.CreateTestImport(t, db, user.ID, models.DirectionCredit, 1000, testutil.Date(2024, 1, 15))

		_, err := svc.Reconcile(user.ID, models.SpacePersonal, imported.ID, ReconcileOverrides{})
		testutil.AssertNoError(t, err)

		_, err = svc.Reconcile(user.ID, models.SpacePersonal, imported.ID, ReconcileOverrides{})
		testutil.AssertAppError(t, err, "IMPORT_ALREADY_SETTLED")

		var count int64
		db.Model(&models.Transaction{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 1 {
			t.Errorf("expected a single derived transaction, got %d", count)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := setupImportService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Reconcile(user.ID, models.SpacePersonal, "019296b1-0000-7000-8000-000000000000", ReconcileOverrides{})
		testutil.AssertAppError(t, err, "IMPORT_NOT_FOUND")
	})
}

func TestIgnore(t *testing.T) {
	t.Run("marks_ignored_without_transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := setupImportService(db)
		user := testutil.CreateTestUser(t, db)
		imported := testutil.CreateTestImport(t, db, user.ID, models.DirectionDebit, 700, testutil.Date(2024, 1, 15))

		testutil.AssertNoError(t, svc.Ignore(user.ID, models.SpacePersonal, imported.ID))

		var reloaded models.ImportedTransaction
		testutil.AssertNoError(t, db.Where("id = ?", imported.ID).First(&reloaded).Error)
		if reloaded.Status != models.ImportStatusIgnored {
			t.Errorf("expected ignored status, got %s", reloaded.Status)
		}

		var count int64
		db.Model(&models.Transaction{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected no transactions, got %d", count)
		}
	})

	t.Run("ignored_record_cannot_be_reconciled", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := setupImportService(db)
		user := testutil.CreateTestUser(t, db)
		imported := testutil.CreateTestImport(t, db, user.ID, models.DirectionCredit, 700, testutil.Date(2024, 1, 15))

		testutil.AssertNoError(t, svc.Ignore(user.ID, models.SpacePersonal, imported.ID))

		_, err := svc.Reconcile(user.ID, models.SpacePersonal, imported.ID, ReconcileOverrides{})
		testutil.AssertAppError(t, err, "IMPORT_ALREADY_SETTLED")
	})

	t.Run("double_ignore_conflicts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := setupImportService(db)
		user := testutil.CreateTestUser(t, db)
		imported := testutil.CreateTestImport(t, db, user.ID, models.DirectionCredit, 700, testutil.Date(2024, 1, 15))

		testutil.AssertNoError(t, svc.Ignore(user.ID, models.SpacePersonal, imported.ID))
		err := svc.Ignore(user.ID, models.SpacePersonal, imported.ID)
		testutil.AssertAppError(t, err, "IMPORT_ALREADY_SETTLED")
	})
}
