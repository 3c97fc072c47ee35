package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "centavo/internal/errors"
	"centavo/internal/models"
	"centavo/internal/pagination"
	"centavo/internal/services"
)

// ImportHandler handles bank-import reconciliation requests.
type ImportHandler struct {
	importService services.ImportServicer
	auditService  services.AuditServicer
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService services.ImportServicer, auditService services.AuditServicer) *ImportHandler {
	return &ImportHandler{importService: importService, auditService: auditService}
}

// ReconcileRequest represents the optional overrides when reconciling an
// imported record. Every field may be omitted; the reconciler derives the
// rest from the record itself.
type ReconcileRequest struct {
	Type           *models.TransactionType `json:"type" binding:"omitempty,transaction_type"`
	Category       *string                 `json:"category" binding:"omitempty,max=100"`
	Description    *string                 `json:"description" binding:"omitempty,max=500"`
	BudgetID       *string                 `json:"budget_id" binding:"omitempty,uuid"`
	BudgetCategory *string                 `json:"budget_category" binding:"omitempty,max=100"`
	MiniBudgetID   *string                 `json:"mini_budget_id" binding:"omitempty,uuid"`
}

// GetImports handles listing imported bank records.
// @Summary     Get imported transactions
// @Description Get a paginated list of bank-imported records in a space, optionally filtered by status
// @Tags        imports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       space     query string false "Space (personal/business, default personal)"
// @Param       status    query string false "Filter by status (pending/reconciled/ignored)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.ImportedTransaction] "Paginated imports"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /imports [get]
func (h *ImportHandler) GetImports(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	space, err := getSpace(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	var status *models.ImportStatus
	if v := c.Query("status"); v != "" {
		s := models.ImportStatus(v)
		switch s {
		case models.ImportStatusPending, models.ImportStatusReconciled, models.ImportStatusIgnored:
			status = &s
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, "status must be 'pending', 'reconciled', or 'ignored'"))
			return
		}
	}

	result, err := h.importService.GetUserImports(userID, space, page, status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ReconcileImport handles converting a pending imported record into a transaction.
// @Summary     Reconcile an imported transaction
// @Description Convert a pending bank-imported record into a ledger transaction. A credit becomes income, a debit becomes expense; the budget whose period covers the record's date is linked automatically unless one is pinned.
// @Tags        imports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       space   query string           false "Space (personal/business, default personal)"
// @Param       id      path  string           true  "Imported transaction ID"
// @Param       request body  ReconcileRequest false "Optional overrides"
// @Success     201 {object} models.Transaction "Derived transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Imported transaction not found"
// @Failure     409 {object} ErrorResponse "Already reconciled or ignored"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /imports/{id}/reconcile [post]
func (h *ImportHandler) ReconcileImport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	space, err := getSpace(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	importID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ReconcileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
			return
		}
	}

	transaction, err := h.importService.Reconcile(userID, space, importID, services.ReconcileOverrides{
		Type:           req.Type,
		Category:       req.Category,
		Description:    req.Description,
		BudgetID:       req.BudgetID,
		BudgetCategory: req.BudgetCategory,
		MiniBudgetID:   req.MiniBudgetID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "RECONCILE_IMPORT", "imported_transaction", importID, c.ClientIP(),
		map[string]interface{}{"transaction_id": transaction.ID})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// IgnoreImport handles marking a pending imported record as ignored.
// @Summary     Ignore an imported transaction
// @Description Mark a pending bank-imported record as ignored. No transaction is created and the record cannot be reconciled afterwards.
// @Tags        imports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       space query string false "Space (personal/business, default personal)"
// @Param       id    path  string true  "Imported transaction ID"
// @Success     200 {object} MessageResponse "Record ignored"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Imported transaction not found"
// @Failure     409 {object} ErrorResponse "Already reconciled or ignored"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /imports/{id}/ignore [post]
func (h *ImportHandler) IgnoreImport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	space, err := getSpace(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	importID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.importService.Ignore(userID, space, importID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "IGNORE_IMPORT", "imported_transaction", importID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Imported transaction ignored"})
}
