package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "centavo/internal/errors"
	"centavo/internal/models"
	"centavo/internal/pagination"
	"centavo/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// CreateTransactionRequest represents the request payload for creating a transaction.
// Amounts are minor units (cents).
type CreateTransactionRequest struct {
	Type           models.TransactionType `json:"type" binding:"required,transaction_type"`
	Amount         int64                  `json:"amount" binding:"required,gt=0"`
	Category       string                 `json:"category" binding:"max=100"`
	Description    string                 `json:"description" binding:"max=500"`
	OccurredAt     *time.Time             `json:"occurred_at"`
	BudgetID       *string                `json:"budget_id" binding:"omitempty,uuid"`
	BudgetCategory *string                `json:"budget_category" binding:"omitempty,max=100"`
	MiniBudgetID   *string                `json:"mini_budget_id" binding:"omitempty,uuid"`
}

// PatchTransactionRequest represents a partial update. Omitted fields are
// left unchanged; the clear flags null out the optional references, which
// a plain omitted field cannot express.
type PatchTransactionRequest struct {
	Type           *models.TransactionType `json:"type" binding:"omitempty,transaction_type"`
	Amount         *int64                  `json:"amount" binding:"omitempty,gt=0"`
	Category       *string                 `json:"category" binding:"omitempty,max=100"`
	Description    *string                 `json:"description" binding:"omitempty,max=500"`
	OccurredAt     *time.Time              `json:"occurred_at"`
	BudgetID       *string                 `json:"budget_id" binding:"omitempty,uuid"`
	BudgetCategory *string                 `json:"budget_category" binding:"omitempty,max=100"`
	MiniBudgetID   *string                 `json:"mini_budget_id" binding:"omitempty,uuid"`

	ClearBudgetID       bool `json:"clear_budget_id"`
	ClearBudgetCategory bool `json:"clear_budget_category"`
	ClearMiniBudgetID   bool `json:"clear_mini_budget_id"`
}

// CreateTransaction handles the creation of a new transaction.
// @Summary     Create a transaction
// @Description Create a new transaction; an income linked to a budget raises that budget's running totals
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       space   query string                   false "Space (personal/business, default personal)"
// @Param       request body  CreateTransactionRequest true  "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
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

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	input := services.CreateTransactionInput{
		Type:           req.Type,
		Amount:         req.Amount,
		Category:       req.Category,
		Description:    req.Description,
		BudgetID:       req.BudgetID,
		BudgetCategory: req.BudgetCategory,
		MiniBudgetID:   req.MiniBudgetID,
	}
	if req.OccurredAt != nil {
		input.OccurredAt = *req.OccurredAt
	}

	transaction, err := h.transactionService.CreateTransaction(userID, space, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"type": req.Type, "amount": req.Amount, "space": space})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetTransactions handles listing transactions for the authenticated user.
// @Summary     Get transactions
// @Description Get a paginated list of transactions in a space with optional filters
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       space      query string false "Space (personal/business, default personal)"
// @Param       type       query string false "Filter by type (income/expense)"
// @Param       budget_id  query string false "Filter by budget"
// @Param       from_date  query string false "Filter from date (RFC3339)"
// @Param       to_date    query string false "Filter to date (RFC3339)"
// @Param       min_amount query int    false "Minimum amount in minor units"
// @Param       max_amount query int    false "Maximum amount in minor units"
// @Param       page       query int    false "Page number (default 1)"
// @Param       page_size  query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
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

	var filter services.TransactionFilter

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		if txType != models.TransactionTypeIncome && txType != models.TransactionTypeExpense {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, "type must be 'income' or 'expense'"))
			return
		}
		filter.Type = &txType
	}

	if v := c.Query("budget_id"); v != "" {
		filter.BudgetID = &v
	}

	if v := c.Query("from_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, "from_date must be RFC3339"))
			return
		}
		filter.FromDate = &t
	}

	if v := c.Query("to_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, "to_date must be RFC3339"))
			return
		}
		filter.ToDate = &t
	}

	if v := c.Query("min_amount"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, "min_amount must be an integer"))
			return
		}
		filter.MinAmount = &n
	}

	if v := c.Query("max_amount"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, "max_amount must be an integer"))
			return
		}
		filter.MaxAmount = &n
	}

	result, err := h.transactionService.GetUserTransactions(userID, space, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransaction handles retrieving a specific transaction.
// @Summary     Get transaction by ID
// @Description Get a specific transaction by ID
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// PatchTransaction handles partially updating a transaction.
// @Summary     Patch transaction
// @Description Partially update a transaction; budget contributions are reversed and reapplied to keep running totals consistent
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       space   query string                  false "Space (personal/business, default personal)"
// @Param       id      path  string                  true  "Transaction ID"
// @Param       request body  PatchTransactionRequest true  "Fields to update"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [patch]
func (h *TransactionHandler) PatchTransaction(c *gin.Context) {
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

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PatchTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	transaction, err := h.transactionService.PatchTransaction(userID, space, transactionID, services.PatchTransactionInput{
		Type:                req.Type,
		Amount:              req.Amount,
		Category:            req.Category,
		Description:         req.Description,
		OccurredAt:          req.OccurredAt,
		BudgetID:            req.BudgetID,
		BudgetCategory:      req.BudgetCategory,
		MiniBudgetID:        req.MiniBudgetID,
		ClearBudgetID:       req.ClearBudgetID,
		ClearBudgetCategory: req.ClearBudgetCategory,
		ClearMiniBudgetID:   req.ClearMiniBudgetID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "PATCH_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles deleting a transaction.
// @Summary     Delete transaction
// @Description Delete a transaction by ID; a linked income's budget contribution is reversed first
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       space query string false "Space (personal/business, default personal)"
// @Param       id    path  string true  "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
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

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, space, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

// MessageResponse represents a simple message response
type MessageResponse struct {
	Message string `json:"message"`
}
