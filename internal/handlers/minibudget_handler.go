package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "centavo/internal/errors"
	"centavo/internal/services"
)

// MiniBudgetHandler handles mini-budget requests.
type MiniBudgetHandler struct {
	miniBudgetService services.MiniBudgetServicer
	auditService      services.AuditServicer
}

// NewMiniBudgetHandler creates a new MiniBudgetHandler.
func NewMiniBudgetHandler(miniBudgetService services.MiniBudgetServicer, auditService services.AuditServicer) *MiniBudgetHandler {
	return &MiniBudgetHandler{miniBudgetService: miniBudgetService, auditService: auditService}
}

// CreateMiniBudgetRequest represents the request payload for creating a mini budget.
type CreateMiniBudgetRequest struct {
	Name     string  `json:"name" binding:"required,min=1,max=100"`
	Amount   int64   `json:"amount" binding:"required,gt=0"`
	Category *string `json:"category" binding:"omitempty,max=100"`
}

// CreateMiniBudget handles adding a mini budget under a budget.
// @Summary     Create a mini budget
// @Description Create a named sub-envelope under a budget
// @Tags        mini-budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                  true "Budget ID"
// @Param       request body CreateMiniBudgetRequest true "Mini budget details"
// @Success     201 {object} models.MiniBudget "Mini budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/mini-budgets [post]
func (h *MiniBudgetHandler) CreateMiniBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateMiniBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	miniBudget, err := h.miniBudgetService.CreateMiniBudget(userID, budgetID, req.Name, req.Amount, req.Category)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_MINI_BUDGET", "mini_budget", miniBudget.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "budget_id": budgetID})

	c.JSON(http.StatusCreated, gin.H{"mini_budget": miniBudget})
}

// GetMiniBudgets handles listing the mini budgets of a budget.
// @Summary     Get mini budgets
// @Description Get all mini budgets under a budget
// @Tags        mini-budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {array} models.MiniBudget "Mini budgets"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/mini-budgets [get]
func (h *MiniBudgetHandler) GetMiniBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	miniBudgets, err := h.miniBudgetService.GetBudgetMiniBudgets(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"mini_budgets": miniBudgets})
}

// DeleteMiniBudget handles deleting a mini budget.
// @Summary     Delete mini budget
// @Description Delete a mini budget; transactions referencing it keep their label
// @Tags        mini-budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Mini budget ID"
// @Success     200 {object} MessageResponse "Mini budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid mini budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Mini budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /mini-budgets/{id} [delete]
func (h *MiniBudgetHandler) DeleteMiniBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	miniBudgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.miniBudgetService.DeleteMiniBudget(userID, miniBudgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_MINI_BUDGET", "mini_budget", miniBudgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Mini budget deleted successfully"})
}
