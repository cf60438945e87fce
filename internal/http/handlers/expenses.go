package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"travelbackend/internal/services"
)

type createExpenseRequest struct {
	TripID   int64  `json:"trip_id" binding:"required,gt=0"`
	Amount   int64  `json:"amount" binding:"required"`
	Category string `json:"category" binding:"required"`
	Note     string `json:"note"`
}

type expenseUserRequest struct {
	ExpenseID int64 `json:"expense_id" binding:"required,gt=0"`
	UserID    int64 `json:"user_id" binding:"required,gt=0"`
}

type expenseRequest struct {
	ExpenseID int64 `json:"expense_id" binding:"required,gt=0"`
}

func (h *Handler) CreateExpense(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req createExpenseRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	e, err := h.expenses(c).CreateExpense(c.Request.Context(), uid, services.CreateExpenseInput{
		TripID:   req.TripID,
		Amount:   req.Amount,
		Category: req.Category,
		Note:     req.Note,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// ToggleExpenseUser adds the user to the split, or removes them if present.
func (h *Handler) ToggleExpenseUser(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req expenseUserRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	e, err := h.expenses(c).ToggleParticipant(c.Request.Context(), uid, req.ExpenseID, req.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) SplitExpense(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req expenseRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	e, err := h.expenses(c).Split(c.Request.Context(), uid, req.ExpenseID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) SettleExpense(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req expenseRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	e, err := h.expenses(c).SettleAll(c.Request.Context(), uid, req.ExpenseID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) SettleExpenseMember(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req expenseUserRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	e, err := h.expenses(c).SettleWithParticipant(c.Request.Context(), uid, req.ExpenseID, req.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) SplitBills(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}

	bills, err := h.expenses(c).ListSplitBills(c.Request.Context(), uid)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bills)
}
