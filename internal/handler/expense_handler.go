package handler

import (
	"net/http"
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/middleware"
	"github.com/kanakku/kanakku/kanakku-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// ExpenseHandler handles expense-related HTTP requests
type ExpenseHandler struct {
	expenseService *service.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenseService *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// ExpenseRequest represents the create/update expense request body
type ExpenseRequest struct {
	Title    string `json:"title"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Note     string `json:"note"`
	Date     string `json:"date"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID          int32  `json:"id"`
	WorkspaceID int32  `json:"workspaceId"`
	Title       string `json:"title"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Note        string `json:"note"`
	Date        string `json:"date"`
	CreatedAt   string `json:"createdAt"`
}

// ExpenseListResponse is a listing of expenses with their total
type ExpenseListResponse struct {
	Expenses []ExpenseResponse `json:"expenses"`
	Total    string            `json:"total"`
}

// CreateExpense handles POST /api/v1/expenses
// @Summary Record an expense
// @Tags expenses
// @Accept json
// @Produce json
// @Param expense body ExpenseRequest true "Expense"
// @Success 201 {object} ExpenseResponse
// @Failure 400 {object} ProblemDetails
// @Security BearerAuth
// @Router /expenses [post]
func (h *ExpenseHandler) CreateExpense(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	input, err := bindExpense(c)
	if err != nil {
		return respondError(c, err, "Invalid expense")
	}

	created, err := h.expenseService.CreateExpense(c.Request().Context(), workspaceID, input)
	if err != nil {
		return respondError(c, err, "Failed to create expense")
	}
	return c.JSON(http.StatusCreated, toExpenseResponse(created))
}

// GetExpenses handles GET /api/v1/expenses
// @Summary List expenses
// @Tags expenses
// @Produce json
// @Param category query string false "Expense category"
// @Success 200 {object} ExpenseListResponse
// @Failure 400 {object} ProblemDetails
// @Security BearerAuth
// @Router /expenses [get]
func (h *ExpenseHandler) GetExpenses(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var category *domain.ExpenseCategory
	if v := c.QueryParam("category"); v != "" {
		parsed, err := domain.ParseExpenseCategory(v)
		if err != nil {
			return respondError(c, err, "Invalid category")
		}
		category = &parsed
	}

	list, err := h.expenseService.GetExpenses(c.Request().Context(), workspaceID, category)
	if err != nil {
		return respondError(c, err, "Failed to get expenses")
	}

	response := ExpenseListResponse{
		Expenses: make([]ExpenseResponse, len(list.Expenses)),
		Total:    formatMoney(list.Total),
	}
	for i, e := range list.Expenses {
		response.Expenses[i] = toExpenseResponse(e)
	}
	return c.JSON(http.StatusOK, response)
}

// GetExpense handles GET /api/v1/expenses/:id
// @Summary Get an expense
// @Tags expenses
// @Produce json
// @Param id path int true "Expense ID"
// @Success 200 {object} ExpenseResponse
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid expense ID")
	}

	e, err := h.expenseService.GetExpenseByID(c.Request().Context(), workspaceID, id)
	if err != nil {
		return respondError(c, err, "Failed to get expense")
	}
	return c.JSON(http.StatusOK, toExpenseResponse(e))
}

// UpdateExpense handles PUT /api/v1/expenses/:id
// @Summary Update an expense
// @Tags expenses
// @Accept json
// @Produce json
// @Param id path int true "Expense ID"
// @Param expense body ExpenseRequest true "Expense"
// @Success 200 {object} ExpenseResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid expense ID")
	}

	input, err := bindExpense(c)
	if err != nil {
		return respondError(c, err, "Invalid expense")
	}

	updated, err := h.expenseService.UpdateExpense(c.Request().Context(), workspaceID, id, input)
	if err != nil {
		return respondError(c, err, "Failed to update expense")
	}
	return c.JSON(http.StatusOK, toExpenseResponse(updated))
}

// DeleteExpense handles DELETE /api/v1/expenses/:id
// @Summary Delete an expense
// @Tags expenses
// @Param id path int true "Expense ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid expense ID")
	}

	if err := h.expenseService.DeleteExpense(c.Request().Context(), workspaceID, id); err != nil {
		return respondError(c, err, "Failed to delete expense")
	}
	return c.NoContent(http.StatusNoContent)
}

func bindExpense(c echo.Context) (service.ExpenseInput, error) {
	var req ExpenseRequest
	if err := c.Bind(&req); err != nil {
		return service.ExpenseInput{}, &requestError{field: "body", message: "Invalid request body"}
	}
	amount, err := parseDecimal("amount", req.Amount)
	if err != nil {
		return service.ExpenseInput{}, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return service.ExpenseInput{}, err
	}
	return service.ExpenseInput{
		Title:    req.Title,
		Amount:   amount,
		Category: req.Category,
		Note:     req.Note,
		Date:     date,
	}, nil
}

func toExpenseResponse(e *domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		WorkspaceID: e.WorkspaceID,
		Title:       e.Title,
		Amount:      formatMoney(e.Amount),
		Category:    string(e.Category),
		Note:        e.Note,
		Date:        formatDate(e.Date),
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}
