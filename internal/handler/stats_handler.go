package handler

import (
	"net/http"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/middleware"
	"github.com/kanakku/kanakku/kanakku-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// StatsHandler serves the business summary and profit allocation
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// StatsResponse is the business summary
type StatsResponse struct {
	ActiveLoans              int64  `json:"activeLoans"`
	PendingAmount            string `json:"pendingAmount"`
	TotalDisbursed           string `json:"totalDisbursed"`
	TotalAdvanceInterest     string `json:"totalAdvanceInterest"`
	TotalInvestment          string `json:"totalInvestment"`
	OwnerInvestment          string `json:"ownerInvestment"`
	ReinvestedProfit         string `json:"reinvestedProfit"`
	TotalCollection          string `json:"totalCollection"`
	TotalCollectionPrincipal string `json:"totalCollectionPrincipal"`
	TotalCollectionInterest  string `json:"totalCollectionInterest"`
	TotalExpense             string `json:"totalExpense"`
	NetProfit                string `json:"netProfit"`
	CashBalance              string `json:"cashBalance"`
	AvailableProfit          string `json:"availableProfit"`
}

// AllocateProfitRequest splits available profit
type AllocateProfitRequest struct {
	ReinvestAmount string `json:"reinvestAmount"`
	ExpenseAmount  string `json:"expenseAmount"`
	Note           string `json:"note"`
}

// AllocateProfitResponse holds whatever the allocation recorded
type AllocateProfitResponse struct {
	Investment *InvestmentResponse `json:"investment,omitempty"`
	Expense    *ExpenseResponse    `json:"expense,omitempty"`
}

// GetStats handles GET /api/v1/stats
// @Summary Business summary
// @Tags stats
// @Produce json
// @Success 200 {object} StatsResponse
// @Security BearerAuth
// @Router /stats [get]
func (h *StatsHandler) GetStats(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	stats, err := h.statsService.GetStats(c.Request().Context(), workspaceID)
	if err != nil {
		return respondError(c, err, "Failed to get stats")
	}

	return c.JSON(http.StatusOK, StatsResponse{
		ActiveLoans:              stats.ActiveLoans,
		PendingAmount:            formatMoney(stats.PendingAmount),
		TotalDisbursed:           formatMoney(stats.TotalDisbursed),
		TotalAdvanceInterest:     formatMoney(stats.TotalAdvanceInterest),
		TotalInvestment:          formatMoney(stats.TotalInvestment),
		OwnerInvestment:          formatMoney(stats.OwnerInvestment),
		ReinvestedProfit:         formatMoney(stats.ReinvestedProfit),
		TotalCollection:          formatMoney(stats.TotalCollection),
		TotalCollectionPrincipal: formatMoney(stats.TotalCollectionPrincipal),
		TotalCollectionInterest:  formatMoney(stats.TotalCollectionInterest),
		TotalExpense:             formatMoney(stats.TotalExpense),
		NetProfit:                formatMoney(stats.NetProfit),
		CashBalance:              formatMoney(stats.CashBalance),
		AvailableProfit:          formatMoney(stats.AvailableProfit),
	})
}

// AllocateProfit handles POST /api/v1/profit/allocate
// @Summary Allocate available profit
// @Description Reinvests part of the available profit and/or books it as a profit_allocation expense.
// @Tags stats
// @Accept json
// @Produce json
// @Param allocation body AllocateProfitRequest true "Allocation"
// @Success 201 {object} AllocateProfitResponse
// @Failure 400 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Security BearerAuth
// @Router /profit/allocate [post]
func (h *StatsHandler) AllocateProfit(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req AllocateProfitRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	reinvest, err := parseDecimal("reinvestAmount", req.ReinvestAmount)
	if err != nil {
		return respondError(c, err, "Invalid allocation")
	}
	expense, err := parseDecimal("expenseAmount", req.ExpenseAmount)
	if err != nil {
		return respondError(c, err, "Invalid allocation")
	}

	result, err := h.statsService.AllocateProfit(c.Request().Context(), workspaceID, domain.ProfitAllocation{
		ReinvestAmount: reinvest,
		ExpenseAmount:  expense,
		Note:           req.Note,
	})
	if err != nil {
		return respondError(c, err, "Failed to allocate profit")
	}

	var response AllocateProfitResponse
	if result.Investment != nil {
		inv := toInvestmentResponse(result.Investment)
		response.Investment = &inv
	}
	if result.Expense != nil {
		e := toExpenseResponse(result.Expense)
		response.Expense = &e
	}
	return c.JSON(http.StatusCreated, response)
}
