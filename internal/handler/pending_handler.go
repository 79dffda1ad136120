package handler

import (
	"net/http"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/engine"
	"github.com/kanakku/kanakku/kanakku-backend/internal/middleware"
	"github.com/kanakku/kanakku/kanakku-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// PendingHandler serves the pending-collection reports
type PendingHandler struct {
	pendingService *service.PendingService
}

// NewPendingHandler creates a new PendingHandler
func NewPendingHandler(pendingService *service.PendingService) *PendingHandler {
	return &PendingHandler{pendingService: pendingService}
}

// PendingRowResponse is one loan with unpaid cycles
type PendingRowResponse struct {
	LoanID           int32   `json:"loanId"`
	LoanNo           string  `json:"loanNo"`
	PartyName        string  `json:"partyName"`
	Mobile           string  `json:"mobile"`
	LoanDate         string  `json:"loanDate"`
	Amount           string  `json:"amount"`
	CycleLength      int     `json:"cycleLength"`
	ElapsedDays      int     `json:"elapsedDays"`
	Due              int     `json:"due"`
	Paid             int     `json:"paid"`
	Pending          int     `json:"pending"`
	NextDueDate      string  `json:"nextDueDate"`
	CycleAmount      string  `json:"cycleAmount"`
	PendingAmount    string  `json:"pendingAmount"`
	RemainingBalance *string `json:"remainingBalance,omitempty"`
}

// PendingReportResponse is the pending report of one collection type
type PendingReportResponse struct {
	CollectionType string               `json:"collectionType"`
	AsOf           string               `json:"asOf"`
	Rows           []PendingRowResponse `json:"rows"`
	TotalPending   int                  `json:"totalPending"`
	TotalAmount    string               `json:"totalAmount"`
}

// GetPendingReport handles GET /api/v1/pending/:collectionType
// @Summary Pending cycles for a collection type
// @Description Lists active loans with unpaid cycles as of today, most overdue first. Daily loans have no cycle count.
// @Tags pending
// @Produce json
// @Param collectionType path string true "weekly, monthly or fire"
// @Param asOf query string false "Report day, YYYY-MM-DD"
// @Success 200 {object} PendingReportResponse
// @Failure 400 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Security BearerAuth
// @Router /pending/{collectionType} [get]
func (h *PendingHandler) GetPendingReport(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	ct, err := domain.ParseCollectionType(c.Param("collectionType"))
	if err != nil {
		return respondError(c, err, "Invalid collection type")
	}

	ctx := c.Request().Context()
	var report *engine.PendingReport
	if v := c.QueryParam("asOf"); v != "" {
		asOf, perr := parseDate("asOf", v)
		if perr != nil {
			return respondError(c, perr, "Invalid date")
		}
		report, err = h.pendingService.GetPendingReportAsOf(ctx, workspaceID, ct, asOf)
	} else {
		report, err = h.pendingService.GetPendingReport(ctx, workspaceID, ct)
	}
	if err != nil {
		return respondError(c, err, "Failed to build pending report")
	}

	return c.JSON(http.StatusOK, toPendingReportResponse(report))
}

func toPendingReportResponse(report *engine.PendingReport) PendingReportResponse {
	rows := make([]PendingRowResponse, len(report.Rows))
	for i, r := range report.Rows {
		rows[i] = PendingRowResponse{
			LoanID:        r.LoanID,
			LoanNo:        r.LoanNo,
			PartyName:     r.PartyName,
			Mobile:        r.Mobile,
			LoanDate:      formatDate(r.LoanDate),
			Amount:        formatMoney(r.Amount),
			CycleLength:   r.CycleLength,
			ElapsedDays:   r.ElapsedDays,
			Due:           r.Due,
			Paid:          r.Paid,
			Pending:       r.Pending,
			NextDueDate:   formatDate(r.NextDueDate),
			CycleAmount:   formatMoney(r.CycleAmount),
			PendingAmount: formatMoney(r.PendingAmount),
		}
		if r.RemainingBalance != nil {
			s := formatMoney(*r.RemainingBalance)
			rows[i].RemainingBalance = &s
		}
	}
	return PendingReportResponse{
		CollectionType: string(report.CollectionType),
		AsOf:           formatDate(report.AsOf),
		Rows:           rows,
		TotalPending:   report.TotalPending,
		TotalAmount:    formatMoney(report.TotalAmount),
	}
}
