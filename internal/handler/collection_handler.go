package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/middleware"
	"github.com/kanakku/kanakku/kanakku-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// CollectionHandler handles collection-related HTTP requests
type CollectionHandler struct {
	collectionService *service.CollectionService
}

// NewCollectionHandler creates a new CollectionHandler
func NewCollectionHandler(collectionService *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService}
}

// PreviewCollectionRequest represents the preview request body.
// Omit amount to preview the suggested amount.
type PreviewCollectionRequest struct {
	LoanNo         string  `json:"loanNo"`
	CollectionType string  `json:"collectionType"`
	PaymentMode    string  `json:"paymentMode"`
	Amount         *string `json:"amount,omitempty"`
}

// PreviewCollectionResponse is the split of a prospective payment
type PreviewCollectionResponse struct {
	SuggestedAmount    string `json:"suggestedAmount"`
	Amount             string `json:"amount"`
	PrincipalPaid      string `json:"principalPaid"`
	InterestPaid       string `json:"interestPaid"`
	RemainingPrincipal string `json:"remainingPrincipal"`
}

// CreateCollectionRequest represents the create collection request body.
// The principal/interest split is always computed server-side.
type CreateCollectionRequest struct {
	LoanNo         string `json:"loanNo"`
	CollectionType string `json:"collectionType"`
	PaymentMode    string `json:"paymentMode"`
	Amount         string `json:"amount"`
	Date           string `json:"date"`
}

// UpdateCollectionRequest represents the update collection request body
type UpdateCollectionRequest struct {
	Amount string `json:"amount"`
	Date   string `json:"date"`
}

// CollectionResponse represents a collection in API responses
type CollectionResponse struct {
	ID             int32  `json:"id"`
	WorkspaceID    int32  `json:"workspaceId"`
	LoanID         int32  `json:"loanId"`
	LoanNo         string `json:"loanNo"`
	PartyName      string `json:"partyName"`
	CollectionType string `json:"collectionType"`
	PaymentMode    string `json:"paymentMode"`
	Amount         string `json:"amount"`
	PrincipalPaid  string `json:"principalPaid"`
	InterestPaid   string `json:"interestPaid"`
	Date           string `json:"date"`
	CreatedAt      string `json:"createdAt"`
}

// CreateCollectionResponse is the stored collection with the loan it advanced
type CreateCollectionResponse struct {
	Collection CollectionResponse `json:"collection"`
	Loan       LoanResponse       `json:"loan"`
}

// CollectionReportResponse is a filtered listing with totals
type CollectionReportResponse struct {
	Collections    []CollectionResponse `json:"collections"`
	Total          string               `json:"total"`
	TotalPrincipal string               `json:"totalPrincipal"`
	TotalInterest  string               `json:"totalInterest"`
}

// LedgerSummaryResponse totals a party's loans
type LedgerSummaryResponse struct {
	LoanCount         int    `json:"loanCount"`
	LoanAmount        string `json:"loanAmount"`
	TotalPayable      string `json:"totalPayable"`
	TotalPaid         string `json:"totalPaid"`
	RemainingBalance  string `json:"remainingBalance"`
	CollectionType    string `json:"collectionType"`
	InstallmentAmount string `json:"installmentAmount"`
}

// LedgerResponse is a party's collections and loan summary
type LedgerResponse struct {
	PartyName   string                 `json:"partyName"`
	Collections []CollectionResponse   `json:"collections"`
	Summary     *LedgerSummaryResponse `json:"summary"`
}

// PreviewCollection handles POST /api/v1/collections/preview
// @Summary Preview the split of a payment
// @Tags collections
// @Accept json
// @Produce json
// @Param preview body PreviewCollectionRequest true "Payment"
// @Success 200 {object} PreviewCollectionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /collections/preview [post]
func (h *CollectionHandler) PreviewCollection(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req PreviewCollectionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, err := parsePreviewRequest(req)
	if err != nil {
		return respondError(c, err, "Invalid preview")
	}

	preview, err := h.collectionService.PreviewCollection(c.Request().Context(), workspaceID, input)
	if err != nil {
		return respondError(c, err, "Failed to preview collection")
	}

	return c.JSON(http.StatusOK, PreviewCollectionResponse{
		SuggestedAmount:    formatMoney(preview.SuggestedAmount),
		Amount:             formatMoney(preview.Amount),
		PrincipalPaid:      formatMoney(preview.PrincipalPaid),
		InterestPaid:       formatMoney(preview.InterestPaid),
		RemainingPrincipal: formatMoney(preview.RemainingPrincipal),
	})
}

func parsePreviewRequest(req PreviewCollectionRequest) (service.PreviewInput, error) {
	ct, err := domain.ParseCollectionType(req.CollectionType)
	if err != nil {
		return service.PreviewInput{}, err
	}
	mode, err := domain.ParsePaymentMode(req.PaymentMode)
	if err != nil {
		return service.PreviewInput{}, err
	}
	input := service.PreviewInput{LoanNo: req.LoanNo, CollectionType: ct, PaymentMode: mode}
	if req.Amount != nil && strings.TrimSpace(*req.Amount) != "" {
		amount, err := parseDecimal("amount", *req.Amount)
		if err != nil {
			return service.PreviewInput{}, err
		}
		input.Amount = &amount
	}
	return input, nil
}

// CreateCollection handles POST /api/v1/collections
// @Summary Record a collection
// @Description Splits the payment against the stored loan and advances its principal in one transaction. The loan closes when no principal remains.
// @Tags collections
// @Accept json
// @Produce json
// @Param collection body CreateCollectionRequest true "Payment"
// @Success 201 {object} CreateCollectionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Security BearerAuth
// @Router /collections [post]
func (h *CollectionHandler) CreateCollection(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req CreateCollectionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, err := parseCreateCollectionRequest(req)
	if err != nil {
		return respondError(c, err, "Invalid collection")
	}

	collection, loan, err := h.collectionService.CreateCollection(c.Request().Context(), workspaceID, input)
	if err != nil {
		return respondError(c, err, "Failed to record collection")
	}

	return c.JSON(http.StatusCreated, CreateCollectionResponse{
		Collection: toCollectionResponse(collection),
		Loan:       toLoanResponse(loan),
	})
}

func parseCreateCollectionRequest(req CreateCollectionRequest) (service.CollectionInput, error) {
	if strings.TrimSpace(req.LoanNo) == "" {
		return service.CollectionInput{}, domain.ErrLoanNumberRequired
	}
	ct, err := domain.ParseCollectionType(req.CollectionType)
	if err != nil {
		return service.CollectionInput{}, err
	}
	mode, err := domain.ParsePaymentMode(req.PaymentMode)
	if err != nil {
		return service.CollectionInput{}, err
	}
	amount, err := parseDecimal("amount", req.Amount)
	if err != nil {
		return service.CollectionInput{}, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return service.CollectionInput{}, err
	}
	return service.CollectionInput{
		LoanNo:         req.LoanNo,
		CollectionType: ct,
		PaymentMode:    mode,
		Amount:         amount,
		Date:           date,
	}, nil
}

// GetCollections handles GET /api/v1/collections
// @Summary List collections
// @Tags collections
// @Produce json
// @Param date query string false "Exact day, YYYY-MM-DD"
// @Param startDate query string false "Range start, YYYY-MM-DD"
// @Param endDate query string false "Range end, YYYY-MM-DD"
// @Param loanNo query string false "Loan number"
// @Param collectionType query string false "Collection type"
// @Success 200 {array} CollectionResponse
// @Security BearerAuth
// @Router /collections [get]
func (h *CollectionHandler) GetCollections(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	filters, err := parseCollectionFilters(c)
	if err != nil {
		return respondError(c, err, "Invalid filters")
	}

	collections, err := h.collectionService.GetCollections(c.Request().Context(), workspaceID, filters)
	if err != nil {
		return respondError(c, err, "Failed to get collections")
	}
	return c.JSON(http.StatusOK, toCollectionResponses(collections))
}

// GetReport handles GET /api/v1/collections/report
// @Summary Collection report with totals
// @Tags collections
// @Produce json
// @Param date query string false "Exact day, YYYY-MM-DD"
// @Param startDate query string false "Range start, YYYY-MM-DD"
// @Param endDate query string false "Range end, YYYY-MM-DD"
// @Param loanNo query string false "Loan number"
// @Param collectionType query string false "Collection type"
// @Success 200 {object} CollectionReportResponse
// @Security BearerAuth
// @Router /collections/report [get]
func (h *CollectionHandler) GetReport(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	filters, err := parseCollectionFilters(c)
	if err != nil {
		return respondError(c, err, "Invalid filters")
	}

	report, err := h.collectionService.GetReport(c.Request().Context(), workspaceID, filters)
	if err != nil {
		return respondError(c, err, "Failed to build collection report")
	}

	return c.JSON(http.StatusOK, CollectionReportResponse{
		Collections:    toCollectionResponses(report.Collections),
		Total:          formatMoney(report.Total),
		TotalPrincipal: formatMoney(report.TotalPrincipal),
		TotalInterest:  formatMoney(report.TotalInterest),
	})
}

func parseCollectionFilters(c echo.Context) (*domain.CollectionFilters, error) {
	filters := &domain.CollectionFilters{}
	dates := []struct {
		param  string
		target **time.Time
	}{
		{"date", &filters.Date},
		{"startDate", &filters.StartDate},
		{"endDate", &filters.EndDate},
	}
	for _, d := range dates {
		v := c.QueryParam(d.param)
		if v == "" {
			continue
		}
		t, err := parseDate(d.param, v)
		if err != nil {
			return nil, err
		}
		*d.target = &t
	}
	if v := strings.TrimSpace(c.QueryParam("loanNo")); v != "" {
		filters.LoanNo = &v
	}
	if v := strings.TrimSpace(c.QueryParam("partyName")); v != "" {
		filters.PartyName = &v
	}
	if v := c.QueryParam("collectionType"); v != "" {
		ct, err := domain.ParseCollectionType(v)
		if err != nil {
			return nil, err
		}
		filters.CollectionType = &ct
	}
	return filters, nil
}

// GetCollection handles GET /api/v1/collections/:id
// @Summary Get a collection
// @Tags collections
// @Produce json
// @Param id path int true "Collection ID"
// @Success 200 {object} CollectionResponse
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /collections/{id} [get]
func (h *CollectionHandler) GetCollection(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid collection ID")
	}

	col, err := h.collectionService.GetCollectionByID(c.Request().Context(), workspaceID, id)
	if err != nil {
		return respondError(c, err, "Failed to get collection")
	}
	return c.JSON(http.StatusOK, toCollectionResponse(col))
}

// UpdateCollection handles PUT /api/v1/collections/:id
// @Summary Correct a collection's amount or date
// @Description The loan's principal is not reconciled.
// @Tags collections
// @Accept json
// @Produce json
// @Param id path int true "Collection ID"
// @Param collection body UpdateCollectionRequest true "Correction"
// @Success 200 {object} CollectionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /collections/{id} [put]
func (h *CollectionHandler) UpdateCollection(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid collection ID")
	}

	var req UpdateCollectionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	amount, err := parseDecimal("amount", req.Amount)
	if err != nil {
		return respondError(c, err, "Invalid amount")
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return respondError(c, err, "Invalid date")
	}

	updated, err := h.collectionService.UpdateCollection(c.Request().Context(), workspaceID, id, service.UpdateCollectionInput{
		Amount: amount,
		Date:   date,
	})
	if err != nil {
		return respondError(c, err, "Failed to update collection")
	}
	return c.JSON(http.StatusOK, toCollectionResponse(updated))
}

// DeleteCollection handles DELETE /api/v1/collections/:id
// @Summary Delete a collection
// @Description The loan's principal is not reconciled.
// @Tags collections
// @Param id path int true "Collection ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /collections/{id} [delete]
func (h *CollectionHandler) DeleteCollection(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid collection ID")
	}

	if err := h.collectionService.DeleteCollection(c.Request().Context(), workspaceID, id); err != nil {
		return respondError(c, err, "Failed to delete collection")
	}
	return c.NoContent(http.StatusNoContent)
}

// GetLedger handles GET /api/v1/collections/ledger/:partyName
// @Summary A party's ledger
// @Tags collections
// @Produce json
// @Param partyName path string true "Party name, case-insensitive"
// @Success 200 {object} LedgerResponse
// @Security BearerAuth
// @Router /collections/ledger/{partyName} [get]
func (h *CollectionHandler) GetLedger(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	ledger, err := h.collectionService.GetLedger(c.Request().Context(), workspaceID, c.Param("partyName"))
	if err != nil {
		return respondError(c, err, "Failed to get ledger")
	}

	response := LedgerResponse{
		PartyName:   ledger.PartyName,
		Collections: toCollectionResponses(ledger.Collections),
	}
	if s := ledger.Summary; s != nil {
		response.Summary = &LedgerSummaryResponse{
			LoanCount:         s.LoanCount,
			LoanAmount:        formatMoney(s.LoanAmount),
			TotalPayable:      formatMoney(s.TotalPayable),
			TotalPaid:         formatMoney(s.TotalPaid),
			RemainingBalance:  formatMoney(s.RemainingBalance),
			CollectionType:    string(s.CollectionType),
			InstallmentAmount: formatMoney(s.InstallmentAmount),
		}
	}
	return c.JSON(http.StatusOK, response)
}

func toCollectionResponse(col *domain.Collection) CollectionResponse {
	return CollectionResponse{
		ID:             col.ID,
		WorkspaceID:    col.WorkspaceID,
		LoanID:         col.LoanID,
		LoanNo:         col.LoanNo,
		PartyName:      col.PartyName,
		CollectionType: string(col.CollectionType),
		PaymentMode:    string(col.PaymentMode),
		Amount:         formatMoney(col.Amount),
		PrincipalPaid:  formatMoney(col.PrincipalPaid),
		InterestPaid:   formatMoney(col.InterestPaid),
		Date:           formatDate(col.Date),
		CreatedAt:      col.CreatedAt.Format(time.RFC3339),
	}
}

func toCollectionResponses(collections []*domain.Collection) []CollectionResponse {
	response := make([]CollectionResponse, len(collections))
	for i, col := range collections {
		response[i] = toCollectionResponse(col)
	}
	return response
}

