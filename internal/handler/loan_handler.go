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

// LoanHandler handles loan-related HTTP requests
type LoanHandler struct {
	loanService *service.LoanService
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loanService *service.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// LoanRequest represents the create and update loan request body.
// Duration and interestRate fall back to the collection type's defaults.
type LoanRequest struct {
	LoanNumber      string `json:"loanNumber"`
	PartyName       string `json:"partyName"`
	FatherName      string `json:"fatherName"`
	DateOfBirth     string `json:"dateOfBirth,omitempty"`
	Age             int32  `json:"age,omitempty"`
	Occupation      string `json:"occupation"`
	Address         string `json:"address"`
	Mobile          string `json:"mobile"`
	Aadhar          string `json:"aadhar"`
	WitnessMobile   string `json:"witnessMobile"`
	Amount          string `json:"amount"`
	AdvanceInterest string `json:"advanceInterest,omitempty"`
	Date            string `json:"date"`
	CollectionType  string `json:"collectionType"`
	Duration        int32  `json:"duration,omitempty"`
	InterestRate    string `json:"interestRate,omitempty"`
}

// LoanResponse represents a loan in API responses
type LoanResponse struct {
	ID                 int32   `json:"id"`
	WorkspaceID        int32   `json:"workspaceId"`
	LoanNumber         string  `json:"loanNumber"`
	PartyName          string  `json:"partyName"`
	FatherName         string  `json:"fatherName"`
	DateOfBirth        *string `json:"dateOfBirth,omitempty"`
	Age                int32   `json:"age"`
	Occupation         string  `json:"occupation"`
	Address            string  `json:"address"`
	Mobile             string  `json:"mobile"`
	Aadhar             string  `json:"aadhar"`
	WitnessMobile      string  `json:"witnessMobile"`
	Amount             string  `json:"amount"`
	AdvanceInterest    string  `json:"advanceInterest"`
	Date               string  `json:"date"`
	EndDate            *string `json:"endDate,omitempty"`
	CollectionType     string  `json:"collectionType"`
	Duration           int32   `json:"duration"`
	InterestRate       string  `json:"interestRate"`
	InstallmentAmount  string  `json:"installmentAmount"`
	TotalPayable       string  `json:"totalPayable"`
	PrincipalPaid      string  `json:"principalPaid"`
	RemainingPrincipal string  `json:"remainingPrincipal"`
	Status             string  `json:"status"`
	HasPhoto           bool    `json:"hasPhoto"`
	HasProof           bool    `json:"hasProof"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

// CreateLoan handles POST /api/v1/loans
// @Summary Create a loan
// @Tags loans
// @Accept json
// @Produce json
// @Param loan body LoanRequest true "Loan"
// @Success 201 {object} LoanResponse
// @Failure 400 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Security BearerAuth
// @Router /loans [post]
func (h *LoanHandler) CreateLoan(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req LoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, err := parseLoanRequest(req)
	if err != nil {
		return respondError(c, err, "Invalid loan")
	}

	loan, err := h.loanService.CreateLoan(c.Request().Context(), workspaceID, input)
	if err != nil {
		return respondError(c, err, "Failed to create loan")
	}
	return c.JSON(http.StatusCreated, toLoanResponse(loan))
}

// GetLoans handles GET /api/v1/loans
// @Summary List loans
// @Tags loans
// @Produce json
// @Param collectionType query string false "daily, weekly, monthly or fire"
// @Param status query string false "active or closed"
// @Param partyName query string false "Party name, case-insensitive"
// @Success 200 {array} LoanResponse
// @Security BearerAuth
// @Router /loans [get]
func (h *LoanHandler) GetLoans(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	filters := &domain.LoanFilters{}
	if v := c.QueryParam("collectionType"); v != "" {
		ct, err := domain.ParseCollectionType(v)
		if err != nil {
			return respondError(c, err, "Failed to get loans")
		}
		filters.CollectionType = &ct
	}
	if v := strings.ToLower(strings.TrimSpace(c.QueryParam("status"))); v != "" {
		status := domain.LoanStatus(v)
		if status != domain.LoanStatusActive && status != domain.LoanStatusClosed {
			return NewValidationError(c, "Invalid status", []ValidationError{
				{Field: "status", Message: "Must be active or closed"},
			})
		}
		filters.Status = &status
	}
	if v := strings.TrimSpace(c.QueryParam("partyName")); v != "" {
		filters.PartyName = &v
	}

	loans, err := h.loanService.GetLoans(c.Request().Context(), workspaceID, filters)
	if err != nil {
		return respondError(c, err, "Failed to get loans")
	}

	response := make([]LoanResponse, len(loans))
	for i, loan := range loans {
		response[i] = toLoanResponse(loan)
	}
	return c.JSON(http.StatusOK, response)
}

// GetLoan handles GET /api/v1/loans/:id
// @Summary Get a loan
// @Tags loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} LoanResponse
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /loans/{id} [get]
func (h *LoanHandler) GetLoan(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid loan ID")
	}

	loan, err := h.loanService.GetLoanByID(c.Request().Context(), workspaceID, id)
	if err != nil {
		return respondError(c, err, "Failed to get loan")
	}
	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// GetLoanByNumber handles GET /api/v1/loans/by-number/:loanNumber
// @Summary Get a loan by its loan number
// @Tags loans
// @Produce json
// @Param loanNumber path string true "Loan number"
// @Success 200 {object} LoanResponse
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /loans/by-number/{loanNumber} [get]
func (h *LoanHandler) GetLoanByNumber(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	loan, err := h.loanService.GetLoanByNumber(c.Request().Context(), workspaceID, c.Param("loanNumber"))
	if err != nil {
		return respondError(c, err, "Failed to get loan")
	}
	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// UpdateLoan handles PUT /api/v1/loans/:id
// @Summary Update a loan
// @Description Overwrites the editable fields and recomputes the derived ones. Collected principal is kept.
// @Tags loans
// @Accept json
// @Produce json
// @Param id path int true "Loan ID"
// @Param loan body LoanRequest true "Loan"
// @Success 200 {object} LoanResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /loans/{id} [put]
func (h *LoanHandler) UpdateLoan(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid loan ID")
	}

	var req LoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, err := parseLoanRequest(req)
	if err != nil {
		return respondError(c, err, "Invalid loan")
	}

	loan, err := h.loanService.UpdateLoan(c.Request().Context(), workspaceID, id, input)
	if err != nil {
		return respondError(c, err, "Failed to update loan")
	}
	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// DeleteLoan handles DELETE /api/v1/loans/:id
// @Summary Delete a loan and its collections
// @Tags loans
// @Param id path int true "Loan ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /loans/{id} [delete]
func (h *LoanHandler) DeleteLoan(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid loan ID")
	}

	if err := h.loanService.DeleteLoan(c.Request().Context(), workspaceID, id); err != nil {
		return respondError(c, err, "Failed to delete loan")
	}
	return c.NoContent(http.StatusNoContent)
}

// parseLoanRequest converts the wire format into service input
func parseLoanRequest(req LoanRequest) (service.LoanInput, error) {
	ct, err := domain.ParseCollectionType(req.CollectionType)
	if err != nil {
		return service.LoanInput{}, err
	}
	amount, err := parseDecimal("amount", req.Amount)
	if err != nil {
		return service.LoanInput{}, err
	}
	advance, err := parseDecimal("advanceInterest", req.AdvanceInterest)
	if err != nil {
		return service.LoanInput{}, err
	}
	rate, err := parseDecimal("interestRate", req.InterestRate)
	if err != nil {
		return service.LoanInput{}, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return service.LoanInput{}, err
	}
	var dob *time.Time
	if req.DateOfBirth != "" {
		parsed, err := parseDate("dateOfBirth", req.DateOfBirth)
		if err != nil {
			return service.LoanInput{}, err
		}
		dob = &parsed
	}

	return service.LoanInput{
		LoanNumber:      req.LoanNumber,
		PartyName:       req.PartyName,
		FatherName:      req.FatherName,
		DateOfBirth:     dob,
		Age:             req.Age,
		Occupation:      req.Occupation,
		Address:         req.Address,
		Mobile:          req.Mobile,
		Aadhar:          req.Aadhar,
		WitnessMobile:   req.WitnessMobile,
		Amount:          amount,
		AdvanceInterest: advance,
		Date:            date,
		CollectionType:  ct,
		Duration:        req.Duration,
		InterestRate:    rate,
	}, nil
}

func toLoanResponse(loan *domain.Loan) LoanResponse {
	return LoanResponse{
		ID:                 loan.ID,
		WorkspaceID:        loan.WorkspaceID,
		LoanNumber:         loan.LoanNumber,
		PartyName:          loan.PartyName,
		FatherName:         loan.FatherName,
		DateOfBirth:        formatDatePtr(loan.DateOfBirth),
		Age:                loan.Age,
		Occupation:         loan.Occupation,
		Address:            loan.Address,
		Mobile:             loan.Mobile,
		Aadhar:             loan.Aadhar,
		WitnessMobile:      loan.WitnessMobile,
		Amount:             formatMoney(loan.Amount),
		AdvanceInterest:    formatMoney(loan.AdvanceInterest),
		Date:               formatDate(loan.Date),
		EndDate:            formatDatePtr(loan.EndDate),
		CollectionType:     string(loan.CollectionType),
		Duration:           loan.Duration,
		InterestRate:       loan.InterestRate.String(),
		InstallmentAmount:  formatMoney(loan.InstallmentAmount),
		TotalPayable:       formatMoney(loan.TotalPayable),
		PrincipalPaid:      formatMoney(loan.PrincipalPaid),
		RemainingPrincipal: formatMoney(loan.RemainingPrincipal()),
		Status:             string(loan.Status),
		HasPhoto:           loan.PhotoKey != nil && *loan.PhotoKey != "",
		HasProof:           loan.ProofKey != nil && *loan.ProofKey != "",
		CreatedAt:          loan.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          loan.UpdatedAt.Format(time.RFC3339),
	}
}
