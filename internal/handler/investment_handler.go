package handler

import (
	"net/http"
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/middleware"
	"github.com/kanakku/kanakku/kanakku-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// InvestmentHandler handles investment-related HTTP requests
type InvestmentHandler struct {
	investmentService *service.InvestmentService
}

// NewInvestmentHandler creates a new InvestmentHandler
func NewInvestmentHandler(investmentService *service.InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{investmentService: investmentService}
}

// InvestmentRequest represents the create/update investment request body
type InvestmentRequest struct {
	Amount string `json:"amount"`
	Source string `json:"source"`
	Note   string `json:"note"`
	Date   string `json:"date"`
}

// InvestmentResponse represents an investment in API responses
type InvestmentResponse struct {
	ID          int32  `json:"id"`
	WorkspaceID int32  `json:"workspaceId"`
	Amount      string `json:"amount"`
	Source      string `json:"source"`
	Note        string `json:"note"`
	Date        string `json:"date"`
	CreatedAt   string `json:"createdAt"`
}

// CreateInvestment handles POST /api/v1/investments
// @Summary Record an investment
// @Tags investments
// @Accept json
// @Produce json
// @Param investment body InvestmentRequest true "Investment"
// @Success 201 {object} InvestmentResponse
// @Failure 400 {object} ProblemDetails
// @Security BearerAuth
// @Router /investments [post]
func (h *InvestmentHandler) CreateInvestment(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	input, err := bindInvestment(c)
	if err != nil {
		return respondError(c, err, "Invalid investment")
	}

	created, err := h.investmentService.CreateInvestment(c.Request().Context(), workspaceID, input)
	if err != nil {
		return respondError(c, err, "Failed to create investment")
	}
	return c.JSON(http.StatusCreated, toInvestmentResponse(created))
}

// GetInvestments handles GET /api/v1/investments
// @Summary List investments
// @Tags investments
// @Produce json
// @Success 200 {array} InvestmentResponse
// @Security BearerAuth
// @Router /investments [get]
func (h *InvestmentHandler) GetInvestments(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	investments, err := h.investmentService.GetInvestments(c.Request().Context(), workspaceID)
	if err != nil {
		return respondError(c, err, "Failed to get investments")
	}

	response := make([]InvestmentResponse, len(investments))
	for i, inv := range investments {
		response[i] = toInvestmentResponse(inv)
	}
	return c.JSON(http.StatusOK, response)
}

// GetInvestment handles GET /api/v1/investments/:id
// @Summary Get an investment
// @Tags investments
// @Produce json
// @Param id path int true "Investment ID"
// @Success 200 {object} InvestmentResponse
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /investments/{id} [get]
func (h *InvestmentHandler) GetInvestment(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid investment ID")
	}

	inv, err := h.investmentService.GetInvestmentByID(c.Request().Context(), workspaceID, id)
	if err != nil {
		return respondError(c, err, "Failed to get investment")
	}
	return c.JSON(http.StatusOK, toInvestmentResponse(inv))
}

// UpdateInvestment handles PUT /api/v1/investments/:id
// @Summary Update an investment
// @Tags investments
// @Accept json
// @Produce json
// @Param id path int true "Investment ID"
// @Param investment body InvestmentRequest true "Investment"
// @Success 200 {object} InvestmentResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /investments/{id} [put]
func (h *InvestmentHandler) UpdateInvestment(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid investment ID")
	}

	input, err := bindInvestment(c)
	if err != nil {
		return respondError(c, err, "Invalid investment")
	}

	updated, err := h.investmentService.UpdateInvestment(c.Request().Context(), workspaceID, id, input)
	if err != nil {
		return respondError(c, err, "Failed to update investment")
	}
	return c.JSON(http.StatusOK, toInvestmentResponse(updated))
}

// DeleteInvestment handles DELETE /api/v1/investments/:id
// @Summary Delete an investment
// @Tags investments
// @Param id path int true "Investment ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /investments/{id} [delete]
func (h *InvestmentHandler) DeleteInvestment(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid investment ID")
	}

	if err := h.investmentService.DeleteInvestment(c.Request().Context(), workspaceID, id); err != nil {
		return respondError(c, err, "Failed to delete investment")
	}
	return c.NoContent(http.StatusNoContent)
}

func bindInvestment(c echo.Context) (service.InvestmentInput, error) {
	var req InvestmentRequest
	if err := c.Bind(&req); err != nil {
		return service.InvestmentInput{}, &requestError{field: "body", message: "Invalid request body"}
	}
	amount, err := parseDecimal("amount", req.Amount)
	if err != nil {
		return service.InvestmentInput{}, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return service.InvestmentInput{}, err
	}
	return service.InvestmentInput{
		Amount: amount,
		Source: req.Source,
		Note:   req.Note,
		Date:   date,
	}, nil
}

func toInvestmentResponse(inv *domain.Investment) InvestmentResponse {
	return InvestmentResponse{
		ID:          inv.ID,
		WorkspaceID: inv.WorkspaceID,
		Amount:      formatMoney(inv.Amount),
		Source:      string(inv.Source),
		Note:        inv.Note,
		Date:        formatDate(inv.Date),
		CreatedAt:   inv.CreatedAt.Format(time.RFC3339),
	}
}
