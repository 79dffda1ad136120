package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/middleware"
	"github.com/kanakku/kanakku/kanakku-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// DocumentHandler handles loan document uploads and the application form
type DocumentHandler struct {
	documentService *service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// DocumentResponse holds presigned links to a stored document
type DocumentResponse struct {
	Kind        string `json:"kind"`
	DisplayURL  string `json:"displayUrl"`
	OriginalURL string `json:"originalUrl"`
	ExpiresAt   string `json:"expiresAt"`
}

// UploadDocument handles POST /api/v1/loans/:id/documents/:kind
// @Summary Upload a loan photo or ID proof
// @Description Accepts a JPEG or PNG up to 5MB in the "file" form field. Replaces any earlier document of the same kind.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Loan ID"
// @Param kind path string true "photo or proof"
// @Param file formData file true "Image"
// @Success 201 {object} DocumentResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Security BearerAuth
// @Router /loans/{id}/documents/{kind} [post]
func (h *DocumentHandler) UploadDocument(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	loanID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid loan ID")
	}
	kind := domain.DocumentKind(c.Param("kind"))
	if !kind.IsValid() {
		return respondError(c, service.ErrInvalidDocumentKind, "Invalid document kind")
	}

	if h.documentService == nil || !h.documentService.IsEnabled() {
		return NewServiceUnavailableError(c, "Document uploads are disabled (storage not configured)")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	// one byte past the limit is enough to reject oversized files
	data, err := io.ReadAll(io.LimitReader(src, service.MaxImageSize+1))
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	urls, err := h.documentService.Upload(c.Request().Context(), workspaceID, loanID, kind, data, file.Filename)
	if err != nil {
		return respondError(c, err, "Failed to upload document")
	}
	return c.JSON(http.StatusCreated, toDocumentResponse(urls))
}

// GetDocument handles GET /api/v1/loans/:id/documents/:kind
// @Summary Presigned links to a loan document
// @Tags documents
// @Produce json
// @Param id path int true "Loan ID"
// @Param kind path string true "photo or proof"
// @Success 200 {object} DocumentResponse
// @Failure 404 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Security BearerAuth
// @Router /loans/{id}/documents/{kind} [get]
func (h *DocumentHandler) GetDocument(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	loanID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid loan ID")
	}
	if h.documentService == nil {
		return NewServiceUnavailableError(c, "Document storage is not configured")
	}

	urls, err := h.documentService.GetURLs(c.Request().Context(), workspaceID, loanID, domain.DocumentKind(c.Param("kind")))
	if err != nil {
		return respondError(c, err, "Failed to get document")
	}
	return c.JSON(http.StatusOK, toDocumentResponse(urls))
}

// GetApplication handles GET /api/v1/loans/:id/application
// @Summary Loan application form data
// @Description Labelled rows for rendering a printable application, with the photo link when storage is configured.
// @Tags documents
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} service.Application
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /loans/{id}/application [get]
func (h *DocumentHandler) GetApplication(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	loanID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid loan ID")
	}

	app, err := h.documentService.GetApplication(c.Request().Context(), workspaceID, loanID)
	if err != nil {
		return respondError(c, err, "Failed to build application")
	}
	return c.JSON(http.StatusOK, app)
}

func toDocumentResponse(urls *service.DocumentURLs) DocumentResponse {
	return DocumentResponse{
		Kind:        string(urls.Kind),
		DisplayURL:  urls.DisplayURL,
		OriginalURL: urls.OriginalURL,
		ExpiresAt:   urls.ExpiresAt.Format(time.RFC3339),
	}
}
