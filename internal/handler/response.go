package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/engine"
	"github.com/kanakku/kanakku/kanakku-backend/internal/middleware"
	"github.com/kanakku/kanakku/kanakku-backend/internal/service"
	"github.com/kanakku/kanakku/kanakku-backend/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
	// Required is set when a close payment is short of the remaining principal
	Required string `json:"required,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation    = "https://kanakku.app/errors/validation"
	ErrorTypeNotFound      = "https://kanakku.app/errors/not-found"
	ErrorTypeUnauthorized  = "https://kanakku.app/errors/unauthorized"
	ErrorTypeForbidden     = "https://kanakku.app/errors/forbidden"
	ErrorTypeConflict      = "https://kanakku.app/errors/conflict"
	ErrorTypeUnprocessable = "https://kanakku.app/errors/unprocessable"
	ErrorTypeUnavailable   = "https://kanakku.app/errors/unavailable"
	ErrorTypeInternal      = "https://kanakku.app/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, ProblemDetails{
		Type:     ErrorTypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return c.JSON(http.StatusConflict, ProblemDetails{
		Type:     ErrorTypeConflict,
		Title:    "Conflict",
		Status:   http.StatusConflict,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnprocessableError creates a 422 response for requests that are well
// formed but cannot be applied to the current state
func NewUnprocessableError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnprocessableEntity, ProblemDetails{
		Type:     ErrorTypeUnprocessable,
		Title:    "Unprocessable Entity",
		Status:   http.StatusUnprocessableEntity,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewServiceUnavailableError creates a 503 response
func NewServiceUnavailableError(c echo.Context, detail string) error {
	return c.JSON(http.StatusServiceUnavailable, ProblemDetails{
		Type:     ErrorTypeUnavailable,
		Title:    "Service Unavailable",
		Status:   http.StatusServiceUnavailable,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// fieldErrors maps validation errors to the request field they concern
var fieldErrors = map[error]string{
	domain.ErrLoanNumberRequired:      "loanNumber",
	domain.ErrLoanNumberTooLong:       "loanNumber",
	domain.ErrPartyNameRequired:       "partyName",
	domain.ErrPartyNameTooLong:        "partyName",
	domain.ErrLoanAmountInvalid:       "amount",
	domain.ErrLoanDateRequired:        "date",
	domain.ErrLoanDurationInvalid:     "duration",
	domain.ErrInterestRateInvalid:     "interestRate",
	domain.ErrAdvanceInterestNegative: "advanceInterest",
	domain.ErrInvalidCollectionType:   "collectionType",
	domain.ErrInvalidPaymentMode:      "paymentMode",
	domain.ErrCollectionAmountInvalid: "amount",
	domain.ErrCollectionDateRequired:  "date",
	domain.ErrCollectionTypeMismatch:  "collectionType",
	engine.ErrInvalidPaymentAmount:    "amount",
	domain.ErrInvestmentAmountInvalid: "amount",
	domain.ErrInvalidInvestmentSource: "source",
	domain.ErrExpenseTitleRequired:    "title",
	domain.ErrExpenseTitleTooLong:     "title",
	domain.ErrExpenseAmountInvalid:    "amount",
	domain.ErrInvalidExpenseCategory:  "category",
	domain.ErrNoteTooLong:             "note",
	domain.ErrAllocationAmountInvalid: "reinvestAmount",
	domain.ErrWorkspaceNameRequired:   "name",
	domain.ErrNameTooLong:             "name",
	service.ErrImageTooLarge:          "file",
	service.ErrInvalidFormat:          "file",
	service.ErrImageTooSmall:          "file",
	service.ErrInvalidImageData:       "file",
	service.ErrInvalidDocumentKind:    "kind",
}

var notFoundErrors = []error{
	domain.ErrNotFound,
	domain.ErrLoanNotFound,
	domain.ErrCollectionNotFound,
	domain.ErrInvestmentNotFound,
	domain.ErrExpenseNotFound,
	domain.ErrUserNotFound,
	domain.ErrWorkspaceNotFound,
	service.ErrDocumentNotFound,
}

// respondError maps a service error to its problem response. Unknown
// errors are logged and reported as action failures.
func respondError(c echo.Context, err error, action string) error {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return NewValidationError(c, "Invalid "+reqErr.field, []ValidationError{
			{Field: reqErr.field, Message: reqErr.message},
		})
	}

	var closing *engine.ClosingAmountError
	if errors.As(err, &closing) {
		return c.JSON(http.StatusBadRequest, ProblemDetails{
			Type:     ErrorTypeValidation,
			Title:    "Validation Error",
			Status:   http.StatusBadRequest,
			Detail:   closing.Error(),
			Instance: c.Request().URL.Path,
			Errors:   []ValidationError{{Field: "amount", Message: closing.Error()}},
			Required: closing.Required.StringFixed(2),
		})
	}

	for target, field := range fieldErrors {
		if errors.Is(err, target) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: field, Message: target.Error()},
			})
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return NewNotFoundError(c, capitalize(target.Error()))
		}
	}

	switch {
	case errors.Is(err, domain.ErrLoanNumberTaken), errors.Is(err, domain.ErrAlreadyExists):
		return NewConflictError(c, capitalize(err.Error()))
	case errors.Is(err, domain.ErrLoanClosed), errors.Is(err, domain.ErrInsufficientProfit),
		errors.Is(err, engine.ErrCycleCountingUnsupported):
		return NewUnprocessableError(c, capitalize(err.Error()))
	case errors.Is(err, service.ErrDocumentStorageNotConfigured):
		return NewServiceUnavailableError(c, capitalize(err.Error()))
	}

	log.Error().
		Err(err).
		Int32("workspace_id", middleware.GetWorkspaceID(c)).
		Str("path", c.Request().URL.Path).
		Msg(action)
	return NewInternalError(c, action)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// requestError is a malformed request field
type requestError struct {
	field   string
	message string
}

func (e *requestError) Error() string {
	return e.field + ": " + e.message
}

// parseID reads a positive int32 path parameter
func parseID(c echo.Context, name string) (int32, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id <= 0 {
		return 0, &requestError{field: name, message: "Must be a positive integer"}
	}
	return int32(id), nil
}

// parseDecimal parses a money field; empty yields zero
func parseDecimal(field, value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, &requestError{field: field, message: "Must be a valid decimal number"}
	}
	return d, nil
}

// parseDate parses a YYYY-MM-DD field; empty yields the zero time
func parseDate(field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	t, err := util.ParseDay(value, time.UTC)
	if err != nil {
		return time.Time{}, &requestError{field: field, message: "Must be in YYYY-MM-DD format"}
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(util.DateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(util.DateLayout)
	return &s
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
