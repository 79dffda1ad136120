package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const problemBaseURL = "https://kanakku.app/errors/"

// problemKind describes one class of RFC 7807 response the middleware can
// emit. The handler package renders the same shape for business errors.
type problemKind struct {
	slug   string
	title  string
	status int
}

var (
	problemUnauthorized = problemKind{"unauthorized", "Unauthorized", http.StatusUnauthorized}
	problemRateLimited  = problemKind{"rate-limit", "Rate Limit Exceeded", http.StatusTooManyRequests}
	problemInternal     = problemKind{"internal", "Internal Server Error", http.StatusInternalServerError}
)

type problemBody struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// writeProblem aborts the chain with a problem document. It returns the
// write error, so middlewares can `return writeProblem(...)`.
func writeProblem(c echo.Context, kind problemKind, detail string) error {
	return c.JSON(kind.status, problemBody{
		Type:     problemBaseURL + kind.slug,
		Title:    kind.title,
		Status:   kind.status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}
