package handler

import (
	"net/http"

	"github.com/kanakku/kanakku/kanakku-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Handlers bundles every HTTP handler the API exposes
type Handlers struct {
	Auth       *AuthHandler
	Workspace  *WorkspaceHandler
	Loan       *LoanHandler
	Collection *CollectionHandler
	Pending    *PendingHandler
	Investment *InvestmentHandler
	Expense    *ExpenseHandler
	Stats      *StatsHandler
	Document   *DocumentHandler
	WebSocket  *WebSocketHandler
	OpenAPI    *OpenAPIHandler
}

// RegisterRoutes sets up all API routes. Business routes require a
// provisioned workspace and are rate limited per workspace.
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter middleware.Limiter, h Handlers) {
	e.GET("/health", Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if h.OpenAPI != nil {
		e.GET("/swagger/openapi.json", h.OpenAPI.Serve)
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if h.WebSocket != nil {
		e.GET("/ws", h.WebSocket.HandleWS)
	}

	// API version 1
	api := e.Group("/api/v1")

	// Auth routes (protected, workspace optional)
	auth := api.Group("/auth")
	auth.Use(authMiddleware.Authenticate())
	auth.POST("/callback", h.Auth.Callback)
	auth.GET("/me", h.Auth.Me)
	auth.POST("/logout", h.Auth.Logout)

	business := api.Group("")
	business.Use(authMiddleware.Authenticate(), middleware.RequireWorkspace(), middleware.RateLimitMiddleware(limiter))

	workspace := business.Group("/workspace")
	workspace.GET("", h.Workspace.GetWorkspace)
	workspace.PUT("", h.Workspace.RenameWorkspace)
	workspace.DELETE("/clear", h.Workspace.ClearAllData)

	loans := business.Group("/loans")
	loans.POST("", h.Loan.CreateLoan)
	loans.GET("", h.Loan.GetLoans)
	loans.GET("/by-number/:loanNumber", h.Loan.GetLoanByNumber)
	loans.GET("/:id", h.Loan.GetLoan)
	loans.PUT("/:id", h.Loan.UpdateLoan)
	loans.DELETE("/:id", h.Loan.DeleteLoan)
	loans.POST("/:id/documents/:kind", h.Document.UploadDocument)
	loans.GET("/:id/documents/:kind", h.Document.GetDocument)
	loans.GET("/:id/application", h.Document.GetApplication)

	collections := business.Group("/collections")
	collections.POST("/preview", h.Collection.PreviewCollection)
	collections.POST("", h.Collection.CreateCollection)
	collections.GET("", h.Collection.GetCollections)
	collections.GET("/report", h.Collection.GetReport)
	collections.GET("/ledger/:partyName", h.Collection.GetLedger)
	collections.GET("/:id", h.Collection.GetCollection)
	collections.PUT("/:id", h.Collection.UpdateCollection)
	collections.DELETE("/:id", h.Collection.DeleteCollection)

	business.GET("/pending/:collectionType", h.Pending.GetPendingReport)

	investments := business.Group("/investments")
	investments.POST("", h.Investment.CreateInvestment)
	investments.GET("", h.Investment.GetInvestments)
	investments.GET("/:id", h.Investment.GetInvestment)
	investments.PUT("/:id", h.Investment.UpdateInvestment)
	investments.DELETE("/:id", h.Investment.DeleteInvestment)

	expenses := business.Group("/expenses")
	expenses.POST("", h.Expense.CreateExpense)
	expenses.GET("", h.Expense.GetExpenses)
	expenses.GET("/:id", h.Expense.GetExpense)
	expenses.PUT("/:id", h.Expense.UpdateExpense)
	expenses.DELETE("/:id", h.Expense.DeleteExpense)

	business.GET("/stats", h.Stats.GetStats)
	business.POST("/profit/allocate", h.Stats.AllocateProfit)
}

// Health handles GET /health
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
