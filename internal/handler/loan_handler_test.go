package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/service"
	"github.com/kanakku/kanakku/kanakku-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// testWeeklyLoan is a 1000 weekly loan at 20% over 10 weeks
func testWeeklyLoan(id int32, number string) *domain.Loan {
	end := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	return &domain.Loan{
		ID:                id,
		WorkspaceID:       1,
		LoanNumber:        number,
		PartyName:         "Ravi Kumar",
		FatherName:        "Suresh Kumar",
		Address:           "Madurai",
		Mobile:            "9876543210",
		Amount:            decimal.NewFromInt(1000),
		InterestRate:      decimal.NewFromInt(20),
		Duration:          10,
		InstallmentAmount: decimal.NewFromInt(120),
		TotalPayable:      decimal.NewFromInt(1200),
		PrincipalPaid:     decimal.Zero,
		AdvanceInterest:   decimal.Zero,
		CollectionType:    domain.CollectionTypeWeekly,
		Status:            domain.LoanStatusActive,
		Date:              time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:           &end,
	}
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal problem: %v", err)
	}
	return problem
}

func newLoanTestHandler() (*LoanHandler, *testutil.MockLoanRepository) {
	loanRepo := testutil.NewMockLoanRepository()
	loanService := service.NewLoanService(loanRepo, time.UTC)
	return NewLoanHandler(loanService), loanRepo
}

func TestCreateLoan_Success(t *testing.T) {
	e := echo.New()
	handler, loanRepo := newLoanTestHandler()

	reqBody := `{
		"loanNumber": "W-101",
		"partyName": "Ravi Kumar",
		"mobile": "9876543210",
		"amount": "1000",
		"date": "2026-01-01",
		"collectionType": "weekly"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setWorkspaceInContext(c, 1)

	if err := handler.CreateLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response LoanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Duration != 10 {
		t.Errorf("Expected default duration 10, got %d", response.Duration)
	}
	if response.InterestRate != "20" {
		t.Errorf("Expected default interest rate '20', got %s", response.InterestRate)
	}
	if response.TotalPayable != "1200.00" {
		t.Errorf("Expected total payable '1200.00', got %s", response.TotalPayable)
	}
	if response.InstallmentAmount != "120.00" {
		t.Errorf("Expected installment '120.00', got %s", response.InstallmentAmount)
	}
	if response.EndDate == nil || *response.EndDate != "2026-03-12" {
		t.Errorf("Expected end date 2026-03-12, got %v", response.EndDate)
	}
	if response.Status != string(domain.LoanStatusActive) {
		t.Errorf("Expected status active, got %s", response.Status)
	}
	if len(loanRepo.Loans) != 1 {
		t.Errorf("Expected 1 stored loan, got %d", len(loanRepo.Loans))
	}
}

func TestCreateLoan_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing party name", `{"loanNumber":"W-1","amount":"1000","date":"2026-01-01","collectionType":"weekly"}`, "partyName"},
		{"bad amount", `{"loanNumber":"W-1","partyName":"Ravi","amount":"ten","date":"2026-01-01","collectionType":"weekly"}`, "amount"},
		{"bad date", `{"loanNumber":"W-1","partyName":"Ravi","amount":"1000","date":"01/01/2026","collectionType":"weekly"}`, "date"},
		{"unknown collection type", `{"loanNumber":"W-1","partyName":"Ravi","amount":"1000","date":"2026-01-01","collectionType":"yearly"}`, "collectionType"},
		{"zero amount", `{"loanNumber":"W-1","partyName":"Ravi","amount":"0","date":"2026-01-01","collectionType":"weekly"}`, "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			handler, _ := newLoanTestHandler()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			setWorkspaceInContext(c, 1)

			if err := handler.CreateLoan(c); err != nil {
				t.Fatalf("Expected JSON response, got error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", rec.Code)
			}

			problem := decodeProblem(t, rec)
			if len(problem.Errors) != 1 || problem.Errors[0].Field != tt.field {
				t.Errorf("Expected error on %s, got %+v", tt.field, problem.Errors)
			}
		})
	}
}

func TestCreateLoan_DuplicateNumber(t *testing.T) {
	e := echo.New()
	handler, loanRepo := newLoanTestHandler()
	loanRepo.AddLoan(testWeeklyLoan(1, "W-101"))

	reqBody := `{"loanNumber":"W-101","partyName":"Other","amount":"500","date":"2026-02-01","collectionType":"weekly"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setWorkspaceInContext(c, 1)

	if err := handler.CreateLoan(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
}

func TestCreateLoan_NoWorkspace(t *testing.T) {
	e := echo.New()
	handler, _ := newLoanTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.CreateLoan(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestGetLoans_Filters(t *testing.T) {
	e := echo.New()
	handler, loanRepo := newLoanTestHandler()

	loanRepo.AddLoan(testWeeklyLoan(1, "W-1"))
	closed := testWeeklyLoan(2, "W-2")
	closed.Status = domain.LoanStatusClosed
	closed.PrincipalPaid = decimal.NewFromInt(1000)
	loanRepo.AddLoan(closed)
	other := testWeeklyLoan(3, "W-3")
	other.WorkspaceID = 2
	loanRepo.AddLoan(other)

	tests := []struct {
		name     string
		query    string
		expected int
		status   int
	}{
		{"all", "", 2, http.StatusOK},
		{"active only", "?status=active", 1, http.StatusOK},
		{"closed only", "?status=closed", 1, http.StatusOK},
		{"by party", "?partyName=ravi%20kumar", 2, http.StatusOK},
		{"other type", "?collectionType=monthly", 0, http.StatusOK},
		{"bad status", "?status=pending", 0, http.StatusBadRequest},
		{"bad type", "?collectionType=yearly", 0, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/loans"+tt.query, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			setWorkspaceInContext(c, 1)

			if err := handler.GetLoans(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if rec.Code != tt.status {
				t.Fatalf("Expected status %d, got %d", tt.status, rec.Code)
			}
			if tt.status != http.StatusOK {
				return
			}

			var response []LoanResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}
			if len(response) != tt.expected {
				t.Errorf("Expected %d loans, got %d", tt.expected, len(response))
			}
		})
	}
}

func TestGetLoan_ByIDAndNumber(t *testing.T) {
	e := echo.New()
	handler, loanRepo := newLoanTestHandler()
	loan := testWeeklyLoan(5, "W-5")
	loan.PrincipalPaid = decimal.NewFromInt(300)
	loanRepo.AddLoan(loan)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("5")
	setWorkspaceInContext(c, 1)

	if err := handler.GetLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var response LoanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.RemainingPrincipal != "700.00" {
		t.Errorf("Expected remaining principal '700.00', got %s", response.RemainingPrincipal)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/loans/by-number/W-5", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("loanNumber")
	c.SetParamValues("W-5")
	setWorkspaceInContext(c, 1)

	if err := handler.GetLoanByNumber(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
}

func TestGetLoan_NotFoundAndBadID(t *testing.T) {
	e := echo.New()
	handler, loanRepo := newLoanTestHandler()
	other := testWeeklyLoan(1, "W-1")
	other.WorkspaceID = 2
	loanRepo.AddLoan(other)

	tests := []struct {
		name   string
		id     string
		status int
	}{
		{"other workspace", "1", http.StatusNotFound},
		{"missing", "99", http.StatusNotFound},
		{"not a number", "abc", http.StatusBadRequest},
		{"negative", "-3", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/"+tt.id, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.id)
			setWorkspaceInContext(c, 1)

			if err := handler.GetLoan(c); err != nil {
				t.Fatalf("Expected JSON response, got error: %v", err)
			}
			if rec.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestUpdateLoan_KeepsPrincipalPaid(t *testing.T) {
	e := echo.New()
	handler, loanRepo := newLoanTestHandler()
	loan := testWeeklyLoan(1, "W-1")
	loan.PrincipalPaid = decimal.NewFromInt(200)
	loanRepo.AddLoan(loan)

	reqBody := `{
		"loanNumber": "W-1",
		"partyName": "Ravi Kumar",
		"amount": "2000",
		"date": "2026-01-01",
		"collectionType": "weekly"
	}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/loans/1", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setWorkspaceInContext(c, 1)

	if err := handler.UpdateLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response LoanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.PrincipalPaid != "200.00" {
		t.Errorf("Expected principal paid '200.00', got %s", response.PrincipalPaid)
	}
	if response.TotalPayable != "2400.00" {
		t.Errorf("Expected total payable '2400.00', got %s", response.TotalPayable)
	}
}

func TestDeleteLoan(t *testing.T) {
	e := echo.New()
	handler, loanRepo := newLoanTestHandler()
	loanRepo.AddLoan(testWeeklyLoan(1, "W-1"))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/loans/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setWorkspaceInContext(c, 1)

	if err := handler.DeleteLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
	if len(loanRepo.Loans) != 0 {
		t.Errorf("Expected loan to be deleted, %d remain", len(loanRepo.Loans))
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/v1/loans/1", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setWorkspaceInContext(c, 1)

	if err := handler.DeleteLoan(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on second delete, got %d", rec.Code)
	}
}
