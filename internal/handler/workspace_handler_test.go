package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/service"
	"github.com/kanakku/kanakku/kanakku-backend/internal/testutil"
	"github.com/labstack/echo/v4"
)

func newWorkspaceTestHandler() (*WorkspaceHandler, *testutil.MockWorkspaceRepository) {
	repo := testutil.NewMockWorkspaceRepository()
	repo.AddWorkspace(&domain.Workspace{ID: 1, Name: "Ravi Finance"}, "auth0|owner")
	return NewWorkspaceHandler(service.NewWorkspaceService(repo)), repo
}

func TestGetWorkspace_Success(t *testing.T) {
	e := echo.New()
	handler, _ := newWorkspaceTestHandler()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/workspace", nil), rec)
	setWorkspaceInContext(c, 1)

	if err := handler.GetWorkspace(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var response WorkspaceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Name != "Ravi Finance" {
		t.Errorf("Expected name Ravi Finance, got %s", response.Name)
	}
}

func TestGetWorkspace_NoWorkspace(t *testing.T) {
	e := echo.New()
	handler, _ := newWorkspaceTestHandler()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/workspace", nil), rec)

	if err := handler.GetWorkspace(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestRenameWorkspace(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantName   string
	}{
		{"trims the name", `{"name":"  Kumar Bankers  "}`, http.StatusOK, "Kumar Bankers"},
		{"blank name", `{"name":"   "}`, http.StatusBadRequest, "Ravi Finance"},
		{"too long", `{"name":"` + strings.Repeat("x", 300) + `"}`, http.StatusBadRequest, "Ravi Finance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			handler, repo := newWorkspaceTestHandler()

			req := httptest.NewRequest(http.MethodPut, "/api/v1/workspace", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			setWorkspaceInContext(c, 1)

			if err := handler.RenameWorkspace(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if repo.Workspaces[1].Name != tt.wantName {
				t.Errorf("Expected stored name %q, got %q", tt.wantName, repo.Workspaces[1].Name)
			}
		})
	}
}

func TestClearAllData(t *testing.T) {
	e := echo.New()
	handler, repo := newWorkspaceTestHandler()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/v1/workspace/clear", nil), rec)
	setWorkspaceInContext(c, 1)

	if err := handler.ClearAllData(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rec.Code)
	}
	if len(repo.Cleared) != 1 || repo.Cleared[0] != 1 {
		t.Errorf("Expected workspace 1 cleared, got %v", repo.Cleared)
	}
	if _, ok := repo.Workspaces[1]; !ok {
		t.Error("Expected workspace itself to be kept")
	}
}

func TestClearAllData_UnknownWorkspace(t *testing.T) {
	e := echo.New()
	handler, repo := newWorkspaceTestHandler()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/v1/workspace/clear", nil), rec)
	setWorkspaceInContext(c, 42)

	if err := handler.ClearAllData(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
	if len(repo.Cleared) != 0 {
		t.Errorf("Expected nothing cleared, got %v", repo.Cleared)
	}
}
