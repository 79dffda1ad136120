package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestOpenAPIHandler_Serve(t *testing.T) {
	e := echo.New()
	handler := NewOpenAPIHandler("https://api.example.test/api/v1")

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/swagger/openapi.json", nil), rec)

	if err := handler.Serve(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var spec OpenAPI3Spec
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatalf("Failed to unmarshal document: %v", err)
	}
	if spec.OpenAPI != "3.0.3" {
		t.Errorf("Expected openapi 3.0.3, got %s", spec.OpenAPI)
	}
	if len(spec.Servers) != 2 || spec.Servers[1].URL != "https://api.example.test/api/v1" {
		t.Errorf("Expected local and public servers, got %+v", spec.Servers)
	}
	if _, ok := spec.Paths["/pending/{collectionType}"]; !ok {
		t.Error("Expected pending report path in document")
	}
}

func TestConvertOperation_BodyAndForm(t *testing.T) {
	op := map[string]interface{}{
		"summary":  "Upload",
		"consumes": []interface{}{"multipart/form-data"},
		"parameters": []interface{}{
			map[string]interface{}{"name": "id", "in": "path", "required": true, "type": "integer"},
			map[string]interface{}{"name": "file", "in": "formData", "required": true, "type": "file"},
		},
		"responses": map[string]interface{}{
			"201": map[string]interface{}{
				"description": "Created",
				"schema":      map[string]interface{}{"$ref": "#/definitions/handler.DocumentResponse"},
			},
			"204": map[string]interface{}{"description": "No Content"},
		},
	}

	out := convertOperation(op)

	if _, ok := out["consumes"]; ok {
		t.Error("Expected consumes to be dropped")
	}
	params, _ := out["parameters"].([]interface{})
	if len(params) != 1 {
		t.Fatalf("Expected only the path parameter, got %d", len(params))
	}
	if schema := params[0].(map[string]interface{})["schema"].(map[string]interface{}); schema["type"] != "integer" {
		t.Errorf("Expected integer schema, got %v", schema)
	}

	body, ok := out["requestBody"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected a multipart request body")
	}
	content := body["content"].(map[string]interface{})
	if _, ok := content["multipart/form-data"]; !ok {
		t.Errorf("Expected multipart/form-data content, got %v", content)
	}

	responses := out["responses"].(map[string]interface{})
	created := responses["201"].(map[string]interface{})
	schema := created["content"].(map[string]interface{})["application/json"].(map[string]interface{})["schema"].(map[string]interface{})
	if schema["$ref"] != "#/components/schemas/handler.DocumentResponse" {
		t.Errorf("Expected ref rewritten to components, got %v", schema["$ref"])
	}
	if _, ok := responses["204"].(map[string]interface{})["content"]; ok {
		t.Error("Expected no content on 204")
	}
}

func TestConvertOperation_JSONBody(t *testing.T) {
	op := map[string]interface{}{
		"parameters": []interface{}{
			map[string]interface{}{
				"name":     "loan",
				"in":       "body",
				"required": true,
				"schema":   map[string]interface{}{"$ref": "#/definitions/handler.LoanRequest"},
			},
		},
		"responses": map[string]interface{}{},
	}

	out := convertOperation(op)

	if _, ok := out["parameters"]; ok {
		t.Error("Expected body parameter removed from parameters")
	}
	body := out["requestBody"].(map[string]interface{})
	if body["required"] != true {
		t.Error("Expected required request body")
	}
	media := body["content"].(map[string]interface{})["application/json"].(map[string]interface{})
	if media["schema"].(map[string]interface{})["$ref"] != "#/components/schemas/handler.LoanRequest" {
		t.Errorf("Expected rewritten schema ref, got %v", media["schema"])
	}
}
