package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kanakku/kanakku/kanakku-backend/docs"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/swaggo/swag"
)

// OpenAPI3Spec represents an OpenAPI 3.0 spec structure
type OpenAPI3Spec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       map[string]interface{} `json:"info"`
	Servers    []Server               `json:"servers"`
	Paths      map[string]interface{} `json:"paths"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// Server represents an OpenAPI 3.0 server
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// OpenAPIHandler serves the generated swagger 2.0 document as OpenAPI 3.0
type OpenAPIHandler struct {
	servers []Server
}

// NewOpenAPIHandler creates an OpenAPIHandler advertising the local server
// and, when set, the public one
func NewOpenAPIHandler(publicURL string) *OpenAPIHandler {
	servers := []Server{{URL: "http://localhost:8080/api/v1", Description: "Local Development"}}
	if publicURL != "" {
		servers = append(servers, Server{URL: publicURL, Description: "Production"})
	}
	return &OpenAPIHandler{servers: servers}
}

// Serve handles GET /swagger/openapi.json
func (h *OpenAPIHandler) Serve(c echo.Context) error {
	spec, err := h.build(docs.SwaggerInfo.InstanceName())
	if err != nil {
		log.Error().Err(err).Msg("Failed to build OpenAPI document")
		return NewInternalError(c, "Failed to read API document")
	}
	return c.JSON(http.StatusOK, spec)
}

func (h *OpenAPIHandler) build(instance string) (*OpenAPI3Spec, error) {
	doc, err := swag.ReadDoc(instance)
	if err != nil {
		return nil, err
	}

	var swagger2 map[string]interface{}
	if err := json.Unmarshal([]byte(doc), &swagger2); err != nil {
		return nil, err
	}

	info, _ := swagger2["info"].(map[string]interface{})

	paths := map[string]interface{}{}
	if p, ok := swagger2["paths"].(map[string]interface{}); ok {
		for route, item := range p {
			ops, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			converted := make(map[string]interface{}, len(ops))
			for method, op := range ops {
				if m, ok := op.(map[string]interface{}); ok {
					converted[method] = convertOperation(m)
				}
			}
			paths[route] = converted
		}
	}

	components := map[string]interface{}{}
	if secDefs, ok := swagger2["securityDefinitions"].(map[string]interface{}); ok {
		components["securitySchemes"] = convertSecuritySchemes(secDefs)
	}
	if definitions, ok := swagger2["definitions"].(map[string]interface{}); ok {
		components["schemas"] = rewriteRefs(definitions)
	}

	return &OpenAPI3Spec{
		OpenAPI:    "3.0.3",
		Info:       info,
		Servers:    h.servers,
		Paths:      paths,
		Components: components,
	}, nil
}

// convertOperation moves body and formData parameters into requestBody and
// wraps response schemas in a JSON media type
func convertOperation(op map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(op))
	consumes := stringList(op["consumes"], "application/json")
	produces := stringList(op["produces"], "application/json")

	for key, value := range op {
		switch key {
		case "consumes", "produces", "parameters", "responses":
		default:
			out[key] = value
		}
	}

	var params []interface{}
	form := map[string]interface{}{}
	var formRequired []string
	raw, _ := op["parameters"].([]interface{})
	for _, p := range raw {
		param, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		switch param["in"] {
		case "body":
			out["requestBody"] = map[string]interface{}{
				"description": param["description"],
				"required":    param["required"] == true,
				"content": map[string]interface{}{
					consumes[0]: map[string]interface{}{"schema": rewriteRefs(param["schema"])},
				},
			}
		case "formData":
			name, _ := param["name"].(string)
			prop := map[string]interface{}{"type": param["type"]}
			if param["type"] == "file" {
				prop = map[string]interface{}{"type": "string", "format": "binary"}
			}
			form[name] = prop
			if param["required"] == true {
				formRequired = append(formRequired, name)
			}
		default:
			params = append(params, convertParameter(param))
		}
	}
	if len(form) > 0 {
		schema := map[string]interface{}{"type": "object", "properties": form}
		if len(formRequired) > 0 {
			schema["required"] = formRequired
		}
		out["requestBody"] = map[string]interface{}{
			"content": map[string]interface{}{
				"multipart/form-data": map[string]interface{}{"schema": schema},
			},
		}
	}
	if len(params) > 0 {
		out["parameters"] = params
	}

	responses := map[string]interface{}{}
	if rs, ok := op["responses"].(map[string]interface{}); ok {
		for code, r := range rs {
			resp, ok := r.(map[string]interface{})
			if !ok {
				continue
			}
			converted := map[string]interface{}{"description": resp["description"]}
			if schema, ok := resp["schema"]; ok {
				converted["content"] = map[string]interface{}{
					produces[0]: map[string]interface{}{"schema": rewriteRefs(schema)},
				}
			}
			responses[code] = converted
		}
	}
	out["responses"] = responses
	return out
}

// convertParameter turns the inline type fields of a path or query
// parameter into a schema object
func convertParameter(param map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for _, field := range []string{"name", "in", "description", "required"} {
		if val, ok := param[field]; ok {
			result[field] = val
		}
	}

	schema := make(map[string]interface{})
	for _, field := range []string{"type", "format", "enum", "default", "minimum", "maximum", "items"} {
		if val, ok := param[field]; ok {
			schema[field] = rewriteRefs(val)
		}
	}
	if len(schema) > 0 {
		result["schema"] = schema
	}
	return result
}

// convertSecuritySchemes maps the bearer apiKey definition to an http scheme
func convertSecuritySchemes(defs map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(defs))
	for name, d := range defs {
		def, ok := d.(map[string]interface{})
		if ok && def["in"] == "header" && def["name"] == "Authorization" {
			out[name] = map[string]interface{}{
				"type":         "http",
				"scheme":       "bearer",
				"bearerFormat": "JWT",
				"description":  def["description"],
			}
			continue
		}
		out[name] = d
	}
	return out
}

// rewriteRefs recursively points $ref values at #/components/schemas/
func rewriteRefs(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			if ref, ok := value.(string); ok && key == "$ref" {
				result[key] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
				continue
			}
			result[key] = rewriteRefs(value)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = rewriteRefs(item)
		}
		return result
	default:
		return data
	}
}

func stringList(v interface{}, fallback string) []string {
	raw, _ := v.([]interface{})
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		out = append(out, fallback)
	}
	return out
}
