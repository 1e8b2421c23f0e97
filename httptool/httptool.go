// Package httptool provides the HTTP proxy tool family: summarizing the
// backend's published OpenAPI description, issuing arbitrary requests on the
// caller's behalf, running declarative response checks and probing health.
package httptool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pochehq/agentloop/logging"
	"github.com/pochehq/agentloop/tool"
)

var proxiedMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true, "DELETE": true,
}

// Options configures a Toolset.
type Options struct {
	// Timeout bounds every outbound request. Ignored when Client is set.
	Timeout time.Duration
	// Client overrides the shared HTTP client (tests inject one here).
	Client *http.Client
	Logger logging.Logger
}

// Toolset issues requests against one backend base URL through a shared
// client. Safe for concurrent use.
type Toolset struct {
	baseURL string
	client  *http.Client
	logger  logging.Logger
}

// New constructs a Toolset for the backend at baseURL.
func New(baseURL string, optFns ...func(o *Options)) *Toolset {
	opts := Options{
		Timeout: 15 * time.Second,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Toolset{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  opts.Logger,
	}
}

// Tools returns the HTTP proxy tool family.
func (t *Toolset) Tools() []tool.Tool {
	return []tool.Tool{
		t.getSchemaTool(),
		t.listEndpointsTool(),
		t.callTool(),
		t.apiTestTool(),
		t.healthCheckTool(),
	}
}

func (t *Toolset) fetchOpenAPI(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/openapi.json", nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch openapi schema: %w", err)
	}
	defer resp.Body.Close()

	var schema map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&schema); err != nil {
		return nil, fmt.Errorf("decode openapi schema: %w", err)
	}
	return schema, nil
}

func (t *Toolset) getSchemaTool() tool.Tool {
	params := map[string]any{"type": "object", "properties": map[string]any{}, "required": []string{}}
	return tool.NewFunctionTool(
		"api_get_schema",
		"Retrieve the OpenAPI schema from the backend, including endpoints and request/response schemas",
		params,
		func(ctx context.Context, _ map[string]any) (any, error) {
			return t.fetchOpenAPI(ctx)
		},
	)
}

func (t *Toolset) listEndpointsTool() tool.Tool {
	params := map[string]any{"type": "object", "properties": map[string]any{}, "required": []string{}}
	return tool.NewFunctionTool(
		"api_list_endpoints",
		"List all available API endpoints with their methods and descriptions",
		params,
		func(ctx context.Context, _ map[string]any) (any, error) {
			schema, err := t.fetchOpenAPI(ctx)
			if err != nil {
				return nil, err
			}

			endpoints := []map[string]any{}
			paths, _ := schema["paths"].(map[string]any)
			for path, raw := range paths {
				methods, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				for method, rawDetails := range methods {
					if !proxiedMethods[strings.ToUpper(method)] {
						continue
					}
					details, _ := rawDetails.(map[string]any)
					endpoints = append(endpoints, map[string]any{
						"path":        path,
						"method":      strings.ToUpper(method),
						"summary":     stringField(details, "summary"),
						"description": stringField(details, "description"),
						"tags":        details["tags"],
					})
				}
			}
			return map[string]any{"endpoints": endpoints}, nil
		},
	)
}

func (t *Toolset) callTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"method":       map[string]any{"type": "string", "description": "HTTP method (GET, POST, PUT, PATCH, DELETE)"},
			"path":         map[string]any{"type": "string", "description": "API path (e.g., /api/v1/items)"},
			"body":         map[string]any{"type": "object", "description": "Request body for POST/PUT/PATCH requests"},
			"query_params": map[string]any{"type": "object", "description": "Query parameters"},
		},
		"required": []string{"method", "path"},
	}
	return tool.NewFunctionTool(
		"api_call",
		"Make an HTTP request to the backend and return status code, headers, and body",
		params,
		func(ctx context.Context, args map[string]any) (any, error) {
			method, _ := args["method"].(string)
			path, _ := args["path"].(string)
			body, _ := args["body"].(map[string]any)
			queryParams, _ := args["query_params"].(map[string]any)
			return t.doCall(ctx, method, path, body, queryParams)
		},
	)
}

// doCall issues one proxied request and normalizes the response.
func (t *Toolset) doCall(ctx context.Context, method, path string, body, queryParams map[string]any) (map[string]any, error) {
	method = strings.ToUpper(method)
	if !proxiedMethods[method] {
		return nil, fmt.Errorf("unsupported method: %s", method)
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(queryParams) > 0 {
		q := url.Values{}
		for key, value := range queryParams {
			q.Set(key, fmt.Sprint(value))
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]any, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	var responseBody any
	if err := json.Unmarshal(raw, &responseBody); err != nil {
		responseBody = string(raw)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        responseBody,
	}, nil
}

func (t *Toolset) apiTestTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"test_name":       map[string]any{"type": "string", "description": "Name for this test"},
			"method":          map[string]any{"type": "string", "description": "HTTP method"},
			"path":            map[string]any{"type": "string", "description": "API path"},
			"expected_status": map[string]any{"type": "integer", "description": "Expected HTTP status code"},
			"body":            map[string]any{"type": "object", "description": "Request body if needed"},
			"expected_fields": map[string]any{"type": "array", "description": "Fields expected in response body"},
		},
		"required": []string{"test_name", "method", "path", "expected_status"},
	}
	return tool.NewFunctionTool(
		"api_test",
		"Run a simple API test and validate the response status and fields",
		params,
		func(ctx context.Context, args map[string]any) (any, error) {
			testName, _ := args["test_name"].(string)
			method, _ := args["method"].(string)
			path, _ := args["path"].(string)
			body, _ := args["body"].(map[string]any)
			expectedStatus := intArg(args["expected_status"])

			result, err := t.doCall(ctx, method, path, body, nil)
			if err != nil {
				return nil, err
			}

			passed := true
			failures := []string{}

			if status := result["status_code"].(int); status != expectedStatus {
				passed = false
				failures = append(failures, fmt.Sprintf("Expected status %d, got %d", expectedStatus, status))
			}

			if expected, ok := args["expected_fields"].([]any); ok {
				if respBody, ok := result["body"].(map[string]any); ok {
					for _, raw := range expected {
						field, _ := raw.(string)
						if _, present := respBody[field]; !present {
							passed = false
							failures = append(failures, fmt.Sprintf("Missing expected field: %s", field))
						}
					}
				}
			}

			return map[string]any{
				"test_name": testName,
				"passed":    passed,
				"failures":  failures,
				"response":  result,
			}, nil
		},
	)
}

func (t *Toolset) healthCheckTool() tool.Tool {
	params := map[string]any{"type": "object", "properties": map[string]any{}, "required": []string{}}
	return tool.NewFunctionTool(
		"api_health_check",
		"Check if the backend is healthy and responding, including round-trip time",
		params,
		func(ctx context.Context, _ map[string]any) (any, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/health", nil)
			if err != nil {
				return nil, err
			}

			start := time.Now()
			resp, err := t.client.Do(req)
			elapsed := time.Since(start)
			if err != nil {
				// An unreachable backend is a reportable probe outcome, not a
				// tool failure.
				return map[string]any{"status": "unhealthy", "error": err.Error()}, nil
			}
			defer resp.Body.Close()

			status := "unhealthy"
			var responseBody any
			if resp.StatusCode == http.StatusOK {
				status = "healthy"
				if err := json.NewDecoder(resp.Body).Decode(&responseBody); err != nil {
					responseBody = nil
				}
			}

			return map[string]any{
				"status":           status,
				"status_code":      resp.StatusCode,
				"response_time_ms": float64(elapsed.Microseconds()) / 1000.0,
				"response":         responseBody,
			}, nil
		},
	)
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intArg(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}
