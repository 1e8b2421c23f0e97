package httptool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pochehq/agentloop/core"
	"github.com/pochehq/agentloop/tool"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"openapi": "3.1.0",
			"paths": map[string]any{
				"/api/v1/items": map[string]any{
					"get":  map[string]any{"summary": "List items", "tags": []string{"items"}},
					"post": map[string]any{"summary": "Create item"},
				},
				"/health": map[string]any{
					"get": map[string]any{"summary": "Health"},
				},
			},
		})
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	})
	mux.HandleFunc("/api/v1/items", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"items": []any{map[string]any{"id": 1, "name": "chair"}},
				"limit": r.URL.Query().Get("limit"),
			})
		case http.MethodPost:
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"id": 2, "name": body["name"]})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newExecutor(ts *Toolset) *tool.Executor {
	reg := tool.NewRegistry()
	reg.RegisterAll(ts.Tools()...)
	return tool.NewExecutor(reg)
}

func TestToolNames(t *testing.T) {
	ts := New("http://localhost")
	names := make([]string, 0, 5)
	for _, tl := range ts.Tools() {
		names = append(names, tl.Name())
	}
	assert.ElementsMatch(t, []string{
		"api_get_schema", "api_list_endpoints", "api_call", "api_test", "api_health_check",
	}, names)
}

func TestGetSchema(t *testing.T) {
	server := newBackend(t)
	exec := newExecutor(New(server.URL))

	res := exec.Execute(context.Background(), core.ToolCall{ID: "c1", Name: "api_get_schema"})
	require.False(t, res.Failed())

	schema := res.Payload.(map[string]any)
	assert.Equal(t, "3.1.0", schema["openapi"])
	assert.Contains(t, schema["paths"], "/api/v1/items")
}

func TestListEndpoints(t *testing.T) {
	server := newBackend(t)
	exec := newExecutor(New(server.URL))

	res := exec.Execute(context.Background(), core.ToolCall{ID: "c1", Name: "api_list_endpoints"})
	require.False(t, res.Failed())

	endpoints := res.Payload.(map[string]any)["endpoints"].([]map[string]any)
	require.Len(t, endpoints, 3)

	methods := map[string]string{}
	for _, ep := range endpoints {
		methods[ep["path"].(string)+" "+ep["method"].(string)] = ep["summary"].(string)
	}
	assert.Equal(t, "List items", methods["/api/v1/items GET"])
	assert.Equal(t, "Create item", methods["/api/v1/items POST"])
	assert.Equal(t, "Health", methods["/health GET"])
}

func TestCallGetWithQueryParams(t *testing.T) {
	server := newBackend(t)
	exec := newExecutor(New(server.URL))

	res := exec.Execute(context.Background(), core.ToolCall{
		ID: "c1", Name: "api_call",
		Arguments: `{"method":"get","path":"/api/v1/items","query_params":{"limit":10}}`,
	})
	require.False(t, res.Failed())

	payload := res.Payload.(map[string]any)
	assert.Equal(t, http.StatusOK, payload["status_code"])
	body := payload["body"].(map[string]any)
	assert.Equal(t, "10", body["limit"])
}

func TestCallPostWithBody(t *testing.T) {
	server := newBackend(t)
	exec := newExecutor(New(server.URL))

	res := exec.Execute(context.Background(), core.ToolCall{
		ID: "c1", Name: "api_call",
		Arguments: `{"method":"POST","path":"/api/v1/items","body":{"name":"desk"}}`,
	})
	require.False(t, res.Failed())

	payload := res.Payload.(map[string]any)
	assert.Equal(t, http.StatusCreated, payload["status_code"])
	body := payload["body"].(map[string]any)
	assert.Equal(t, "desk", body["name"])
}

func TestCallRejectsUnsupportedMethod(t *testing.T) {
	server := newBackend(t)
	exec := newExecutor(New(server.URL))

	res := exec.Execute(context.Background(), core.ToolCall{
		ID: "c1", Name: "api_call",
		Arguments: `{"method":"TRACE","path":"/"}`,
	})
	require.True(t, res.Failed())
	assert.Contains(t, res.Err, "unsupported method")
}

func TestCallNonJSONBodyReturnedAsString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("plain text"))
	}))
	t.Cleanup(server.Close)
	exec := newExecutor(New(server.URL))

	res := exec.Execute(context.Background(), core.ToolCall{
		ID: "c1", Name: "api_call", Arguments: `{"method":"GET","path":"/raw"}`,
	})
	require.False(t, res.Failed())
	assert.Equal(t, "plain text", res.Payload.(map[string]any)["body"])
}

func TestAPITestPasses(t *testing.T) {
	server := newBackend(t)
	exec := newExecutor(New(server.URL))

	res := exec.Execute(context.Background(), core.ToolCall{
		ID: "c1", Name: "api_test",
		Arguments: `{"test_name":"list items","method":"GET","path":"/api/v1/items","expected_status":200,"expected_fields":["items"]}`,
	})
	require.False(t, res.Failed())

	payload := res.Payload.(map[string]any)
	assert.Equal(t, true, payload["passed"])
	assert.Empty(t, payload["failures"])
}

func TestAPITestReportsFailures(t *testing.T) {
	server := newBackend(t)
	exec := newExecutor(New(server.URL))

	res := exec.Execute(context.Background(), core.ToolCall{
		ID: "c1", Name: "api_test",
		Arguments: `{"test_name":"wrong status","method":"GET","path":"/api/v1/items","expected_status":404,"expected_fields":["missing_field"]}`,
	})
	require.False(t, res.Failed())

	payload := res.Payload.(map[string]any)
	assert.Equal(t, false, payload["passed"])
	failures := payload["failures"].([]string)
	require.Len(t, failures, 2)
	assert.Contains(t, failures[0], "Expected status 404, got 200")
	assert.Contains(t, failures[1], "missing_field")
}

func TestHealthCheckHealthy(t *testing.T) {
	server := newBackend(t)
	exec := newExecutor(New(server.URL))

	res := exec.Execute(context.Background(), core.ToolCall{ID: "c1", Name: "api_health_check"})
	require.False(t, res.Failed())

	payload := res.Payload.(map[string]any)
	assert.Equal(t, "healthy", payload["status"])
	assert.Equal(t, http.StatusOK, payload["status_code"])
	assert.GreaterOrEqual(t, payload["response_time_ms"].(float64), float64(0))
}

func TestHealthCheckUnreachableBackend(t *testing.T) {
	// Reserve and immediately release a port so nothing is listening on it.
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	exec := newExecutor(New(url))
	res := exec.Execute(context.Background(), core.ToolCall{ID: "c1", Name: "api_health_check"})
	require.False(t, res.Failed())

	payload := res.Payload.(map[string]any)
	assert.Equal(t, "unhealthy", payload["status"])
	assert.NotEmpty(t, payload["error"])
}
