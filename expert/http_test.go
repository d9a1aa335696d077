package expert

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/fwexpert/framework"
	"github.com/c360studio/fwexpert/knowledge"
	"github.com/c360studio/fwexpert/llm"
	"github.com/c360studio/fwexpert/llm/testutil"
)

func newTestServer(t *testing.T, mock *testutil.MockLLMClient) (*httptest.Server, *knowledge.Store) {
	t.Helper()
	svc, store := newTestService(t, mock)

	mux := http.NewServeMux()
	svc.RegisterHTTPHandlers(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeStats(t *testing.T, resp *http.Response) StatsResponse {
	t.Helper()
	defer resp.Body.Close()
	var out StatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHTTPKnowledgeStats(t *testing.T) {
	srv, _ := newTestServer(t, &testutil.MockLLMClient{})

	resp, err := http.Get(srv.URL + "/api/framework/knowledge-stats?framework_type=pstaff")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeStats(t, resp)
	assert.True(t, out.Success)
	assert.Equal(t, framework.StatusNotAnalyzed, out.Stats.Status)

	resp, err = http.Get(srv.URL + "/api/framework/knowledge-stats?framework_type=bogus")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPAnalyze(t *testing.T) {
	mock := &testutil.MockLLMClient{
		Responses: []*llm.Response{{Content: knowledgeJSON, Model: "test-model"}},
	}
	srv, _ := newTestServer(t, mock)

	resp := postJSON(t, srv.URL+"/api/framework/analyze", AnalyzeRequest{FrameworkType: "pstaff"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeStats(t, resp)
	assert.True(t, out.Success)
	assert.Equal(t, framework.StatusAnalyzed, out.Stats.Status)
	assert.Equal(t, 1, out.Stats.ClassesCount)
}

func TestHTTPAnalyzeConflict(t *testing.T) {
	srv, store := newTestServer(t, &testutil.MockLLMClient{})

	lease, err := store.Begin(context.Background(), framework.TypePstaff)
	require.NoError(t, err)
	defer store.Abort(context.Background(), lease, nil)

	resp := postJSON(t, srv.URL+"/api/framework/analyze", AnalyzeRequest{FrameworkType: "pstaff", Force: true})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHTTPGenerateScript(t *testing.T) {
	mock := &testutil.MockLLMClient{
		Responses: []*llm.Response{{Content: generatedScript, Model: "test-model"}},
	}
	srv, _ := newTestServer(t, mock)

	resp := postJSON(t, srv.URL+"/api/framework/generate-script", GenerateRequest{
		Description:   "verify admin login",
		TestName:      "TC_VERIFY_ADMIN_LOGIN",
		FrameworkType: framework.TypeClient,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	defer resp.Body.Close()
	var out GenerateScriptResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.True(t, out.Success)
	assert.NotEmpty(t, out.Result.Script)
	assert.Equal(t, "demo", string(out.Result.ContextSource))
}

func TestHTTPGenerateScriptValidation(t *testing.T) {
	srv, _ := newTestServer(t, &testutil.MockLLMClient{})

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing description", GenerateRequest{TestName: "TC_X", FrameworkType: framework.TypePstaff}, http.StatusBadRequest},
		{"missing test name", GenerateRequest{Description: "d", FrameworkType: framework.TypePstaff}, http.StatusBadRequest},
		{"unknown framework", map[string]string{"description": "d", "test_name": "TC_X", "framework_type": "bogus"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/framework/generate-script", tt.body)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestHTTPGenerateScriptCollaboratorFailure(t *testing.T) {
	mock := &testutil.MockLLMClient{
		Responses: []*llm.Response{{Content: "", Model: "test-model"}},
	}
	srv, _ := newTestServer(t, mock)

	resp := postJSON(t, srv.URL+"/api/framework/generate-script", GenerateRequest{
		Description:   "verify admin login",
		TestName:      "TC_X",
		FrameworkType: framework.TypePstaff,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestHTTPHealthzAndMetrics(t *testing.T) {
	mock := &testutil.MockLLMClient{}
	svc, _ := newTestService(t, mock)

	reg := prometheus.NewRegistry()
	NewMetrics(reg)

	mux := http.NewServeMux()
	svc.RegisterHTTPHandlers(mux)
	RegisterMetricsHandler(mux, reg)

	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, &testutil.MockLLMClient{})

	resp, err := http.Get(srv.URL + "/api/framework/analyze")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/framework/knowledge-stats?framework_type=pstaff", struct{}{})
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
