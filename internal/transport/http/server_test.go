package scanhttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/config"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{Engine: config.DefaultEngine()}
	s, err := NewServer(ServerConfig{
		Addr:   ":0",
		Config: func() *config.Config { return cfg },
	})
	require.NoError(t, err)
	return s
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s := testServer(t)
	w := doRequest(s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestNewServerRequiresConfigProvider(t *testing.T) {
	_, err := NewServer(ServerConfig{Addr: ":0"})
	require.Error(t, err)
}

func TestEvaluateRejectsMissingTicker(t *testing.T) {
	s := testServer(t)
	w := doRequest(s, http.MethodPost, "/api/scan/evaluate", `{"bars":[]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluateInsufficientHistory(t *testing.T) {
	s := testServer(t)
	var sb strings.Builder
	sb.WriteString(`{"ticker":"7203.T","bars":[`)
	for i := 0; i < 10; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"date":"2024-01-%02dT00:00:00Z","open":100,"high":101,"low":99,"close":100,"volume":1000}`, i+1)
	}
	sb.WriteString(`]}`)

	w := doRequest(s, http.MethodPost, "/api/scan/evaluate", sb.String())
	require.Equal(t, http.StatusOK, w.Code)

	var resp evaluateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "7203.T", resp.Ticker)
	assert.False(t, resp.Decision.IsBuyNow)
	assert.Contains(t, resp.Decision.Reason, "insufficient")
}

func TestEvaluateIgnoresCorruptTiming(t *testing.T) {
	s := testServer(t)
	var sb strings.Builder
	sb.WriteString(`{"ticker":"7203.T","timing":{"score":"not a number"},"bars":[`)
	for i := 0; i < 10; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"date":"2024-01-%02dT00:00:00Z","open":100,"high":101,"low":99,"close":100,"volume":1000}`, i+1)
	}
	sb.WriteString(`]}`)

	w := doRequest(s, http.MethodPost, "/api/scan/evaluate", sb.String())
	require.Equal(t, http.StatusOK, w.Code)
}

func TestDecisionsWithoutStore(t *testing.T) {
	s := testServer(t)
	w := doRequest(s, http.MethodGet, "/api/scan/decisions", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDecisionsRejectsBadLimit(t *testing.T) {
	s := testServer(t)
	w := doRequest(s, http.MethodGet, "/api/scan/decisions?limit=abc", "")
	// 没有 store 时 503 优先，这里只验证不会按 200 返回。
	assert.NotEqual(t, http.StatusOK, w.Code)
}
