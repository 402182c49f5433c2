package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queryfanout/pkg/auth"
	"queryfanout/pkg/fanout"
	"queryfanout/pkg/metrics"
	"queryfanout/pkg/services"
)

type stubRunner struct {
	query   string
	keys    []string
	results []fanout.QueryResult
}

func (s *stubRunner) Run(
	ctx context.Context, query string, serviceKeys []string, outputPath string,
) []fanout.QueryResult {
	s.query = query
	s.keys = serviceKeys
	return s.results
}

func testRequest(t *testing.T, srv *FanoutServer, req *http.Request) (int, []byte) {
	t.Helper()

	resp, err := srv.App().Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, payload
}

func postFanout(t *testing.T, srv *FanoutServer, body string, headers map[string]string) (int, []byte) {
	t.Helper()

	req := httptest.NewRequest("POST", "/v1/fanout", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return testRequest(t, srv, req)
}

func TestHandleFanout(t *testing.T) {
	runner := &stubRunner{results: []fanout.QueryResult{
		{Service: "chatgpt", ServiceName: "ChatGPT", Query: "what is Go", Success: true},
		{Service: "perplexity", ServiceName: "Perplexity", Query: "what is Go", Success: false, Error: "query submission failed"},
	}}
	srv := NewFanoutServer(runner, services.DefaultRegistry())

	status, payload := postFanout(t, srv, `{"query":"what is Go","services":["chatgpt","perplexity"]}`, nil)

	require.Equal(t, 200, status)

	var response FanoutResponse
	require.NoError(t, json.Unmarshal(payload, &response))

	assert.NotEmpty(t, response.RunID)
	assert.Equal(t, "what is Go", response.Query)
	assert.Len(t, response.Results, 2)
	assert.Equal(t, "what is Go", runner.query)
	assert.Equal(t, []string{"chatgpt", "perplexity"}, runner.keys)
}

func TestHandleFanoutRejectsBlankQuery(t *testing.T) {
	srv := NewFanoutServer(&stubRunner{}, services.DefaultRegistry())

	status, _ := postFanout(t, srv, `{"query":"  "}`, nil)

	assert.Equal(t, 400, status)
}

func TestHandleFanoutRejectsMalformedBody(t *testing.T) {
	srv := NewFanoutServer(&stubRunner{}, services.DefaultRegistry())

	status, _ := postFanout(t, srv, `{"query":`, nil)

	assert.Equal(t, 400, status)
}

func TestHandleServices(t *testing.T) {
	srv := NewFanoutServer(&stubRunner{}, services.DefaultRegistry())

	status, payload := testRequest(t, srv, httptest.NewRequest("GET", "/v1/services", nil))

	require.Equal(t, 200, status)

	var descriptors []services.Descriptor
	require.NoError(t, json.Unmarshal(payload, &descriptors))

	require.Len(t, descriptors, 2)
	assert.Equal(t, "chatgpt", descriptors[0].Key)
	assert.Equal(t, "perplexity", descriptors[1].Key)
}

func TestHandleMetrics(t *testing.T) {
	collector := metrics.NewFanoutMetrics()
	collector.RecordRun(2, time.Second)

	srv := NewFanoutServer(
		&stubRunner{}, services.DefaultRegistry(), WithServerMetrics(collector),
	)

	status, payload := testRequest(t, srv, httptest.NewRequest("GET", "/v1/metrics", nil))

	require.Equal(t, 200, status)

	var snapshot map[string]any
	require.NoError(t, json.Unmarshal(payload, &snapshot))
	assert.EqualValues(t, 1, snapshot["runs"])
}

func TestHealthEndpoints(t *testing.T) {
	srv := NewFanoutServer(&stubRunner{}, services.DefaultRegistry())

	for _, path := range []string{"/livez", "/readyz"} {
		status, _ := testRequest(t, srv, httptest.NewRequest("GET", path, nil))

		assert.Equal(t, 200, status, path)
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv := NewFanoutServer(
		&stubRunner{}, services.DefaultRegistry(), WithAuth("test-secret"),
	)

	t.Run("requests without a token are rejected", func(t *testing.T) {
		status, _ := postFanout(t, srv, `{"query":"hello"}`, nil)

		assert.Equal(t, 401, status)
	})

	t.Run("requests with a bad token are rejected", func(t *testing.T) {
		status, _ := postFanout(t, srv, `{"query":"hello"}`, map[string]string{
			"Authorization": "Bearer not-a-token",
		})

		assert.Equal(t, 401, status)
	})

	t.Run("requests with a valid token pass", func(t *testing.T) {
		token, err := auth.NewValidator("test-secret").IssueToken("test", time.Hour)
		require.NoError(t, err)

		status, _ := postFanout(t, srv, `{"query":"hello"}`, map[string]string{
			"Authorization": "Bearer " + token,
		})

		assert.Equal(t, 200, status)
	})

	t.Run("health endpoints stay open", func(t *testing.T) {
		status, _ := testRequest(t, srv, httptest.NewRequest("GET", "/livez", nil))

		assert.Equal(t, 200, status)
	})
}
