package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/memviz/pkg/cache"
	"github.com/matzehuels/memviz/pkg/config"
	"github.com/matzehuels/memviz/pkg/errors"
	"github.com/matzehuels/memviz/pkg/observability"
	"github.com/matzehuels/memviz/pkg/pipeline"
	"github.com/matzehuels/memviz/pkg/sink"
)

func newTestServer(t *testing.T, cfg config.Config) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	return newLoggingServer(t, cfg, log.New(io.Discard))
}

func newLoggingServer(t *testing.T, cfg config.Config, logger *log.Logger) (*httptest.Server, *prometheus.Registry) {
	t.Helper()

	reg := prometheus.NewRegistry()
	hooks := observability.NewPrometheusHooks(reg)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	lru, err := cache.NewLRU(64)
	require.NoError(t, err)
	runner := pipeline.NewRunner(lru, nil, logger)
	t.Cleanup(func() { runner.Close() })

	base := pipeline.Options{Config: cfg}
	require.NoError(t, base.ValidateAndSetDefaults())

	srv := httptest.NewServer(newServer(runner, base, logger, reg))
	t.Cleanup(srv.Close)
	return srv, reg
}

func postSnapshot(t *testing.T, url, contentType, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestServerHealth(t *testing.T) {
	srv, _ := newTestServer(t, config.Default())

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestServerRender(t *testing.T) {
	srv, _ := newTestServer(t, config.Default())

	resp := postSnapshot(t, srv.URL+"/v1/render", "application/json", snapshotJSON)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Equal(t, "miss", resp.Header.Get("X-Memviz-Cache"))
	assert.Equal(t, "0", resp.Header.Get("X-Memviz-Issues"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")

	again := postSnapshot(t, srv.URL+"/v1/render", "application/json", snapshotJSON)
	require.Equal(t, http.StatusOK, again.StatusCode)
	assert.Equal(t, "hit", again.Header.Get("X-Memviz-Cache"))

	refreshed := postSnapshot(t, srv.URL+"/v1/render?refresh=true", "application/json", snapshotJSON)
	assert.Equal(t, "miss", refreshed.Header.Get("X-Memviz-Cache"))
}

func TestServerRenderJSONFromYAML(t *testing.T) {
	srv, _ := newTestServer(t, config.Default())

	body := `label: yaml
globals:
  - name: n
    value: {id: "1", kind: primitive, type: int, text: "42"}
`
	resp := postSnapshot(t, srv.URL+"/v1/render?format=json", "application/yaml", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc, err := sink.ReadDocument(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "yaml", doc.Label)
	require.Len(t, doc.Objects, 1)
	assert.Equal(t, "1", doc.Objects[0].ID)
}

func TestServerErrors(t *testing.T) {
	tiny := config.Default()
	tiny.GridCells = 2

	tests := []struct {
		name        string
		cfg         config.Config
		query       string
		contentType string
		body        string
		status      int
		code        errors.Code
	}{
		{"bad format", config.Default(), "?format=pdf", "application/json", snapshotJSON, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"bad content type", config.Default(), "", "text/csv", snapshotJSON, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"bad body", config.Default(), "", "application/json", "{", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"overflow", tiny, "", "", snapshotJSON, http.StatusUnprocessableEntity, errors.ErrCodeLayoutOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.cfg)
			resp := postSnapshot(t, srv.URL+"/v1/render"+tt.query, tt.contentType, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
			assert.Equal(t, resp.Header.Get(requestIDHeader), body.RequestID)
		})
	}
}

func TestServerRequestID(t *testing.T) {
	srv, _ := newTestServer(t, config.Default())
	const id = "0b3c7a5e-8f7d-4d8e-9a61-2f1c0c7f9b10"

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, id, resp.Header.Get(requestIDHeader))

	req.Header.Set(requestIDHeader, "not-a-uuid")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	got := resp.Header.Get(requestIDHeader)
	assert.NotEqual(t, "not-a-uuid", got)
	assert.Len(t, got, 36)
}

func TestServerLogsIssuesWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	srv, _ := newLoggingServer(t, config.Default(), log.New(&buf))

	body := `{"globals": [{"name": "bad", "value": {"id": "2", "kind": "bogus"}}]}`
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/render", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, "3f2504e0-4f89-11d3-9a0c-0305e82c3301")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-Memviz-Issues"))
	assert.Contains(t, buf.String(), "malformed node")
	assert.Contains(t, buf.String(), "request_id=3f2504e0-4f89-11d3-9a0c-0305e82c3301")
}

func TestServerMetrics(t *testing.T) {
	srv, _ := newTestServer(t, config.Default())
	postSnapshot(t, srv.URL+"/v1/render?format=dot", "application/json", snapshotJSON)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "memviz_http_requests_total")
	assert.Contains(t, out, `route="/v1/render"`)
	assert.Contains(t, out, "memviz_stage_total")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(errors.ErrCodeMalformedNode))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(errors.ErrCodeReorderRejected))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.ErrCodeInternal))
}
