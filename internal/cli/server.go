package cli

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/memviz/pkg/buildinfo"
	"github.com/matzehuels/memviz/pkg/errors"
	"github.com/matzehuels/memviz/pkg/node"
	"github.com/matzehuels/memviz/pkg/observability"
	"github.com/matzehuels/memviz/pkg/pipeline"
	"github.com/matzehuels/memviz/pkg/sink"
)

// maxBodyBytes caps snapshot uploads.
const maxBodyBytes = 8 << 20

// requestIDHeader carries the request ID in both directions.
const requestIDHeader = "X-Request-ID"

// server serves rendering over HTTP.
type server struct {
	runner *pipeline.Runner
	base   pipeline.Options
	logger *log.Logger
}

// newServer builds the router. base supplies the config every request uses;
// gatherer backs /metrics.
func newServer(runner *pipeline.Runner, base pipeline.Options, logger *log.Logger, gatherer prometheus.Gatherer) http.Handler {
	s := &server{runner: runner, base: base, logger: logger}

	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Post("/v1/render", s.render)
	return r
}

// =============================================================================
// Middleware
// =============================================================================

// requestID reuses the caller's X-Request-ID or assigns a UUID, echoes it,
// and attaches a logger carrying it.
func (s *server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := withLogger(r.Context(), s.logger.With("request_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// instrument reports every request to the HTTP hooks under its route
// pattern.
func (s *server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, ww.BytesWritten(), time.Since(start))
		loggerFromContext(r.Context()).Debug("request",
			"method", r.Method, "route", route, "status", status, "duration", time.Since(start))
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Get(),
	})
}

// render handles POST /v1/render?format=svg. The body is one snapshot in
// JSON, YAML, or msgpack, chosen by Content-Type.
func (s *server) render(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := loggerFromContext(ctx)

	format, err := sink.ParseFormat(queryDefault(r, "format", string(sink.FormatSVG)))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	inFormat, err := snapshotFormat(r.Header.Get("Content-Type"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	snap, err := node.DecodeSnapshot(io.LimitReader(r.Body, maxBodyBytes), inFormat)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	opts := s.base
	opts.Formats = []sink.Format{format}
	opts.Refresh, _ = strconv.ParseBool(r.URL.Query().Get("refresh"))
	opts.Logger = logger

	result, err := s.runner.Execute(ctx, snap, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	logger.Info("rendered",
		"label", snap.Label, "format", format,
		"objects", result.Summary.Objects, "cached", result.CacheInfo.RenderHit)

	cacheStatus := "miss"
	if result.CacheInfo.RenderHit {
		cacheStatus = "hit"
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("X-Memviz-Cache", cacheStatus)
	w.Header().Set("X-Memviz-Issues", strconv.Itoa(len(result.Summary.Issues)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id"`
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= 500 {
		loggerFromContext(r.Context()).Error("request failed", "err", err)
	}
	writeJSON(w, status, errorBody{
		Code:      code,
		Message:   errors.UserMessage(err),
		RequestID: w.Header().Get(requestIDHeader),
	})
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeMalformedNode:
		return http.StatusBadRequest
	case errors.ErrCodeLayoutOverflow, errors.ErrCodeReorderRejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// snapshotFormat maps a Content-Type to a snapshot codec; empty means JSON.
func snapshotFormat(contentType string) (node.Format, error) {
	if contentType == "" {
		return node.FormatJSON, nil
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "bad Content-Type")
	}
	switch mt {
	case "application/json":
		return node.FormatJSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml":
		return node.FormatYAML, nil
	case "application/msgpack", "application/x-msgpack", "application/vnd.msgpack":
		return node.FormatMsgpack, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported Content-Type %q", mt)
	}
}

func queryDefault(r *http.Request, key, def string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
