// Package server exposes the estimator over HTTP together with health check
// endpoints for Kubernetes probes.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/randomizedcoder/mcint/internal/config"
	"github.com/randomizedcoder/mcint/internal/estimator"
	"github.com/randomizedcoder/mcint/internal/integrand"
	"github.com/randomizedcoder/mcint/internal/sampler"
)

// MaxSamples caps the sample count accepted by /estimate.
const MaxSamples = 100_000_000

// EstimateResponse is the JSON body returned by /estimate.
type EstimateResponse struct {
	Integrand string  `json:"integrand"`
	A         float64 `json:"a"`
	B         float64 `json:"b"`
	Samples   int     `json:"samples"`
	Seed      uint64  `json:"seed"`
	Estimate  float64 `json:"estimate"`
	StdErr    float64 `json:"std_err"`
	Exact     float64 `json:"exact"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server provides the estimate and health check endpoints.
type Server struct {
	port     int
	defaults *config.Config
	logger   *zap.Logger
	server   *http.Server
	ready    atomic.Bool
	served   atomic.Uint64
}

// NewServer creates a new server. Query parameters missing from a request
// fall back to defaults.
func NewServer(port int, defaults *config.Config, logger *zap.Logger) *Server {
	s := &Server{
		port:     port,
		defaults: defaults,
		logger:   logger,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.ready.Store(true)
	return s
}

// Handler returns the request multiplexer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/estimate", s.handleEstimate)
	return mux
}

// Start begins serving. This method blocks until the server is shut down,
// ctx is cancelled, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = s.Shutdown(context.Background())
	})
	defer stop()

	s.logger.Info("server starting", zap.Int("port", s.port))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("server error", zap.Error(err))
		return err
	}

	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.ready.Store(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s.logger.Info("server shutting down", zap.Uint64("estimates_served", s.served.Load()))
	return s.server.Shutdown(shutdownCtx)
}

// SetReady updates the readiness status.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// IsReady returns the current readiness status.
func (s *Server) IsReady() bool {
	return s.ready.Load()
}

// Served returns the number of successful estimates.
func (s *Server) Served() uint64 {
	return s.served.Load()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, r, http.StatusOK, "ok")
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		writeProbe(w, r, http.StatusServiceUnavailable, "not ready")
		return
	}
	writeProbe(w, r, http.StatusOK, "ready")
}

// writeProbe answers GET and HEAD with a plain-text status; HEAD gets no body.
func writeProbe(w http.ResponseWriter, r *http.Request, status int, body string) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if r.Method == http.MethodGet {
		_, _ = io.WriteString(w, body)
	}
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := s.parseEstimate(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	entry, err := integrand.Lookup(req.Integrand)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	e := estimator.New(entry.F, sampler.New(req.Seed), s.logger)
	res, err := e.Estimate(r.Context(), req.A, req.B, req.Samples)
	switch {
	case errors.Is(err, estimator.ErrInvalidSampleCount):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	case err != nil:
		s.logger.Warn("estimate aborted", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	s.served.Add(1)
	req.Estimate = res.Estimate
	req.StdErr = res.StdErr
	req.Exact = entry.Integral(req.A, req.B)
	writeJSON(w, http.StatusOK, req)
}

// parseEstimate reads a, b, n, seed and f from q.
func (s *Server) parseEstimate(q url.Values) (EstimateResponse, error) {
	req := EstimateResponse{
		Integrand: s.defaults.Integrand,
		A:         s.defaults.Lower,
		B:         s.defaults.Upper,
		Samples:   s.defaults.Samples,
		Seed:      s.defaults.Seed,
	}

	var err error
	if v := q.Get("a"); v != "" {
		if req.A, err = strconv.ParseFloat(v, 64); err != nil {
			return req, fmt.Errorf("invalid a %q", v)
		}
	}
	if v := q.Get("b"); v != "" {
		if req.B, err = strconv.ParseFloat(v, 64); err != nil {
			return req, fmt.Errorf("invalid b %q", v)
		}
	}
	if err := estimator.ValidateBounds(req.A, req.B); err != nil {
		return req, err
	}
	if v := q.Get("n"); v != "" {
		if req.Samples, err = strconv.Atoi(v); err != nil {
			return req, fmt.Errorf("invalid n %q", v)
		}
	}
	if req.Samples > MaxSamples {
		return req, fmt.Errorf("n = %d exceeds the limit of %d", req.Samples, MaxSamples)
	}
	if v := q.Get("seed"); v != "" {
		if req.Seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			return req, fmt.Errorf("invalid seed %q", v)
		}
	}
	if req.Seed == 0 {
		req.Seed = uint64(time.Now().UnixNano())
	}
	if v := q.Get("f"); v != "" {
		req.Integrand = v
	}

	return req, nil
}

// writeJSON encodes v before committing the status, so values JSON cannot
// represent (NaN, ±Inf) turn into a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		_ = enc.Encode(errorResponse{Error: "encoding response: " + err.Error()})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
