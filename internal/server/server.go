// Package server exposes the rating operations over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/ratebridge/internal/telemetry"
	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Server is the HTTP server for the rating service.
type Server struct {
	port         int
	orchestrator *carrier.Orchestrator
	logger       *otelzap.Logger
	metrics      *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, orchestrator *carrier.Orchestrator, logger *otelzap.Logger) *Server {
	return &Server{
		port:         cfg.Port,
		orchestrator: orchestrator,
		logger:       logger,
		metrics:      telemetry.NewMetrics(),
	}
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/rates/{carrier}", s.handleGetRates)
	mux.HandleFunc("POST /api/shop", s.handleShopRates)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleGetRates(w http.ResponseWriter, r *http.Request) {
	carrierName := r.PathValue("carrier")
	req, ok := s.decodeRateRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	resp, err := s.orchestrator.GetRates(r.Context(), carrierName, req)
	duration := time.Since(start).Seconds()

	if err != nil {
		cerr := carrier.AsError(err)
		s.metrics.RecordRequest("get_rates", carrierName, "error", duration)
		s.metrics.RecordError(carrierName, string(cerr.Kind))
		s.writeError(w, cerr)
		return
	}

	s.metrics.RecordRequest("get_rates", carrierName, "ok", duration)
	s.metrics.RecordQuotes("get_rates", len(resp.Quotes))
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleShopRates(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRateRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	result, err := s.orchestrator.ShopRates(r.Context(), req)
	duration := time.Since(start).Seconds()

	if err != nil {
		cerr := carrier.AsError(err)
		s.metrics.RecordRequest("shop_rates", "all", "error", duration)
		s.metrics.RecordError("all", string(cerr.Kind))
		s.writeError(w, cerr)
		return
	}

	s.metrics.RecordRequest("shop_rates", "all", "ok", duration)
	s.metrics.RecordQuotes("shop_rates", len(result.Quotes))
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) decodeRateRequest(w http.ResponseWriter, r *http.Request) (*carrier.RateRequest, bool) {
	var req carrier.RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, carrier.NewError(carrier.KindValidation, "invalid request body: "+err.Error()))
		return nil, false
	}
	return &req, true
}

// errorResponse is the envelope every failure is rendered in.
type errorResponse struct {
	Error *carrier.Error `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, cerr *carrier.Error) {
	s.writeJSON(w, httpStatusFor(cerr.Kind), errorResponse{Error: cerr})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// httpStatusFor maps taxonomy kinds to HTTP statuses for the public surface.
func httpStatusFor(kind carrier.Kind) int {
	switch kind {
	case carrier.KindValidation:
		return http.StatusBadRequest
	case carrier.KindConfiguration:
		return http.StatusNotFound
	case carrier.KindAuthentication, carrier.KindAuthorization:
		return http.StatusBadGateway
	case carrier.KindRateLimit:
		return http.StatusTooManyRequests
	case carrier.KindTimeout:
		return http.StatusGatewayTimeout
	case carrier.KindNetwork, carrier.KindCarrierAPI, carrier.KindParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
