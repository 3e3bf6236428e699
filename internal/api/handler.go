// Copyright (c) 2026 Andi Zeiri
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api exposes the ingestion pipeline over HTTP for the
// dashboard: trigger a run (optionally dry), list stored loads, and
// report dependency health.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/andiyzeiri/absolute-tms-sub000/internal/ingest"
	"github.com/andiyzeiri/absolute-tms-sub000/internal/models"
)

// MailSource lists candidate load emails.
type MailSource interface {
	Search(ctx context.Context, query string, limit int) ([]models.RawEmail, error)
}

// Runner executes one ingestion pass.
type Runner interface {
	Run(ctx context.Context, emails []models.RawEmail, opts ingest.Options) (*models.IngestionResult, error)
}

// LoadReader is the read side of the load store the API needs.
type LoadReader interface {
	ListLoads(ctx context.Context) ([]models.Load, error)
	Ping(ctx context.Context) error
}

// Defaults supplies ingestion policy when a request omits a field.
type Defaults struct {
	MinConfidence int
	BatchSize     int
	Query         string
}

// Handler serves the ingestion API.
type Handler struct {
	mail      MailSource
	runner    Runner
	store     LoadReader
	redisPing func(ctx context.Context) error
	defaults  Defaults
}

// NewHandler creates the API handler. redisPing may be nil when the
// deployment runs without Redis.
func NewHandler(mail MailSource, runner Runner, store LoadReader, redisPing func(ctx context.Context) error, defaults Defaults) *Handler {
	return &Handler{
		mail:      mail,
		runner:    runner,
		store:     store,
		redisPing: redisPing,
		defaults:  defaults,
	}
}

// ingestRequest is the POST /ingest/run body. Omitted fields fall back
// to the configured defaults.
type ingestRequest struct {
	Query         string `json:"query"`
	Limit         int    `json:"limit"`
	MinConfidence *int   `json:"min_confidence"`
	DryRun        bool   `json:"dry_run"`
}

// ServeIngest handles POST /ingest/run: fetch a batch from the mail
// source and run it through the pipeline.
func (h *Handler) ServeIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	query := req.Query
	if query == "" {
		query = h.defaults.Query
	}
	limit := req.Limit
	if limit <= 0 {
		limit = h.defaults.BatchSize
	}
	minConfidence := h.defaults.MinConfidence
	if req.MinConfidence != nil {
		minConfidence = *req.MinConfidence
	}
	if minConfidence < 0 || minConfidence > 100 {
		http.Error(w, "min_confidence must be in [0,100]", http.StatusBadRequest)
		return
	}

	emails, err := h.mail.Search(r.Context(), query, limit)
	if err != nil {
		slog.Error("mail source fetch failed", "error", err)
		http.Error(w, "mail source unavailable", http.StatusBadGateway)
		return
	}

	result, err := h.runner.Run(r.Context(), emails, ingest.Options{
		MinConfidence: minConfidence,
		DryRun:        req.DryRun,
	})
	if err != nil {
		slog.Error("ingestion run failed", "error", err)
		http.Error(w, "ingestion failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ServeLoads handles GET /loads.
func (h *Handler) ServeLoads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	loads, err := h.store.ListLoads(r.Context())
	if err != nil {
		slog.Error("list loads failed", "error", err)
		http.Error(w, "list loads failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(loads),
		"loads": loads,
	})
}

// ServeHealth handles GET /health, checking Postgres and Redis.
func (h *Handler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		http.Error(w, "postgres unhealthy", http.StatusServiceUnavailable)
		return
	}
	if h.redisPing != nil {
		if err := h.redisPing(r.Context()); err != nil {
			http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// Serve starts the API server on the given port. It binds the port
// immediately and signals readiness via the returned channel before
// accepting connections.
func Serve(ctx context.Context, port int, handler *Handler) (<-chan struct{}, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ingest/run", handler.ServeIngest)
	mux.HandleFunc("/loads", handler.ServeLoads)
	mux.HandleFunc("/health", handler.ServeHealth)

	server := &http.Server{
		Handler: mux,
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("bind API port %d: %w", port, err)
	}

	ready := make(chan struct{})

	go func() {
		<-ctx.Done()
		slog.Info("API server shutting down")
		server.Close()
	}()

	go func() {
		slog.Info("API server listening", "port", port)
		close(ready)
		if err := server.Serve(ln); err != http.ErrServerClosed {
			slog.Error("API server error", "error", err)
		}
	}()

	return ready, nil
}
