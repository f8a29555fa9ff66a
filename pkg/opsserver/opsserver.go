/*
Copyright 2026 Jordi Gil.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package opsserver is the minimal HTTP surface that makes the pipeline
// runnable as a service: liveness, Prometheus scraping, and a read-only
// debug endpoint over a cached profile. It is explicitly not the outer
// pipeline registry or a request-intake API — those remain out of scope.
package opsserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jordigilh/imagewave/pkg/fusion"
	"github.com/jordigilh/imagewave/pkg/store"
)

// Server hosts /healthz, /metrics, and /debug/profile/{hash}.
type Server struct {
	router chi.Router
	server *http.Server
	store  store.SignalStore
	log    logr.Logger
}

// Config controls CORS origins for the debug endpoints; an empty
// AllowedOrigins list disables cross-origin access entirely.
type Config struct {
	Addr           string
	AllowedOrigins []string
}

// New builds a Server bound to cfg.Addr with st as the profile source
// for /debug/profile/{hash}.
func New(cfg Config, st store.SignalStore, log logr.Logger) *Server {
	r := chi.NewRouter()
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet},
		}))
	}

	s := &Server{router: r, store: st, log: log}

	r.Get("/healthz", s.handleHealthz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/debug/profile/{hash}", s.handleDebugProfile)
	r.Get("/debug/profile/{hash}/query", s.handleDebugQuery)

	s.server = &http.Server{Addr: cfg.Addr, Handler: r}
	return s
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// debugProfileResponse is the /debug/profile/{hash} JSON shape: each
// signal rendered as its plain value plus the confidence/source/tags an
// operator needs to reason about why a fused output did or didn't use it.
type debugProfileResponse struct {
	SHA256  string                 `json:"sha256"`
	Path    string                 `json:"path,omitempty"`
	Signals map[string]signalView `json:"signals"`
}

type signalView struct {
	Value      interface{} `json:"value"`
	Confidence float64     `json:"confidence"`
	Source     string      `json:"source"`
	Tags       []string    `json:"tags,omitempty"`
}

func (s *Server) handleDebugProfile(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	profile, hit, err := s.store.GetProfile(r.Context(), hash)
	if err != nil {
		s.log.Error(err, "debug profile lookup failed", "image_hash", hash)
		http.Error(w, "profile lookup failed", http.StatusInternalServerError)
		return
	}
	if !hit {
		http.Error(w, "profile not found", http.StatusNotFound)
		return
	}

	resp := debugProfileResponse{
		SHA256:  profile.SHA256,
		Path:    profile.Path,
		Signals: make(map[string]signalView, len(profile.Signals)),
	}
	for key, sig := range profile.Signals {
		resp.Signals[key] = signalView{
			Value:      sig.Value.ToInterface(),
			Confidence: sig.Confidence,
			Source:     sig.Source,
			Tags:       sig.Tags,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error(err, "encode debug profile response failed", "image_hash", hash)
	}
}

// handleDebugQuery runs a gojq expression (query string param "q") against
// a cached profile, for an operator tracing why a signal did or didn't
// reach a fused output. Read-only, same as handleDebugProfile.
func (s *Server) handleDebugQuery(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	q := r.URL.Query().Get("q")
	if q == "" {
		http.Error(w, "missing q query parameter", http.StatusBadRequest)
		return
	}

	profile, hit, err := s.store.GetProfile(r.Context(), hash)
	if err != nil {
		s.log.Error(err, "debug query profile lookup failed", "image_hash", hash)
		http.Error(w, "profile lookup failed", http.StatusInternalServerError)
		return
	}
	if !hit {
		http.Error(w, "profile not found", http.StatusNotFound)
		return
	}

	result, err := fusion.QueryProfile(profile.Signals, q)
	if err != nil {
		http.Error(w, fmt.Sprintf("query failed: %v", err), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.log.Error(err, "encode debug query response failed", "image_hash", hash)
	}
}

// StartAsync runs ListenAndServe in a background goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error(err, "ops server exited")
		}
	}()
}

// Stop gracefully shuts the server down, respecting ctx's deadline.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
