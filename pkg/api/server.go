/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package api exposes the track registry and bridge status over HTTP. It is
// thin glue: all domain behavior lives in the registry, codec, and bridge.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	srHttp "github.com/tacops/coplite/pkg/http"
	"github.com/tacops/coplite/pkg/logger"
	"github.com/tacops/coplite/pkg/models"
)

// TrackRegistry is the API server's view of the registry.
type TrackRegistry interface {
	Upsert(ctx context.Context, t *models.Track) (*models.Track, error)
	Get(uid string) (*models.Track, bool)
	List() []*models.Track
}

// StatusProvider reports the bridge health snapshot.
type StatusProvider interface {
	Status() models.BridgeStatus
}

// Server is the HTTP API server.
type Server struct {
	router   *mux.Router
	registry TrackRegistry
	bridge   StatusProvider
	clock    func() time.Time
	logger   logger.Logger
	httpSrv  *http.Server
}

// WithBridge attaches the bridge status provider. Without one the status
// endpoint reports disabled.
func WithBridge(sp StatusProvider) func(*Server) {
	return func(s *Server) { s.bridge = sp }
}

// WithClock overrides the time source (test seam).
func WithClock(clock func() time.Time) func(*Server) {
	return func(s *Server) { s.clock = clock }
}

// NewServer creates the API server and registers its routes.
func NewServer(reg TrackRegistry, log logger.Logger, options ...func(*Server)) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		registry: reg,
		clock:    time.Now,
		logger:   log.WithComponent("api"),
	}

	for _, o := range options {
		o(s)
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return srHttp.CommonMiddleware(next, s.logger)
	})

	s.router.HandleFunc("/api/tracks", s.handleListTracks).Methods(http.MethodGet)
	s.router.HandleFunc("/api/tracks", s.handleUpsertTrack).Methods(http.MethodPost)
	s.router.HandleFunc("/api/tracks/{uid}", s.handleGetTrack).Methods(http.MethodGet)
	s.router.HandleFunc("/ingest/bft", s.handleIngestBFT).Methods(http.MethodPost)
	s.router.HandleFunc("/tak/cot", s.handleCoTIngest).Methods(http.MethodPost)
	s.router.HandleFunc("/tak/cot/pull", s.handleCoTPull).Methods(http.MethodGet)
	s.router.HandleFunc("/api/tak/status", s.handleTAKStatus).Methods(http.MethodGet)
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves HTTP on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("API server listening")

	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}

	return s.httpSrv.Shutdown(ctx)
}
