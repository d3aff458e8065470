// Package api provides the HTTP server for octscan: prediction requests,
// model listing and a Server-Sent Events stream of worker events.
package api

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/julianknutsen/octscan/internal/registry"
	"github.com/julianknutsen/octscan/internal/relay"
)

// Predictor runs one prediction to completion.
type Predictor interface {
	Predict(ctx context.Context, req relay.Request) relay.Outcome
}

// Config wires the server's collaborators.
type Config struct {
	Predictor Predictor
	Hub       *relay.Hub
	Registry  registry.Registry
	Logger    *zap.Logger

	// Context bounds asynchronous predictions; canceling it kills their
	// workers. Defaults to context.Background.
	Context context.Context
}

// Server is the HTTP API server.
type Server struct {
	predictor Predictor
	hub       *relay.Hub
	models    registry.Registry
	logger    *zap.Logger
	ctx       context.Context
	mux       *http.ServeMux
	inflight  sync.WaitGroup
}

// New creates a Server from cfg.
func New(cfg Config) *Server {
	s := &Server{
		predictor: cfg.Predictor,
		hub:       cfg.Hub,
		models:    cfg.Registry,
		logger:    cfg.Logger,
		ctx:       cfg.Context,
		mux:       http.NewServeMux(),
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.hub == nil {
		s.hub = relay.NewHub(0)
	}
	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Wait blocks until asynchronous predictions have finished.
func (s *Server) Wait() {
	s.inflight.Wait()
}
