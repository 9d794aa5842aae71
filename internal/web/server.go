package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"WeekendTrader/internal/ledger"
	"WeekendTrader/internal/logger"
	"WeekendTrader/internal/model"
)

// Controller is the engine surface the server exposes.
type Controller interface {
	Snapshot() model.Snapshot
	Pause(owner model.StrategyID) []ledger.Event
	Resume(owner model.StrategyID)
	PausedOwners() []model.StrategyID
}

// DecisionSink accepts raw verdicts from the external decision layer.
type DecisionSink interface {
	Submit(raw string) (int, error)
	Clear()
}

type Server struct {
	httpServer *http.Server
	ctrl       Controller
	decisions  DecisionSink
	logger     *logger.Logger
}

func NewServer(addr string, ctrl Controller, decisions DecisionSink, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		ctrl:      ctrl,
		decisions: decisions,
		logger:    log,
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Routes returns the request multiplexer.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("POST /pause/{owner}", s.handlePause)
	mux.HandleFunc("POST /resume/{owner}", s.handleResume)
	if s.decisions != nil {
		mux.HandleFunc("POST /decisions", s.handleDecisions)
		mux.HandleFunc("DELETE /decisions", s.handleClearDecisions)
	}
	return mux
}

func (s *Server) Start() error {
	s.logger.Info("web server starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
