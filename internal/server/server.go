// Package server exposes plagiarism analysis over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"plagcheck/internal/metrics"
	"plagcheck/internal/orchestrator"
)

const (
	DefaultMaxBody  = 10 << 20
	ShutdownTimeout = 5 * time.Second
)

// Analyzer runs one analysis. *orchestrator.Orchestrator satisfies it.
type Analyzer interface {
	Run(ctx context.Context, req orchestrator.Request) (*orchestrator.Report, error)
}

type Server struct {
	analyzer Analyzer
	metrics  *metrics.Metrics
	logger   *zap.Logger
	maxBody  int64
	router   *mux.Router
}

func New(a Analyzer, m *metrics.Metrics, logger *zap.Logger, maxBody int64) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}
	s := &Server{
		analyzer: a,
		metrics:  m,
		logger:   logger.Named("server"),
		maxBody:  maxBody,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestID, s.accessLog, s.recoverPanic, cors)

	r.HandleFunc("/detect-plagiarism", s.handleDetect).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/check-file", s.handleCheckFile).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/report.docx", s.handleReportDOCX).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	return r
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done or SIGINT/SIGTERM
// arrives, then drains in-flight requests for up to ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server gracefully stopped")
	return nil
}
