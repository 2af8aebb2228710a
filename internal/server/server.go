// Package server exposes datasets, profiling, training and chat over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/autoanalyst-cli/internal/dataset"
	"github.com/KaramelBytes/autoanalyst-cli/internal/engine"
	"github.com/KaramelBytes/autoanalyst-cli/internal/history"
	"github.com/KaramelBytes/autoanalyst-cli/internal/insight"
	"github.com/KaramelBytes/autoanalyst-cli/internal/metrics"
)

// DefaultMaxUploadBytes caps multipart uploads.
const DefaultMaxUploadBytes = 64 << 20

// Datasets is the dataset store the server uploads into and lists.
type Datasets interface {
	dataset.Store
	Save(ctx context.Context, filename string, r io.Reader) (*dataset.Meta, error)
	List() ([]*dataset.Meta, error)
}

// Config wires the server's collaborators. History and Metrics are optional.
type Config struct {
	Datasets       Datasets
	Engine         *engine.Engine
	Analyst        *insight.Analyst
	History        *history.Store
	Metrics        *metrics.Metrics
	Log            logrus.FieldLogger
	MaxUploadBytes int64
	HistoryTurns   int
}

// Server routes API requests to the engine and the analyst.
type Server struct {
	cfg    Config
	log    logrus.FieldLogger
	router *mux.Router
}

// New builds the router with logging and metrics middleware.
func New(cfg Config) *Server {
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	s := &Server{cfg: cfg, log: cfg.Log, router: mux.NewRouter()}
	s.router.Use(s.logging)
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	r := s.router
	r.HandleFunc("/", s.status).Methods(http.MethodGet)
	r.Handle("/metrics", s.cfg.Metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/upload", s.upload).Methods(http.MethodPost)
	api.HandleFunc("/datasets", s.listDatasets).Methods(http.MethodGet)
	api.HandleFunc("/analyze/{id}", s.analyze).Methods(http.MethodGet)
	api.HandleFunc("/train", s.train).Methods(http.MethodPost)
	api.HandleFunc("/autoscan/{id}", s.autoscan).Methods(http.MethodGet)
	api.HandleFunc("/chat", s.chat).Methods(http.MethodPost)
	api.HandleFunc("/chat/{id}/history", s.chatHistory).Methods(http.MethodGet)
	api.HandleFunc("/report/{id}", s.report).Methods(http.MethodGet)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("server listening")
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
	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
