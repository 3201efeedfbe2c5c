// Package httpapi is the HTTP front door of the document pipeline.
// It exposes processing, classification and the audit trail as JSON endpoints.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/custodia-labs/docflow/internal/core/ports/driven"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
	"github.com/custodia-labs/docflow/internal/logger"
)

// ErrMissingPipelineService is returned when the pipeline service is not provided.
var ErrMissingPipelineService = errors.New("httpapi: pipeline service is required")

const (
	// maxUploadSize bounds the in-memory part of a multipart upload.
	maxUploadSize = 32 << 20

	readHeaderTimeout = 10 * time.Second
	// Requests wait on up to two model calls.
	writeTimeout    = 5 * time.Minute
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Extractor finds a text extractor for an upload's content type.
type Extractor interface {
	Lookup(contentType string) (driven.TextExtractor, bool)
}

// Config holds the listener settings.
type Config struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string

	// CORSOrigins lists the allowed origins. "*" allows any origin.
	CORSOrigins []string

	// Version is reported by the root endpoint.
	Version string
}

// Server serves the pipeline over HTTP.
type Server struct {
	pipeline  driving.PipelineService
	extractor Extractor
	cfg       Config
	handler   http.Handler
}

// NewServer creates a server. extractor may be nil, in which case uploads
// must already be UTF-8 text.
func NewServer(pipeline driving.PipelineService, extractor Extractor, cfg Config) (*Server, error) {
	if pipeline == nil {
		return nil, ErrMissingPipelineService
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	s := &Server{
		pipeline:  pipeline,
		extractor: extractor,
		cfg:       cfg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /process/text", s.handleProcessText)
	mux.HandleFunc("POST /process/file", s.handleProcessFile)
	mux.HandleFunc("POST /classify", s.handleClassify)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("GET /memory/{id}", s.handleMemory)
	mux.HandleFunc("GET /threads/{id}", s.handleThread)
	mux.HandleFunc("GET /conversations/{id}", s.handleConversation)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
	})

	s.handler = corsHandler.Handler(loggingMiddleware(mux))
	return s, nil
}

// Handler returns the root handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http: listening on %s", s.cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("http: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// statusRecorder captures the HTTP status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs method, path, status and duration at debug level.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		logger.Debug("http: %s %s %d %s from %s", r.Method, r.URL.Path, rw.statusCode, time.Since(start), r.RemoteAddr)
	})
}
