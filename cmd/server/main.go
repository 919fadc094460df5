package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"github.com/MaansiBisht/dynamic-form-app/factory"
	"github.com/MaansiBisht/dynamic-form-app/internal"
	"go.uber.org/zap"
)

// Server represents the HTTP server with SubmissionManager
type Server struct {
	manager dynform.SubmissionManager
	mux     *http.ServeMux
	config  *dynform.Config
	ping    func(ctx context.Context) error
	now     func() time.Time
}

// NewServer creates a new Server instance
func NewServer(manager dynform.SubmissionManager, config *dynform.Config) *Server {
	if config == nil {
		config = dynform.DefaultConfig()
	}
	return &Server{
		manager: manager,
		mux:     http.NewServeMux(),
		config:  config,
		now:     time.Now,
	}
}

// RegisterRoutes registers all API routes
func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc("GET /api/form-schema", s.handleFormSchema)
	s.mux.HandleFunc("GET /api/form-schema/jsonschema", s.handleJSONSchema)
	s.mux.HandleFunc("POST /api/validate", s.handleValidate)
	s.mux.HandleFunc("POST /api/submissions", s.handleCreate)
	s.mux.HandleFunc("GET /api/submissions", s.handleList)
	s.mux.HandleFunc("GET /api/submissions/export", s.handleExport)
	s.mux.HandleFunc("GET /api/submissions/{id}", s.handleGet)
	s.mux.HandleFunc("PUT /api/submissions/{id}", s.handleUpdate)
	s.mux.HandleFunc("DELETE /api/submissions/{id}", s.handleDelete)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("/", s.handleNotFound)
}

// Handler wraps the routes in the middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = withBodyLimit(s.config.Server.MaxBodyBytes, h)
	h = withRecovery(h)
	h = withCORS(s.config.Server.CORSOrigin, h)
	h = withRequestLogging(h)
	return h
}

// Run serves until ctx is cancelled, then drains in-flight requests within
// the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Server.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.S().Infow("starting server", "addr", srv.Addr)
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

	zap.S().Infow("shutting down server", "timeout", s.config.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func loadConfig(path string) (*dynform.Config, error) {
	config := dynform.DefaultConfig()
	if path != "" {
		loaded, err := dynform.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	config.ApplyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "Path to a YAML or JSON config file")
	flag.Parse()

	config, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := internal.NewLogger(config.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := factory.NewService(ctx, config)
	if err != nil {
		sugar.Fatalf("failed to initialise service: %v", err)
	}
	defer svc.Close()

	server := NewServer(svc.Manager, config)
	server.ping = svc.Ping
	server.RegisterRoutes()

	if err := server.Run(ctx); err != nil {
		sugar.Errorf("server error: %v", err)
		return
	}
	sugar.Info("server stopped")
}
