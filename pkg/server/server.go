package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	handlers "github.com/de-tools/snapshot-sweeper/pkg/handlers/sweep"
	sweepermiddleware "github.com/de-tools/snapshot-sweeper/pkg/server/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const defaultShutdownTimeout = 10 * time.Second

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Sweeps  handlers.Trigger
	Metrics http.Handler
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	router := ConfigureRouter(logger, config.Dependencies)

	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaultShutdownTimeout
	}

	return &WebAPI{
		router:          router,
		logger:          &logger,
		shutdownTimeout: config.ShutdownTimeout,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func ConfigureRouter(logger zerolog.Logger, deps Dependencies) *chi.Mux {
	sweepHandler := handlers.NewHandler(deps.Sweeps)

	router := chi.NewRouter()

	router.Use(sweepermiddleware.Logger(&logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/sweeps", sweepHandler.RunSweep)
		r.Get("/sweeps/last", sweepHandler.LastSweep)
		r.Get("/retain-set", sweepHandler.RetainSet)
	})

	return router
}

func (w *WebAPI) Handler() http.Handler {
	return w.router
}

// Start serves until the server fails, ctx is cancelled, or the process gets
// SIGINT/SIGTERM.
func (w *WebAPI) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		w.logger.Info().Msg("context cancelled, shutting down")
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")
	}

	// Give outstanding requests a deadline for completion.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
	defer cancel()

	err := w.server.Shutdown(shutdownCtx)
	if err != nil {
		w.logger.Error().Err(err).Msg("graceful shutdown failed")
		err = w.server.Close()
	}
	return err
}
