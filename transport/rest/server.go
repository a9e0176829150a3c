package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

type Server struct {
	logger   *slog.Logger
	handlers *handlers
}

// New - snapshotRepo may be nil when redis is disabled; the rooms endpoints then answer 503.
func New(logger *slog.Logger, stats statsSource, snapshotRepo snapshotRepo) *Server {
	logger = logger.With("component", "rest")

	return &Server{
		logger: logger,
		handlers: &handlers{
			logger:       logger,
			stats:        stats,
			snapshotRepo: snapshotRepo,
		},
	}
}

func (that *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/ping", that.handlers.Ping).Methods(http.MethodGet)
	router.HandleFunc("/stats", that.handlers.Stats).Methods(http.MethodGet)
	router.HandleFunc("/rooms", that.handlers.Rooms).Methods(http.MethodGet)
	router.HandleFunc("/rooms/{id}", that.handlers.Room).Methods(http.MethodGet)

	return router
}

// Start - starts HTTP server and blocks until ctx is done or the listener fails.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
