package application

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/config"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/repository"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/service"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-lobby/transport/rest"
	"github.com/rocketscienceinc/tictactoe-lobby/transport/websocket"
)

// observerBuffer - events queued per observer before new ones are dropped.
const observerBuffer = 256

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// observers outlive the servers: closing connections still report their rooms
	observerCtx, stopObservers := context.WithCancel(context.Background())
	defer stopObservers()

	var (
		observers    []usecase.MatchObserver
		snapshotRepo repository.SnapshotRepository
		workers      sync.WaitGroup
		servers      sync.WaitGroup
	)

	if conf.Redis.Enabled {
		redisStorage, err := storage.New(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		snapshotRepo = repository.NewSnapshotRepository(redisStorage, conf.Redis.SnapshotTTL)
		snapshotter := service.NewSnapshotter(logger, snapshotRepo, observerBuffer)
		observers = append(observers, snapshotter)

		workers.Add(1)
		go func() {
			defer workers.Done()
			snapshotter.Run(observerCtx)
		}()

		log.Info("room snapshots enabled", "addr", conf.Redis.GetRedisAddr())
	}

	if conf.NATS.URL != "" {
		natsConn, err := service.ConnectNATS(conf.NATS.URL)
		if err != nil {
			return fmt.Errorf("could not connect to nats: %w", err)
		}

		defer natsConn.Close()

		publisher := service.NewEventPublisher(logger, natsConn, conf.NATS.SubjectPrefix, observerBuffer)
		observers = append(observers, publisher)

		workers.Add(1)
		go func() {
			defer workers.Done()
			publisher.Run(observerCtx)

			if err := natsConn.Flush(); err != nil {
				log.Warn("could not flush nats connection", "error", err)
			}
		}()

		log.Info("match events enabled", "url", conf.NATS.URL, "prefix", conf.NATS.SubjectPrefix)
	}

	// stop servers first, then drain observers, then the deferred closes run
	defer func() {
		cancel()
		servers.Wait()
		stopObservers()
		workers.Wait()
	}()

	controller := usecase.NewMatchController(
		logger,
		repository.NewPlayerRepository(conf.Limits.NameLength),
		repository.NewRoomRepository(),
		repository.NewWaitingQueue(),
		conf.Limits.MessageLength,
	)

	hub := websocket.NewHub(logger)
	dispatcher := usecase.NewDispatcher(logger, controller, hub, observers...)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	servers.Add(1)
	go func() {
		defer servers.Done()
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.New(logger, dispatcher, snapshotRepo).Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	servers.Add(1)
	go func() {
		defer servers.Done()
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, hub, dispatcher, websocket.Options{
			SendBuffer: conf.Limits.SendBuffer,
			ReadLimit:  conf.Limits.FrameSize,
		})
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
