// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/nats-io/nats.go"

	"locbook/internal/adapter/bus"
	"locbook/internal/adapter/cache"
	"locbook/internal/adapter/storage"
	"locbook/internal/config"
	"locbook/internal/logging"
	"locbook/internal/server"
	placeService "locbook/internal/service/place"
	configService "locbook/internal/service/siteconfig"
	"locbook/internal/service/snapshot"
	"locbook/internal/siteconfig"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	defaults, err := siteconfig.Load(cfg.DefaultsPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load site config defaults")
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := storage.Migrate(ctx, db); err != nil {
			logging.Fatal().Err(err).Msg("Failed to apply schema")
		}
	}

	natsConn, stopNATS, err := initNATS(cfg.NATS)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	defer stopNATS()

	redisClient := cache.Open(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if redisClient != nil {
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logging.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, place cache will miss until it recovers")
		}
	}

	// Initialize storage adapters
	placeStore := storage.NewPlaceStore(db)
	configStore := storage.NewConfigStore(db)

	// Initialize services
	places := placeService.NewService(placeStore, cache.NewPlaceCache(redisClient, cfg.Redis.TTL), natsConn)
	configs := configService.NewService(configStore, defaults, natsConn)

	catalogue := snapshot.New(placeStore, configs, natsConn, snapshot.Config{
		RefreshInterval: cfg.Snapshot.RefreshInterval,
		PlaceLimit:      cfg.Snapshot.PlaceLimit,
	})
	if err := catalogue.Start(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Failed to start snapshot")
	}

	// Initialize HTTP server
	httpServer := server.NewServer(cfg.Server, cfg.Admin, server.Dependencies{
		Places:    places,
		Config:    configs,
		Discovery: catalogue,
		NATS:      natsConn,
		ImagesDir: cfg.Images.Dir,
	})

	// Start HTTP server
	go func() {
		logging.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	logging.Info().Msg("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Stop snapshot refreshes
	if err := catalogue.Stop(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Snapshot shutdown error")
	}

	logging.Info().Msg("Shutdown complete")
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection, starting an embedded server first when
// configured. The returned func closes both.
func initNATS(cfg config.NATSConfig) (*nats.Conn, func(), error) {
	if !cfg.Embedded {
		nc, err := bus.Connect(cfg)
		if err != nil {
			return nil, nil, err
		}
		return nc, nc.Close, nil
	}

	srv, err := bus.StartEmbedded("127.0.0.1", cfg.EmbeddedPort)
	if err != nil {
		return nil, nil, err
	}

	cfg.URL = srv.ClientURL()
	nc, err := bus.Connect(cfg)
	if err != nil {
		srv.Shutdown()
		return nil, nil, err
	}

	return nc, func() {
		nc.Close()
		srv.Shutdown()
	}, nil
}
