package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/msgo/internal/bridge"
	"github.com/udisondev/msgo/internal/config"
	"github.com/udisondev/msgo/internal/db"
	"github.com/udisondev/msgo/internal/registry"
	"github.com/udisondev/msgo/internal/server"
)

const GameConfigPath = "config/gameserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config FIRST to determine log level
	cfgPath := GameConfigPath
	if p := os.Getenv("MSGO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadGameServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config %s: %w", cfgPath, err)
	}

	slog.Info("msgo server starting",
		"config", cfgPath,
		"bind", cfg.BindAddress,
		"port", cfg.Port,
		"version", cfg.Version,
		"cipher", cfg.Cipher.Kind)

	var reg server.SessionRegistry
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("connecting to redis %s: %w", cfg.Redis.Addr, err)
		}

		r := registry.New(rdb, cfg.ServerID, cfg.Redis.TTL)
		if err := r.Clear(ctx); err != nil {
			return fmt.Errorf("clearing stale sessions: %w", err)
		}
		reg = r
		slog.Info("redis connected", "addr", cfg.Redis.Addr)
	}

	var br server.PacketBridge
	if cfg.NATS.Enabled {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("msgo-"+cfg.ServerID))
		if err != nil {
			return fmt.Errorf("connecting to nats %s: %w", cfg.NATS.URL, err)
		}
		defer nc.Drain()

		br = bridge.New(nc, cfg.NATS.Prefix)
		slog.Info("nats connected", "url", cfg.NATS.URL, "prefix", cfg.NATS.Prefix)
	}

	var rec server.CaptureRecorder
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		rec = db.NewCaptureStore(database.Pool(), cfg.Database.CapturePayload)
	}

	srv, err := server.NewServer(cfg, reg, br, rec)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting game server", "port", cfg.Port)
		if err := srv.Run(gctx); err != nil {
			return fmt.Errorf("game server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
