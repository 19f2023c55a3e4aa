package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/listen/internal/clock"
	"github.com/sharetube/listen/internal/controller"
	"github.com/sharetube/listen/internal/repository/connection/inmemory"
	roomRedis "github.com/sharetube/listen/internal/repository/room/redis"
	"github.com/sharetube/listen/internal/service/auth"
	"github.com/sharetube/listen/internal/service/room"
	"github.com/sharetube/listen/pkg/ctxlogger"
	"github.com/sharetube/listen/pkg/redisclient"
)

type AppConfig struct {
	Secret        string        `json:"-"`
	Host          string        `json:"host"`
	Port          int           `json:"port"`
	LogLevel      string        `json:"log_level"`
	CorsOrigins   []string      `json:"cors_origins"`
	NTPServer     string        `json:"ntp_server"`
	NTPTimeout    time.Duration `json:"ntp_timeout"`
	RoomTTL       time.Duration `json:"room_ttl"`
	RedisPort     int           `json:"redis_port"`
	RedisHost     string        `json:"redis_host"`
	RedisPassword string        `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Secret == "" {
		return errors.New("secret must not be empty")
	}
	if cfg.Port < 1 {
		return fmt.Errorf("port must be greater than 0")
	}
	if cfg.RoomTTL <= 0 {
		return fmt.Errorf("room ttl must be greater than 0")
	}
	if cfg.NTPTimeout <= 0 {
		return fmt.Errorf("ntp timeout must be greater than 0")
	}
	return nil
}

func newLogger(level string) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h), nil
}

// newMux wires repositories, services and transport on top of an existing redis client and clock.
func newMux(cfg *AppConfig, rc *redis.Client, clockService *clock.Service, logger *slog.Logger) http.Handler {
	roomRepo := roomRedis.NewRepo(rc, cfg.RoomTTL, logger)
	connectionRepo := inmemory.NewRepo(logger)
	authenticator := auth.New(cfg.Secret, clockwork.NewRealClock())
	roomService := room.NewService(roomRepo, connectionRepo, authenticator, clockService, logger)
	controller := controller.NewController(roomService, cfg.CorsOrigins, logger)

	return controller.GetMux()
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	clockService := clock.Sync(ctx, &clock.Config{
		Server:  cfg.NTPServer,
		Timeout: cfg.NTPTimeout,
	}, clockwork.NewRealClock(), logger)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: newMux(cfg, rc, clockService, logger),
	}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr, "clock_offset_ms", clockService.Offset().Milliseconds())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
