// Command server starts the media-review gateway HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"reelgate/internal/api"
	"reelgate/internal/frameio"
	"reelgate/internal/live"
	"reelgate/internal/notify"
	"reelgate/internal/observability/logging"
	"reelgate/internal/observability/metrics"
	"reelgate/internal/relay"
	"reelgate/internal/server"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address")
	mode := flag.String("mode", "", "server runtime mode (development or production)")
	tlsCert := flag.String("tls-cert", "", "path to TLS certificate file")
	tlsKey := flag.String("tls-key", "", "path to TLS private key file")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "log format (json or text)")
	remoteBaseURL := flag.String("frameio-base-url", "", "base URL of the remote media service API")
	remoteToken := flag.String("frameio-token", "", "API token for the remote media service")
	remoteTimeout := flag.Duration("frameio-timeout", 0, "timeout for remote media service requests")
	corsOrigins := flag.String("cors-allowed-origins", "", "comma separated browser origins allowed to call the gateway")
	globalRPS := flag.Float64("rate-global-rps", 0, "global request rate limit in requests per second")
	globalBurst := flag.Int("rate-global-burst", 0, "global rate limit burst allowance")
	webhookLimit := flag.Int("rate-webhook-limit", 0, "maximum webhook deliveries per window for a single sender")
	webhookWindow := flag.Duration("rate-webhook-window", 0, "window for counting webhook deliveries")
	rateRedisAddr := flag.String("rate-redis-addr", "", "Redis address for distributed webhook throttling")
	rateRedisPassword := flag.String("rate-redis-password", "", "Redis password for distributed webhook throttling")
	rateRedisTimeout := flag.Duration("rate-redis-timeout", 0, "timeout for rate limiter Redis operations")
	queueDriver := flag.String("notify-queue-driver", "", "notification queue driver (memory or redis)")
	queueRedisAddr := flag.String("notify-redis-addr", "", "Redis address for the notification queue")
	queueRedisAddrs := flag.String("notify-redis-addrs", "", "comma separated Redis addresses for the notification queue")
	queueRedisUsername := flag.String("notify-redis-username", "", "Redis username for the notification queue")
	queueRedisPassword := flag.String("notify-redis-password", "", "Redis password for the notification queue")
	queueRedisStream := flag.String("notify-redis-stream", "", "Redis stream key for notification tasks")
	queueRedisGroup := flag.String("notify-redis-group", "", "Redis consumer group for notification workers")
	queueRedisMasterName := flag.String("notify-redis-sentinel-master", "", "Redis sentinel master name for the notification queue")
	queueRedisPoolSize := flag.Int("notify-redis-pool-size", 0, "maximum Redis connections for the notification queue")
	queueRedisTLSCA := flag.String("notify-redis-tls-ca", "", "path to Redis TLS CA certificate for the notification queue")
	queueRedisTLSCert := flag.String("notify-redis-tls-cert", "", "path to Redis TLS client certificate for the notification queue")
	queueRedisTLSKey := flag.String("notify-redis-tls-key", "", "path to Redis TLS client key for the notification queue")
	queueRedisTLSServerName := flag.String("notify-redis-tls-server-name", "", "override Redis TLS server name for the notification queue")
	queueRedisTLSSkipVerify := flag.Bool("notify-redis-tls-skip-verify", false, "skip Redis TLS verification for the notification queue")
	notifyTimeout := flag.Duration("notify-send-timeout", 0, "timeout for delivering a single notification")
	flag.Parse()

	logger := logging.Init(logging.Config{
		Level:  firstNonEmpty(*logLevel, os.Getenv("REELGATE_LOG_LEVEL")),
		Format: firstNonEmpty(*logFormat, os.Getenv("REELGATE_LOG_FORMAT")),
	})
	recorder := metrics.Default()

	serverMode := modeValue(*mode, os.Getenv("REELGATE_MODE"))
	listenAddr := resolveListenAddr(*addr, serverMode, os.Getenv("REELGATE_ADDR"))

	token := firstNonEmpty(*remoteToken, os.Getenv("REELGATE_FRAMEIO_TOKEN"), os.Getenv("FRAMEIO_TOKEN"))
	if token == "" {
		logger.Error("remote media service token is required (set REELGATE_FRAMEIO_TOKEN)")
		os.Exit(1)
	}

	remote, err := frameio.NewClient(frameio.Config{
		BaseURL: firstNonEmpty(*remoteBaseURL, os.Getenv("REELGATE_FRAMEIO_BASE_URL")),
		Token:   token,
		Timeout: resolveDuration(*remoteTimeout, "REELGATE_FRAMEIO_TIMEOUT", 10*time.Second),
		Logger:  logging.WithComponent(logger, "frameio"),
	})
	if err != nil {
		logger.Error("failed to configure remote media service client", "error", err)
		os.Exit(1)
	}

	queueCfg := notify.RedisQueueConfig{
		Addr:       firstNonEmpty(*queueRedisAddr, os.Getenv("REELGATE_NOTIFY_REDIS_ADDR")),
		Addrs:      splitAndTrim(firstNonEmpty(*queueRedisAddrs, os.Getenv("REELGATE_NOTIFY_REDIS_ADDRS"))),
		Username:   firstNonEmpty(*queueRedisUsername, os.Getenv("REELGATE_NOTIFY_REDIS_USERNAME")),
		Password:   firstNonEmpty(*queueRedisPassword, os.Getenv("REELGATE_NOTIFY_REDIS_PASSWORD")),
		Stream:     firstNonEmpty(*queueRedisStream, os.Getenv("REELGATE_NOTIFY_REDIS_STREAM")),
		Group:      firstNonEmpty(*queueRedisGroup, os.Getenv("REELGATE_NOTIFY_REDIS_GROUP")),
		MasterName: firstNonEmpty(*queueRedisMasterName, os.Getenv("REELGATE_NOTIFY_REDIS_SENTINEL_MASTER")),
		PoolSize:   resolveInt(*queueRedisPoolSize, "REELGATE_NOTIFY_REDIS_POOL_SIZE"),
		TLS: notify.RedisTLSConfig{
			CAFile:             firstNonEmpty(*queueRedisTLSCA, os.Getenv("REELGATE_NOTIFY_REDIS_TLS_CA")),
			CertFile:           firstNonEmpty(*queueRedisTLSCert, os.Getenv("REELGATE_NOTIFY_REDIS_TLS_CERT")),
			KeyFile:            firstNonEmpty(*queueRedisTLSKey, os.Getenv("REELGATE_NOTIFY_REDIS_TLS_KEY")),
			ServerName:         firstNonEmpty(*queueRedisTLSServerName, os.Getenv("REELGATE_NOTIFY_REDIS_TLS_SERVER_NAME")),
			InsecureSkipVerify: resolveBool(*queueRedisTLSSkipVerify, "REELGATE_NOTIFY_REDIS_TLS_SKIP_VERIFY"),
		},
	}
	queue, err := configureNotifyQueue(firstNonEmpty(*queueDriver, os.Getenv("REELGATE_NOTIFY_QUEUE_DRIVER")), queueCfg, logger)
	if err != nil {
		logger.Error("failed to configure notification queue", "error", err)
		os.Exit(1)
	}

	eventRelay := relay.New(relay.Config{
		Queue:   queue,
		Logger:  logging.WithComponent(logger, "relay"),
		Metrics: recorder,
	})
	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		Queue:       queue,
		Logger:      logging.WithComponent(logger, "notify"),
		Metrics:     recorder,
		SendTimeout: resolveDuration(*notifyTimeout, "REELGATE_NOTIFY_SEND_TIMEOUT", 5*time.Second),
	})
	liveGateway := live.NewGateway(live.Config{
		Remote:  remote,
		Logger:  logging.WithComponent(logger, "live"),
		Metrics: recorder,
	})

	handler := api.NewHandler(remote)
	handler.Relay = eventRelay
	handler.Live = liveGateway
	handler.Logger = logging.WithComponent(logger, "api")

	srv, err := server.New(handler, server.Config{
		Addr: listenAddr,
		TLS: server.TLSConfig{
			CertFile: firstNonEmpty(*tlsCert, os.Getenv("REELGATE_TLS_CERT")),
			KeyFile:  firstNonEmpty(*tlsKey, os.Getenv("REELGATE_TLS_KEY")),
		},
		CORS: server.CORSConfig{
			AllowedOrigins: splitAndTrim(firstNonEmpty(*corsOrigins, os.Getenv("REELGATE_CORS_ALLOWED_ORIGINS"))),
		},
		RateLimit: server.RateLimitConfig{
			GlobalRPS:     resolveFloat(*globalRPS, "REELGATE_RATE_GLOBAL_RPS"),
			GlobalBurst:   resolveInt(*globalBurst, "REELGATE_RATE_GLOBAL_BURST"),
			WebhookLimit:  resolveInt(*webhookLimit, "REELGATE_RATE_WEBHOOK_LIMIT"),
			WebhookWindow: resolveDuration(*webhookWindow, "REELGATE_RATE_WEBHOOK_WINDOW", time.Minute),
			RedisAddr:     firstNonEmpty(*rateRedisAddr, os.Getenv("REELGATE_RATE_REDIS_ADDR")),
			RedisPassword: firstNonEmpty(*rateRedisPassword, os.Getenv("REELGATE_RATE_REDIS_PASSWORD")),
			RedisTimeout:  resolveDuration(*rateRedisTimeout, "REELGATE_RATE_REDIS_TIMEOUT", 2*time.Second),
		},
		Logger:  logger,
		Metrics: recorder,
	})
	if err != nil {
		logger.Error("failed to initialise server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("gateway listening", "addr", listenAddr, "mode", serverMode)
		logger.Info("metrics endpoint available", "path", "/metrics")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		return dispatcher.Run(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("gateway stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("gateway stopped")
}

func configureNotifyQueue(driver string, cfg notify.RedisQueueConfig, logger *slog.Logger) (notify.Queue, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	switch driver {
	case "redis":
		if len(cfg.Addrs) == 0 && strings.TrimSpace(cfg.Addr) == "" {
			return nil, fmt.Errorf("redis addr is required for notification queue")
		}
		cfg.Logger = logging.WithComponent(logger, "notify-queue")
		return notify.NewRedisQueue(cfg)
	case "", "memory":
		return notify.NewMemoryQueue(notify.MemoryQueueConfig{
			Buffer: 128,
			Logger: logging.WithComponent(logger, "notify-queue"),
		}), nil
	default:
		return nil, fmt.Errorf("unsupported notification queue driver %q", driver)
	}
}

func resolveListenAddr(flagValue, mode, envAddr string) string {
	listenAddr := strings.TrimSpace(flagValue)
	if listenAddr == "" {
		listenAddr = strings.TrimSpace(envAddr)
	}
	if listenAddr == "" {
		listenAddr = defaultListenForMode(mode)
	}
	return listenAddr
}

func modeValue(flagMode, envMode string) string {
	mode := strings.ToLower(strings.TrimSpace(flagMode))
	if mode == "" {
		mode = strings.ToLower(strings.TrimSpace(envMode))
	}
	if mode == "" {
		mode = "development"
	}
	return mode
}

func defaultListenForMode(mode string) string {
	if mode == "production" {
		return ":80"
	}
	return ":8000"
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func splitAndTrim(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func resolveFloat(flagValue float64, envKey string) float64 {
	if flagValue > 0 {
		return flagValue
	}
	if env := os.Getenv(envKey); env != "" {
		if value, err := strconv.ParseFloat(strings.TrimSpace(env), 64); err == nil {
			return value
		}
	}
	return 0
}

func resolveInt(flagValue int, envKey string) int {
	if flagValue > 0 {
		return flagValue
	}
	if env := os.Getenv(envKey); env != "" {
		if value, err := strconv.Atoi(strings.TrimSpace(env)); err == nil {
			return value
		}
	}
	return 0
}

func resolveDuration(flagValue time.Duration, envKey string, fallback time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	if env := os.Getenv(envKey); env != "" {
		if value, err := time.ParseDuration(env); err == nil {
			return value
		}
	}
	if fallback > 0 {
		return fallback
	}
	return 0
}

func resolveBool(flagValue bool, envKey string) bool {
	if flagValue {
		return true
	}
	if env, ok := os.LookupEnv(envKey); ok {
		if value, err := strconv.ParseBool(strings.TrimSpace(env)); err == nil {
			return value
		}
	}
	return false
}
