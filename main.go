package main

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/aouyang1/memoryframe/api"
	"github.com/aouyang1/memoryframe/api/client"
	"github.com/aouyang1/memoryframe/preload"
	"github.com/aouyang1/memoryframe/proxy"
	"github.com/aouyang1/memoryframe/store"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	logger := initLogger(getEnv("MF_LOG_LEVEL", "info"))
	defer logger.Sync()

	if getEnv("GIN_MODE", "") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	rootPath := getEnv("MF_ROOT_PATH", ".")
	database, err := store.NewDatabase(filepath.Join(rootPath, "memoryframe.db"))
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer database.Close()
	if seed := getEnv("MF_EVENT_CONFIG", ""); seed != "" {
		database.SeedFrom(seed)
	}

	g, ctx := errgroup.WithContext(ctx)

	webServer, err := newWebServer(database, logger)
	if err != nil {
		logger.Fatal("failed to initialize web server", zap.Error(err))
	}
	g.Go(func() error {
		return webServer.Run(ctx, getEnv("MF_ADDR", "0.0.0.0:8080"))
	})

	if addr := getEnv("MF_PROXY_ADDR", ""); addr != "" {
		proxyServer, err := newProxyServer(ctx, logger)
		if err != nil {
			logger.Fatal("failed to initialize upload proxy", zap.Error(err))
		}
		g.Go(func() error {
			return proxyServer.Run(ctx, addr)
		})
	} else {
		logger.Info("MF_PROXY_ADDR not set, upload proxy disabled")
	}

	janitor, err := newJanitor(database, logger)
	if err != nil {
		logger.Fatal("failed to initialize asset janitor", zap.Error(err))
	}
	if janitor != nil {
		g.Go(func() error {
			janitor.Run(ctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return
	}
	logger.Info("shut down cleanly")
}

func newWebServer(database *store.Database, logger *zap.Logger) (*api.WebServer, error) {
	preloadOpts := []preload.Option{
		preload.WithTimeout(getEnvDuration("MF_PRELOAD_TIMEOUT", 15*time.Second)),
		// 0 leaves the fan-out unbounded
		preload.WithConcurrency(int(getEnvInt64("MF_PRELOAD_CONCURRENCY", 0))),
	}
	var serverOpts []api.Option

	if raw := getEnv("MF_ASSET_BASE_URL", ""); raw != "" {
		base, err := url.Parse(raw)
		if err != nil {
			return nil, err
		}
		preloadOpts = append(preloadOpts, preload.WithBaseURL(base))
		serverOpts = append(serverOpts, api.WithAssetBase(base))
	}

	preloader := preload.NewPreloader(logger, preloadOpts...)
	return api.NewWebServer(database, preloader, logger, serverOpts...)
}

func newProxyServer(ctx context.Context, logger *zap.Logger) (*proxy.Server, error) {
	objects, err := proxy.NewS3Store(ctx, proxy.StoreConfig{
		AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		Bucket:          getEnv("R2_BUCKET", ""),
		Endpoint:        getEnv("R2_ENDPOINT", ""),
		Region:          getEnv("R2_REGION", ""),
	})
	if err != nil {
		return nil, err
	}

	// Without a verifier every authenticated route answers 403
	var verifier proxy.TokenVerifier
	jwks, err := proxy.NewJWKSVerifier(proxy.VerifierConfig{
		Issuer:   getEnv("PROXY_JWT_ISSUER", ""),
		Audience: getEnv("PROXY_JWT_AUDIENCE", ""),
		JWKSURL:  getEnv("PROXY_JWKS_URL", ""),
	}, &http.Client{Timeout: 10 * time.Second}, logger)
	if err != nil {
		logger.Warn("token verification not configured, protected routes will be forbidden", zap.Error(err))
	} else {
		verifier = jwks
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return proxy.NewServer(objects, verifier, proxy.Options{
		PresignTTL:     getEnvDuration("PROXY_PRESIGN_TTL", proxy.DefaultPresignTTL),
		MaxUploadBytes: getEnvInt64("PROXY_MAX_UPLOAD_BYTES", 0),
	}, reg, logger), nil
}

// newJanitor returns nil when no proxy is configured to sweep.
func newJanitor(database *store.Database, logger *zap.Logger) (*api.AssetJanitor, error) {
	proxyURL := getEnv("MF_PROXY_URL", "")
	token := getEnv("MF_PROXY_TOKEN", "")
	if proxyURL == "" || token == "" {
		logger.Info("MF_PROXY_URL or MF_PROXY_TOKEN not set, asset janitor disabled")
		return nil, nil
	}

	pc, err := client.NewProxyClient(proxyURL, token)
	if err != nil {
		return nil, err
	}
	return api.NewAssetJanitor(
		database,
		pc,
		getEnv("MF_JANITOR_PREFIX", "events/"),
		getEnvDuration("MF_JANITOR_INTERVAL", 0),
		logger,
	)
}

func initLogger(level string) *zap.Logger {
	var logLevel zapcore.Level
	switch level {
	case "debug":
		logLevel = zap.DebugLevel
	case "warn":
		logLevel = zap.WarnLevel
	case "error":
		logLevel = zap.ErrorLevel
	default:
		logLevel = zap.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(logLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
