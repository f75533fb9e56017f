package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"profilehub/api/handler"
	apiMiddleware "profilehub/api/middleware"
	"profilehub/api/routes"
	"profilehub/config"
	"profilehub/internal/database"
	"profilehub/internal/metrics"
	"profilehub/internal/repository"
	"profilehub/internal/service"
	"profilehub/internal/storage"
	"profilehub/internal/telemetry"
	"profilehub/internal/utils"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func newServeCommand() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, skipMigrate)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not apply pending migrations on start")
	return cmd
}

func serve(ctx context.Context, skipMigrate bool) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	shutdownTracing, err := telemetry.Init(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.WithError(err).Warn("tracer shutdown")
		}
	}()

	db, err := config.ConnectionDb(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer config.CloseDb(db)

	if !skipMigrate {
		if err := database.Up(ctx, db); err != nil {
			return err
		}
	}

	photos, err := newPhotoStore(ctx, cfg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	authMetrics, err := metrics.NewAuthMetrics(registry)
	if err != nil {
		return err
	}

	app := newApp(cfg, logger, db, photos, authMetrics)
	app.router.Metrics = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	app.router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("server started")
		errCh <- app.echo.StartServer(server)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.echo.Shutdown(shutdownCtx)
}

type app struct {
	echo   *echo.Echo
	router *routes.Router
}

func newApp(
	cfg config.Config,
	logger *logrus.Logger,
	db *gorm.DB,
	photos service.PhotoStore,
	observer service.AuthObserver,
) *app {
	validate := handler.NewValidator()
	clock := service.RealClock{}

	jwtManager := utils.JWTManager{
		AccessSecret:    []byte(cfg.JWTSecret),
		RefreshSecret:   []byte(cfg.JWTRefreshSecret),
		Issuer:          cfg.JWTIssuer,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		Now:             clock.Now,
	}
	tokens := service.JWTTokenIssuer{Manager: &jwtManager}
	passwordHasher := service.BcryptPasswordHasher{Cost: cfg.BcryptCost}

	profileRepo := repository.NewProfileRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	authEventRepo := repository.NewAuthEventRepository(db)

	authService := service.NewAuthService(profileRepo, sessionRepo, authEventRepo, passwordHasher, tokens, clock)
	authService.Observer = observer
	authService.Logger = logger
	profileService := service.NewProfileService(profileRepo, passwordHasher, photos, clock)
	profileService.Logger = logger

	authHandler := handler.NewAuthHandler(authService, validate)
	authHandler.Logger = logger
	authHandler.CookieDomain = cfg.CookieDomain
	authHandler.SecureCookies = cfg.CookieSecure
	profileHandler := handler.NewProfileHandler(profileService, validate)
	profileHandler.Logger = logger
	profileHandler.MaxPhotoSize = cfg.MaxPhotoSize

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echoMiddleware.Recover())
	e.Use(telemetry.Middleware(serviceName))
	e.Use(requestLogger(logger))
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowCredentials: true,
		}))
	}

	authMiddleware := apiMiddleware.AuthMiddleware{Resolver: authService, Logger: logger}
	router := routes.NewRouter(e, authHandler, profileHandler, authMiddleware)
	router.LoginRate = apiMiddleware.NewRateLimiter(rate.Limit(cfg.LoginRatePerSecond), cfg.LoginRateBurst, 10*time.Minute)
	if diskStore, ok := photos.(*storage.DiskStore); ok {
		router.UploadDir = diskStore.Dir
	}
	if cfg.IsTest() {
		testingHandler := handler.NewTestingHandler(service.NewTestingService(sessionRepo, authEventRepo, profileRepo, photos))
		testingHandler.Logger = logger
		router.Testing = testingHandler
	}

	return &app{echo: e, router: router}
}

func newPhotoStore(ctx context.Context, cfg config.Config) (service.PhotoStore, error) {
	switch cfg.PhotoStorage {
	case config.PhotoStorageS3:
		return storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:       cfg.S3.Endpoint,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			Region:         cfg.S3.Region,
			ForcePathStyle: cfg.S3.ForcePathStyle,
			Prefix:         "photos/",
			PresignTTL:     cfg.S3.PresignTTL,
		})
	case config.PhotoStorageMemory:
		return storage.NewMemoryStore(), nil
	default:
		return storage.NewDiskStore(cfg.UploadDir)
	}
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	if parsed, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(parsed)
	} else {
		logger.WithField("level", level).Warn("unknown log level, using info")
	}
	return logger
}

func requestLogger(logger *logrus.Logger) echo.MiddlewareFunc {
	return echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status":  v.Status,
				"method":  v.Method,
				"uri":     v.URI,
				"ip":      v.RemoteIP,
				"latency": v.Latency.String(),
			})
			if traceID := telemetry.TraceID(c.Request().Context()); traceID != "" {
				entry = entry.WithField("trace_id", traceID)
			}
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
