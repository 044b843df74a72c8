package main // Entry point package

import (
	"context"   // deadlines and cancellation
	"errors"    // sentinel error matching
	"net/http"  // HTTP status codes and cookies
	"os"        // environment and files
	"os/signal" // shutdown signals
	"syscall"   // SIGTERM
	"time"      // timeouts and clocks

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/cms-auth/internal/auth"       // tokens, CSRF, lockout and signing
	"github.com/iliyamo/cms-auth/internal/config"     // app configuration
	"github.com/iliyamo/cms-auth/internal/database"   // MySQL connection and migrations
	"github.com/iliyamo/cms-auth/internal/handler"    // HTTP handlers
	"github.com/iliyamo/cms-auth/internal/logging"    // structured logging
	"github.com/iliyamo/cms-auth/internal/middleware" // gate, guards and limiters
	"github.com/iliyamo/cms-auth/internal/model"      // domain models
	"github.com/iliyamo/cms-auth/internal/queue"      // audit events
	"github.com/iliyamo/cms-auth/internal/repository" // DB repositories
	"github.com/iliyamo/cms-auth/internal/router"     // route registration
	"github.com/iliyamo/cms-auth/internal/service"    // audit publisher
	"github.com/iliyamo/cms-auth/internal/storage"    // S3 blob store
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("load config")
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.RunMigrations {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}
	users := repository.NewUserRepo(db)
	if err := bootstrapAdmin(ctx, cfg, users); err != nil {
		return err
	}

	// Shared counters live in Redis when it is reachable.
	rdb := config.NewRedisClient()
	var store auth.CounterStore
	if rdb != nil {
		defer rdb.Close()
		store = auth.NewRedisStore(rdb, "cms-auth")
	} else {
		mem := auth.NewMemoryStore()
		mem.StartJanitor(ctx, time.Minute)
		store = mem
	}

	codec, err := auth.NewTokenCodec([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		return err
	}
	verifier, err := auth.NewSignatureVerifier(cfg.APIKey, cfg.SigningSecret, cfg.SignatureWindow, store)
	if err != nil {
		return err
	}
	guard := auth.NewBruteForceGuard(store, cfg.LockoutMaxAttempts, cfg.LockoutWindow)
	csrf := auth.NewCSRFService(cfg.CSRFTTL, cfg.IsProduction())

	var events handler.EventPublisher = service.Discard{}
	if cfg.AuditEnabled {
		events = service.NewPublisher(cfg.AMQPURL)
	}
	if cfg.AuditConsumer {
		go func() {
			err := queue.StartAuditConsumer(ctx, cfg.AMQPURL, cfg.AuditLogPath)
			if err != nil && !errors.Is(err, context.Canceled) {
				logging.Error().Err(err).Msg("audit consumer stopped")
			}
		}()
	}

	var blobs handler.BlobStore
	s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket:        cfg.S3Bucket,
		Region:        cfg.S3Region,
		Endpoint:      cfg.S3Endpoint,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		PublicBaseURL: cfg.S3PublicBaseURL,
	})
	switch {
	case err == nil:
		blobs = s3Store
	case errors.Is(err, storage.ErrNotConfigured):
		logging.Info().Msg("S3_BUCKET not set; uploads disabled")
	default:
		return err
	}

	e := echo.New()
	gate := middleware.DefaultGateConfig()
	router.Setup(e, gate)
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e,
		handler.NewAuthHandler(cfg, users, codec, csrf, guard, events),
		codec,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterAdmin(e, handler.NewUsersHandler(users), handler.NewUploadHandler(blobs), codec)
	router.RegisterSigned(e, handler.NewSignedHandler(users), verifier)
	router.RegisterPages(e, handler.NewPageHandler(codec, gate.LoginPath, cfg.IsProduction()))

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// bootstrapAdmin creates the configured first admin if it does not exist.
func bootstrapAdmin(ctx context.Context, cfg config.Config, users *repository.UserRepo) error {
	if cfg.BootstrapAdminEmail == "" || cfg.BootstrapAdminPassword == "" {
		return nil
	}
	hash, err := auth.HashPassword(cfg.BootstrapAdminPassword, cfg.BcryptCost)
	if err != nil {
		return err
	}
	_, err = users.Create(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminUsername, hash, model.RoleAdmin)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil
	}
	if err == nil {
		logging.Info().Str("username", cfg.BootstrapAdminUsername).Msg("bootstrap admin created")
	}
	return err
}
