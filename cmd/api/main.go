package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/plp-eems/eems-api/internal/config"
	"github.com/plp-eems/eems-api/internal/logging"
	"github.com/plp-eems/eems-api/internal/metrics"
	"github.com/plp-eems/eems-api/internal/repository/ports"
	"github.com/plp-eems/eems-api/internal/repository/postgres"
	redisrepo "github.com/plp-eems/eems-api/internal/repository/redis"
	"github.com/plp-eems/eems-api/internal/service"
	httptransport "github.com/plp-eems/eems-api/internal/transport/http"
	"github.com/plp-eems/eems-api/internal/transport/mail"
	"github.com/plp-eems/eems-api/internal/util"
)

const shutdownTimeout = 10 * time.Second

// Per-IP budget as a multiple of the per-email limit.
const ipLimitFactor = 4

type adminFlags struct {
	create   bool
	email    string
	password string
	name     string
}

func main() {
	var admin adminFlags
	flag.BoolVar(&admin.create, "create-admin", false, "create an admin account and exit")
	flag.StringVar(&admin.email, "email", "", "admin email (with -create-admin)")
	flag.StringVar(&admin.password, "password", "", "admin password (with -create-admin)")
	flag.StringVar(&admin.name, "name", "", "admin full name (with -create-admin)")
	flag.Parse()

	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogstashTCPAddr)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, admin, logger)
	stop()
	if err != nil {
		logger.Error("exit", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
	cleanup()
}

func run(ctx context.Context, cfg config.Config, admin adminFlags, logger *zap.Logger) error {
	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	accounts := postgres.NewAccountRepo(db)
	sessions := postgres.NewSessionRepo(db)
	jwtManager := util.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL)
	auth := service.NewAuthService(accounts, sessions, jwtManager, cfg.PasswordResetMinLength, logger, m)

	if admin.create {
		account, err := auth.CreateAccount(ctx, admin.email, admin.name, admin.password)
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		logger.Info("admin account created", zap.String("account_id", account.ID.String()), zap.String("email", account.Email))
		return nil
	}

	var emailThrottle, ipThrottle ports.Throttle
	if cfg.RedisAddr != "" {
		client := redisrepo.NewClient(cfg.RedisAddr, cfg.RedisPassword)
		defer client.Close()

		perEmail, err := redisrepo.NewThrottle(client, "eems:reset", cfg.ResetRateLimit, cfg.ResetRateWindow, 0)
		if err != nil {
			return fmt.Errorf("reset throttle: %w", err)
		}
		perIP, err := redisrepo.NewThrottle(client, "eems:reset-ip", cfg.ResetRateLimit*ipLimitFactor, cfg.ResetRateWindow, 0)
		if err != nil {
			return fmt.Errorf("ip throttle: %w", err)
		}
		emailThrottle, ipThrottle = perEmail, perIP
		logger.Info("reset rate limiting enabled", zap.String("redis_addr", cfg.RedisAddr), zap.Int("limit", cfg.ResetRateLimit))
	}

	mailer := mail.NewPasswordResetMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SMTPUseTLS)
	resets := service.NewPasswordResetService(accounts, mailer, service.PasswordResetConfig{
		CodeTTL:             cfg.PasswordResetTTL,
		MinPasswordLength:   cfg.PasswordResetMinLength,
		MailTimeout:         cfg.PasswordResetMailTimeout,
		ConcealUnknownEmail: cfg.PasswordResetConcealUnknown,
		Throttle:            emailThrottle,
		Sessions:            sessions,
		Logger:              logger,
		Metrics:             m,
	})
	clock := service.NewTimeService(postgres.NewTimeRepo(db))

	e := httptransport.NewRouter(cfg.AllowOrigins, logger)
	if err := httptransport.TrustProxies(e, cfg.TrustedProxies); err != nil {
		return fmt.Errorf("configure proxies: %w", err)
	}
	httptransport.RegisterAuth(e, auth, logger)
	httptransport.RegisterPasswordReset(e, resets, logger, httptransport.RateLimit(ipThrottle, "reset", logger))
	httptransport.RegisterTime(e, clock, logger)
	httptransport.RegisterMetrics(e, registry)
	httptransport.RegisterSwagger(e, cfg.SwaggerSpecPath, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.Port))
		errCh <- e.Start(":" + cfg.Port)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
