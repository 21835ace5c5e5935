package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AnthoniusHendriyanto/backoffice-auth/config"
	"github.com/AnthoniusHendriyanto/backoffice-auth/db"
	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/handler"
	repo "github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/repository/postgres"
	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/service"
	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/logger"
	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/mailer"
	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

// app holds the wiring shared by serve and create-admin.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	pool     *pgxpool.Pool
	users    *service.UserService
	registry *prometheus.Registry
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, cfg.DBURL, "up"); err != nil {
			return nil, err
		}
	}

	pool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		return nil, err
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMailer(mailer.New(cfg, log)),
	}

	if cfg.RSAPrivateKeyPath != "" {
		transit, err := service.LoadTransitDecryptor(cfg.RSAPrivateKeyPath)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("load transit key: %w", err)
		}
		opts = append(opts, service.WithTransitDecryptor(transit))
	} else {
		log.Warn().Msg("RSA_PRIVATE_KEY_PATH not set, passwords are accepted in plaintext only")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	opts = append(opts, service.WithMetrics(metrics.New(registry)))

	tokens := service.NewTokenService(cfg.JWTSecret, service.TokenTTLs{
		Session:           cfg.SessionTokenTTL,
		PasswordReset:     cfg.ResetTokenTTL,
		EmailVerification: cfg.VerificationTokenTTL,
		Refresh:           cfg.RefreshTokenTTL,
	})

	return &app{
		cfg:      cfg,
		log:      log,
		pool:     pool,
		users:    service.NewUserService(repo.NewPostgresRepository(pool), tokens, cfg, opts...),
		registry: registry,
	}, nil
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.pool.Close()

	server := handler.NewServer(handler.NewAuthHandler(a.users), handler.ServerOptions{
		Logger:      a.log,
		Production:  a.cfg.IsProduction(),
		CORSOrigins: a.cfg.CORSOrigins,
		Gatherer:    a.registry,
		Ready:       a.pool.Ping,
	})

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.Addr()).Str("env", a.cfg.Env).Msg("listening")
		errCh <- server.Listen(a.cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
