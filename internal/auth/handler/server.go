package handler

import (
	"context"
	"strings"
	"time"

	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 45 * time.Second
)

type ServerOptions struct {
	Logger      zerolog.Logger
	Production  bool
	CORSOrigins []string
	// Gatherer backs /metrics; nil leaves the route unmounted.
	Gatherer prometheus.Gatherer
	// Ready backs /healthz; nil always reports ok.
	Ready func(ctx context.Context) error
	// Zero timeouts fall back to DefaultReadTimeout and DefaultWriteTimeout.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewServer builds the fiber app with the shared middleware stack, the auth
// and admin routes, /healthz and /metrics.
func NewServer(h *AuthHandler, opts ServerOptions) *fiber.App {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}

	app := fiber.New(fiber.Config{
		AppName:               "backoffice-auth",
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		ErrorHandler:          ErrorHandler(opts.Logger, opts.Production),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.Middleware(opts.Logger))
	if len(opts.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(opts.CORSOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET,POST,PATCH,OPTIONS",
		}))
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if opts.Ready != nil {
			if err := opts.Ready(c.UserContext()); err != nil {
				opts.Logger.Warn().Err(err).Msg("readiness check failed")
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	RegisterRoutes(app, h)
	return app
}
