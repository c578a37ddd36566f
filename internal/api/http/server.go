package http

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/consulto_backend/config"
	"github.com/Alijeyrad/consulto_backend/internal/api/http/handler"
	"github.com/Alijeyrad/consulto_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/consulto_backend/internal/api/http/router"
	"github.com/Alijeyrad/consulto_backend/pkg/observability"
)

// Module provides the HTTP Server to the fx graph.
var Module = fx.Module("http", fx.Provide(NewServer))

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	Redis     *redis.Client
	Router    *router.Router
	OTel      *observability.Provider `optional:"true"`
}

func NewServer(p Params) *fiber.App {
	app := NewApp(p.Cfg)

	if p.OTel != nil && p.Cfg.Observability.Tracing.Enabled {
		app.Use(observability.FiberMiddleware(p.Cfg.Observability.ServiceName))
	}

	configureGlobalMiddleware(app, p.Cfg, p.Redis)

	p.Router.Register(app)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := fmt.Sprintf(":%d", p.Cfg.Server.Port)
			go func() {
				if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
					slog.Error("HTTP server error", "error", err)
				}
			}()
			slog.Info("HTTP server listening", "addr", addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})

	return app
}

// NewApp builds the fiber app with the JSON error handler and timeouts.
func NewApp(cfg *config.Config) *fiber.App {
	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	return fiber.New(fiber.Config{
		AppName:      cfg.Observability.ServiceName,
		ErrorHandler: handler.ErrorHandler,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
}

func configureGlobalMiddleware(app *fiber.App, cfg *config.Config, rdb *redis.Client) {
	app.Use(middleware.RequestID())
	app.Use(recoverer.New())

	if cfg.Server.CORS.Enabled {
		app.Use(cors.New(corsConfig(cfg.Server.CORS)))
	}

	if cfg.Server.Environment == "production" {
		app.Use(helmet.New(helmetConfig(cfg.Server.Headers)))
		app.Use(middleware.NewLimiterWithRedis(rdb, cfg.Server.RateLimit.RequestsPerMinute))
	}

	app.Use(logger.New(logger.Config{
		Format: "${ip} - [${time}] [req_id=${locals:requestid}] ${method} ${url} ${status} ${latency}\n",
	}))
}

func corsConfig(c config.CORSConfig) cors.Config {
	return cors.Config{
		AllowOrigins:     c.AllowOrigins,
		AllowMethods:     c.AllowMethods,
		AllowHeaders:     c.AllowHeaders,
		ExposeHeaders:    c.ExposeHeaders,
		AllowCredentials: c.AllowCredentials && !containsWildcard(c.AllowOrigins),
		MaxAge:           c.MaxAgeSeconds,
	}
}

// helmetConfig keeps helmet's defaults for every header left empty.
func helmetConfig(h config.HeadersConfig) helmet.Config {
	cfg := helmet.ConfigDefault
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.XSSProtection, h.XSSProtection)
	set(&cfg.ContentTypeNosniff, h.ContentTypeNosniff)
	set(&cfg.XFrameOptions, h.XFrameOptions)
	set(&cfg.ReferrerPolicy, h.ReferrerPolicy)
	set(&cfg.CrossOriginEmbedderPolicy, h.CrossOriginEmbedderPolicy)
	set(&cfg.CrossOriginOpenerPolicy, h.CrossOriginOpenerPolicy)
	set(&cfg.CrossOriginResourcePolicy, h.CrossOriginResourcePolicy)
	set(&cfg.OriginAgentCluster, h.OriginAgentCluster)
	set(&cfg.XDNSPrefetchControl, h.XDNSPrefetchControl)
	set(&cfg.XDownloadOptions, h.XDownloadOptions)
	set(&cfg.XPermittedCrossDomain, h.XPermittedCrossDomain)
	return cfg
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}
