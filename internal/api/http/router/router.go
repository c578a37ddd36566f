package router

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"go.uber.org/fx"

	"github.com/Alijeyrad/consulto_backend/config"
	"github.com/Alijeyrad/consulto_backend/internal/api/http/handler"
	"github.com/Alijeyrad/consulto_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/consulto_backend/internal/repo"
	"github.com/Alijeyrad/consulto_backend/internal/service/admin"
	"github.com/Alijeyrad/consulto_backend/internal/service/auth"
	"github.com/Alijeyrad/consulto_backend/internal/service/booking"
	"github.com/Alijeyrad/consulto_backend/internal/service/chat"
	"github.com/Alijeyrad/consulto_backend/internal/service/healthrecord"
	"github.com/Alijeyrad/consulto_backend/internal/service/review"
	"github.com/Alijeyrad/consulto_backend/internal/service/user"
	"github.com/Alijeyrad/consulto_backend/pkg/authorize"
	"github.com/Alijeyrad/consulto_backend/pkg/observability"
	pasetotoken "github.com/Alijeyrad/consulto_backend/pkg/paseto"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	Store           repo.Store
	Auth            authorize.IAuthorization
	PasetoMgr       *pasetotoken.Manager
	AuthSvc         auth.Service
	UserSvc         user.Service
	BookingSvc      booking.Service
	ChatSvc         chat.Service
	ReviewSvc       review.Service
	HealthRecordSvc healthrecord.Service
	AdminSvc        admin.Service
	OTel            *observability.Provider `optional:"true"`
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

type permFunc func(authorize.Resource, authorize.Action) fiber.Handler

func (r *Router) Register(app *fiber.App) {
	r.registerSystemRoutes(app)

	authRequired := middleware.AuthRequired(r.p.PasetoMgr, r.p.AuthSvc)
	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	authH := handler.NewAuthHandler(r.p.AuthSvc)
	userH := handler.NewUserHandler(r.p.UserSvc)
	bookingH := handler.NewBookingHandler(r.p.BookingSvc)
	chatH := handler.NewChatHandler(r.p.ChatSvc)
	reviewH := handler.NewReviewHandler(r.p.ReviewSvc)
	recordH := handler.NewHealthRecordHandler(r.p.HealthRecordSvc)
	adminH := handler.NewAdminHandler(r.p.AdminSvc)

	api := app.Group("/api")

	registerAuthRoutes(api, authH, authRequired)
	registerUserRoutes(api, userH, reviewH, authRequired, requirePerm)
	registerBookingRoutes(api, bookingH, authRequired, requirePerm)
	registerChatRoutes(api, chatH, authRequired, requirePerm)
	registerReviewRoutes(api, reviewH, authRequired, requirePerm)
	registerHealthRecordRoutes(api, recordH, authRequired, requirePerm)
	registerAdminRoutes(api, adminH, authRequired, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			ctx, cancel := context.WithTimeout(c.Context(), readinessTimeout)
			defer cancel()
			return r.p.Store.Ping(ctx) == nil && authorize.IsPolicyHealthy()
		},
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.OTel != nil && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(r.p.OTel.MetricsHandler()))
	}
}
