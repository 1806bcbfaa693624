package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/plannerhub/marketplace/docs"
	"github.com/plannerhub/marketplace/internal/app/api/handlers"
	actorsvc "github.com/plannerhub/marketplace/internal/app/service/actor"
	"github.com/plannerhub/marketplace/internal/app/service/billing"
	budgetsvc "github.com/plannerhub/marketplace/internal/app/service/budget"
	invsvc "github.com/plannerhub/marketplace/internal/app/service/invoice"
	msgsvc "github.com/plannerhub/marketplace/internal/app/service/message"
	reqsvc "github.com/plannerhub/marketplace/internal/app/service/request"
	"github.com/plannerhub/marketplace/internal/app/service/statistics"
	subsvc "github.com/plannerhub/marketplace/internal/app/service/subscription"
	tasksvc "github.com/plannerhub/marketplace/internal/app/service/task"
	wh "github.com/plannerhub/marketplace/internal/app/service/webhookhandler"
	"github.com/plannerhub/marketplace/internal/app/service/webhooklog"
	cfgpkg "github.com/plannerhub/marketplace/pkg/config"
	"github.com/plannerhub/marketplace/pkg/types"

	mw "github.com/plannerhub/marketplace/internal/app/api/middleware"

	metrics "github.com/plannerhub/marketplace/pkg/metrics"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Add request tracing middleware only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

type routeDeps struct {
	fx.In

	Log            *zap.SugaredLogger
	Cfg            *cfgpkg.Config
	Actors         *actorsvc.Service
	Billing        *billing.Service
	WebhookHandler *wh.Handler
	WebhookLog     *webhooklog.Service
	Requests       *reqsvc.Service
	Subscriptions  *subsvc.Service
	Invoices       *invsvc.Service
	Tasks          *tasksvc.Service
	Budget         *budgetsvc.Service
	Messages       *msgsvc.Service
	Stats          *statistics.Service
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	// Prometheus metrics
	if d.Cfg != nil && d.Cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			MetricsList: []*metrics.Metric{metrics.MetricsWebhookEvents},
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: d.Log,
		})
		p.SetListenAddress(d.Cfg.MetricsAddr)
		p.Use(r)

		d.Log.Infow("metrics started", "addr", d.Cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Provider-facing webhooks: no auth, validated by signature instead
	webhooks := r.Group("/api/v1/webhooks")
	webhooks.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware())
	handlers.RegisterWebhookRoutes(webhooks, d.WebhookHandler)

	// Authenticated API
	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware(), mw.AuthMiddleware(d.Cfg.Auth.JWTSecret))

	billingPlanner := apiV1.Group("/billing", mw.RequireRole(types.ActorRolePlanner))
	billingAdmin := apiV1.Group("/billing", mw.RequireRole(types.ActorRoleAdmin))
	handlers.RegisterBillingRoutes(billingPlanner, billingAdmin, d.Billing)

	// Marketplace routes write ownership columns that reference actor rows,
	// so the caller's profile row is resolved up front.
	resolved := mw.ActorMiddleware(d.Actors)
	requests := apiV1.Group("/requests", resolved)
	handlers.RegisterRequestRoutes(requests, d.Requests)
	handlers.RegisterTaskRoutes(requests, apiV1.Group("/tasks", resolved), d.Tasks)
	handlers.RegisterBudgetRoutes(requests, apiV1.Group("/budget", resolved), d.Budget)

	handlers.RegisterInvoiceRoutes(apiV1.Group("/invoices", resolved), d.Invoices)
	handlers.RegisterMessageRoutes(apiV1.Group("/messages", resolved), d.Messages)

	handlers.RegisterAdminRoutes(apiV1.Group("/admin", mw.RequireRole(types.ActorRoleAdmin)), d.Stats, d.Invoices, d.Subscriptions, d.WebhookLog)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
