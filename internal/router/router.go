package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwalitptl/clinic-api/internal/handler"
	authhandler "github.com/jwalitptl/clinic-api/internal/handler/auth"
	recordshandler "github.com/jwalitptl/clinic-api/internal/handler/records"
	reporthandler "github.com/jwalitptl/clinic-api/internal/handler/report"
	settingshandler "github.com/jwalitptl/clinic-api/internal/handler/settings"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type RouterConfig struct {
	MaxBodySize    int64
	CORSConfig     middleware.CORSConfig
	LoginRateLimit middleware.RateLimiterConfig
	// MetricsPath is served outside /api when Metrics is set.
	MetricsPath string
	Metrics     *metrics.Metrics
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	authH    *authhandler.Handler
	recordsH *recordshandler.Handler
	settingH *settingshandler.Handler
	reportH  *reporthandler.Handler
	config   RouterConfig
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH *authhandler.Handler,
	recordsH *recordshandler.Handler,
	settingH *settingshandler.Handler,
	reportH *reporthandler.Handler,
	config RouterConfig,
) *Router {
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		authH:    authH,
		recordsH: recordsH,
		settingH: settingH,
		reportH:  reportH,
		config:   config,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
	)
	if config.Metrics != nil {
		engine.Use(middleware.Metrics(config.Metrics))
	}
	engine.Use(
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(),
		middleware.SizeLimit(config.MaxBodySize),
	)

	engine.NoRoute(r.authenticateAPI(), handler.NotFound)
	engine.NoMethod(r.authenticateAPI(), handler.NotFound)

	r.setup()
	return r
}

func (r *Router) setup() {
	if r.config.Metrics != nil {
		path := r.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, gin.WrapH(promhttp.HandlerFor(r.config.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	api := r.engine.Group("/api")
	api.GET("/health", handler.HealthCheck)

	loginLimit := middleware.NewRateLimiter(r.config.LoginRateLimit).RateLimit()
	r.authH.RegisterRoutes(api, r.auth.Authenticate(), loginLimit)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.recordsH.RegisterRoutes(protected, model.RecordCollections)
	r.settingH.RegisterRoutes(protected)
	r.reportH.RegisterRoutes(protected)
}

// authenticateAPI makes unmatched paths under /api answer 401 to anonymous
// callers, the same as the protected routes they sit next to.
func (r *Router) authenticateAPI() gin.HandlerFunc {
	authenticate := r.auth.Authenticate()
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Next()
			return
		}
		authenticate(c)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
