// Package http assembles the gin engine and the HTTP server lifecycle.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fraudguard/fraudguard/internal/application/dto"
	"github.com/fraudguard/fraudguard/internal/config"
	"github.com/fraudguard/fraudguard/internal/infrastructure/monitoring"
	"github.com/fraudguard/fraudguard/internal/interfaces/http/handlers"
	"github.com/fraudguard/fraudguard/internal/interfaces/http/middleware"
	"github.com/fraudguard/fraudguard/pkg/errors"
	"github.com/fraudguard/fraudguard/pkg/logger"
)

// Router owns the gin engine and the HTTP server.
type Router struct {
	engine     *gin.Engine
	config     *config.Config
	logger     logger.Logger
	tracing    *monitoring.TracingManager
	metrics    *monitoring.Metrics
	health     *handlers.HealthHandler
	prediction *handlers.PredictionHandler
	model      *handlers.ModelHandler
	analytics  *handlers.AnalyticsHandler
	server     *http.Server
}

// NewRouter creates the router with all handlers wired.
func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	tracing *monitoring.TracingManager,
	metrics *monitoring.Metrics,
	health *handlers.HealthHandler,
	prediction *handlers.PredictionHandler,
	model *handlers.ModelHandler,
	analytics *handlers.AnalyticsHandler,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	return &Router{
		engine:     gin.New(),
		config:     cfg,
		logger:     log.WithComponent("Router"),
		tracing:    tracing,
		metrics:    metrics,
		health:     health,
		prediction: prediction,
		model:      model,
		analytics:  analytics,
	}
}

// SetupRoutes registers the middleware chain and all endpoints.
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.Observability(r.tracing, r.metrics, r.logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "Accept"}
	r.engine.Use(cors.New(corsConfig))

	r.engine.GET("/", r.health.Root)
	r.engine.GET("/health", r.health.Health)
	r.engine.GET("/live", r.health.Live)
	r.engine.GET("/ready", r.health.Ready)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if r.config.Profiling.PprofEnabled {
		pprof.Register(r.engine)
	}

	v1 := r.engine.Group("/api/v1")
	v1.Use(middleware.RequireJWT(r.config.Auth, r.logger))
	{
		v1.POST("/predict", r.prediction.Predict)
		v1.POST("/predict/batch", r.prediction.PredictBatch)

		models := v1.Group("/models")
		{
			models.GET("/metrics", r.model.Metrics)
			models.POST("/retrain", r.model.Retrain)
		}

		analytics := v1.Group("/analytics")
		{
			analytics.GET("/trends", r.analytics.Trends)
			analytics.GET("/geographic", r.analytics.Geographic)
		}
	}

	r.engine.NoRoute(func(c *gin.Context) {
		dto.SendError(c, errors.ErrNotFound.WithMessage("no route for %s", c.Request.URL.Path))
	})
}

// Engine exposes the underlying gin engine, for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Start runs the HTTP server until it is shut down.
func (r *Router) Start() error {
	r.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.server = &http.Server{
		Addr:           addr,
		Handler:        r.engine,
		ReadTimeout:    time.Duration(r.config.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(r.config.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	r.logger.Info(context.Background(), "starting http server", logger.Fields{
		"address": addr,
	})

	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the HTTP server down, draining in-flight requests.
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.logger.Info(ctx, "stopping http server")
	return r.server.Shutdown(ctx)
}
