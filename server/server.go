package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"crime-analytics/config"
	"crime-analytics/observability"
	"crime-analytics/services"
	"crime-analytics/storage"
	"crime-analytics/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

const shutdownTimeout = 10 * time.Second

// Services are the analytical components the HTTP layer serves
type Services struct {
	Dataset   *storage.Dataset
	Analysis  *services.AnalysisService
	Hotspots  *services.HotspotService
	Insights  *services.InsightService
	Predictor *services.PredictionService
}

// Server exposes the dashboard API
type Server struct {
	cfg      *config.Config
	logger   *utils.Logger
	metrics  *observability.Metrics
	gatherer prometheus.Gatherer
	svc      Services
	cache    *ResponseCache
	engine   *gin.Engine
}

// New builds the router. gatherer backs /metrics and may be nil.
func New(cfg *config.Config, svc Services, logger *utils.Logger, metrics *observability.Metrics, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		gatherer: gatherer,
		svc:      svc,
		cache:    NewResponseCache(cfg.CacheTTL),
		engine:   gin.New(),
	}
	s.engine.Use(gin.Recovery(), requestID(), accessLog(logger, metrics))
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine

	r.GET("/health", s.handleHealth)
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		api.GET("/analysis", s.handleAnalysis)
		api.GET("/hotspots", s.handleHotspots)
		api.GET("/hotspots/coordinates", s.handleHotspotCoordinates)
		api.GET("/hotspots/geojson", s.handleHotspotGeoJSON)
		api.GET("/policies", s.handlePolicies)
		api.GET("/states", s.handleStates)
		api.GET("/crime-types", s.handleCrimeTypes)
		api.GET("/charts/trend.png", s.handleTrendChart)
		api.GET("/export/analysis.xlsx", s.handleExport)
	}

	r.POST("/predict", s.handlePredict)
	r.GET("/get_districts", s.handleDistricts)
	r.GET("/get_coordinates", s.handleCoordinates)
}

// Handler is the router wrapped with CORS
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         3600,
	})
	return c.Handler(s.engine)
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("Server stopped")
	return nil
}
