package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"catalog-api/internal/config"
	"catalog-api/internal/fx"
	"catalog-api/internal/metrics"
	custommiddleware "catalog-api/internal/middleware"
	"catalog-api/internal/payment"
	"catalog-api/internal/repository"
	"catalog-api/internal/service"
	"catalog-api/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	stores *stores
	redis  *redis.Client
	rates  *fx.Cache
}

// routerDeps is everything the HTTP surface needs, already constructed
type routerDeps struct {
	config     *config.Config
	logger     *zap.Logger
	categories repository.CategoryRepository
	products   repository.ProductRepository
	redis      *redis.Client
	rates      service.RateProvider
	charger    payment.Charger
	metrics    *metrics.Metrics

	schemaVersion func(ctx context.Context) (int64, error)
}

func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog store: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	rates, err := newRateCache(cfg.FX, m, logger)
	if err != nil {
		st.close()
		redisClient.Close()
		return nil, err
	}

	router := newRouter(routerDeps{
		config:     cfg,
		logger:     logger,
		categories: st.categories,
		products:   st.products,
		redis:      redisClient,
		rates:      rates,
		charger:    payment.NewStripeCharger(cfg.Stripe.SecretKey, nil, logger),
		metrics:    m,

		schemaVersion: st.schemaVersion,
	})

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		stores: st,
		redis:  redisClient,
		rates:  rates,
	}, nil
}

func newRateCache(cfg config.FXConfig, observer fx.Observer, logger *zap.Logger) (*fx.Cache, error) {
	if cfg.URL == "" {
		logger.Warn("FX_URL not set, serving default exchange rates")
		return fx.NewCache(fx.StaticSource(fx.DefaultRates()), logger, fx.WithObserver(observer)), nil
	}

	source, err := fx.NewHTTPSource(cfg.URL, cfg.AppID, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to configure exchange rate source: %w", err)
	}
	return fx.NewCache(source, logger,
		fx.WithInterval(cfg.RefreshInterval),
		fx.WithObserver(observer),
	), nil
}

func newRouter(deps routerDeps) chi.Router {
	cfg, logger := deps.config, deps.logger

	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(deps.metrics.Middleware(metrics.ChiRoutePatternOrPath))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	router.Get("/health", healthHandler(deps))
	router.With(metrics.Auth(cfg.Metrics.Token)).Handle("/metrics", deps.metrics.Handler())

	// Initialize services
	categoryService := service.NewCategoryService(deps.categories, logger)
	productService := service.NewProductService(deps.products, deps.categories, deps.rates, logger)
	cartService := service.NewCartService(
		repository.NewCartRepository(deps.redis, cfg.Cart.TTL),
		deps.products,
		deps.charger,
		logger,
	)

	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	requireAdmin := custommiddleware.RequireRole(cfg.JWT.AdminRoles, logger)
	adminOnly := func(next http.Handler) http.Handler {
		return authMiddleware(requireAdmin(next))
	}

	router.Group(func(r chi.Router) {
		r.Use(custommiddleware.RateLimitMiddleware(deps.redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "ratelimit",
		}, logger))

		transport.NewCategoryHandler(categoryService, logger).RegisterRoutes(r, adminOnly)
		transport.NewProductHandler(productService, logger).RegisterRoutes(r, adminOnly)
		transport.NewCartHandler(cartService, logger).RegisterRoutes(r, authMiddleware)
	})

	return router
}

// healthHandler pings every backing store and reports 503 if any is down
func healthHandler(deps routerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		body := map[string]interface{}{"checks": checks}
		healthy := true
		record := func(name string, err error) {
			if err != nil {
				deps.logger.Warn("Health check failed", zap.String("component", name), zap.Error(err))
				checks[name] = "down"
				healthy = false
				return
			}
			checks[name] = "up"
		}

		record("categories", deps.categories.Ping(ctx))
		record("products", deps.products.Ping(ctx))
		record("redis", deps.redis.Ping(ctx).Err())

		if deps.schemaVersion != nil {
			version, err := deps.schemaVersion(ctx)
			record("schema", err)
			if err == nil {
				body["schema_version"] = version
			}
		}

		status, code := "ok", http.StatusOK
		if !healthy {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		body["status"] = status
		custommiddleware.RespondWithJSON(w, code, body)
	}
}

// Start launches background work that must not block construction
func (s *Server) Start(ctx context.Context) {
	s.rates.Start(ctx)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	s.rates.Stop()

	if err := s.stores.close(); err != nil {
		s.logger.Error("Failed to close catalog store", zap.Error(err))
	}
	if err := s.redis.Close(); err != nil {
		s.logger.Error("Failed to close redis client", zap.Error(err))
	}

	s.logger.Sync()
	return nil
}
