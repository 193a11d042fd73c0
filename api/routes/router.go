package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jortegadev/ims-backend/api/controllers"
	"github.com/jortegadev/ims-backend/api/middleware"
	"github.com/jortegadev/ims-backend/internal/analytics"
	"github.com/jortegadev/ims-backend/internal/auth"
	"github.com/jortegadev/ims-backend/internal/catalog"
	"github.com/jortegadev/ims-backend/internal/orders"
	"github.com/jortegadev/ims-backend/internal/pricing"
	"github.com/jortegadev/ims-backend/internal/promotions"
	"github.com/jortegadev/ims-backend/pkg/auth/session"
	"github.com/jortegadev/ims-backend/pkg/config"
	"github.com/jortegadev/ims-backend/pkg/db"
	"github.com/jortegadev/ims-backend/pkg/logger"
	"github.com/jortegadev/ims-backend/pkg/redis"
)

const adminRole = "admin"

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionManager session.AccessSessionChecker
	Registry       *prometheus.Registry

	AuthService       auth.Service
	CatalogService    catalog.Service
	OrdersService     orders.Service
	PromotionsService promotions.Service
	PricingService    pricing.Service
	AnalyticsService  analytics.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).
			Post("/login", controllers.AuthLogin(p.AuthService, logg))
		if !cfg.App.IsProd() {
			r.Post("/register", controllers.AuthRegister(p.AuthService, logg))
		}
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.SessionManager, logg))
			r.Post("/logout", controllers.AuthLogout(p.AuthService, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.SessionManager, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(p.CatalogService, logg))
			r.Get("/low-stock", controllers.ProductLowStock(p.CatalogService, logg))
			r.Get("/export", controllers.ProductExportCSV(p.CatalogService, logg))
			r.Get("/{productId}", controllers.ProductDetail(p.CatalogService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(adminRole, logg))
				r.Post("/", controllers.ProductCreate(p.CatalogService, logg))
				r.Post("/import", controllers.ProductImportCSV(p.CatalogService, logg))
				r.Put("/{productId}", controllers.ProductUpdate(p.CatalogService, logg))
				r.Delete("/{productId}", controllers.ProductDelete(p.CatalogService, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(p.OrdersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(p.OrdersService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(adminRole, logg))
				r.Post("/", controllers.OrderCreate(p.OrdersService, logg))
				r.Post("/{orderId}/status", controllers.OrderUpdateStatus(p.OrdersService, logg))
			})
		})

		r.Route("/promotions", func(r chi.Router) {
			r.Get("/", controllers.PromotionListByProduct(p.PromotionsService, logg))
			r.Get("/{promotionId}", controllers.PromotionDetail(p.PromotionsService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(adminRole, logg))
				r.Post("/", controllers.PromotionCreate(p.PromotionsService, logg))
				r.Put("/{promotionId}", controllers.PromotionUpdate(p.PromotionsService, logg))
				r.Delete("/{promotionId}", controllers.PromotionDelete(p.PromotionsService, logg))
			})
		})

		r.Get("/pricing/quote", controllers.PricingQuote(p.PricingService, logg))
		r.Get("/analytics/dashboard", controllers.AnalyticsDashboard(p.AnalyticsService, logg))
	})

	return r
}
