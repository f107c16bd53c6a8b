package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/simryo/storefront-backend/api/controllers"
	"github.com/simryo/storefront-backend/api/middleware"
	cartsvc "github.com/simryo/storefront-backend/internal/cart"
	catalogsvc "github.com/simryo/storefront-backend/internal/catalog"
	checkoutsvc "github.com/simryo/storefront-backend/internal/checkout"
	orderssvc "github.com/simryo/storefront-backend/internal/orders"
	paymentsvc "github.com/simryo/storefront-backend/internal/payment"
	userssvc "github.com/simryo/storefront-backend/internal/users"
	"github.com/simryo/storefront-backend/pkg/config"
	"github.com/simryo/storefront-backend/pkg/logger"
	pkgredis "github.com/simryo/storefront-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs wired in.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Readiness   map[string]controllers.Pinger
	Registry    *prometheus.Registry
	Idempotency pkgredis.IdempotencyStore
	RateLimiter middleware.RateLimiter
	Catalog     catalogsvc.Service
	Cart        cartsvc.Service
	Checkout    checkoutsvc.Service
	Confirmer   paymentsvc.Confirmer
	Orders      orderssvc.Service
	Users       *userssvc.Repository
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(d.Logger),
		middleware.RequestID(d.Logger),
		middleware.Logging(d.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(d.Config))
		r.Get("/ready", controllers.HealthReady(d.Config, d.Logger, d.Readiness))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/countries", controllers.CatalogCountries(d.Catalog, d.Logger))
			r.Get("/countries/{countryId}", controllers.CatalogCountry(d.Catalog, d.Logger))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.CartSession(d.Logger))
			r.Use(middleware.Idempotency(d.Idempotency, d.Logger))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(d.Cart, d.Logger))
				r.Delete("/", controllers.CartClear(d.Cart, d.Logger))
				r.Post("/items", controllers.CartAddItem(d.Cart, d.Catalog, d.Logger))
				r.Patch("/items", controllers.CartUpdateItem(d.Cart, d.Logger))
				r.Delete("/items/{countryId}/{planIndex}", controllers.CartRemoveItem(d.Cart, d.Logger))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Use(middleware.CheckoutRateLimit(d.Config.RateLimit, d.RateLimiter, d.Logger))

				r.Post("/session", controllers.CheckoutSessionCreate(d.Checkout, d.Logger))
				r.Post("/confirm", controllers.CheckoutConfirm(d.Confirmer, d.Logger))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(d.Orders, d.Logger))
			r.Get("/confirmation/{orderId}", controllers.OrderConfirmation(d.Orders, d.Logger))
		})

		r.With(middleware.Auth(d.Config.JWT, d.Logger)).
			Get("/me", controllers.Me(d.Users, d.Logger))
	})

	return r
}
