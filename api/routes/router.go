package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pvalette/boutique-backend/api/controllers"
	"github.com/pvalette/boutique-backend/api/middleware"
	authsvc "github.com/pvalette/boutique-backend/internal/auth"
	billingsvc "github.com/pvalette/boutique-backend/internal/billing"
	cartsvc "github.com/pvalette/boutique-backend/internal/cart"
	"github.com/pvalette/boutique-backend/internal/catalog"
	deliverysvc "github.com/pvalette/boutique-backend/internal/deliveries"
	ordersvc "github.com/pvalette/boutique-backend/internal/orders"
	supportsvc "github.com/pvalette/boutique-backend/internal/support"
	"github.com/pvalette/boutique-backend/pkg/auth/session"
	"github.com/pvalette/boutique-backend/pkg/config"
	"github.com/pvalette/boutique-backend/pkg/db"
	"github.com/pvalette/boutique-backend/pkg/logger"
	"github.com/pvalette/boutique-backend/pkg/metrics"
	"github.com/pvalette/boutique-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Sessions    session.AccessSessionChecker
	Registry    *prometheus.Registry
	// Idempotency overrides the redis-backed store; tests pass a fake.
	Idempotency redis.IdempotencyStore
	AuthService authsvc.Service
	Catalog     catalog.Service
	Cart        cartsvc.Service
	Orders      ordersvc.Service
	Billing     billingsvc.Service
	Deliveries  deliverysvc.Service
	Support     supportsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	httpMetrics := metrics.NewHTTPMetrics(registry)

	var cache redis.Pinger
	idemStore := deps.Idempotency
	if deps.Redis != nil {
		cache = deps.Redis
		if idemStore == nil {
			idemStore = deps.Redis
		}
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, cache))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
	})

	// Public catalog reads.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(deps.Catalog, logg))
		r.Get("/{productId}", controllers.ProductDetail(deps.Catalog, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Post("/", controllers.ProductCreate(deps.Catalog, logg))
			r.Patch("/{productId}", controllers.ProductUpdate(deps.Catalog, logg))
			r.Delete("/{productId}", controllers.ProductDeactivate(deps.Catalog, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Post("/auth/logout", controllers.AuthLogout(deps.AuthService, logg))
		r.Get("/me", controllers.Me(deps.AuthService, logg))
		r.Put("/me", controllers.UpdateMe(deps.AuthService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Cart, logg))
			r.Post("/items", controllers.CartAdd(deps.Cart, logg))
			r.Delete("/items/{productId}", controllers.CartRemove(deps.Cart, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.Orders, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			r.Post("/{orderId}/pay", controllers.PayOrder(deps.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(deps.Orders, logg))
			r.Post("/{orderId}/refund", controllers.RefundOrder(deps.Orders, logg))
			r.Get("/{orderId}/payments", controllers.OrderPayments(deps.Orders, logg))
			r.Get("/{orderId}/invoice", controllers.OrderInvoice(deps.Billing, logg))

			r.Route("/{orderId}/delivery", func(r chi.Router) {
				r.Get("/", controllers.DeliveryTrack(deps.Deliveries, logg))
				r.Post("/", controllers.DeliveryPrepare(deps.Deliveries, logg))
				r.Post("/ship", controllers.DeliveryShip(deps.Deliveries, logg))
				r.Post("/delivered", controllers.DeliveryMarkDelivered(deps.Deliveries, logg))
			})
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoiceList(deps.Billing, logg))
			r.Get("/{invoiceId}", controllers.InvoiceDetail(deps.Billing, logg))
		})

		r.Route("/support/threads", func(r chi.Router) {
			r.Get("/", controllers.SupportListThreads(deps.Support, logg))
			r.Post("/", controllers.SupportOpenThread(deps.Support, logg))
			r.Get("/{threadId}", controllers.SupportThreadDetail(deps.Support, logg))
			r.Post("/{threadId}/messages", controllers.SupportPostMessage(deps.Support, logg))
			r.Post("/{threadId}/close", controllers.SupportCloseThread(deps.Support, logg))
		})
	})

	return r
}
