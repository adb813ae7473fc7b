package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sokohub/sokohub-backend/api/controllers"
	"github.com/sokohub/sokohub-backend/api/middleware"
	authsvc "github.com/sokohub/sokohub-backend/internal/auth"
	orderssvc "github.com/sokohub/sokohub-backend/internal/orders"
	paymentssvc "github.com/sokohub/sokohub-backend/internal/payments"
	producesvc "github.com/sokohub/sokohub-backend/internal/produce"
	reviewssvc "github.com/sokohub/sokohub-backend/internal/reviews"
	"github.com/sokohub/sokohub-backend/internal/webhooks"
	"github.com/sokohub/sokohub-backend/pkg/config"
	"github.com/sokohub/sokohub-backend/pkg/db"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	"github.com/sokohub/sokohub-backend/pkg/logger"
	"github.com/sokohub/sokohub-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        redis.Pinger
	Auth         *authsvc.Service
	Produce      *producesvc.Service
	Orders       *orderssvc.Service
	Payments     *paymentssvc.Service
	Reviews      *reviewssvc.Service
	Webhooks     *webhooks.Service
	WebhookGuard *webhooks.IdempotencyGuard
	Registry     *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	authed := middleware.Auth(cfg.JWT, logg)
	vendorOnly := middleware.RequireRole(enums.ActorRoleVendor, logg)
	farmerOnly := middleware.RequireRole(enums.ActorRoleFarmer, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/vendors/register", controllers.RegisterVendor(deps.Auth, logg))
		r.Post("/farmers/register", controllers.RegisterFarmer(deps.Auth, logg))
		r.Post("/login", controllers.Login(deps.Auth, logg))
	})

	r.Route("/api/v1/produce", func(r chi.Router) {
		r.Get("/", controllers.BrowseProduce(deps.Produce, logg))
		r.Get("/{produceID}", controllers.GetProduce(deps.Produce, logg))

		r.Group(func(r chi.Router) {
			r.Use(authed, farmerOnly)
			r.Post("/", controllers.CreateProduce(deps.Produce, logg))
			r.Put("/{produceID}", controllers.UpdateProduce(deps.Produce, logg))
		})
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(authed, vendorOnly)
		r.Post("/", controllers.PlaceOrder(deps.Orders, logg))
		r.Get("/", controllers.ListOrders(deps.Orders, logg))
		r.Get("/{orderID}", controllers.GetOrder(deps.Orders, logg))
		r.Post("/{orderID}/cancel", controllers.CancelOrder(deps.Orders, logg))
		r.Get("/{orderID}/payments", controllers.ListOrderPayments(deps.Payments, logg))
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Use(authed, vendorOnly)
		r.Post("/initiate", controllers.InitiatePayment(deps.Payments, logg))
	})

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Get("/farmers/{farmerID}", controllers.ListFarmerReviews(deps.Reviews, logg))

		r.Group(func(r chi.Router) {
			r.Use(authed, vendorOnly)
			r.Post("/", controllers.CreateReview(deps.Reviews, logg))
		})
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/mpesa", controllers.MpesaCallback(deps.Webhooks, deps.WebhookGuard, logg))
	})

	return r
}
