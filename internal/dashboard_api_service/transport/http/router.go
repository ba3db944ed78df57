package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	billinghttp "github.com/replytics/dashboard-api/internal/billing_service/adapters/http"
)

// RouterDeps collects everything the dashboard router mounts.
type RouterDeps struct {
	AuthMiddleware func(http.Handler) http.Handler

	Auth        *AuthHandler
	Business    *BusinessHandler
	Catalog     *CatalogHandler
	Customers   *CustomerHandler
	Analytics   *AnalyticsHandler
	Calls       *CallLogHandler
	SMS         *SMSHandler
	Billing     *BillingHandler
	Numbers     *PhoneNumberHandler
	VoiceBot    *VoiceBotHandler
	Audit       *AuditHandler
	Health      *HealthHandler
	PaymentHook *billinghttp.WebhookHandler

	AllowedOrigins     []string
	RateLimitPerMinute int
}

// NewRouter builds the full dashboard API routing tree. Auth is applied per
// group: probes, login and webhooks stay open, everything else requires a
// session and carries the resolved business context.
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if deps.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(deps.RateLimitPerMinute, time.Minute))
	}
	r.Use(PrometheusMetricsMiddleware)

	r.Handle("/metrics", promhttp.Handler())
	deps.Health.RegisterRoutes(r)

	registerResources := func(api chi.Router) {
		api.Group(func(protected chi.Router) {
			protected.Use(deps.AuthMiddleware)
			deps.Auth.RegisterSessionRoutes(protected)
			deps.Business.RegisterRoutes(protected)
			deps.Catalog.RegisterRoutes(protected)
			deps.Customers.RegisterRoutes(protected)
			deps.Analytics.RegisterRoutes(protected)
			deps.Calls.RegisterRoutes(protected)
			deps.SMS.RegisterRoutes(protected)
			deps.Billing.RegisterRoutes(protected)
			deps.Numbers.RegisterRoutes(protected)
			deps.VoiceBot.RegisterRoutes(protected)
			deps.Audit.RegisterRoutes(protected)
		})
	}

	r.Route("/api/dashboard", func(api chi.Router) {
		api.Route("/auth", func(authRouter chi.Router) {
			deps.Auth.RegisterRoutes(authRouter)
		})
		registerResources(api)
	})

	// The web dashboard migrated to the versioned prefix; both stay mounted
	// until every client is off the old one.
	r.Route("/api/v2/dashboard", registerResources)

	// Webhooks authenticate with their own shared-secret signatures.
	r.Route("/api/v1/webhooks", func(hooks chi.Router) {
		hooks.Post("/payment", deps.PaymentHook.HandlePaymentWebhook)
		deps.VoiceBot.RegisterWebhookRoutes(hooks)
	})

	return r
}
