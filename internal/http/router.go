package http

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/expense-tracker/internal/auth"
	"github.com/redmonkez12/expense-tracker/internal/config"
	"github.com/redmonkez12/expense-tracker/internal/expense"
	"github.com/redmonkez12/expense-tracker/internal/httputil"
	"github.com/redmonkez12/expense-tracker/internal/logging"
	"github.com/redmonkez12/expense-tracker/internal/metrics"
)

// Deps are the handlers and collaborators the router mounts
type Deps struct {
	Config         *config.Config
	Logger         *logging.Logger
	AuthHandler    *auth.Handler
	AuthMiddleware *auth.Middleware
	ExpenseHandler *expense.Handler
	Metrics        *metrics.Collector
	Gatherer       prometheus.Gatherer
}

// NewRouter creates and configures the HTTP router
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if origins := d.Config.Server.TrustedOrigins; len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{"Content-Length"},
			// Credentials cannot be combined with a wildcard origin
			AllowCredentials: !slices.Contains(origins, "*"),
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)                        // Security headers on all responses
	r.Use(middleware.Recoverer)                   // Recover from panics
	r.Use(middleware.RequestID)                   // Add request ID
	r.Use(RealIP(d.Config.Server.TrustedProxies)) // Only behind trusted proxies
	r.Use(logging.RequestLogger(d.Logger))        // Structured logging with request context
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(middleware.Compress(5)) // Compress responses

	// Public routes
	r.Get("/health", handleHealth)
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))
	}

	// Swagger UI - only in development
	if d.Config.Server.IsDevelopment() {
		d.Logger.Info("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	} else {
		d.Logger.Info("Swagger UI disabled (production mode)")
	}

	r.Route("/api", func(r chi.Router) {
		// Auth routes (public)
		r.Post("/register", d.AuthHandler.Register)
		r.Post("/login", d.AuthHandler.Login)

		// Protected routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(d.AuthMiddleware.RequireAuth)

			r.Get("/me", d.AuthHandler.Me)

			r.Route("/expenses", func(r chi.Router) {
				r.Post("/", d.ExpenseHandler.Add)
				r.Get("/", d.ExpenseHandler.ListMine)
				r.Get("/all", d.ExpenseHandler.ListAll)
				r.Get("/summary", d.ExpenseHandler.Summary)
			})
		})
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
