package server

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"medivault/internal/cache"
	"medivault/internal/db"
	"medivault/internal/email"
	"medivault/internal/extraction"
	"medivault/internal/handlers"
	"medivault/internal/handlers/api"
	"medivault/internal/middleware"
	"medivault/internal/sharing"
	"medivault/internal/uploads"
)

// RegisterRoutes registers all application routes. listings and notifier
// may be nil when redis or SMTP is not configured.
func (s *Server) RegisterRoutes(ctx context.Context, database *db.DB, svc *sharing.Service, listings *cache.Listings, notifier *email.Notifier) error {
	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(database)

	// Initialize handlers
	reportHandler := api.NewReportHandler(database, s.Cfg)
	vitalHandler := api.NewVitalHandler(database)
	shareHandler := api.NewShareHandler(svc, listings, notifier)
	uploadHandler := api.NewUploadHandler(uploads.NewSigner(s.Cfg))
	extractHandler := api.NewExtractHandler(database, extraction.New(s.Cfg))
	sharePageHandler := handlers.NewSharePageHandler(svc, s.Cfg)
	homeHandler := handlers.NewHomeHandler(database, svc)
	healthHandler := handlers.NewHealthHandler(database)

	// Auth routes - OIDC is always required for frontend access
	if s.Cfg.OIDCIssuer == "" {
		log.Fatal("OIDC_ISSUER is required. All users must be authenticated.")
	}

	authHandler, err := handlers.NewAuthHandler(ctx, s.Cfg, database)
	if err != nil {
		return err
	}

	s.App.Get("/auth/login", authHandler.Login)
	s.App.Get("/auth/callback", authHandler.Callback)
	s.App.Get("/auth/logout", authHandler.Logout)

	// Signed-in landing page
	s.App.Get("/", authMiddleware.RequireAuth, homeHandler.Show)

	// Login page
	s.App.Get("/login", func(c fiber.Ctx) error {
		return c.Render("login", fiber.Map{
			"Title": "Sign in",
			"Next":  c.Query("next", "/"),
		})
	})

	// Public share redemption. OptionalAuth: unrestricted handling of the
	// token belongs to the sharing service, not the router.
	s.App.Get("/share/:token", authMiddleware.OptionalAuth, sharePageHandler.Show)

	// Upload signing
	s.App.Post("/api/uploads/sign", authMiddleware.RequireAuth, uploadHandler.Sign)

	// Report routes
	s.App.Post("/api/reports", authMiddleware.RequireAuth, reportHandler.Create)
	s.App.Get("/api/reports", authMiddleware.RequireAuth, reportHandler.List)
	s.App.Get("/api/reports/:id", authMiddleware.RequireAuth, reportHandler.Get)
	s.App.Delete("/api/reports/:id", authMiddleware.RequireAuth, reportHandler.Delete)
	s.App.Post("/api/reports/:id/extract", authMiddleware.RequireAuth, extractHandler.Run)
	s.App.Post("/api/reports/:id/vitals", authMiddleware.RequireAuth, vitalHandler.Create)

	// Vitals and dashboard
	s.App.Get("/api/vitals", authMiddleware.RequireAuth, vitalHandler.Series)
	s.App.Get("/api/dashboard", authMiddleware.RequireAuth, vitalHandler.Dashboard)

	// Share routes. "received" before ":token" so it isn't swallowed.
	s.App.Post("/api/shares", authMiddleware.RequireAuth, shareHandler.Create)
	s.App.Get("/api/shares", authMiddleware.RequireAuth, shareHandler.ListIssued)
	s.App.Get("/api/shares/received", authMiddleware.RequireAuth, shareHandler.ListReceived)
	s.App.Get("/api/shares/:token", authMiddleware.OptionalAuth, shareHandler.Validate)
	s.App.Delete("/api/shares/:token", authMiddleware.RequireAuth, shareHandler.Revoke)

	// Operational endpoints
	s.App.Get("/healthz", healthHandler.Healthz)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return nil
}
