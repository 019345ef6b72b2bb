package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emlakhub/emlakhub-backend/api/controllers"
	"github.com/emlakhub/emlakhub-backend/api/middleware"
	"github.com/emlakhub/emlakhub-backend/internal/activity"
	"github.com/emlakhub/emlakhub-backend/internal/contact"
	"github.com/emlakhub/emlakhub-backend/internal/favorites"
	"github.com/emlakhub/emlakhub-backend/internal/listings"
	"github.com/emlakhub/emlakhub-backend/internal/notifications"
	"github.com/emlakhub/emlakhub-backend/internal/reports"
	"github.com/emlakhub/emlakhub-backend/internal/settings"
	"github.com/emlakhub/emlakhub-backend/internal/users"
	"github.com/emlakhub/emlakhub-backend/pkg/config"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
	pkgredis "github.com/emlakhub/emlakhub-backend/pkg/redis"
)

// Dependencies carries everything the HTTP surface calls into. Idempotency and
// RateLimits may be nil, which disables those middlewares.
type Dependencies struct {
	Listings      listings.Service
	Favorites     favorites.Service
	Reports       reports.Service
	Contact       contact.Service
	Notifications notifications.Service
	Users         users.Service
	Settings      settings.Service
	Activity      activity.Service

	Idempotency pkgredis.IdempotencyStore
	RateLimits  middleware.RateLimitStore
	Readiness   map[string]controllers.Pinger
	Metrics     http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Recoverer(logg),
		middleware.CORS(cfg.CORS),
		middleware.Locale(),
	)

	reportPolicy := middleware.NewRateLimitPolicy(
		"report",
		cfg.RateLimit.ReportWindow,
		cfg.RateLimit.ReportIPLimit,
		cfg.RateLimit.ReportUserLimit,
	)
	contactPolicy := middleware.NewRateLimitPolicy(
		"contact",
		cfg.RateLimit.ContactWindow,
		cfg.RateLimit.ContactIPLimit,
		cfg.RateLimit.ContactEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	// Public surface: anonymous callers see only public listings, signed-in
	// callers additionally see their own listings and admins see everything.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, deps.Users, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Get("/settings", controllers.PublicSettings(deps.Settings, logg))
		r.With(middleware.RateLimit(contactPolicy, deps.RateLimits, logg)).
			Post("/contact", controllers.SubmitContact(deps.Contact, logg))

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", controllers.SearchListings(deps.Listings, logg))
			r.Get("/featured", controllers.FeaturedListings(deps.Listings, logg))
			r.Get("/{listingId}", controllers.GetListing(deps.Listings, logg))
			r.Get("/{listingId}/suggested", controllers.SuggestedListings(deps.Listings, logg))
			r.Post("/{listingId}/views", controllers.RecordListingView(deps.Listings, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleClient, enums.UserRoleSeller, enums.UserRoleAdmin))
				r.With(middleware.RateLimit(reportPolicy, deps.RateLimits, logg)).
					Post("/{listingId}/reports", controllers.SubmitReport(deps.Reports, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleSeller, enums.UserRoleAdmin))
				r.Post("/", controllers.CreateListing(deps.Listings, logg))
				r.Patch("/{listingId}", controllers.UpdateListing(deps.Listings, logg))
				r.Delete("/{listingId}", controllers.DeleteListing(deps.Listings, logg))
				r.Post("/{listingId}/status", controllers.SetListingStatus(deps.Listings, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleClient, enums.UserRoleSeller, enums.UserRoleAdmin))

			r.Get("/me", controllers.Me(deps.Users, logg))
			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", controllers.ListFavorites(deps.Favorites, logg))
				r.Put("/{listingId}", controllers.AddFavorite(deps.Favorites, logg))
				r.Delete("/{listingId}", controllers.RemoveFavorite(deps.Favorites, logg))
			})
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			})
		})

		r.Route("/seller", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleSeller, enums.UserRoleAdmin))
			r.Get("/listings", controllers.SellerListings(deps.Listings, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))

			r.Route("/listings", func(r chi.Router) {
				r.Get("/", controllers.AdminListings(deps.Listings, logg))
				r.Post("/{listingId}/hide", controllers.AdminSetListingHidden(deps.Listings, logg, true))
				r.Post("/{listingId}/show", controllers.AdminSetListingHidden(deps.Listings, logg, false))
				r.Put("/{listingId}/featured", controllers.AdminSetListingFeatured(deps.Listings, logg))
			})
			r.Route("/reports", func(r chi.Router) {
				r.Get("/", controllers.AdminListReports(deps.Reports, logg))
				r.Post("/{reportId}/resolve", controllers.AdminResolveReport(deps.Reports, logg))
			})
			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.AdminListUsers(deps.Users, logg))
				r.Put("/{userId}/role", controllers.AdminChangeUserRole(deps.Users, logg))
			})
			r.Get("/settings", controllers.AdminSettings(deps.Settings, logg))
			r.Put("/settings", controllers.AdminUpdateSettings(deps.Settings, logg))
			r.Get("/activity", controllers.AdminActivity(deps.Activity, logg))
		})
	})

	return r
}
