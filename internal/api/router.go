package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
	"github.com/sidrstudio/atlas/internal/api/handlers"
	"github.com/sidrstudio/atlas/internal/api/middleware"
	"github.com/sidrstudio/atlas/internal/auth"
	"github.com/sidrstudio/atlas/internal/flags"
	"github.com/sidrstudio/atlas/internal/rbac"
	"github.com/sidrstudio/atlas/internal/storage"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB              *gorm.DB
	Redis           *redis.Client
	Logger          *slog.Logger
	AuthService     *auth.Service
	Google          *auth.GoogleAuthenticator
	RBAC            *rbac.Resolver
	Flags           *flags.Resolver
	Storage         *storage.S3Store
	CookieName      string
	AllowedOrigins  []string
	RateLimitReqs   int
	RateLimitWindow time.Duration
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Fixed-window rate limiting per client IP
	if cfg.RateLimitReqs > 0 {
		r.Use(httprate.Limit(
			cfg.RateLimitReqs,
			cfg.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
	}

	// CORS - restrict to configured origins, or allow localhost in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authn := middleware.NewAuthenticator(cfg.AuthService, cfg.RBAC, cfg.DB, cfg.CookieName)

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.Google, cfg.CookieName)
	userHandler := handlers.NewUserHandler(cfg.DB, cfg.Flags)
	orgHandler := handlers.NewOrganizationHandler(cfg.DB, cfg.Flags)
	roleHandler := handlers.NewRoleHandler(cfg.DB)
	permissionHandler := handlers.NewPermissionHandler(cfg.DB)
	flagHandler := handlers.NewFeatureFlagHandler(cfg.DB, cfg.Flags)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", healthHandler.Healthcheck)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/sign-up", authHandler.SignUp)
			r.Post("/sign-in", authHandler.SignIn)
			r.Get("/sign-in/google", authHandler.GoogleSignIn)
			r.Get("/callback/google", authHandler.GoogleCallback)
			r.Post("/verify-otp", authHandler.VerifyOTP)
			r.Post("/resend-otp", authHandler.ResendOTP)
			r.Post("/logout", authHandler.Logout)

			r.With(authn.RequirePermission(rbac.AllOf(rbac.PermWriteUsers, rbac.PermReadUsers))).
				Post("/impersonate", authHandler.Impersonate)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(authn.RequireSession).Get("/me", userHandler.Me)
			r.With(authn.RequireSession).Put("/me", userHandler.UpdateMe)

			r.Group(func(r chi.Router) {
				r.Use(authn.RequirePermission(rbac.Key(rbac.PermReadUsers)))
				r.Get("/", userHandler.List)
				r.Get("/{id}", userHandler.Get)
				r.Get("/{id}/roles", userHandler.Roles)
			})

			r.Group(func(r chi.Router) {
				r.Use(authn.RequirePermission(rbac.Key(rbac.PermWriteUsers)))
				r.Post("/", userHandler.Create)
				r.Put("/{id}", userHandler.Update)
				r.Delete("/{id}", userHandler.Delete)
				r.Post("/{id}/suspend", userHandler.Suspend)
				r.Post("/{id}/restore", userHandler.Restore)
				r.Post("/{id}/assign-role", userHandler.AssignRole)
				r.Post("/{id}/unassign-role", userHandler.UnassignRole)
				r.Post("/{id}/assign-organization", userHandler.AssignOrganization)
				r.Post("/{id}/unassign-organization", userHandler.UnassignOrganization)
			})

			r.With(authn.RequirePermission(rbac.AllOf(rbac.PermReadFeatureFlags, rbac.PermReadUsers))).
				Get("/{id}/feature-flags", userHandler.FeatureFlags)
			r.With(authn.RequirePermission(rbac.AllOf(rbac.PermWriteUsers, rbac.PermWriteFeatureFlags))).
				Post("/{id}/feature-flags", userHandler.AssignFeatureFlag)
		})

		r.Route("/organizations", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authn.RequirePermission(rbac.Key(rbac.PermReadOrganizations)))
				r.Get("/", orgHandler.List)
				r.Get("/{id}", orgHandler.Get)
				r.Get("/{id}/users", orgHandler.Users)
			})

			r.Group(func(r chi.Router) {
				r.Use(authn.RequirePermission(rbac.Key(rbac.PermWriteOrganizations)))
				r.Post("/", orgHandler.Create)
				r.Put("/{id}", orgHandler.Update)
				r.Delete("/{id}", orgHandler.Delete)
			})

			r.With(authn.RequirePermission(rbac.AllOf(rbac.PermReadFeatureFlags, rbac.PermReadOrganizations))).
				Get("/{id}/feature-flags", orgHandler.FeatureFlags)
			r.With(authn.RequirePermission(rbac.AllOf(rbac.PermWriteOrganizations, rbac.PermWriteFeatureFlags))).
				Post("/{id}/feature-flags", orgHandler.AssignFeatureFlag)
		})

		r.Route("/roles", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authn.RequirePermission(rbac.Key(rbac.PermReadRoles)))
				r.Get("/", roleHandler.List)
				r.Get("/{id}", roleHandler.Get)
			})

			r.Group(func(r chi.Router) {
				r.Use(authn.RequirePermission(rbac.Key(rbac.PermWriteRoles)))
				r.Post("/", roleHandler.Create)
				r.Put("/{id}", roleHandler.Update)
				r.Delete("/{id}", roleHandler.Delete)
				r.Post("/{id}/assign-permission", roleHandler.AssignPermission)
				r.Post("/{id}/unassign-permission", roleHandler.UnassignPermission)
			})
		})

		r.Route("/permissions", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authn.RequirePermission(rbac.Key(rbac.PermReadPermissions)))
				r.Get("/", permissionHandler.List)
				r.Get("/{id}", permissionHandler.Get)
			})

			r.Group(func(r chi.Router) {
				r.Use(authn.RequirePermission(rbac.Key(rbac.PermWritePermissions)))
				r.Post("/", permissionHandler.Create)
				r.Put("/{id}", permissionHandler.Update)
				r.Delete("/{id}", permissionHandler.Delete)
			})
		})

		r.Route("/feature-flags", func(r chi.Router) {
			r.With(authn.RequireSession).Get("/overview", flagHandler.Overview)
			r.With(authn.RequireSession).Get("/resolve", flagHandler.Resolve)

			r.Group(func(r chi.Router) {
				r.Use(authn.RequirePermission(rbac.Key(rbac.PermReadFeatureFlags)))
				r.Get("/", flagHandler.List)
				r.Get("/{id}", flagHandler.Get)
			})

			r.Group(func(r chi.Router) {
				r.Use(authn.RequirePermission(rbac.Key(rbac.PermWriteFeatureFlags)))
				r.Post("/", flagHandler.Create)
				r.Put("/{id}", flagHandler.Update)
				r.Delete("/{id}", flagHandler.Delete)
			})
		})

		// File routes require any authenticated session; S3 may be left
		// unconfigured in development.
		if cfg.Storage != nil {
			fileHandler := handlers.NewFileHandler(cfg.Storage)
			r.Route("/files", func(r chi.Router) {
				r.Use(authn.RequireSession)
				r.Post("/presign-upload", fileHandler.PresignUpload)
				r.Get("/presign-download", fileHandler.PresignDownload)
			})
		}
	})

	return &Router{r}
}
