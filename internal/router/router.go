// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// newsdesk API. It organizes routes into public, auth, community and
// admin groups with appropriate middleware stacks.
package router

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"newsdesk/internal/handlers"
	"newsdesk/internal/metrics"
	"newsdesk/internal/middleware"
	"newsdesk/internal/models"
	"newsdesk/internal/session"
)

// defaultMaxBody applies when Deps.MaxBodyBytes is not set.
const defaultMaxBody = 10 << 20

// Deps holds everything the router wires together. Metrics, LoginLimiter,
// Uploads and Ping are optional.
type Deps struct {
	Sessions   session.Backend
	Cookies    session.Cookies
	Authorizer middleware.Authorizer
	CSRF       middleware.TokenVerifier

	Metrics      *metrics.Metrics
	LoginLimiter *middleware.RateLimiter
	MaxBodyBytes int64
	HSTS         bool

	// Uploads serves locally stored assets under UploadsPrefix.
	Uploads       http.Handler
	UploadsPrefix string

	// Ping reports whether the backing stores are reachable.
	Ping func(ctx context.Context) error

	Auth      *handlers.Auth
	Admin     *handlers.Admin
	Taxonomy  *handlers.Taxonomy
	Community *handlers.Community
	Media     *handlers.Media
	Users     *handlers.Users
	Public    *handlers.Public
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	if d.Metrics != nil {
		r.Use(middleware.Instrument(d.Metrics))
	}
	r.Use(middleware.SecureHeaders(d.HSTS))
	maxBody := d.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	r.Use(middleware.LimitBody(maxBody))
	r.Use(middleware.LoadSession(d.Cookies, d.Sessions))

	// Health and metrics: no session, no CSRF.
	r.Get("/health", healthHandler(d.Ping))
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}
	if d.Uploads != nil && d.UploadsPrefix != "" {
		prefix := strings.TrimSuffix(d.UploadsPrefix, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix+"/", d.Uploads))
	}

	csrf := middleware.VerifyCSRF(d.CSRF)
	staff := middleware.RequireRole(d.Authorizer, models.StaffRoles)
	anyone := middleware.RequireRole(d.Authorizer, models.AnyRole)
	adminOnly := middleware.RequireRole(d.Authorizer, models.AdminOnly)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/csrf", d.Auth.CSRF)
			r.Group(func(r chi.Router) {
				r.Use(csrf)
				r.Group(func(r chi.Router) {
					if d.LoginLimiter != nil {
						r.Use(d.LoginLimiter.Middleware)
					}
					r.Post("/login", d.Auth.Login)
				})
				r.Post("/logout", d.Auth.Logout)
			})
			r.Group(func(r chi.Router) {
				r.Use(anyone)
				r.Get("/me", d.Auth.Me)
				r.With(csrf).Post("/password", d.Auth.ChangePassword)
			})
			r.Group(func(r chi.Router) {
				r.Use(staff, csrf)
				r.Post("/totp/enroll", d.Auth.EnrollTOTP)
				r.Post("/totp/confirm", d.Auth.ConfirmTOTP)
			})
		})

		// Public read API. Only subscribing mutates state worth guarding.
		r.Route("/public", func(r chi.Router) {
			r.Get("/categories", d.Public.Categories)
			r.Get("/tags", d.Public.Tags)
			r.With(csrf).Post("/subscribe", d.Community.Subscribe)
			r.Get("/preview/{token}", d.Public.Preview)
			r.Route("/{kind}", func(r chi.Router) {
				r.Get("/", d.Public.List)
				r.Get("/featured", d.Public.Featured)
				r.Get("/slug/{slug}", d.Public.GetBySlug)
				r.Get("/{id}", d.Public.Get)
				r.Get("/{id}/comments", d.Public.Comments)
				r.Post("/{id}/view", d.Public.View)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Use(anyone, csrf)
			r.Post("/", d.Community.CreateComment)
		})

		// Editorial console: staff only, CSRF on every mutation.
		r.Route("/admin", func(r chi.Router) {
			r.Use(staff, csrf)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", d.Taxonomy.Categories)
				r.Post("/", d.Taxonomy.CreateCategory)
				r.Get("/tree", d.Taxonomy.CategoryTree)
				r.Post("/reorder", d.Taxonomy.ReorderCategories)
				r.Get("/{id}", d.Taxonomy.Category)
				r.Patch("/{id}", d.Taxonomy.UpdateCategory)
				r.Delete("/{id}", d.Taxonomy.DeleteCategory)
			})
			r.Route("/subcategories", func(r chi.Router) {
				r.Get("/", d.Taxonomy.Subcategories)
				r.Post("/", d.Taxonomy.CreateSubcategory)
				r.Patch("/{id}", d.Taxonomy.UpdateSubcategory)
				r.Delete("/{id}", d.Taxonomy.DeleteSubcategory)
			})
			r.Route("/tags", func(r chi.Router) {
				r.Get("/", d.Taxonomy.Tags)
				r.Post("/", d.Taxonomy.CreateTag)
				r.Patch("/{id}", d.Taxonomy.UpdateTag)
				r.Delete("/{id}", d.Taxonomy.DeleteTag)
			})
			r.Route("/comments", func(r chi.Router) {
				r.Get("/", d.Community.Comments)
				r.Post("/{id}/approval", d.Community.ApproveComment)
				r.Delete("/{id}", d.Community.DeleteComment)
			})
			r.Route("/subscribers", func(r chi.Router) {
				r.Get("/", d.Community.Subscribers)
				r.Post("/{id}/confirmation", d.Community.ConfirmSubscriber)
				r.Delete("/{id}", d.Community.DeleteSubscriber)
			})
			r.Route("/media", func(r chi.Router) {
				r.Post("/", d.Media.Upload)
				r.Delete("/", d.Media.Delete)
			})

			// Identity administration. Avatars are open to staff; the
			// manager still limits editors to their own.
			r.Route("/users", func(r chi.Router) {
				r.Post("/{id}/avatar", d.Users.Avatar)
				r.Group(func(r chi.Router) {
					r.Use(adminOnly)
					r.Get("/", d.Users.List)
					r.Post("/", d.Users.Create)
					r.Get("/{id}", d.Users.Get)
					r.Patch("/{id}", d.Users.Update)
					r.Delete("/{id}", d.Users.Delete)
				})
			})

			// Content kinds: posts, videos, opinions, ads.
			r.Route("/{kind}", func(r chi.Router) {
				r.Get("/", d.Admin.List)
				r.Post("/", d.Admin.Create)
				r.Get("/featured", d.Admin.Featured)
				r.Get("/{id}", d.Admin.Get)
				r.Patch("/{id}", d.Admin.Update)
				r.Delete("/{id}", d.Admin.Delete)
				r.Post("/{id}/status", d.Admin.SetStatus)
				r.Post("/{id}/featured", d.Admin.SetFeatured)
				r.Post("/{id}/preview-link", d.Admin.PreviewLink)
			})
		})
	})

	return r
}

// healthHandler reports ok, or 503 when ping fails.
func healthHandler(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
}
