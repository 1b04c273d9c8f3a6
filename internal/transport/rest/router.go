package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/rmedeiros-eng/scse/internal/attachment"
	"github.com/rmedeiros-eng/scse/internal/audit"
	"github.com/rmedeiros-eng/scse/internal/auth"
	"github.com/rmedeiros-eng/scse/internal/directory"
	"github.com/rmedeiros-eng/scse/internal/group"
	"github.com/rmedeiros-eng/scse/internal/machineexit"
	"github.com/rmedeiros-eng/scse/internal/substitution"
	"github.com/rmedeiros-eng/scse/internal/transfer"
	"github.com/rmedeiros-eng/scse/internal/transport/middleware"
	"github.com/rmedeiros-eng/scse/internal/transport/swagger"
	"github.com/rmedeiros-eng/scse/internal/user"
)

// Handlers bundles every HTTP handler the router mounts. Nil entries are
// skipped, which keeps partial wiring possible in tests.
type Handlers struct {
	Auth         *auth.Handler
	MachineExit  *machineexit.Handler
	Transfer     *transfer.Handler
	User         *user.Handler
	Group        *group.Handler
	Substitution *substitution.Handler
	Audit        *audit.Handler
	Attachment   *attachment.Handler
	Directory    *directory.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RecoveryMiddleware)

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", h.Auth.Login)
				sr.Post("/logout", h.Auth.Logout)
			})
		}

		if h.Auth == nil {
			return
		}

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.MachineExit != nil {
				pr.Route("/machine-exits", func(mr chi.Router) {
					mr.Post("/", h.MachineExit.Create)
					mr.Get("/", h.MachineExit.List)
					mr.Get("/counts", h.MachineExit.Counts)
					mr.Get("/{id}", h.MachineExit.Get)
					mr.Patch("/{id}", h.MachineExit.Update)
					mr.Delete("/{id}", h.MachineExit.Delete)
					mr.Patch("/{id}/approve", h.MachineExit.Approve)
					mr.Patch("/{id}/reject", h.MachineExit.Reject)

					mr.Group(func(gr chi.Router) {
						gr.Use(middleware.RequireCapability(logger, auth.CapAccessGateControl, auth.CapAccessAdminPanel))
						gr.Patch("/{id}/gate-exit", h.MachineExit.RegisterGateExit)
					})

					mr.Patch("/{id}/return", h.MachineExit.RegisterReturn)
				})
			}

			if h.Transfer != nil {
				pr.Route("/transfers", func(tr chi.Router) {
					tr.Post("/", h.Transfer.Create)
					tr.Get("/", h.Transfer.List)
					tr.Get("/counts", h.Transfer.Counts)
					tr.Get("/{id}", h.Transfer.Get)
					tr.Patch("/{id}", h.Transfer.Update)
					tr.Delete("/{id}", h.Transfer.Delete)

					tr.Group(func(gr chi.Router) {
						gr.Use(middleware.RequireCapability(logger, auth.CapAccessGateControl, auth.CapAccessAdminPanel))
						gr.Patch("/{id}/exit", h.Transfer.RegisterExit)
						gr.Patch("/{id}/arrival", h.Transfer.RegisterArrival)
					})
				})
			}

			if h.Attachment != nil {
				pr.Route("/attachments", func(ar chi.Router) {
					ar.Post("/", h.Attachment.Upload)
					ar.Get("/{name}", h.Attachment.Download)
				})
			}

			if h.User != nil {
				pr.Route("/admin/users", func(ur chi.Router) {
					ur.Use(middleware.RequireCapability(logger, auth.CapManageUsers, auth.CapAccessAdminPanel))
					ur.Post("/", h.User.Create)
					ur.Get("/", h.User.List)
					ur.Get("/{id}", h.User.Get)
					ur.Patch("/{id}", h.User.Update)
					ur.Delete("/{id}", h.User.Delete)
				})
			}

			if h.Group != nil {
				pr.Route("/admin/groups", func(gr chi.Router) {
					gr.Use(middleware.RequireCapability(logger, auth.CapManageGroups, auth.CapAccessAdminPanel))
					gr.Post("/", h.Group.Create)
					gr.Get("/", h.Group.List)
					gr.Get("/{id}", h.Group.Get)
					gr.Patch("/{id}", h.Group.Update)
					gr.Delete("/{id}", h.Group.Delete)
				})
			}

			if h.Substitution != nil {
				pr.Route("/admin/substitutions", func(sr chi.Router) {
					sr.Use(middleware.RequireAdmin(logger))
					sr.Post("/", h.Substitution.Create)
					sr.Get("/", h.Substitution.List)
					sr.Delete("/{id}", h.Substitution.Delete)
				})
			}

			if h.Audit != nil {
				pr.Group(func(ar chi.Router) {
					ar.Use(middleware.RequireCapability(logger, auth.CapViewAuditLog, auth.CapAccessAdminPanel))
					ar.Get("/admin/audit-events", h.Audit.List)
				})
			}

			if h.Directory != nil {
				pr.Group(func(dr chi.Router) {
					dr.Use(middleware.RequireAdmin(logger))
					dr.Post("/admin/directory/sync", h.Directory.SyncNow)
				})
			}
		})
	})
}
