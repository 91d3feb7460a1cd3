package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/proxypanel/internal/middleware"
	"github.com/mmeshcher/proxypanel/internal/model"
)

// SetupRouter настраивает HTTP-маршруты и middleware панели.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/dashboard/summary", h.Summary)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Orders)
				r.Get("/export", h.Export(model.EntityOrder))
				r.Post("/", mutate[model.OrderInput](h, model.ActionCreate, model.EntityOrder, ""))
			})

			r.Route("/members", func(r chi.Router) {
				r.Get("/", h.Members)
				r.Get("/export", h.Export(model.EntityMember))
				r.Get("/resource", h.LookupMember)
				r.Get("/{username}/orders", h.MemberOrders)
				r.Put("/{username}/status", h.MemberStatus)
				r.Put("/{username}/password", mutate[model.PasswordChange](h, model.ActionChangePassword, model.EntityMember, "username"))
				r.Post("/{username}/deduct", mutate[model.Deduction](h, model.ActionDeduct, model.EntityMember, "username"))
			})

			r.Route("/daily", func(r chi.Router) {
				r.Get("/", h.DailyStats)
				r.Get("/export", h.Export(model.EntityDailyStat))
			})

			r.Route("/packages/residential", func(r chi.Router) {
				r.Get("/", h.ResidentialPackages)
				r.Post("/", mutate[model.ResidentialPackageInput](h, model.ActionCreate, model.EntityResidentialPackage, ""))
				r.Put("/{id}", mutate[model.ResidentialPackageInput](h, model.ActionUpdate, model.EntityResidentialPackage, "id"))
				r.Delete("/{id}", h.remove(model.EntityResidentialPackage))
				r.Put("/{id}/status", mutate[model.StatusChange](h, model.ActionToggleStatus, model.EntityResidentialPackage, "id"))
			})

			r.Route("/packages/unlimited", func(r chi.Router) {
				r.Get("/", h.UnlimitedPackages)
				r.Post("/", mutate[model.UnlimitedPackageInput](h, model.ActionCreate, model.EntityUnlimitedPackage, ""))
				r.Put("/{id}", mutate[model.UnlimitedPackageUpdate](h, model.ActionUpdate, model.EntityUnlimitedPackage, "id"))
				r.Delete("/{id}", h.remove(model.EntityUnlimitedPackage))
				r.Put("/{id}/status", mutate[model.StatusChange](h, model.ActionToggleStatus, model.EntityUnlimitedPackage, "id"))
			})

			r.Route("/admins", func(r chi.Router) {
				r.Get("/", h.Admins)

				r.Group(func(r chi.Router) {
					r.Use(custommiddleware.RequireRole(model.RoleSuper))

					r.Post("/", mutate[model.AdminInput](h, model.ActionCreate, model.EntityAdmin, ""))
					r.Put("/{id}", h.UpdateAdmin)
					r.Delete("/{id}", h.remove(model.EntityAdmin))
					r.Put("/{id}/status", h.AdminStatus)
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
