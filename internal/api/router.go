package api

import (
	"net/http"

	"cafe-schedule/internal/models"

	"github.com/go-chi/chi/v5"
)

func NewRouter(h *Handler, mw *Middleware) http.Handler {
	mux := chi.NewRouter()
	mux.Use(mw.Log, mw.Recover)

	mux.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)

		r.Group(func(r chi.Router) {
			r.Use(mw.Auth)

			r.Get("/me/permissions", h.MyPermissions)

			r.Route("/employees", func(r chi.Router) {
				r.Use(mw.RequirePermission(models.ModuleSchedule))
				r.Get("/", h.ListEmployees)
				r.Post("/", h.CreateEmployee)
				r.Get("/{id}", h.GetEmployee)
				r.Put("/{id}", h.UpdateEmployee)
				r.Delete("/{id}", h.DeleteEmployee)
			})

			r.Route("/shifts", func(r chi.Router) {
				// Публикация меняет статус смен, как PATCH /{id}/status
				r.With(mw.RequireAction(models.ModuleSchedule, models.ActionEdit)).Post("/publish", h.PublishWeek)

				r.Group(func(r chi.Router) {
					r.Use(mw.RequirePermission(models.ModuleSchedule))
					r.Get("/", h.ListShifts)
					r.Post("/", h.CreateShift)
					r.Patch("/bulk", h.BulkUpdateShifts)
					r.Get("/{id}", h.GetShift)
					r.Delete("/{id}", h.DeleteShift)
					r.Patch("/{id}/status", h.ChangeShiftStatus)
				})
			})

			r.Route("/schedule", func(r chi.Router) {
				r.Use(mw.RequirePermission(models.ModuleSchedule))
				r.Get("/conflicts", h.Conflicts)
				r.Get("/hours", h.Hours)
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(mw.RequirePermission(models.ModulePermissions))
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
			})

			r.Route("/permissions/{userID}", func(r chi.Router) {
				r.Use(mw.RequirePermission(models.ModulePermissions))
				r.Get("/", h.UserPermissions)
				r.Put("/", h.SetPermission)
				r.Get("/check", h.CheckPermission)
			})
		})
	})

	return mux
}
