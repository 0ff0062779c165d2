// internal/app/features/events/routes.go
package events

import (
	"github.com/go-chi/chi/v5"

	"github.com/eventrahq/eventra/internal/app/system/auth"
	"github.com/eventrahq/eventra/internal/domain/models"
)

// Routes returns the /events subrouter. Browsing is public; management
// requires an approved organizer (or admin), with ownership enforced in
// the handlers.
func Routes(h *Handler, authn *auth.Authenticator) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)

	manage := r.With(
		authn.RequireRole(models.RoleOrganizer, models.RoleAdmin),
		authn.RequireApproved,
	)
	manage.Get("/mine", h.Mine)
	manage.Post("/", h.Create)
	manage.Put("/{eventID}", h.Update)
	manage.Delete("/{eventID}", h.Deactivate)
	manage.Get("/{eventID}/stats", h.Stats)

	r.Get("/{eventID}", h.Get)

	return r
}
