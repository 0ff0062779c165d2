// internal/app/features/registrations/routes.go
package registrations

import (
	"github.com/go-chi/chi/v5"

	"github.com/eventrahq/eventra/internal/app/system/auth"
	"github.com/eventrahq/eventra/internal/domain/models"
)

// Routes returns the /registrations subrouter.
func Routes(h *Handler, authn *auth.Authenticator) chi.Router {
	r := chi.NewRouter()

	student := r.With(
		authn.RequireRole(models.RoleStudent),
		authn.RequireApproved,
	)
	student.Post("/", h.Create)
	student.Get("/mine", h.Mine)

	r.With(authn.RequireRole(models.RoleOrganizer, models.RoleAdmin), authn.RequireApproved).
		Get("/event/{eventID}", h.Roster)

	return r
}
