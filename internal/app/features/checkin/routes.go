// internal/app/features/checkin/routes.go
package checkin

import (
	"github.com/go-chi/chi/v5"

	"github.com/eventrahq/eventra/internal/app/system/auth"
	"github.com/eventrahq/eventra/internal/domain/models"
)

// Routes returns the /checkin subrouter. Only approved organizers and
// admins run event desks.
func Routes(h *Handler, authn *auth.Authenticator) chi.Router {
	r := chi.NewRouter()
	r.Use(authn.RequireRole(models.RoleOrganizer, models.RoleAdmin), authn.RequireApproved)

	r.Post("/", h.Scan)
	return r
}
