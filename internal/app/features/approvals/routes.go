// internal/app/features/approvals/routes.go
package approvals

import (
	"github.com/go-chi/chi/v5"

	"github.com/eventrahq/eventra/internal/app/system/auth"
	"github.com/eventrahq/eventra/internal/domain/models"
)

// Routes returns the /admin subrouter. Every route requires the admin
// role.
func Routes(h *Handler, authn *auth.Authenticator) chi.Router {
	r := chi.NewRouter()
	r.Use(authn.RequireRole(models.RoleAdmin))

	r.Get("/users", h.List)
	r.Post("/users/{userID}/approve", h.Approve)
	r.Post("/users/{userID}/reject", h.Reject)
	return r
}
