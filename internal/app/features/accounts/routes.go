// internal/app/features/accounts/routes.go
package accounts

import (
	"github.com/go-chi/chi/v5"

	"github.com/eventrahq/eventra/internal/app/system/auth"
)

// Routes returns the /auth subrouter.
func Routes(h *Handler, authn *auth.Authenticator) chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.With(authn.RequireSignedIn).Get("/me", h.Me)
	return r
}
