// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	accountsfeature "github.com/eventrahq/eventra/internal/app/features/accounts"
	approvalsfeature "github.com/eventrahq/eventra/internal/app/features/approvals"
	checkinfeature "github.com/eventrahq/eventra/internal/app/features/checkin"
	eventsfeature "github.com/eventrahq/eventra/internal/app/features/events"
	healthfeature "github.com/eventrahq/eventra/internal/app/features/health"
	registrationsfeature "github.com/eventrahq/eventra/internal/app/features/registrations"
	userstore "github.com/eventrahq/eventra/internal/app/store/users"
	"github.com/eventrahq/eventra/internal/app/system/auth"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// Eventra is a JSON API for a single-page client: the token manager
// verifies bearer tokens, the authenticator resolves them into
// principals on every request, and each feature mounts its own
// subrouter.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	tokens, err := auth.NewTokenManager(appCfg.TokenSecret, appCfg.TokenTTL, logger)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}

	// Fetch the fresh user record per request so role and approval
	// changes take effect immediately.
	authn := auth.NewAuthenticator(tokens, userstore.NewFetcher(deps.MongoDatabase), logger)

	r := chi.NewRouter()

	// Global auth middleware: loads the principal into context if the
	// request carries a valid bearer token.
	r.Use(authn.LoadPrincipal)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Accounts: signup, login, current user
	accountsHandler := accountsfeature.NewHandler(deps.MongoDatabase, tokens, logger)
	r.Mount("/auth", accountsfeature.Routes(accountsHandler, authn))

	// Admin review queue
	approvalsHandler := approvalsfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/admin", approvalsfeature.Routes(approvalsHandler, authn))

	// Event catalog and organizer management
	eventsHandler := eventsfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/events", eventsfeature.Routes(eventsHandler, authn))

	// Registration: slot-guarded create, student passes, rosters
	registrationsHandler := registrationsfeature.NewHandler(deps.MongoDatabase, dispatcher, appCfg.SiteName, logger)
	r.Mount("/registrations", registrationsfeature.Routes(registrationsHandler, authn))

	// Event-desk scan
	checkinHandler := checkinfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/checkin", checkinfeature.Routes(checkinHandler, authn))

	return r, nil
}
