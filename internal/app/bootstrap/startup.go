// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/eventrahq/eventra/internal/app/store/users"
	"github.com/eventrahq/eventra/internal/app/system/mailer"
	"github.com/eventrahq/eventra/internal/app/system/normalize"
	"github.com/eventrahq/eventra/internal/app/system/notify"
	"github.com/eventrahq/eventra/internal/app/system/tasks"
)

// Long-lived background workers, created in Startup, used by
// BuildHandler, and torn down in Shutdown.
var (
	dispatcher *notify.Dispatcher
	jobRunner  *tasks.Runner
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// Eventra seeds the admin account and starts the background workers:
// the email dispatcher and the registration-counter audit job.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := ensureAdminAccount(ctx, deps, appCfg, logger); err != nil {
		return err
	}

	m := mailer.New(
		appCfg.MailSMTPHost, appCfg.MailSMTPPort,
		appCfg.MailSMTPUser, appCfg.MailSMTPPass,
		appCfg.MailFrom, appCfg.MailFromName,
		logger)
	dispatcher = notify.NewDispatcher(m, logger, appCfg.NotifyQueueSize)
	dispatcher.Start()

	jobRunner = tasks.NewRunner(logger,
		tasks.CounterAuditJob(deps.MongoDatabase, logger, appCfg.CounterAuditInterval))
	jobRunner.Start()

	return nil
}

// ensureAdminAccount creates the configured admin account if it does
// not exist yet. Idempotent: an existing account (whatever its current
// password) is left untouched.
func ensureAdminAccount(ctx context.Context, deps DBDeps, appCfg AppConfig, logger *zap.Logger) error {
	email := normalize.Email(appCfg.AdminEmail)
	if email == "" {
		logger.Info("no admin account configured; skipping seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(appCfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	store := userstore.New(deps.MongoDatabase)
	if err := store.EnsureAdmin(ctx, email, appCfg.AdminName, string(hash)); err != nil {
		return fmt.Errorf("seed admin account: %w", err)
	}

	logger.Info("admin account ensured", zap.String("email", email))
	return nil
}
