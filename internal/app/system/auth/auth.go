// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eventrahq/eventra/internal/app/system/apperr"
	"github.com/eventrahq/eventra/internal/app/system/httpjson"
	"github.com/eventrahq/eventra/internal/domain/models"
)

// Principal is the resolved identity injected into r.Context() for
// authenticated requests.
type Principal struct {
	ID             string // user ObjectID hex
	Name           string
	Email          string
	Role           string // student | organizer | admin
	Status         string // pending | approved | rejected
	RegisterNumber string
}

// Approved reports whether the principal may act in its role. Admin
// accounts never sit in the review queue.
func (p *Principal) Approved() bool {
	return p.Role == models.RoleAdmin || p.Status == models.StatusApproved
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the principal & "found?" flag.
func CurrentUser(r *http.Request) (*Principal, bool) {
	p, ok := r.Context().Value(currentUserKey).(*Principal)
	return p, ok
}

// UserFetcher loads the fresh user record a verified token points at.
// Implemented by the user store.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) (*models.User, error)
}

// Authenticator resolves bearer tokens into principals and gates
// routes by role and approval status.
type Authenticator struct {
	tokens *TokenManager
	users  UserFetcher
	log    *zap.Logger
}

// NewAuthenticator wires the token manager to a user fetcher.
func NewAuthenticator(tokens *TokenManager, users UserFetcher, logger *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, log: logger}
}

// LoadPrincipal injects the principal into context if the request
// carries a valid bearer token. Requests without (or with bad) tokens
// continue unauthenticated; route gates decide whether that matters.
func (a *Authenticator) LoadPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := a.tokens.Verify(token)
		if err != nil {
			a.log.Debug("bearer token rejected", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		// Fetch the fresh record so role/status changes and deleted
		// accounts take effect on the very next request.
		u, err := a.users.FetchUser(r.Context(), userID)
		if err != nil || u == nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, withUser(r, &Principal{
			ID:             u.ID.Hex(),
			Name:           u.FullName,
			Email:          u.Email,
			Role:           u.Role,
			Status:         u.Status,
			RegisterNumber: u.RegisterNumber,
		}))
	})
}

// RequireSignedIn ensures there is a principal in context.
func (a *Authenticator) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			httpjson.Error(w, apperr.New(apperr.KindUnauthorized, "authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole ensures the principal holds one of the allowed roles.
// Missing principal → 401; wrong role → 403.
func (a *Authenticator) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := CurrentUser(r)
			if !ok {
				httpjson.Error(w, apperr.New(apperr.KindUnauthorized, "authentication required"))
				return
			}
			if _, has := set[strings.ToLower(p.Role)]; !has {
				httpjson.Error(w, apperr.New(apperr.KindForbidden, "insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireApproved rejects principals whose account has not cleared the
// admin review queue.
func (a *Authenticator) RequireApproved(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := CurrentUser(r)
		if !ok {
			httpjson.Error(w, apperr.New(apperr.KindUnauthorized, "authentication required"))
			return
		}
		if !p.Approved() {
			httpjson.Error(w, apperr.New(apperr.KindForbidden, "account is not approved"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithTestUser injects a principal directly into the request context.
// Test helper only.
func WithTestUser(r *http.Request, p *Principal) *http.Request {
	return withUser(r, p)
}

func withUser(r *http.Request, p *Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, p))
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
