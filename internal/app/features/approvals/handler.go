// internal/app/features/approvals/handler.go
package approvals

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/eventrahq/eventra/internal/app/store/users"
	"github.com/eventrahq/eventra/internal/app/system/apperr"
	"github.com/eventrahq/eventra/internal/app/system/httpjson"
	"github.com/eventrahq/eventra/internal/app/system/timeouts"
	"github.com/eventrahq/eventra/internal/domain/models"
)

// Handler serves the admin account-review queue.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Users: userstore.New(db),
		Log:   logger,
	}
}

// List handles GET /admin/users?status=pending. The status filter
// defaults to pending, which is the review queue.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = models.StatusPending
	}
	switch status {
	case models.StatusPending, models.StatusApproved, models.StatusRejected:
	default:
		httpjson.Error(w, apperr.New(apperr.KindInvalid, "status must be pending, approved, or rejected"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	users, err := h.Users.ListByStatus(ctx, status)
	if err != nil {
		h.Log.Error("approvals: list users", zap.String("status", status), zap.Error(err))
		httpjson.Error(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	httpjson.Write(w, http.StatusOK, users)
}

// Approve handles POST /admin/users/{userID}/approve.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.StatusApproved)
}

// Reject handles POST /admin/users/{userID}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.StatusRejected)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, status string) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		httpjson.Error(w, apperr.New(apperr.KindNotFound, "user not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	if err := h.Users.SetStatus(ctx, id, status); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, apperr.New(apperr.KindNotFound, "user not found"))
			return
		}
		h.Log.Error("approvals: set status",
			zap.String("user_id", id.Hex()),
			zap.String("status", status),
			zap.Error(err))
		httpjson.Error(w, err)
		return
	}

	h.Log.Info("account reviewed",
		zap.String("user_id", id.Hex()),
		zap.String("status", status))
	httpjson.Write(w, http.StatusOK, map[string]string{
		"id":     id.Hex(),
		"status": status,
	})
}
