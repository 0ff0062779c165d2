// internal/app/features/checkin/handler.go
package checkin

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/eventrahq/eventra/internal/app/policy/eventpolicy"
	"github.com/eventrahq/eventra/internal/app/store/events"
	"github.com/eventrahq/eventra/internal/app/store/registrations"
	"github.com/eventrahq/eventra/internal/app/system/apperr"
	"github.com/eventrahq/eventra/internal/app/system/auth"
	"github.com/eventrahq/eventra/internal/app/system/httpjson"
	"github.com/eventrahq/eventra/internal/app/system/pass"
	"github.com/eventrahq/eventra/internal/app/system/timeouts"
	"github.com/eventrahq/eventra/internal/domain/models"
)

// Handler serves the event-desk scan endpoint.
type Handler struct {
	Events *eventstore.Store
	Regs   *registrationstore.Store
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Events: eventstore.New(db),
		Regs:   registrationstore.New(db),
		Log:    logger,
	}
}

type scanRequest struct {
	EventID string `json:"event_id"`
	QRData  string `json:"qr_data"`
}

// Scan handles POST /checkin. The desk scans a pass at a specific
// event; the pass must decode, belong to that event, and not have been
// used before. The attendance flip itself is a conditional update, so
// two desks scanning the same pass produce exactly one success.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}

	eventID, err := primitive.ObjectIDFromHex(req.EventID)
	if err != nil {
		httpjson.Error(w, apperr.New(apperr.KindNotFound, "event not found"))
		return
	}

	payload, err := pass.Decode(req.QRData)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	if payload.EventID != eventID.Hex() {
		httpjson.Error(w, apperr.New(apperr.KindEventMismatch, "this pass belongs to a different event"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	e, err := h.Events.FindActiveByID(ctx, eventID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, apperr.New(apperr.KindNotFound, "event not found"))
			return
		}
		h.Log.Error("checkin: load event", zap.String("event_id", eventID.Hex()), zap.Error(err))
		httpjson.Error(w, err)
		return
	}

	p, _ := auth.CurrentUser(r)
	if !eventpolicy.CanManage(p, e) {
		httpjson.Error(w, apperr.New(apperr.KindForbidden, "you do not manage this event"))
		return
	}

	// Decode already validated the hex.
	regID, _ := primitive.ObjectIDFromHex(payload.RegistrationID)

	// The pass's event claim is client data; the stored registration is
	// the authority on which event it belongs to.
	reg, err := h.Regs.FindByID(ctx, regID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, apperr.New(apperr.KindNotFound, "registration not found"))
			return
		}
		h.Log.Error("checkin: load registration", zap.String("registration_id", regID.Hex()), zap.Error(err))
		httpjson.Error(w, err)
		return
	}
	if reg.EventID != eventID {
		httpjson.Error(w, apperr.New(apperr.KindEventMismatch, "this pass belongs to a different event"))
		return
	}

	reg, err = h.Regs.MarkAttended(ctx, regID)
	if err != nil {
		switch err {
		case mongo.ErrNoDocuments:
			httpjson.Error(w, apperr.New(apperr.KindNotFound, "registration not found"))
		case registrationstore.ErrAlreadyAttended:
			httpjson.Error(w, apperr.New(apperr.KindAlreadyAttended, "this pass was already used to check in"))
		default:
			h.Log.Error("checkin: mark attended", zap.String("registration_id", regID.Hex()), zap.Error(err))
			httpjson.Error(w, err)
		}
		return
	}

	h.Log.Info("attendee checked in",
		zap.String("registration_id", reg.ID.Hex()),
		zap.String("event_id", eventID.Hex()),
		zap.String("student_id", reg.StudentID.Hex()))

	httpjson.Write(w, http.StatusOK, scanResponse{
		Registration: reg,
		Student: scanStudent{
			Name:           reg.StudentName,
			Email:          reg.StudentEmail,
			RegisterNumber: reg.StudentRegisterNumber,
		},
	})
}

// scanResponse gives the desk the flipped registration plus the
// snapshot fields it shows the attendee.
type scanResponse struct {
	Registration *models.Registration `json:"registration"`
	Student      scanStudent          `json:"student"`
}

type scanStudent struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	RegisterNumber string `json:"register_number,omitempty"`
}
