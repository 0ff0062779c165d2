// internal/app/features/registrations/handler.go
package registrations

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/eventrahq/eventra/internal/app/policy/eventpolicy"
	"github.com/eventrahq/eventra/internal/app/store/events"
	"github.com/eventrahq/eventra/internal/app/store/registrations"
	"github.com/eventrahq/eventra/internal/app/system/apperr"
	"github.com/eventrahq/eventra/internal/app/system/auth"
	"github.com/eventrahq/eventra/internal/app/system/httpjson"
	"github.com/eventrahq/eventra/internal/app/system/mailer"
	"github.com/eventrahq/eventra/internal/app/system/notify"
	"github.com/eventrahq/eventra/internal/app/system/pass"
	"github.com/eventrahq/eventra/internal/app/system/timeouts"
	"github.com/eventrahq/eventra/internal/domain/models"
)

// Handler serves event registration: the slot-guarded create flow, the
// student's own passes, and the organizer roster.
type Handler struct {
	Events   *eventstore.Store
	Regs     *registrationstore.Store
	Notify   *notify.Dispatcher
	SiteName string
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, dispatcher *notify.Dispatcher, siteName string, logger *zap.Logger) *Handler {
	return &Handler{
		Events:   eventstore.New(db),
		Regs:     registrationstore.New(db),
		Notify:   dispatcher,
		SiteName: siteName,
		Log:      logger,
	}
}

type createRequest struct {
	EventID         string            `json:"event_id"`
	CustomFieldData map[string]string `json:"custom_field_data,omitempty"`
}

// Create handles POST /registrations.
//
// The slot is reserved with a guarded increment before the registration
// document is inserted, so the counter can never pass capacity. If the
// insert then loses the unique-index race (or anything else fails), the
// reservation is released again. Failures surface in a fixed order:
// missing event, then full, then duplicate, then field validation.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)
	studentID, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		httpjson.Error(w, apperr.New(apperr.KindUnauthorized, "authentication required"))
		return
	}

	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	eventID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.EventID))
	if err != nil {
		httpjson.Error(w, apperr.New(apperr.KindNotFound, "event not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	e, err := h.Events.ReserveSlot(ctx, eventID)
	if err != nil {
		switch err {
		case mongo.ErrNoDocuments:
			httpjson.Error(w, apperr.New(apperr.KindNotFound, "event not found"))
		case eventstore.ErrEventFull:
			httpjson.Error(w, apperr.New(apperr.KindEventFull, "event is full"))
		default:
			h.Log.Error("register: reserve slot", zap.String("event_id", eventID.Hex()), zap.Error(err))
			httpjson.Error(w, err)
		}
		return
	}

	// From here on every failure must hand the reserved slot back. The
	// compensation runs on its own context: the failure being undone may
	// be the request context expiring, and a release on that dead
	// context would fail too and leak the slot.
	release := func() {
		relCtx, relCancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeouts.Medium)
		defer relCancel()
		if err := h.Events.ReleaseSlot(relCtx, eventID); err != nil {
			h.Log.Error("register: release slot", zap.String("event_id", eventID.Hex()), zap.Error(err))
		}
	}

	// Pre-check the duplicate so it is reported ahead of field errors.
	// The unique index at insert time stays authoritative.
	if exists, err := h.Regs.Exists(ctx, studentID, eventID); err != nil {
		release()
		h.Log.Error("register: duplicate pre-check", zap.Error(err))
		httpjson.Error(w, err)
		return
	} else if exists {
		release()
		httpjson.Error(w, apperr.New(apperr.KindDuplicate, "you are already registered for this event"))
		return
	}

	fieldData, err := collectFieldData(e.CustomFields, req.CustomFieldData)
	if err != nil {
		release()
		httpjson.Error(w, err)
		return
	}

	reg := &models.Registration{
		ID:                    primitive.NewObjectID(),
		EventID:               eventID,
		StudentID:             studentID,
		StudentName:           p.Name,
		StudentEmail:          p.Email,
		StudentRegisterNumber: p.RegisterNumber,
		CustomFieldData:       fieldData,
	}

	dataURI, raw, err := pass.Render(pass.Payload{
		RegistrationID: reg.ID.Hex(),
		EventID:        eventID.Hex(),
		StudentName:    p.Name,
		Email:          p.Email,
		RegisterNumber: p.RegisterNumber,
		EventTitle:     e.Title,
	})
	if err != nil {
		release()
		h.Log.Error("register: render pass", zap.Error(err))
		httpjson.Error(w, err)
		return
	}
	reg.QRCode = dataURI
	reg.PassData = raw

	if err := h.Regs.Insert(ctx, reg); err != nil {
		release()
		if err == registrationstore.ErrDuplicate {
			httpjson.Error(w, apperr.New(apperr.KindDuplicate, "you are already registered for this event"))
			return
		}
		h.Log.Error("register: insert", zap.String("event_id", eventID.Hex()), zap.Error(err))
		httpjson.Error(w, err)
		return
	}

	h.Log.Info("registration created",
		zap.String("registration_id", reg.ID.Hex()),
		zap.String("event_id", eventID.Hex()),
		zap.String("student_id", studentID.Hex()),
		zap.Int("registration_count", e.RegistrationCount),
		zap.Int("capacity", e.Capacity))

	h.enqueueConfirmation(e, reg)

	httpjson.Write(w, http.StatusCreated, reg)
}

// enqueueConfirmation hands the confirmation email to the background
// dispatcher. Registration already succeeded; delivery is best-effort.
func (h *Handler) enqueueConfirmation(e *models.Event, reg *models.Registration) {
	email := mailer.BuildRegistrationEmail(mailer.RegistrationEmailData{
		SiteName:    h.SiteName,
		StudentName: reg.StudentName,
		EventTitle:  e.Title,
		EventVenue:  e.Venue,
		EventDate:   e.Date.Format("Mon, 2 Jan 2006"),
		EventTime:   e.StartTime,
		QRDataURI:   reg.QRCode,
	})
	email.To = reg.StudentEmail
	h.Notify.Enqueue(email)
}

// Mine handles GET /registrations/mine.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)
	studentID, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		httpjson.Error(w, apperr.New(apperr.KindUnauthorized, "authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	regs, err := h.Regs.ListByStudent(ctx, studentID)
	if err != nil {
		h.Log.Error("registrations: list mine", zap.Error(err))
		httpjson.Error(w, err)
		return
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	httpjson.Write(w, http.StatusOK, regs)
}

// Roster handles GET /registrations/event/{eventID} for the event's
// organizer (or an admin).
func (h *Handler) Roster(w http.ResponseWriter, r *http.Request) {
	eventID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "eventID"))
	if err != nil {
		httpjson.Error(w, apperr.New(apperr.KindNotFound, "event not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	e, err := h.Events.FindByID(ctx, eventID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, apperr.New(apperr.KindNotFound, "event not found"))
			return
		}
		h.Log.Error("registrations: load event", zap.String("event_id", eventID.Hex()), zap.Error(err))
		httpjson.Error(w, err)
		return
	}

	p, _ := auth.CurrentUser(r)
	if !eventpolicy.CanManage(p, e) {
		httpjson.Error(w, apperr.New(apperr.KindForbidden, "you do not manage this event"))
		return
	}

	regs, err := h.Regs.ListByEvent(ctx, eventID)
	if err != nil {
		h.Log.Error("registrations: roster", zap.String("event_id", eventID.Hex()), zap.Error(err))
		httpjson.Error(w, err)
		return
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	httpjson.Write(w, http.StatusOK, regs)
}

// collectFieldData validates submitted custom-field values against the
// event's field definitions and drops anything the event never asked
// for.
func collectFieldData(fields []models.CustomField, submitted map[string]string) (map[string]string, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	out := make(map[string]string, len(fields))
	for _, f := range fields {
		val := strings.TrimSpace(submitted[f.Name])
		if val == "" {
			if f.Required {
				return nil, apperr.New(apperr.KindMissingField, f.Name+" is required")
			}
			continue
		}

		switch f.Type {
		case models.FieldTypeNumber:
			if _, err := strconv.ParseFloat(val, 64); err != nil {
				return nil, apperr.New(apperr.KindInvalid, f.Name+" must be a number")
			}
		case models.FieldTypeSelect:
			if !containsOption(f.Options, val) {
				return nil, apperr.New(apperr.KindInvalid, f.Name+" must be one of the listed options")
			}
		}
		out[f.Name] = val
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func containsOption(options []string, val string) bool {
	for _, o := range options {
		if o == val {
			return true
		}
	}
	return false
}
