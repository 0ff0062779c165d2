// internal/app/features/events/handler.go
package events

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/eventrahq/eventra/internal/app/policy/eventpolicy"
	"github.com/eventrahq/eventra/internal/app/store/events"
	"github.com/eventrahq/eventra/internal/app/store/registrations"
	"github.com/eventrahq/eventra/internal/app/system/apperr"
	"github.com/eventrahq/eventra/internal/app/system/auth"
	"github.com/eventrahq/eventra/internal/app/system/htmlsanitize"
	"github.com/eventrahq/eventra/internal/app/system/httpjson"
	"github.com/eventrahq/eventra/internal/app/system/timeouts"
	"github.com/eventrahq/eventra/internal/domain/models"
)

// Handler serves the public event catalog and the organizer event
// management endpoints.
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

// List handles GET /events. Only active events appear; ?category= and
// ?q= narrow the result.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	events, err := h.Events.ListActive(ctx, eventstore.Filter{
		Category: r.URL.Query().Get("category"),
		Query:    r.URL.Query().Get("q"),
	})
	if err != nil {
		h.Log.Error("events: list", zap.Error(err))
		httpjson.Error(w, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	httpjson.Write(w, http.StatusOK, events)
}

// Get handles GET /events/{eventID}. Inactive events 404 for everyone
// except their organizer and admins.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "eventID"))
	if err != nil {
		httpjson.Error(w, apperr.New(apperr.KindNotFound, "event not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	e, err := h.Events.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, apperr.New(apperr.KindNotFound, "event not found"))
			return
		}
		h.Log.Error("events: get", zap.String("event_id", id.Hex()), zap.Error(err))
		httpjson.Error(w, err)
		return
	}

	if !e.Active {
		p, _ := auth.CurrentUser(r)
		if !eventpolicy.CanManage(p, e) {
			httpjson.Error(w, apperr.New(apperr.KindNotFound, "event not found"))
			return
		}
	}

	httpjson.Write(w, http.StatusOK, e)
}

// Mine handles GET /events/mine for organizers (admins see their own
// created events too, which is normally none).
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)
	organizerID, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		httpjson.Error(w, apperr.New(apperr.KindUnauthorized, "authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	events, err := h.Events.ListByOrganizer(ctx, organizerID)
	if err != nil {
		h.Log.Error("events: list mine", zap.Error(err))
		httpjson.Error(w, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	httpjson.Write(w, http.StatusOK, events)
}

type eventRequest struct {
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Category     string               `json:"category"`
	Venue        string               `json:"venue"`
	Date         time.Time            `json:"date"`
	StartTime    string               `json:"start_time"`
	EndTime      string               `json:"end_time,omitempty"`
	Capacity     int                  `json:"capacity"`
	CustomFields []models.CustomField `json:"custom_fields,omitempty"`
}

// Create handles POST /events for approved organizers and admins.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentUser(r)
	organizerID, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		httpjson.Error(w, apperr.New(apperr.KindUnauthorized, "authentication required"))
		return
	}

	var req eventRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	if err := validateEvent(&req); err != nil {
		httpjson.Error(w, err)
		return
	}

	e := &models.Event{
		Title:        req.Title,
		Description:  htmlsanitize.Sanitize(req.Description),
		Category:     req.Category,
		Venue:        req.Venue,
		Date:         req.Date.UTC(),
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Capacity:     req.Capacity,
		OrganizerID:  organizerID,
		Active:       true,
		CustomFields: req.CustomFields,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	if err := h.Events.Create(ctx, e); err != nil {
		h.Log.Error("events: create", zap.Error(err))
		httpjson.Error(w, err)
		return
	}

	h.Log.Info("event created",
		zap.String("event_id", e.ID.Hex()),
		zap.String("organizer_id", organizerID.Hex()),
		zap.Int("capacity", e.Capacity))
	httpjson.Write(w, http.StatusCreated, e)
}

// Update handles PUT /events/{eventID}. Capacity may grow; it may not
// shrink below the registrations already taken.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadManaged(w, r)
	if !ok {
		return
	}

	var req eventRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	if err := validateEvent(&req); err != nil {
		httpjson.Error(w, err)
		return
	}
	if req.Capacity < e.RegistrationCount {
		httpjson.Error(w, apperr.New(apperr.KindInvalid, "capacity cannot be lower than current registrations"))
		return
	}

	e.Title = req.Title
	e.Description = htmlsanitize.Sanitize(req.Description)
	e.Category = req.Category
	e.Venue = req.Venue
	e.Date = req.Date.UTC()
	e.StartTime = req.StartTime
	e.EndTime = req.EndTime
	e.Capacity = req.Capacity
	e.CustomFields = req.CustomFields

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	if err := h.Events.Update(ctx, e); err != nil {
		switch err {
		case mongo.ErrNoDocuments:
			httpjson.Error(w, apperr.New(apperr.KindNotFound, "event not found"))
		case eventstore.ErrCapacityBelowCount:
			// A registration landed after the snapshot check above; the
			// store guard is authoritative.
			httpjson.Error(w, apperr.New(apperr.KindInvalid, "capacity cannot be lower than current registrations"))
		default:
			h.Log.Error("events: update", zap.String("event_id", e.ID.Hex()), zap.Error(err))
			httpjson.Error(w, err)
		}
		return
	}

	httpjson.Write(w, http.StatusOK, e)
}

// Deactivate handles DELETE /events/{eventID}. Events are never hard
// deleted; deactivation closes them to registration and check-in while
// keeping the roster intact.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadManaged(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	if err := h.Events.Deactivate(ctx, e.ID); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, apperr.New(apperr.KindNotFound, "event not found"))
			return
		}
		h.Log.Error("events: deactivate", zap.String("event_id", e.ID.Hex()), zap.Error(err))
		httpjson.Error(w, err)
		return
	}

	h.Log.Info("event deactivated", zap.String("event_id", e.ID.Hex()))
	httpjson.Write(w, http.StatusOK, map[string]any{
		"id":     e.ID.Hex(),
		"active": false,
	})
}

// loadManaged resolves {eventID} and enforces the management policy:
// admins always, organizers only for events they own.
func (h *Handler) loadManaged(w http.ResponseWriter, r *http.Request) (*models.Event, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "eventID"))
	if err != nil {
		httpjson.Error(w, apperr.New(apperr.KindNotFound, "event not found"))
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	e, err := h.Events.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, apperr.New(apperr.KindNotFound, "event not found"))
			return nil, false
		}
		h.Log.Error("events: load", zap.String("event_id", id.Hex()), zap.Error(err))
		httpjson.Error(w, err)
		return nil, false
	}

	p, _ := auth.CurrentUser(r)
	if !eventpolicy.CanManage(p, e) {
		httpjson.Error(w, apperr.New(apperr.KindForbidden, "you do not manage this event"))
		return nil, false
	}
	return e, true
}

func validateEvent(req *eventRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Category = strings.TrimSpace(req.Category)
	req.Venue = strings.TrimSpace(req.Venue)

	switch {
	case req.Title == "":
		return apperr.New(apperr.KindMissingField, "title is required")
	case req.Venue == "":
		return apperr.New(apperr.KindMissingField, "venue is required")
	case req.Date.IsZero():
		return apperr.New(apperr.KindMissingField, "date is required")
	case req.StartTime == "":
		return apperr.New(apperr.KindMissingField, "start_time is required")
	}
	if req.Capacity < 1 {
		return apperr.New(apperr.KindInvalid, "capacity must be at least 1")
	}
	return validateCustomFields(req.CustomFields)
}

func validateCustomFields(fields []models.CustomField) error {
	seen := make(map[string]struct{}, len(fields))
	for i := range fields {
		f := &fields[i]
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			return apperr.New(apperr.KindInvalid, "custom field name is required")
		}
		if _, dup := seen[f.Name]; dup {
			return apperr.New(apperr.KindInvalid, "custom field names must be unique")
		}
		seen[f.Name] = struct{}{}

		switch f.Type {
		case models.FieldTypeText, models.FieldTypeNumber:
			f.Options = nil
		case models.FieldTypeSelect:
			if len(f.Options) == 0 {
				return apperr.New(apperr.KindInvalid, "select fields need at least one option")
			}
		default:
			return apperr.New(apperr.KindInvalid, "custom field type must be text, number, or select")
		}
	}
	return nil
}
