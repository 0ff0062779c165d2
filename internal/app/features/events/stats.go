// internal/app/features/events/stats.go
package events

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/eventrahq/eventra/internal/app/system/httpjson"
	"github.com/eventrahq/eventra/internal/app/system/timeouts"
	"github.com/eventrahq/eventra/internal/domain/models"
)

// statsResponse summarizes one event for its organizer.
type statsResponse struct {
	EventID           string                    `json:"event_id"`
	Title             string                    `json:"title"`
	Capacity          int                       `json:"capacity"`
	RegistrationCount int                       `json:"registration_count"`
	Registered        int64                     `json:"registered"` // counted from documents
	Attended          int64                     `json:"attended"`
	CustomFields      map[string]map[string]int `json:"custom_fields,omitempty"`
}

// Stats handles GET /events/{eventID}/stats. Registered is counted from
// the roster documents, so an organizer comparing it with the counter
// sees any drift the audit job would report.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadManaged(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	registered, err := h.Regs.CountByEvent(ctx, e.ID)
	if err != nil {
		h.Log.Error("events: stats count", zap.String("event_id", e.ID.Hex()), zap.Error(err))
		httpjson.Error(w, err)
		return
	}
	attended, err := h.Regs.CountAttendedByEvent(ctx, e.ID)
	if err != nil {
		h.Log.Error("events: stats attended", zap.String("event_id", e.ID.Hex()), zap.Error(err))
		httpjson.Error(w, err)
		return
	}

	resp := statsResponse{
		EventID:           e.ID.Hex(),
		Title:             e.Title,
		Capacity:          e.Capacity,
		RegistrationCount: e.RegistrationCount,
		Registered:        registered,
		Attended:          attended,
	}

	// Break down select-field answers (e.g. T-shirt sizes) for planning.
	for _, f := range e.CustomFields {
		if f.Type != models.FieldTypeSelect {
			continue
		}
		counts, err := h.Regs.FieldValueCounts(ctx, e.ID, f.Name)
		if err != nil {
			h.Log.Error("events: stats field counts",
				zap.String("event_id", e.ID.Hex()),
				zap.String("field", f.Name),
				zap.Error(err))
			httpjson.Error(w, err)
			return
		}
		if len(counts) == 0 {
			continue
		}
		if resp.CustomFields == nil {
			resp.CustomFields = make(map[string]map[string]int)
		}
		resp.CustomFields[f.Name] = counts
	}

	httpjson.Write(w, http.StatusOK, resp)
}
