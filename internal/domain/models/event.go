// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Custom registration field types an organizer can attach to an event.
const (
	FieldTypeText   = "text"
	FieldTypeNumber = "number"
	FieldTypeSelect = "select"
)

// CustomField defines one extra input collected at registration time
// (e.g., "T-Shirt Size" with options S/M/L).
type CustomField struct {
	Name     string   `bson:"name" json:"name"`
	Type     string   `bson:"type" json:"type"` // text | number | select
	Required bool     `bson:"required" json:"required"`
	Options  []string `bson:"options,omitempty" json:"options,omitempty"` // select only
}

// Event is a college event open for student registration.
//
// RegistrationCount is mutated only by the registration path's guarded
// increment and must never exceed Capacity. There is no cancellation
// flow, so the counter never decreases in normal operation.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"-"` // lowercase, for search
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Venue       string             `bson:"venue" json:"venue"`
	Date        time.Time          `bson:"date" json:"date"`
	StartTime   string             `bson:"start_time" json:"start_time"` // "HH:MM"
	EndTime     string             `bson:"end_time,omitempty" json:"end_time,omitempty"`

	Capacity          int `bson:"capacity" json:"capacity"`
	RegistrationCount int `bson:"registration_count" json:"registration_count"`

	OrganizerID  primitive.ObjectID `bson:"organizer_id" json:"organizer_id"`
	Active       bool               `bson:"active" json:"active"`
	CustomFields []CustomField      `bson:"custom_fields,omitempty" json:"custom_fields,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Full reports whether the event has no remaining capacity. This is a
// convenience for display; the authoritative check is the guarded
// increment in the registration store.
func (e *Event) Full() bool {
	return e.RegistrationCount >= e.Capacity
}
