// internal/domain/models/registration.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Registration binds one student to one event. Exactly one document per
// (student_id, event_id), enforced by a unique compound index.
//
// Student display fields are snapshotted at creation time so the issued
// pass stays valid even if the profile changes later. Do not replace
// them with live lookups.
type Registration struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID primitive.ObjectID `bson:"event_id" json:"event_id"`

	StudentID             primitive.ObjectID `bson:"student_id" json:"student_id"`
	StudentName           string             `bson:"student_name" json:"student_name"`
	StudentEmail          string             `bson:"student_email" json:"student_email"`
	StudentRegisterNumber string             `bson:"student_register_number,omitempty" json:"student_register_number,omitempty"`

	// Submitted values for the event's custom fields, keyed by field name.
	CustomFieldData map[string]string `bson:"custom_field_data,omitempty" json:"custom_field_data,omitempty"`

	// QRCode is the rendered pass (PNG data URI). PassData is the raw
	// JSON the QR image encodes, kept for verification and re-issue.
	QRCode   string `bson:"qr_code" json:"qr_code"`
	PassData string `bson:"pass_data" json:"-"`

	Attended   bool       `bson:"attended" json:"attended"`
	AttendedAt *time.Time `bson:"attended_at,omitempty" json:"attended_at,omitempty"`

	RegisteredAt time.Time `bson:"registered_at" json:"registered_at"`
}
