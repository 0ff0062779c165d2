// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleStudent   = "student"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

// Account approval states. New student and organizer accounts start as
// pending and must be approved by an admin before they can act.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// User represents students, organizers, and admins.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"`     // student | organizer | admin
	Status       string             `bson:"status" json:"status"` // pending | approved | rejected

	// Student-only: the college register number printed on the entry pass.
	RegisterNumber string `bson:"register_number,omitempty" json:"register_number,omitempty"`
	Department     string `bson:"department,omitempty" json:"department,omitempty"`

	// Organizer-only: the club or society the organizer represents.
	Organization string `bson:"organization,omitempty" json:"organization,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Approved reports whether the account may act in its role. Admins are
// created approved and never go through the review queue.
func (u *User) Approved() bool {
	return u.Status == StatusApproved
}
