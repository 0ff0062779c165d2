// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/eventrahq/eventra/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given role and status.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role, status string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		Email:        strings.ToLower(email),
		PasswordHash: "$2a$10$test-not-a-real-hash",
		Role:         role,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if role == models.RoleStudent {
		user.RegisterNumber = "21CS" + primitive.NewObjectID().Hex()[18:]
		user.Department = "Computer Science"
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateStudent creates an approved student account.
func (f *Fixtures) CreateStudent(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleStudent, models.StatusApproved)
}

// CreateOrganizer creates an approved organizer account.
func (f *Fixtures) CreateOrganizer(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleOrganizer, models.StatusApproved)
}

// CreateAdmin creates an admin account.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleAdmin, models.StatusApproved)
}

// CreateEvent creates an active test event owned by the organizer.
func (f *Fixtures) CreateEvent(ctx context.Context, title string, organizerID primitive.ObjectID, capacity int) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	event := models.Event{
		ID:          primitive.NewObjectID(),
		Title:       title,
		TitleCI:     strings.ToLower(title),
		Description: "Test event description",
		Category:    "tech",
		Venue:       "Main Auditorium",
		Date:        now.Add(7 * 24 * time.Hour),
		StartTime:   "10:00",
		Capacity:    capacity,
		OrganizerID: organizerID,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := f.db.Collection("events").InsertOne(ctx, event)
	if err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}

	return event
}

// CreateEventWithFields creates an active test event with custom
// registration fields.
func (f *Fixtures) CreateEventWithFields(ctx context.Context, title string, organizerID primitive.ObjectID, capacity int, fields []models.CustomField) models.Event {
	f.t.Helper()

	event := f.CreateEvent(ctx, title, organizerID, capacity)
	event.CustomFields = fields
	_, err := f.db.Collection("events").UpdateOne(ctx,
		map[string]any{"_id": event.ID},
		map[string]any{"$set": map[string]any{"custom_fields": fields}})
	if err != nil {
		f.t.Fatalf("failed to attach custom fields: %v", err)
	}
	return event
}

// CreateRegistration creates a registration binding the student to the
// event, without touching the event counter.
func (f *Fixtures) CreateRegistration(ctx context.Context, event models.Event, student models.User) models.Registration {
	f.t.Helper()

	id := primitive.NewObjectID()
	reg := models.Registration{
		ID:                    id,
		EventID:               event.ID,
		StudentID:             student.ID,
		StudentName:           student.FullName,
		StudentEmail:          student.Email,
		StudentRegisterNumber: student.RegisterNumber,
		QRCode:                "data:image/png;base64,dGVzdA==",
		PassData:              `{"registrationId":"` + id.Hex() + `","eventId":"` + event.ID.Hex() + `"}`,
		RegisteredAt:          time.Now().UTC(),
	}

	_, err := f.db.Collection("registrations").InsertOne(ctx, reg)
	if err != nil {
		f.t.Fatalf("failed to create test registration: %v", err)
	}

	return reg
}
