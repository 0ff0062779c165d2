// internal/testutil/http.go
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventrahq/eventra/internal/app/system/auth"
	"github.com/eventrahq/eventra/internal/domain/models"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID             string
	Name           string
	Email          string
	Role           string
	Status         string
	RegisterNumber string
}

// StudentUser returns an approved TestUser with the student role.
func StudentUser() TestUser {
	return TestUser{
		ID:             primitive.NewObjectID().Hex(),
		Name:           "Test Student",
		Email:          "student@test.com",
		Role:           models.RoleStudent,
		Status:         models.StatusApproved,
		RegisterNumber: "21CS042",
	}
}

// OrganizerUser returns an approved TestUser with the organizer role.
func OrganizerUser() TestUser {
	return TestUser{
		ID:     primitive.NewObjectID().Hex(),
		Name:   "Test Organizer",
		Email:  "organizer@test.com",
		Role:   models.RoleOrganizer,
		Status: models.StatusApproved,
	}
}

// AdminUser returns a TestUser with the admin role.
func AdminUser() TestUser {
	return TestUser{
		ID:     primitive.NewObjectID().Hex(),
		Name:   "Test Admin",
		Email:  "admin@test.com",
		Role:   models.RoleAdmin,
		Status: models.StatusApproved,
	}
}

// PendingUser returns a TestUser in the given role that has not cleared
// the review queue.
func PendingUser(role string) TestUser {
	return TestUser{
		ID:     primitive.NewObjectID().Hex(),
		Name:   "Pending User",
		Email:  "pending@test.com",
		Role:   role,
		Status: models.StatusPending,
	}
}

// AsUser returns a TestUser mirroring a fixture-created account, so a
// handler test can act as a user that really exists in the database.
func AsUser(u models.User) TestUser {
	return TestUser{
		ID:             u.ID.Hex(),
		Name:           u.FullName,
		Email:          u.Email,
		Role:           u.Role,
		Status:         u.Status,
		RegisterNumber: u.RegisterNumber,
	}
}

// WithUser adds a user to the request context for testing authenticated
// handlers. This bypasses the token middleware and injects the
// principal directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.Principal{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Role:           user.Role,
		Status:         user.Status,
		RegisterNumber: user.RegisterNumber,
	})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates an HTTP request carrying a JSON body.
func NewJSONRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}

// NewAuthenticatedJSONRequest creates a JSON request with a user in context.
func NewAuthenticatedJSONRequest(method, target, body string, user TestUser) *http.Request {
	return WithUser(NewJSONRequest(method, target, body), user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// ReadBody drains and returns the response body.
func (r *ResponseRecorder) ReadBody() string {
	b, _ := io.ReadAll(r.Body)
	return string(b)
}
