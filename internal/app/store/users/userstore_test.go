package userstore_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	userstore "github.com/eventrahq/eventra/internal/app/store/users"
	"github.com/eventrahq/eventra/internal/domain/models"
	"github.com/eventrahq/eventra/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := &models.User{
		FullName:       "Asha Varma",
		Email:          "asha@test.com",
		PasswordHash:   "hash",
		Role:           models.RoleStudent,
		Status:         models.StatusPending,
		RegisterNumber: "21CS042",
	}
	if err := store.Create(ctx, u); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.ID.IsZero() {
		t.Error("expected ID to be assigned")
	}
	if u.CreatedAt.IsZero() || u.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	// The email is unique across all roles.
	dup := &models.User{
		FullName: "Other Person",
		Email:    "asha@test.com",
		Role:     models.RoleOrganizer,
		Status:   models.StatusPending,
	}
	if err := store.Create(ctx, dup); err != userstore.ErrDuplicateEmail {
		t.Errorf("duplicate Create: got %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_SetStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Pending Person", "pending@test.com", models.RoleOrganizer, models.StatusPending)

	if err := store.SetStatus(ctx, u.ID, models.StatusApproved); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	got, err := store.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.Status != models.StatusApproved {
		t.Errorf("status: got %q, want approved", got.Status)
	}

	if err := store.SetStatus(ctx, primitive.NewObjectID(), models.StatusApproved); err != mongo.ErrNoDocuments {
		t.Errorf("SetStatus on missing user: got %v, want ErrNoDocuments", err)
	}
}

func TestStore_ListByStatus_ExcludesAdmins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "Student A", "a@test.com", models.RoleStudent, models.StatusPending)
	fixtures.CreateUser(ctx, "Organizer B", "b@test.com", models.RoleOrganizer, models.StatusPending)
	fixtures.CreateUser(ctx, "Approved C", "c@test.com", models.RoleStudent, models.StatusApproved)
	fixtures.CreateAdmin(ctx, "Admin D", "d@test.com")

	pending, err := store.ListByStatus(ctx, models.StatusPending)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending queue: got %d, want 2", len(pending))
	}
	for _, u := range pending {
		if u.Role == models.RoleAdmin {
			t.Error("admin accounts must never appear in the review queue")
		}
	}

	approved, err := store.ListByStatus(ctx, models.StatusApproved)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(approved) != 1 {
		t.Errorf("approved list: got %d, want 1 (admins excluded)", len(approved))
	}
}

func TestStore_EnsureAdmin_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureAdmin(ctx, "admin@test.com", "Administrator", "hash-one"); err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}

	created, err := store.FindByEmail(ctx, "admin@test.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if created.Role != models.RoleAdmin || created.Status != models.StatusApproved {
		t.Errorf("seeded admin: role=%q status=%q", created.Role, created.Status)
	}

	// A second run must leave the existing account untouched.
	if err := store.EnsureAdmin(ctx, "admin@test.com", "Someone Else", "hash-two"); err != nil {
		t.Fatalf("second EnsureAdmin failed: %v", err)
	}
	again, err := store.FindByEmail(ctx, "admin@test.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if again.ID != created.ID {
		t.Error("EnsureAdmin must not create a second account")
	}
	if again.PasswordHash != "hash-one" {
		t.Errorf("password hash overwritten: got %q", again.PasswordHash)
	}
	if again.FullName != "Administrator" {
		t.Errorf("full name overwritten: got %q", again.FullName)
	}
}
