package approvals_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/eventrahq/eventra/internal/app/features/approvals"
	"github.com/eventrahq/eventra/internal/domain/models"
	"github.com/eventrahq/eventra/internal/testutil"
)

func TestList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "Pending Student", "p1@test.com", models.RoleStudent, models.StatusPending)
	fixtures.CreateUser(ctx, "Pending Organizer", "p2@test.com", models.RoleOrganizer, models.StatusPending)
	fixtures.CreateStudent(ctx, "Approved Student", "a1@test.com")
	fixtures.CreateUser(ctx, "Rejected Organizer", "r1@test.com", models.RoleOrganizer, models.StatusRejected)

	h := approvals.NewHandler(db, zap.NewNop())

	t.Run("defaults to the pending queue", func(t *testing.T) {
		req := testutil.NewAuthenticatedRequest(http.MethodGet, "/admin/users", testutil.AdminUser())
		rec := testutil.NewRecorder()
		h.List(rec.ResponseRecorder, req)

		rec.AssertStatus(t, http.StatusOK)

		var users []models.User
		if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if len(users) != 2 {
			t.Fatalf("pending queue: got %d users, want 2", len(users))
		}
		for _, u := range users {
			if u.Status != models.StatusPending {
				t.Errorf("user %s has status %q", u.Email, u.Status)
			}
		}
	})

	t.Run("explicit status filter", func(t *testing.T) {
		req := testutil.NewAuthenticatedRequest(http.MethodGet, "/admin/users?status=rejected", testutil.AdminUser())
		rec := testutil.NewRecorder()
		h.List(rec.ResponseRecorder, req)

		rec.AssertStatus(t, http.StatusOK)

		var users []models.User
		if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if len(users) != 1 || users[0].Email != "r1@test.com" {
			t.Errorf("rejected filter returned %+v", users)
		}
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		req := testutil.NewAuthenticatedRequest(http.MethodGet, "/admin/users?status=frozen", testutil.AdminUser())
		rec := testutil.NewRecorder()
		h.List(rec.ResponseRecorder, req)

		rec.AssertStatus(t, http.StatusUnprocessableEntity)
		rec.AssertContains(t, `"kind":"invalid"`)
	})
}

func TestApproveAndReject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	h := approvals.NewHandler(db, zap.NewNop())

	loadStatus := func(id primitive.ObjectID) string {
		var u models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
			t.Fatalf("failed to load user: %v", err)
		}
		return u.Status
	}

	t.Run("approve", func(t *testing.T) {
		u := fixtures.CreateUser(ctx, "Pending", "approve-me@test.com", models.RoleOrganizer, models.StatusPending)

		req := testutil.NewAuthenticatedRequest(http.MethodPost, "/admin/users/"+u.ID.Hex()+"/approve", testutil.AdminUser())
		req = testutil.WithChiURLParam(req, "userID", u.ID.Hex())
		rec := testutil.NewRecorder()
		h.Approve(rec.ResponseRecorder, req)

		rec.AssertStatus(t, http.StatusOK)
		if got := loadStatus(u.ID); got != models.StatusApproved {
			t.Errorf("status after approve: got %q", got)
		}
	})

	t.Run("reject", func(t *testing.T) {
		u := fixtures.CreateUser(ctx, "Pending", "reject-me@test.com", models.RoleStudent, models.StatusPending)

		req := testutil.NewAuthenticatedRequest(http.MethodPost, "/admin/users/"+u.ID.Hex()+"/reject", testutil.AdminUser())
		req = testutil.WithChiURLParam(req, "userID", u.ID.Hex())
		rec := testutil.NewRecorder()
		h.Reject(rec.ResponseRecorder, req)

		rec.AssertStatus(t, http.StatusOK)
		if got := loadStatus(u.ID); got != models.StatusRejected {
			t.Errorf("status after reject: got %q", got)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		id := primitive.NewObjectID()
		req := testutil.NewAuthenticatedRequest(http.MethodPost, "/admin/users/"+id.Hex()+"/approve", testutil.AdminUser())
		req = testutil.WithChiURLParam(req, "userID", id.Hex())
		rec := testutil.NewRecorder()
		h.Approve(rec.ResponseRecorder, req)

		rec.AssertStatus(t, http.StatusNotFound)
	})

	t.Run("garbage id", func(t *testing.T) {
		req := testutil.NewAuthenticatedRequest(http.MethodPost, "/admin/users/zzz/approve", testutil.AdminUser())
		req = testutil.WithChiURLParam(req, "userID", "zzz")
		rec := testutil.NewRecorder()
		h.Approve(rec.ResponseRecorder, req)

		rec.AssertStatus(t, http.StatusNotFound)
	})
}
