package registrations_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/eventrahq/eventra/internal/app/features/registrations"
	"github.com/eventrahq/eventra/internal/app/system/mailer"
	"github.com/eventrahq/eventra/internal/app/system/notify"
	"github.com/eventrahq/eventra/internal/app/system/pass"
	"github.com/eventrahq/eventra/internal/domain/models"
	"github.com/eventrahq/eventra/internal/testutil"
)

// recordingSender collects confirmation emails without SMTP.
type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Email
}

func (s *recordingSender) Send(e mailer.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, e)
	return nil
}

func newHandler(t *testing.T, db *mongo.Database) (*registrations.Handler, *recordingSender, *notify.Dispatcher) {
	t.Helper()
	sender := &recordingSender{}
	dispatcher := notify.NewDispatcher(sender, zap.NewNop(), 16)
	h := registrations.NewHandler(db, dispatcher, "Eventra", zap.NewNop())
	return h, sender, dispatcher
}

func createBody(eventID primitive.ObjectID) string {
	return `{"event_id":"` + eventID.Hex() + `"}`
}

func TestCreate_Success(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := fixtures.CreateOrganizer(ctx, "Test Organizer", "org@test.com")
	student := fixtures.CreateStudent(ctx, "Asha Varma", "asha@test.com")
	event := fixtures.CreateEvent(ctx, "Tech Symposium", organizer.ID, 10)

	h, sender, dispatcher := newHandler(t, db)

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/registrations",
		createBody(event.ID), testutil.AsUser(student))
	rec := testutil.NewRecorder()
	h.Create(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusCreated)

	var reg models.Registration
	if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	// Student snapshot is denormalized onto the registration.
	if reg.StudentName != "Asha Varma" || reg.StudentEmail != "asha@test.com" {
		t.Errorf("snapshot: got %q / %q", reg.StudentName, reg.StudentEmail)
	}
	if reg.StudentRegisterNumber == "" {
		t.Error("expected register number snapshot")
	}
	if !strings.HasPrefix(reg.QRCode, "data:image/png;base64,") {
		t.Error("expected rendered QR data URI")
	}
	if reg.Attended {
		t.Error("new registration must not be attended")
	}

	// Stored pass text decodes back to the same registration.
	var stored models.Registration
	if err := db.Collection("registrations").FindOne(ctx, bson.M{"_id": reg.ID}).Decode(&stored); err != nil {
		t.Fatalf("failed to load stored registration: %v", err)
	}
	payload, err := pass.Decode(stored.PassData)
	if err != nil {
		t.Fatalf("stored pass data does not decode: %v", err)
	}
	if payload.RegistrationID != reg.ID.Hex() || payload.EventID != event.ID.Hex() {
		t.Errorf("pass payload mismatch: %+v", payload)
	}
	if payload.EventTitle != "Tech Symposium" {
		t.Errorf("pass event title: got %q", payload.EventTitle)
	}

	// The slot was consumed.
	var e models.Event
	if err := db.Collection("events").FindOne(ctx, bson.M{"_id": event.ID}).Decode(&e); err != nil {
		t.Fatalf("failed to load event: %v", err)
	}
	if e.RegistrationCount != 1 {
		t.Errorf("RegistrationCount: got %d, want 1", e.RegistrationCount)
	}

	// The confirmation email went to the student and embeds the pass.
	dispatcher.Start()
	dispatcher.Stop()
	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.sent) != 1 {
		t.Fatalf("emails sent: got %d, want 1", len(sender.sent))
	}
	if sender.sent[0].To != "asha@test.com" {
		t.Errorf("email to: got %q", sender.sent[0].To)
	}
	if !strings.Contains(sender.sent[0].HTMLBody, reg.QRCode) {
		t.Error("email HTML body does not embed the pass QR")
	}
}

func TestCreate_EventNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	student := fixtures.CreateStudent(ctx, "Asha Varma", "asha@test.com")
	h, _, _ := newHandler(t, db)

	t.Run("missing id", func(t *testing.T) {
		req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/registrations",
			createBody(primitive.NewObjectID()), testutil.AsUser(student))
		rec := testutil.NewRecorder()
		h.Create(rec.ResponseRecorder, req)

		rec.AssertStatus(t, http.StatusNotFound)
		rec.AssertContains(t, `"kind":"not_found"`)
	})

	t.Run("inactive event", func(t *testing.T) {
		organizer := fixtures.CreateOrganizer(ctx, "Test Organizer", "org@test.com")
		event := fixtures.CreateEvent(ctx, "Gone", organizer.ID, 10)
		if _, err := db.Collection("events").UpdateByID(ctx, event.ID,
			bson.M{"$set": bson.M{"active": false}}); err != nil {
			t.Fatalf("failed to deactivate: %v", err)
		}

		req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/registrations",
			createBody(event.ID), testutil.AsUser(student))
		rec := testutil.NewRecorder()
		h.Create(rec.ResponseRecorder, req)

		rec.AssertStatus(t, http.StatusNotFound)
	})
}

func TestCreate_EventFull(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := fixtures.CreateOrganizer(ctx, "Test Organizer", "org@test.com")
	event := fixtures.CreateEvent(ctx, "Tiny Workshop", organizer.ID, 1)
	first := fixtures.CreateStudent(ctx, "First Student", "first@test.com")
	second := fixtures.CreateStudent(ctx, "Second Student", "second@test.com")

	h, _, _ := newHandler(t, db)

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/registrations",
		createBody(event.ID), testutil.AsUser(first))
	rec := testutil.NewRecorder()
	h.Create(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)

	req = testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/registrations",
		createBody(event.ID), testutil.AsUser(second))
	rec = testutil.NewRecorder()
	h.Create(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertContains(t, `"kind":"event_full"`)
}

func TestCreate_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := fixtures.CreateOrganizer(ctx, "Test Organizer", "org@test.com")
	event := fixtures.CreateEvent(ctx, "Workshop", organizer.ID, 10)
	student := fixtures.CreateStudent(ctx, "Asha Varma", "asha@test.com")

	h, _, _ := newHandler(t, db)

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/registrations",
		createBody(event.ID), testutil.AsUser(student))
	rec := testutil.NewRecorder()
	h.Create(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)

	req = testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/registrations",
		createBody(event.ID), testutil.AsUser(student))
	rec = testutil.NewRecorder()
	h.Create(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertContains(t, `"kind":"duplicate_registration"`)

	// The failed attempt must hand its reserved slot back.
	var e models.Event
	if err := db.Collection("events").FindOne(ctx, bson.M{"_id": event.ID}).Decode(&e); err != nil {
		t.Fatalf("failed to load event: %v", err)
	}
	if e.RegistrationCount != 1 {
		t.Errorf("RegistrationCount after duplicate: got %d, want 1", e.RegistrationCount)
	}
}

func TestCreate_CustomFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := fixtures.CreateOrganizer(ctx, "Test Organizer", "org@test.com")
	event := fixtures.CreateEventWithFields(ctx, "Workshop", organizer.ID, 10, []models.CustomField{
		{Name: "T-Shirt Size", Type: models.FieldTypeSelect, Required: true, Options: []string{"S", "M", "L"}},
		{Name: "Years of Experience", Type: models.FieldTypeNumber},
	})

	h, _, _ := newHandler(t, db)

	body := func(student models.User, data string) *testutil.ResponseRecorder {
		payload := `{"event_id":"` + event.ID.Hex() + `"`
		if data != "" {
			payload += `,"custom_field_data":` + data
		}
		payload += `}`
		req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/registrations",
			payload, testutil.AsUser(student))
		rec := testutil.NewRecorder()
		h.Create(rec.ResponseRecorder, req)
		return rec
	}

	t.Run("missing required field", func(t *testing.T) {
		student := fixtures.CreateStudent(ctx, "Student A", "a@test.com")
		rec := body(student, "")
		rec.AssertStatus(t, http.StatusUnprocessableEntity)
		rec.AssertContains(t, `"kind":"missing_field"`)

		// Validation failures release the reserved slot.
		var e models.Event
		if err := db.Collection("events").FindOne(ctx, bson.M{"_id": event.ID}).Decode(&e); err != nil {
			t.Fatalf("failed to load event: %v", err)
		}
		if e.RegistrationCount != 0 {
			t.Errorf("RegistrationCount after validation failure: got %d, want 0", e.RegistrationCount)
		}
	})

	t.Run("option not in list", func(t *testing.T) {
		student := fixtures.CreateStudent(ctx, "Student B", "b@test.com")
		rec := body(student, `{"T-Shirt Size":"XXL"}`)
		rec.AssertStatus(t, http.StatusUnprocessableEntity)
		rec.AssertContains(t, `"kind":"invalid"`)
	})

	t.Run("number must parse", func(t *testing.T) {
		student := fixtures.CreateStudent(ctx, "Student C", "c@test.com")
		rec := body(student, `{"T-Shirt Size":"M","Years of Experience":"lots"}`)
		rec.AssertStatus(t, http.StatusUnprocessableEntity)
	})

	t.Run("valid submission", func(t *testing.T) {
		student := fixtures.CreateStudent(ctx, "Student D", "d@test.com")
		rec := body(student, `{"T-Shirt Size":"M","Years of Experience":"3","Unsolicited":"dropped"}`)
		rec.AssertStatus(t, http.StatusCreated)

		var reg models.Registration
		if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if reg.CustomFieldData["T-Shirt Size"] != "M" || reg.CustomFieldData["Years of Experience"] != "3" {
			t.Errorf("custom field data: %v", reg.CustomFieldData)
		}
		if _, ok := reg.CustomFieldData["Unsolicited"]; ok {
			t.Error("values for undeclared fields must be dropped")
		}
	})
}

func TestMine(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := fixtures.CreateOrganizer(ctx, "Test Organizer", "org@test.com")
	student := fixtures.CreateStudent(ctx, "Asha Varma", "asha@test.com")
	other := fixtures.CreateStudent(ctx, "Other Student", "other@test.com")
	eventA := fixtures.CreateEvent(ctx, "Event A", organizer.ID, 10)
	eventB := fixtures.CreateEvent(ctx, "Event B", organizer.ID, 10)
	fixtures.CreateRegistration(ctx, eventA, student)
	fixtures.CreateRegistration(ctx, eventB, student)
	fixtures.CreateRegistration(ctx, eventA, other)

	h, _, _ := newHandler(t, db)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/registrations/mine", testutil.AsUser(student))
	rec := testutil.NewRecorder()
	h.Mine(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)
	var regs []models.Registration
	if err := json.Unmarshal(rec.Body.Bytes(), &regs); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(regs) != 2 {
		t.Errorf("own registrations: got %d, want 2", len(regs))
	}
}

func TestRoster_OwnershipEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOrganizer(ctx, "Owner", "owner@test.com")
	rival := fixtures.CreateOrganizer(ctx, "Rival", "rival@test.com")
	student := fixtures.CreateStudent(ctx, "Asha Varma", "asha@test.com")
	event := fixtures.CreateEvent(ctx, "Workshop", owner.ID, 10)
	fixtures.CreateRegistration(ctx, event, student)

	h, _, _ := newHandler(t, db)

	get := func(u testutil.TestUser) *testutil.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest(http.MethodGet, "/registrations/event/"+event.ID.Hex(), u)
		req = testutil.WithChiURLParam(req, "eventID", event.ID.Hex())
		rec := testutil.NewRecorder()
		h.Roster(rec.ResponseRecorder, req)
		return rec
	}

	t.Run("owner sees roster", func(t *testing.T) {
		rec := get(testutil.AsUser(owner))
		rec.AssertStatus(t, http.StatusOK)
		rec.AssertContains(t, "Asha Varma")
	})

	t.Run("other organizer is forbidden", func(t *testing.T) {
		rec := get(testutil.AsUser(rival))
		rec.AssertStatus(t, http.StatusForbidden)
	})

	t.Run("admin sees roster", func(t *testing.T) {
		rec := get(testutil.AdminUser())
		rec.AssertStatus(t, http.StatusOK)
	})
}

// A request whose context dies after the slot is reserved must still
// hand the slot back: the compensation runs on its own context, so the
// counter can never end up above the roster size.
func TestCreate_RequestContextCanceledMidFlight(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	h, _, dispatcher := newHandler(t, db)
	defer dispatcher.Stop()

	organizer := fixtures.CreateOrganizer(ctx, "Test Organizer", "org@test.com")
	event := fixtures.CreateEvent(ctx, "Workshop", organizer.ID, 100)
	events := db.Collection("events")

	counter := func() int {
		var e models.Event
		if err := events.FindOne(ctx, bson.M{"_id": event.ID}).Decode(&e); err != nil {
			t.Fatalf("failed to load event: %v", err)
		}
		return e.RegistrationCount
	}

	for i := 0; i < 25; i++ {
		student := fixtures.CreateStudent(ctx, "Student", fmt.Sprintf("cancel%d@test.com", i))

		reqCtx, cancelReq := context.WithCancel(context.Background())
		req := testutil.NewJSONRequest(http.MethodPost, "/registrations", createBody(event.ID))
		req = testutil.WithUser(req.WithContext(reqCtx), testutil.AsUser(student))
		rec := testutil.NewRecorder()

		before := counter()
		done := make(chan struct{})
		go func() {
			defer close(done)
			h.Create(rec.ResponseRecorder, req)
		}()

		// Cancel the request as soon as its reservation lands, racing
		// the cancellation against the rest of the create flow.
	poll:
		for {
			select {
			case <-done:
				break poll
			default:
			}
			if counter() > before {
				cancelReq()
				break poll
			}
		}
		<-done
		cancelReq()
	}

	n, err := db.Collection("registrations").CountDocuments(ctx, bson.M{"event_id": event.ID})
	if err != nil {
		t.Fatalf("failed to count registrations: %v", err)
	}
	if got := counter(); int64(got) > n {
		t.Errorf("counter %d exceeds roster size %d: canceled requests leaked reservations", got, n)
	}
}
