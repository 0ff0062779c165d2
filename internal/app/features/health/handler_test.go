package health_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/eventrahq/eventra/internal/app/features/health"
	"github.com/eventrahq/eventra/internal/testutil"
)

func TestServe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := health.NewHandler(db.Client(), zap.NewNop())

	req := testutil.NewRequest(http.MethodGet, "/health")
	rec := testutil.NewRecorder()
	h.Serve(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Status != "ok" || resp.Database != "connected" {
		t.Errorf("unexpected health payload: %+v", resp)
	}
}
