package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/eventrahq/eventra/internal/app/system/apperr"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindUnauthorized, http.StatusUnauthorized},
		{apperr.KindForbidden, http.StatusForbidden},
		{apperr.KindEventFull, http.StatusConflict},
		{apperr.KindDuplicate, http.StatusConflict},
		{apperr.KindEventMismatch, http.StatusConflict},
		{apperr.KindAlreadyAttended, http.StatusConflict},
		{apperr.KindMissingField, http.StatusUnprocessableEntity},
		{apperr.KindMalformedPass, http.StatusUnprocessableEntity},
		{apperr.KindInvalid, http.StatusUnprocessableEntity},
		{apperr.KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := apperr.New(tt.kind, "boom")
			if got := apperr.Status(err); got != tt.want {
				t.Errorf("Status(%s) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}

func TestForeignErrorsAreOpaque(t *testing.T) {
	err := errors.New("connection reset by peer")

	if got := apperr.Status(err); got != http.StatusInternalServerError {
		t.Errorf("Status of foreign error: got %d, want 500", got)
	}
	if got := apperr.MessageOf(err); got != "internal server error" {
		t.Errorf("MessageOf foreign error leaks internals: %q", got)
	}
	if got := apperr.KindOf(err); got != apperr.KindInternal {
		t.Errorf("KindOf foreign error: got %q, want internal", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("duplicate key")
	err := apperr.Wrap(apperr.KindDuplicate, "already registered", cause)

	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to be matchable with errors.Is")
	}
	if apperr.MessageOf(err) != "already registered" {
		t.Errorf("MessageOf: got %q", apperr.MessageOf(err))
	}
	// The cause stays in Error() for logs but out of the message.
	if err.Error() != "already registered: duplicate key" {
		t.Errorf("Error(): got %q", err.Error())
	}
}

func TestIs_MatchesByKind(t *testing.T) {
	a := apperr.New(apperr.KindEventFull, "event is full")
	b := apperr.New(apperr.KindEventFull, "different message")
	c := apperr.New(apperr.KindDuplicate, "event is full")

	if !errors.Is(a, b) {
		t.Error("errors of the same kind should match")
	}
	if errors.Is(a, c) {
		t.Error("errors of different kinds should not match")
	}

	wrapped := fmt.Errorf("handler: %w", a)
	if apperr.KindOf(wrapped) != apperr.KindEventFull {
		t.Error("KindOf should see through fmt.Errorf wrapping")
	}
}
