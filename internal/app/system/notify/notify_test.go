package notify_test

import (
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/eventrahq/eventra/internal/app/system/mailer"
	"github.com/eventrahq/eventra/internal/app/system/notify"
)

// recordingSender collects everything the dispatcher delivers.
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

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestDispatcher_DeliversQueued(t *testing.T) {
	sender := &recordingSender{}
	d := notify.NewDispatcher(sender, zap.NewNop(), 8)
	d.Start()

	for i := 0; i < 3; i++ {
		d.Enqueue(mailer.Email{To: "a@test.com", Subject: "hello"})
	}

	// Stop drains the queue before returning.
	d.Stop()

	if got := sender.count(); got != 3 {
		t.Errorf("delivered: got %d, want 3", got)
	}
}

func TestDispatcher_FullQueueDropsWithoutBlocking(t *testing.T) {
	sender := &recordingSender{}
	d := notify.NewDispatcher(sender, zap.NewNop(), 2)
	// Not started: nothing drains, so the queue fills immediately.

	for i := 0; i < 10; i++ {
		d.Enqueue(mailer.Email{To: "a@test.com", Subject: "hello"})
	}

	// Starting now delivers only what fit in the queue.
	d.Start()
	d.Stop()

	if got := sender.count(); got != 2 {
		t.Errorf("delivered: got %d, want 2 (overflow must be dropped)", got)
	}
}
