// internal/app/system/notify/notify.go
package notify

import (
	"sync"

	"go.uber.org/zap"

	"github.com/eventrahq/eventra/internal/app/system/mailer"
)

// Sender delivers one email. Implemented by mailer.Mailer; tests plug
// in fakes.
type Sender interface {
	Send(e mailer.Email) error
}

// Dispatcher decouples email delivery from the request path. Handlers
// enqueue and return immediately; a background goroutine drains the
// queue and logs failures. Delivery is best-effort: a full queue or an
// SMTP error never reaches the caller.
type Dispatcher struct {
	sender Sender
	log    *zap.Logger
	queue  chan mailer.Email
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher with a bounded queue.
func NewDispatcher(sender Sender, logger *zap.Logger, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		sender: sender,
		log:    logger,
		queue:  make(chan mailer.Email, queueSize),
		stopCh: make(chan struct{}),
	}
}

// Start begins the background delivery loop.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
	d.log.Info("notify dispatcher started", zap.Int("queue_size", cap(d.queue)))
}

// Stop signals the dispatcher to stop and waits for it to finish.
// Messages still queued at shutdown are delivered before returning.
func (d *Dispatcher) Stop() {
	close(d.stopCh)
	d.wg.Wait()
	d.log.Info("notify dispatcher stopped")
}

// Enqueue hands a message to the background loop without blocking.
// When the queue is full the message is dropped and logged.
func (d *Dispatcher) Enqueue(e mailer.Email) {
	select {
	case d.queue <- e:
	default:
		d.log.Warn("notify queue full; dropping email",
			zap.String("to", e.To),
			zap.String("subject", e.Subject))
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopCh:
			d.drain()
			return
		case e := <-d.queue:
			d.deliver(e)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case e := <-d.queue:
			d.deliver(e)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(e mailer.Email) {
	if err := d.sender.Send(e); err != nil {
		d.log.Error("email delivery failed",
			zap.String("to", e.To),
			zap.String("subject", e.Subject),
			zap.Error(err))
	}
}
