package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Dispatcher delivers best-effort notifications in the background with a fixed
// pool of workers. Messages that do not fit in the queue are dropped.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	workers  int
	log      zerolog.Logger

	queue   chan Message
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewDispatcher creates a dispatcher; call Start before dispatching
func NewDispatcher(n Notifier, workers int, timeout time.Duration, log zerolog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		notifier: n,
		timeout:  timeout,
		workers:  workers,
		log:      log.With().Str("component", "dispatcher").Str("notifier", n.Name()).Logger(),
		queue:    make(chan Message, workers*16),
	}
}

// Start launches the workers
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true
	d.ctx, d.cancel = context.WithCancel(ctx)

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.log.Info().Int("workers", d.workers).Msg("Notification dispatcher started")
}

// Stop stops accepting messages, drains the queue and waits for the workers
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.cancel()
	d.log.Info().Msg("Notification dispatcher stopped")
}

// Dispatch queues msg without blocking. It reports false when the message was dropped.
func (d *Dispatcher) Dispatch(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.running {
		d.log.Debug().Str("kind", msg.Kind).Msg("Dispatcher not running, notification dropped")
		return false
	}

	select {
	case d.queue <- msg:
		return true
	default:
		d.log.Warn().Str("kind", msg.Kind).Msg("Notification queue full, notification dropped")
		return false
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	// A panicking transport must not take the worker down
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("kind", msg.Kind).Msg("Notification delivery panicked - recovered")
		}
	}()

	ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()

	if err := d.notifier.Notify(ctx, msg); err != nil {
		d.log.Debug().Err(err).Str("kind", msg.Kind).Msg("Best-effort notification failed")
	}
}
