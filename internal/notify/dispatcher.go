// Package notify delivers best-effort announcements of new contact
// submissions to the configured sinks (email relay, Kafka topic).
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/folio-labs/portfolio-api/internal/contact"
	"github.com/folio-labs/portfolio-api/pkg/logger"
	"github.com/folio-labs/portfolio-api/pkg/metrics"
)

// Notifier is one notification sink.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, s contact.Submission) error
}

// Options tunes the Dispatcher.
type Options struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// Dispatcher runs notifications on background workers so submitters never
// wait on a sink. Failures and panics are logged and counted, never returned.
type Dispatcher struct {
	sinks   []Notifier
	queue   chan contact.Submission
	timeout time.Duration
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	release  sync.Once
	closeErr error
}

func NewDispatcher(sinks []Notifier, opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	d := &Dispatcher{
		sinks:   sinks,
		queue:   make(chan contact.Submission, opts.QueueSize),
		timeout: opts.Timeout,
	}
	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Enabled reports whether any sink is configured.
func (d *Dispatcher) Enabled() bool { return len(d.sinks) > 0 }

// Sinks returns the configured sink names.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}
	return names
}

// Dispatch queues s for delivery without blocking. When the queue is full or
// the dispatcher is closed the notification is dropped.
func (d *Dispatcher) Dispatch(s contact.Submission) {
	if len(d.sinks) == 0 {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.NotificationsDropped.Inc()
		logger.Warnf("notify: dispatcher closed, dropping notification for %s", s.ID)
		return
	}
	select {
	case d.queue <- s:
	default:
		metrics.NotificationsDropped.Inc()
		logger.Warnf("notify: queue full, dropping notification for %s", s.ID)
	}
}

// Close stops accepting work and waits for queued notifications, or for ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	d.release.Do(func() {
		var errs []error
		for _, sink := range d.sinks {
			if c, ok := sink.(io.Closer); ok {
				if err := c.Close(); err != nil {
					errs = append(errs, fmt.Errorf("close %s: %w", sink.Name(), err))
				}
			}
		}
		d.closeErr = errors.Join(errs...)
	})
	return d.closeErr
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for s := range d.queue {
		for _, sink := range d.sinks {
			d.deliver(sink, s)
		}
	}
}

func (d *Dispatcher) deliver(sink Notifier, s contact.Submission) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return sink.Notify(ctx, s)
	}()
	if err != nil {
		metrics.Notifications.WithLabelValues(sink.Name(), "failed").Inc()
		logger.Errorf("notify: %s failed for %s: %v", sink.Name(), s.ID, err)
		return
	}
	metrics.Notifications.WithLabelValues(sink.Name(), "sent").Inc()
	logger.Debugf("notify: %s sent for %s", sink.Name(), s.ID)
}
