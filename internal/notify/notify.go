// Package notify delivers "application status changed" events to the
// external messaging system. Delivery is best effort.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/config"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
)

type Notifier interface {
	Notify(ctx context.Context, event models.StatusChangedEvent) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(context.Context, models.StatusChangedEvent) error { return nil }

const (
	DefaultQueueSize   = 256
	DefaultSendTimeout = 5 * time.Second
)

// Async decouples callers from delivery. Notify enqueues and returns at once;
// one goroutine delivers in order. Events are dropped when the queue is full.
type Async struct {
	next    Notifier
	queue   chan models.StatusChangedEvent
	timeout time.Duration
	logger  logger.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewAsync(next Notifier, queueSize int, log logger.Logger) *Async {
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	a := &Async{
		next:    next,
		queue:   make(chan models.StatusChangedEvent, queueSize),
		timeout: DefaultSendTimeout,
		logger:  log.WithFields(map[string]interface{}{"component": "async-notifier"}),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for event := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.next.Notify(ctx, event); err != nil {
			a.logger.Warn("status event not delivered", map[string]interface{}{
				"applicationId": event.ApplicationID,
				"error":         err,
			})
		}
		cancel()
	}
}

// Notify never blocks and never fails.
func (a *Async) Notify(_ context.Context, event models.StatusChangedEvent) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil
	}
	select {
	case a.queue <- event:
	default:
		a.logger.Warn("notification queue full, dropping event", map[string]interface{}{
			"applicationId": event.ApplicationID,
		})
	}
	return nil
}

// Close stops accepting events and waits for queued ones until ctx ends.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// New builds the notifier selected by cfg. The returned close func releases
// transport resources and is never nil.
func New(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (Notifier, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Transport {
	case config.TransportSNS:
		n, err := DialSNS(ctx, cfg.SNS.Region, cfg.SNS.TopicARN, log)
		if err != nil {
			return nil, noop, err
		}
		return n, noop, nil
	case config.TransportAMQP:
		n, err := DialAMQP(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.RoutingKey, log)
		if err != nil {
			return nil, noop, err
		}
		return n, n.Close, nil
	default:
		return Nop{}, noop, nil
	}
}
