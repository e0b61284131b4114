package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vidfriends/friendgraph/internal/models"
)

// Sink delivers a single event to its destination.
type Sink interface {
	Deliver(ctx context.Context, event models.FriendshipEvent) error
}

// DispatcherConfig controls the concurrency characteristics of the dispatcher.
type DispatcherConfig struct {
	QueueSize      int
	Workers        int
	DeliverTimeout time.Duration
}

// Dispatcher hands friendship events to a Sink from a bounded queue drained by
// a fixed worker pool, keeping delivery off the request path.
type Dispatcher struct {
	sink    Sink
	logger  *slog.Logger
	timeout time.Duration

	events chan models.FriendshipEvent
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

var (
	errDispatcherClosed = errors.New("event dispatcher closed")
	// ErrQueueFull is returned when the queue has no room for another event.
	ErrQueueFull = errors.New("event queue full")
)

// NewDispatcher starts the worker pool.
func NewDispatcher(sink Sink, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.DeliverTimeout <= 0 {
		cfg.DeliverTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		sink:    sink,
		logger:  logger,
		timeout: cfg.DeliverTimeout,
		events:  make(chan models.FriendshipEvent, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.worker()
	}

	return d
}

// Publish queues an event for delivery. It never blocks: a full queue is
// reported as ErrQueueFull so callers on the request path are not stalled by
// a slow broker.
func (d *Dispatcher) Publish(ctx context.Context, event models.FriendshipEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return errDispatcherClosed
	}

	select {
	case d.events <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting events and waits for queued ones to be delivered.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.events)
		d.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	case <-done:
		d.cancel()
		return nil
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for event := range d.events {
		d.deliver(event)
	}
}

func (d *Dispatcher) deliver(event models.FriendshipEvent) {
	if d.sink == nil {
		d.logger.Error("event dispatcher missing sink", "eventId", event.ID)
		return
	}

	ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()

	if err := d.sink.Deliver(ctx, event); err != nil {
		d.logger.Error("deliver friendship event", "eventId", event.ID, "type", string(event.Type), "error", err)
		return
	}
	d.logger.Debug("friendship event delivered", "eventId", event.ID, "type", string(event.Type))
}
