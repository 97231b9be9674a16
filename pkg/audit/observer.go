package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ava-labs/mqlibrary/pkg/keywords"
)

const (
	defaultBufferSize     = 256
	defaultPublishTimeout = 10 * time.Second
)

// Observer turns keyword calls into events and publishes them from a single
// background goroutine. Events arriving while the buffer is full are dropped
// with a warning.
type Observer struct {
	pub      Publisher
	log      *zap.SugaredLogger
	instance string
	timeout  time.Duration
	now      func() time.Time

	events chan Event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

var _ keywords.Observer = (*Observer)(nil)

// ObserverOption configures an Observer.
type ObserverOption func(*Observer)

// WithInstance tags every event with the server instance name.
func WithInstance(name string) ObserverOption {
	return func(o *Observer) { o.instance = name }
}

// WithBufferSize sets how many events may wait for publishing.
func WithBufferSize(n int) ObserverOption {
	return func(o *Observer) {
		if n > 0 {
			o.events = make(chan Event, n)
		}
	}
}

// WithPublishTimeout bounds each Publish call.
func WithPublishTimeout(d time.Duration) ObserverOption {
	return func(o *Observer) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// NewObserver starts publishing keyword calls to pub. Close stops it.
func NewObserver(pub Publisher, log *zap.SugaredLogger, opts ...ObserverOption) *Observer {
	o := &Observer{
		pub:     pub,
		log:     log,
		timeout: defaultPublishTimeout,
		now:     time.Now,
		events:  make(chan Event, defaultBufferSize),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	go o.run()
	return o
}

// KeywordFinished queues the event for call.
func (o *Observer) KeywordFinished(_ context.Context, call keywords.Call) {
	ev := NewEvent(call, o.instance, o.now())

	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return
	}
	select {
	case o.events <- ev:
	default:
		o.log.Warnw("audit buffer full, dropping event", "keyword", ev.Keyword, "alias", ev.Alias)
	}
}

func (o *Observer) run() {
	defer close(o.done)
	for ev := range o.events {
		ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
		if err := o.pub.Publish(ctx, ev); err != nil {
			o.log.Warnw("failed to publish audit event", "keyword", ev.Keyword, "error", err)
		}
		cancel()
	}
}

// Close publishes the queued events and closes the publisher. Events still
// queued when ctx is done are dropped.
func (o *Observer) Close(ctx context.Context) {
	o.once.Do(func() {
		o.mu.Lock()
		o.closed = true
		close(o.events)
		o.mu.Unlock()

		select {
		case <-o.done:
		case <-ctx.Done():
			o.log.Warn("audit observer closed before all events were published")
		}
		o.pub.Close(ctx)
	})
}
