package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Listener consumes delivered events. Errors are logged, never propagated
// back to the publisher.
type Listener interface {
	Handle(ctx context.Context, e Event) error
}

type ListenerFunc func(ctx context.Context, e Event) error

func (f ListenerFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }

type subscription struct {
	name     string
	listener Listener
}

// Bus is a buffered, single-consumer event channel. Publish never blocks;
// Run delivers events to listeners in publish order.
type Bus struct {
	ch      chan Event
	mu      sync.RWMutex
	subs    []subscription
	dropped atomic.Int64
	timeout time.Duration
}

func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{
		ch:      make(chan Event, buffer),
		timeout: 5 * time.Second,
	}
}

// Subscribe registers a listener. Listeners added after Run starts receive
// only events delivered from then on.
func (b *Bus) Subscribe(name string, l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{name: name, listener: l})
}

// Publish enqueues e. When the buffer is full the event is dropped.
func (b *Bus) Publish(e Event) {
	select {
	case b.ch <- e:
	default:
		b.dropped.Add(1)
		slog.Warn("Event bus full, dropping event",
			slog.String("event", string(e.Name)),
			slog.String("quest_id", e.QuestID.String()))
	}
}

// Dropped returns how many events were discarded because of a full buffer.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Run delivers events until ctx is cancelled, then drains what is buffered.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.drain()
			return
		case e := <-b.ch:
			b.dispatch(ctx, e)
		}
	}
}

func (b *Bus) drain() {
	for {
		select {
		case e := <-b.ch:
			b.dispatch(context.Background(), e)
		default:
			return
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, e Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if err := b.deliver(ctx, s, e); err != nil {
			slog.Error("Event listener failed",
				slog.String("listener", s.name),
				slog.String("event", string(e.Name)),
				slog.String("quest_id", e.QuestID.String()),
				slog.Any("error", err))
		}
	}
}

func (b *Bus) deliver(ctx context.Context, s subscription, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return s.listener.Handle(ctx, e)
}
