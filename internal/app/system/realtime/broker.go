package realtime

import (
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/dalemusser/waffle/pantry/sse"
	"github.com/dalemusser/taskboard/internal/app/system/boarddom"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Event names sent on a view stream.
const (
	EventPatch  = "patch"
	EventResync = "resync"
)

// DefaultBuffer is how many events a view queues before it must resync.
const DefaultBuffer = 256

var eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "taskboard_realtime_events_dropped_total",
	Help: "Events discarded because a view's queue was full",
})

// Event is one server-sent event.
type Event struct {
	ID   string
	Name string
	Data []byte
}

// Broker queues events for each open view until its stream reads them.
type Broker struct {
	mu     sync.Mutex
	views  map[string]chan Event
	buffer int
	log    *zap.Logger
}

// NewBroker returns a broker queueing up to buffer events per view.
func NewBroker(buffer int, logger *zap.Logger) *Broker {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broker{views: make(map[string]chan Event), buffer: buffer, log: logger}
}

// Open creates the queue for viewID if it does not exist.
func (b *Broker) Open(viewID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.views[viewID]; !ok {
		b.views[viewID] = make(chan Event, b.buffer)
	}
}

// Events returns the queue of viewID.
func (b *Broker) Events(viewID string) (<-chan Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.views[viewID]
	return ch, ok
}

// Close closes and forgets the queue of viewID.
func (b *Broker) Close(viewID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.views[viewID]; ok {
		close(ch)
		delete(b.views, viewID)
	}
}

// Publish encodes v and queues it for viewID. When the queue is full it is
// emptied and replaced by a single resync event: the tab can no longer
// replay patches and must reload the board.
func (b *Broker) Publish(viewID, name string, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", name, err)
	}
	ev := Event{ID: ulid.Make().String(), Name: name, Data: data}

	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.views[viewID]
	if !ok {
		return nil
	}
	select {
	case ch <- ev:
		return nil
	default:
	}

	dropped := 0
drain:
	for {
		select {
		case <-ch:
			dropped++
		default:
			break drain
		}
	}
	eventsDropped.Add(float64(dropped + 1))
	b.log.Warn("view queue full, requesting resync",
		zap.String("view", viewID), zap.Int("dropped", dropped+1))
	ch <- Event{ID: ulid.Make().String(), Name: EventResync, Data: []byte("{}")}
	return nil
}

// Sink returns a patch sink that publishes to viewID.
func (b *Broker) Sink(viewID string) boarddom.Sink {
	return func(p boarddom.Patch) {
		if err := b.Publish(viewID, EventPatch, p); err != nil {
			b.log.Error("publish patch", zap.String("view", viewID), zap.Error(err))
		}
	}
}

// SSE converts ev for writing on an sse.Stream.
func (ev Event) SSE() *sse.Event {
	return sse.NewEventWithType(ev.Name, string(ev.Data)).WithID(ev.ID)
}

// ResyncEvent tells a page its view is gone and it must reload.
func ResyncEvent() Event {
	return Event{Name: EventResync, Data: []byte("{}")}
}
