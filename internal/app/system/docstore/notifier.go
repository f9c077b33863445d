package docstore

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Notifier tells subscribers that a collection may have changed.
type Notifier interface {
	// Watch calls onChange after each change to collection until stop is
	// called or ctx ends.
	Watch(ctx context.Context, collection string, onChange func()) (stop func(), err error)

	// Notify announces a write to collection. Notifiers that observe the
	// database directly ignore it.
	Notify(ctx context.Context, collection string) error
}

// reconnectDelay is how long watch loops wait after a stream error.
var reconnectDelay = time.Second

// fanout shares one upstream watcher per collection between all listeners.
type fanout struct {
	mu        sync.Mutex
	next      int
	listeners map[string]map[int]func()
	cancels   map[string]context.CancelFunc
	start     func(ctx context.Context, collection string)
}

func newFanout(start func(ctx context.Context, collection string)) *fanout {
	return &fanout{
		listeners: make(map[string]map[int]func()),
		cancels:   make(map[string]context.CancelFunc),
		start:     start,
	}
}

func (f *fanout) add(ctx context.Context, collection string, fn func()) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	if f.listeners[collection] == nil {
		f.listeners[collection] = make(map[int]func())
		upstream, cancel := context.WithCancel(context.Background())
		f.cancels[collection] = cancel
		go f.start(upstream, collection)
	}
	f.listeners[collection][id] = fn
	f.mu.Unlock()

	remove := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		ls := f.listeners[collection]
		if ls == nil {
			return
		}
		delete(ls, id)
		if len(ls) == 0 {
			delete(f.listeners, collection)
			f.cancels[collection]()
			delete(f.cancels, collection)
		}
	}

	stop := once(remove)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return stop
}

func (f *fanout) fire(collection string) {
	f.mu.Lock()
	fns := make([]func(), 0, len(f.listeners[collection]))
	for _, fn := range f.listeners[collection] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| MongoDB change streams                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// ChangeStreamNotifier watches collections with MongoDB change streams.
// It requires a replica set or sharded cluster.
type ChangeStreamNotifier struct {
	db  *mongo.Database
	log *zap.Logger
	fan *fanout
}

// NewChangeStreamNotifier returns a notifier over db's change streams.
func NewChangeStreamNotifier(db *mongo.Database, logger *zap.Logger) *ChangeStreamNotifier {
	n := &ChangeStreamNotifier{db: db, log: logger}
	n.fan = newFanout(n.run)
	return n
}

// Watch implements Notifier.
func (n *ChangeStreamNotifier) Watch(ctx context.Context, collection string, onChange func()) (func(), error) {
	return n.fan.add(ctx, collection, onChange), nil
}

// Notify implements Notifier. Change streams see every write already.
func (n *ChangeStreamNotifier) Notify(context.Context, string) error { return nil }

func (n *ChangeStreamNotifier) run(ctx context.Context, collection string) {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	for {
		cs, err := n.db.Collection(collection).Watch(ctx, mongo.Pipeline{}, opts)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			n.log.Warn("change stream open failed", zap.String("collection", collection), zap.Error(err))
			if !sleepCtx(ctx, reconnectDelay) {
				return
			}
			continue
		}
		// writes made before the stream opened are caught by a re-read
		n.fan.fire(collection)
		for cs.Next(ctx) {
			n.fan.fire(collection)
		}
		err = cs.Err()
		_ = cs.Close(context.Background())
		if ctx.Err() != nil {
			return
		}
		n.log.Warn("change stream closed, reopening", zap.String("collection", collection), zap.Error(err))
		if !sleepCtx(ctx, reconnectDelay) {
			return
		}
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Redis pub/sub                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// RedisChannelPrefix prefixes the per-collection pub/sub channel.
const RedisChannelPrefix = "docstore:"

// RedisNotifier fans out write notifications over redis pub/sub so
// instances sharing a standalone MongoDB still see each other's writes.
type RedisNotifier struct {
	rc  *redis.Client
	log *zap.Logger
	fan *fanout
}

// NewRedisNotifier returns a notifier over rc.
func NewRedisNotifier(rc *redis.Client, logger *zap.Logger) *RedisNotifier {
	n := &RedisNotifier{rc: rc, log: logger}
	n.fan = newFanout(n.run)
	return n
}

// Watch implements Notifier.
func (n *RedisNotifier) Watch(ctx context.Context, collection string, onChange func()) (func(), error) {
	return n.fan.add(ctx, collection, onChange), nil
}

// Notify implements Notifier.
func (n *RedisNotifier) Notify(ctx context.Context, collection string) error {
	return n.rc.Publish(ctx, RedisChannelPrefix+collection, collection).Err()
}

func (n *RedisNotifier) run(ctx context.Context, collection string) {
	channel := RedisChannelPrefix + collection
	for {
		sub := n.rc.Subscribe(ctx, channel)
		if _, err := sub.Receive(ctx); err != nil {
			_ = sub.Close()
			if ctx.Err() != nil {
				return
			}
			n.log.Warn("pubsub subscribe failed", zap.String("channel", channel), zap.Error(err))
			if !sleepCtx(ctx, reconnectDelay) {
				return
			}
			continue
		}
		// writes published before the subscription was confirmed are
		// caught by a re-read
		n.fan.fire(collection)
		ch := sub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case _, ok := <-ch:
				if !ok {
					break recv
				}
				n.fan.fire(collection)
			}
		}
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		n.log.Error("pubsub channel closed, reconnecting", zap.String("channel", channel))
		if !sleepCtx(ctx, reconnectDelay) {
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
