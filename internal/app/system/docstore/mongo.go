package docstore

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Mongo is the production Client backed by a MongoDB database. Change
// detection for subscriptions is delegated to a Notifier.
type Mongo struct {
	db       *mongo.Database
	notifier Notifier
	log      *zap.Logger
}

// NewMongo builds a Mongo client. If notifier is nil, MongoDB change
// streams are used.
func NewMongo(db *mongo.Database, notifier Notifier, logger *zap.Logger) *Mongo {
	if notifier == nil {
		notifier = NewChangeStreamNotifier(db, logger)
	}
	return &Mongo{db: db, notifier: notifier, log: logger}
}

// QueryByField implements Client.
func (m *Mongo) QueryByField(ctx context.Context, collection, field string, value any, out any) error {
	docs, err := m.find(ctx, Query{Collection: collection, Field: field, Value: value})
	if err != nil {
		return err
	}
	return DecodeAll(docs, out)
}

// Subscribe implements Client. The watcher is registered before the first
// read so no write can fall between them. The first snapshot is delivered
// before Subscribe returns; later ones arrive on the notifier's goroutine
// and are skipped when the result set did not change.
func (m *Mongo) Subscribe(ctx context.Context, q Query, onSnapshot func([]bson.Raw)) (Unsubscribe, error) {
	subCtx, cancel := context.WithCancel(ctx)

	// mu is held through the first read, so a change reported meanwhile
	// re-reads after it.
	var (
		mu   sync.Mutex
		last []bson.Raw
	)
	refresh := func() {
		mu.Lock()
		defer mu.Unlock()
		next, err := m.find(subCtx, q)
		if err != nil {
			if subCtx.Err() == nil {
				m.log.Warn("docstore: refresh after change failed",
					zap.String("collection", q.Collection),
					zap.Error(err))
			}
			return
		}
		if sameDocs(last, next) {
			return
		}
		last = next
		onSnapshot(next)
	}

	mu.Lock()
	stop, err := m.notifier.Watch(subCtx, q.Collection, refresh)
	if err != nil {
		mu.Unlock()
		cancel()
		return nil, err
	}
	docs, err := m.find(ctx, q)
	if err != nil {
		mu.Unlock()
		stop()
		cancel()
		return nil, err
	}
	last = docs
	onSnapshot(docs)
	mu.Unlock()

	return once(func() {
		stop()
		cancel()
	}), nil
}

// BatchWrite implements Client. Ops are grouped per collection into
// ordered bulk writes; the notifier is told about each touched collection.
func (m *Mongo) BatchWrite(ctx context.Context, ops []WriteOp) error {
	var order []string
	models := make(map[string][]mongo.WriteModel)
	for i, op := range ops {
		if op.Collection == "" || op.ID.IsZero() {
			return fmt.Errorf("op %d: %w", i, ErrBadOp)
		}
		var wm mongo.WriteModel
		switch op.Kind {
		case OpInsert:
			wm = mongo.NewInsertOneModel().SetDocument(op.Doc)
		case OpUpdate:
			wm = mongo.NewUpdateOneModel().
				SetFilter(bson.M{"_id": op.ID}).
				SetUpdate(bson.M{"$set": op.Fields})
		case OpDelete:
			wm = mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": op.ID})
		default:
			return fmt.Errorf("op %d: %w", i, ErrBadOp)
		}
		if _, seen := models[op.Collection]; !seen {
			order = append(order, op.Collection)
		}
		models[op.Collection] = append(models[op.Collection], wm)
	}

	for _, coll := range order {
		_, err := m.db.Collection(coll).BulkWrite(ctx, models[coll], options.BulkWrite().SetOrdered(true))
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("%s: %w", coll, ErrDuplicateID)
			}
			return fmt.Errorf("bulk write %s: %w", coll, err)
		}
		if err := m.notifier.Notify(ctx, coll); err != nil {
			m.log.Warn("docstore: change notify failed", zap.String("collection", coll), zap.Error(err))
		}
	}
	return nil
}

func (m *Mongo) find(ctx context.Context, q Query) ([]bson.Raw, error) {
	filter := bson.M{}
	if q.Field != "" {
		filter[q.Field] = q.Value
	}
	opts := options.Find().SetSort(bson.D{{Key: q.sortField(), Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.db.Collection(q.Collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	docs := make([]bson.Raw, 0)
	for cur.Next(ctx) {
		raw := make(bson.Raw, len(cur.Current))
		copy(raw, cur.Current)
		docs = append(docs, raw)
	}
	return docs, cur.Err()
}
