package docstore

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-process Client. Writes are applied under a lock and
// subscribers are notified synchronously, after the lock is released, in
// the goroutine that performed the write.
type Memory struct {
	mu     sync.Mutex
	colls  map[string]map[primitive.ObjectID]bson.Raw
	subs   map[int]*memSub
	nextID int
}

type memSub struct {
	q    Query
	fn   func([]bson.Raw)
	last []bson.Raw
	mu   sync.Mutex
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		colls: make(map[string]map[primitive.ObjectID]bson.Raw),
		subs:  make(map[int]*memSub),
	}
}

// ActiveSubscriptions returns the number of live subscriptions.
func (m *Memory) ActiveSubscriptions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// QueryByField implements Client.
func (m *Memory) QueryByField(ctx context.Context, collection, field string, value any, out any) error {
	m.mu.Lock()
	docs, err := m.matchLocked(Query{Collection: collection, Field: field, Value: value})
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return DecodeAll(docs, out)
}

// Subscribe implements Client.
func (m *Memory) Subscribe(ctx context.Context, q Query, onSnapshot func([]bson.Raw)) (Unsubscribe, error) {
	m.mu.Lock()
	docs, err := m.matchLocked(q)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	id := m.nextID
	m.nextID++
	sub := &memSub{q: q, fn: onSnapshot}
	m.subs[id] = sub
	m.mu.Unlock()

	sub.deliver(docs)

	return once(func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}), nil
}

// BatchWrite implements Client. Ops are validated first so a bad op leaves
// the store untouched.
func (m *Memory) BatchWrite(ctx context.Context, ops []WriteOp) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	staged := make(map[string]map[primitive.ObjectID]bson.Raw)
	get := func(coll string) map[primitive.ObjectID]bson.Raw {
		if c, ok := staged[coll]; ok {
			return c
		}
		c := make(map[primitive.ObjectID]bson.Raw, len(m.colls[coll]))
		for k, v := range m.colls[coll] {
			c[k] = v
		}
		staged[coll] = c
		return c
	}

	for i, op := range ops {
		if op.Collection == "" || op.ID.IsZero() {
			m.mu.Unlock()
			return fmt.Errorf("op %d: %w", i, ErrBadOp)
		}
		coll := get(op.Collection)
		switch op.Kind {
		case OpInsert:
			if _, exists := coll[op.ID]; exists {
				m.mu.Unlock()
				return fmt.Errorf("op %d: %w", i, ErrDuplicateID)
			}
			raw, err := bson.Marshal(op.Doc)
			if err != nil {
				m.mu.Unlock()
				return fmt.Errorf("op %d: marshal: %w", i, err)
			}
			coll[op.ID] = raw
		case OpUpdate:
			cur, ok := coll[op.ID]
			if !ok {
				m.mu.Unlock()
				return fmt.Errorf("op %d: %w", i, ErrNotFound)
			}
			var doc bson.M
			if err := bson.Unmarshal(cur, &doc); err != nil {
				m.mu.Unlock()
				return fmt.Errorf("op %d: decode: %w", i, err)
			}
			for k, v := range op.Fields {
				doc[k] = v
			}
			raw, err := bson.Marshal(doc)
			if err != nil {
				m.mu.Unlock()
				return fmt.Errorf("op %d: marshal: %w", i, err)
			}
			coll[op.ID] = raw
		case OpDelete:
			delete(coll, op.ID)
		default:
			m.mu.Unlock()
			return fmt.Errorf("op %d: %w", i, ErrBadOp)
		}
	}

	for name, c := range staged {
		m.colls[name] = c
	}

	type pending struct {
		sub  *memSub
		docs []bson.Raw
	}
	var notify []pending
	for _, sub := range m.subs {
		if _, touched := staged[sub.q.Collection]; !touched {
			continue
		}
		docs, err := m.matchLocked(sub.q)
		if err != nil {
			continue
		}
		notify = append(notify, pending{sub: sub, docs: docs})
	}
	m.mu.Unlock()

	for _, p := range notify {
		p.sub.deliver(p.docs)
	}
	return nil
}

func (s *memSub) deliver(docs []bson.Raw) {
	s.mu.Lock()
	if s.last != nil && sameDocs(s.last, docs) {
		s.mu.Unlock()
		return
	}
	s.last = docs
	s.mu.Unlock()
	s.fn(docs)
}

func (m *Memory) matchLocked(q Query) ([]bson.Raw, error) {
	var want bson.RawValue
	if q.Field != "" {
		b, err := bson.Marshal(bson.D{{Key: "v", Value: q.Value}})
		if err != nil {
			return nil, err
		}
		want = bson.Raw(b).Lookup("v")
	}

	docs := make([]bson.Raw, 0)
	for _, raw := range m.colls[q.Collection] {
		if q.Field != "" {
			got, err := raw.LookupErr(q.Field)
			if err != nil || !got.Equal(want) {
				continue
			}
		}
		docs = append(docs, raw)
	}
	sortDocs(docs, q.sortField())
	return docs, nil
}
