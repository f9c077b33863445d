// Package docstore is the document-store client the board views read and
// write through. It offers one-shot queries, live subscriptions that push
// whole result sets, and batched multi-document writes.
package docstore

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names shared by the stores and the realtime layer.
const (
	Workspaces  = "workspaces"
	Boards      = "boards"
	Columns     = "columns"
	Tasks       = "tasks"
	Invitations = "invitations"
	Users       = "users"
)

// OpKind selects what a WriteOp does.
type OpKind int

const (
	OpInsert OpKind = iota
	OpUpdate
	OpDelete
)

// WriteOp is one document write inside a BatchWrite.
// OpInsert uses Doc, OpUpdate applies Fields with $set semantics.
type WriteOp struct {
	Collection string
	ID         primitive.ObjectID
	Kind       OpKind
	Doc        any
	Fields     bson.M
}

// Query selects documents whose Field equals Value. An empty Field matches
// every document in the collection. Results are sorted by Sort (default
// "order") and then by _id.
type Query struct {
	Collection string
	Field      string
	Value      any
	Sort       string
}

// Unsubscribe stops a live subscription. Calling it more than once is safe.
type Unsubscribe func()

// Client is the capability the rest of the app consumes.
type Client interface {
	// QueryByField runs q once and decodes the results into out, which must
	// be a pointer to a slice.
	QueryByField(ctx context.Context, collection, field string, value any, out any) error

	// Subscribe delivers the full result set of q now and again after each
	// change that may affect it.
	Subscribe(ctx context.Context, q Query, onSnapshot func(docs []bson.Raw)) (Unsubscribe, error)

	// BatchWrite applies ops in order.
	BatchWrite(ctx context.Context, ops []WriteOp) error
}

var (
	ErrNotFound    = errors.New("docstore: document not found")
	ErrDuplicateID = errors.New("docstore: duplicate _id")
	ErrBadOp       = errors.New("docstore: invalid write op")
)

// once wraps fn so only the first call runs it.
func once(fn func()) Unsubscribe {
	var o sync.Once
	return func() { o.Do(fn) }
}

func (q Query) sortField() string {
	if q.Sort == "" {
		return "order"
	}
	return q.Sort
}

// DecodeAll unmarshals raw documents into out, a pointer to a slice.
func DecodeAll(docs []bson.Raw, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return errors.New("docstore: out must be a pointer to a slice")
	}
	slice := rv.Elem()
	elemType := slice.Type().Elem()
	result := reflect.MakeSlice(slice.Type(), 0, len(docs))
	for _, d := range docs {
		p := reflect.New(elemType)
		if err := bson.Unmarshal(d, p.Interface()); err != nil {
			return err
		}
		result = reflect.Append(result, p.Elem())
	}
	slice.Set(result)
	return nil
}

// sortDocs orders docs by the numeric field, then by _id.
func sortDocs(docs []bson.Raw, field string) {
	sort.SliceStable(docs, func(i, j int) bool {
		ai, bi := numeric(docs[i], field), numeric(docs[j], field)
		if ai != bi {
			return ai < bi
		}
		return idHex(docs[i]) < idHex(docs[j])
	})
}

func numeric(doc bson.Raw, field string) int64 {
	rv, err := doc.LookupErr(field)
	if err != nil {
		return 0
	}
	switch rv.Type {
	case bsontype.Int32:
		return int64(rv.Int32())
	case bsontype.Int64:
		return rv.Int64()
	case bsontype.Double:
		return int64(rv.Double())
	case bsontype.DateTime:
		return rv.DateTime()
	}
	return 0
}

func idHex(doc bson.Raw) string {
	rv, err := doc.LookupErr("_id")
	if err != nil {
		return ""
	}
	if oid, ok := rv.ObjectIDOK(); ok {
		return oid.Hex()
	}
	return rv.String()
}

// sameDocs reports whether two result sets are byte-identical.
func sameDocs(a, b []bson.Raw) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if string(a[i]) != string(b[i]) {
			return false
		}
	}
	return true
}
