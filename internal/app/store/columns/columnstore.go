// Package columnstore reads and writes board columns through the document
// store so that every write reaches live board views.
package columnstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/docstore"
	"github.com/dalemusser/taskboard/internal/app/system/normalize"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound      = errors.New("column not found")
	ErrEmptyName     = errors.New("column name is required")
	ErrDuplicateName = errors.New("a column with this name already exists on the board")
	ErrBadOrder      = errors.New("reorder must list every visible column exactly once")
)

type Store struct {
	dc  docstore.Client
	now func() time.Time
}

func New(dc docstore.Client) *Store {
	return &Store{dc: dc, now: time.Now}
}

// List returns every column of the board, archived ones included, sorted by order.
func (s *Store) List(ctx context.Context, boardID primitive.ObjectID) ([]models.Column, error) {
	var cols []models.Column
	if err := s.dc.QueryByField(ctx, docstore.Columns, "board_id", boardID, &cols); err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	return cols, nil
}

// Visible returns the non-archived columns of the board in order.
func (s *Store) Visible(ctx context.Context, boardID primitive.ObjectID) ([]models.Column, error) {
	all, err := s.List(ctx, boardID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Column, 0, len(all))
	for _, c := range all {
		if !c.Archived {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetByID loads a column and checks that it belongs to boardID.
func (s *Store) GetByID(ctx context.Context, boardID, id primitive.ObjectID) (models.Column, error) {
	var cols []models.Column
	if err := s.dc.QueryByField(ctx, docstore.Columns, "_id", id, &cols); err != nil {
		return models.Column{}, fmt.Errorf("get column: %w", err)
	}
	if len(cols) == 0 || cols[0].BoardID != boardID {
		return models.Column{}, ErrNotFound
	}
	return cols[0], nil
}

// Create appends a column after the board's last visible column.
func (s *Store) Create(ctx context.Context, boardID primitive.ObjectID, name string) (models.Column, error) {
	name = normalize.Title(name)
	if name == "" {
		return models.Column{}, ErrEmptyName
	}
	visible, err := s.Visible(ctx, boardID)
	if err != nil {
		return models.Column{}, err
	}
	if nameTaken(visible, name, primitive.NilObjectID) {
		return models.Column{}, ErrDuplicateName
	}

	c := s.newColumn(boardID, name, len(visible)+1)
	if err := s.dc.BatchWrite(ctx, []docstore.WriteOp{insertOp(c)}); err != nil {
		return models.Column{}, fmt.Errorf("create column: %w", err)
	}
	return c, nil
}

// CreateDefaults writes models.DefaultColumnNames for a new board in one batch.
func (s *Store) CreateDefaults(ctx context.Context, boardID primitive.ObjectID) ([]models.Column, error) {
	cols := make([]models.Column, 0, len(models.DefaultColumnNames))
	ops := make([]docstore.WriteOp, 0, len(models.DefaultColumnNames))
	for i, name := range models.DefaultColumnNames {
		c := s.newColumn(boardID, name, i+1)
		cols = append(cols, c)
		ops = append(ops, insertOp(c))
	}
	if err := s.dc.BatchWrite(ctx, ops); err != nil {
		return nil, fmt.Errorf("create default columns: %w", err)
	}
	return cols, nil
}

// Rename changes a visible column's name.
func (s *Store) Rename(ctx context.Context, boardID, id primitive.ObjectID, name string) error {
	name = normalize.Title(name)
	if name == "" {
		return ErrEmptyName
	}
	visible, err := s.Visible(ctx, boardID)
	if err != nil {
		return err
	}
	if indexOf(visible, id) < 0 {
		return ErrNotFound
	}
	if nameTaken(visible, name, id) {
		return ErrDuplicateName
	}
	op := docstore.WriteOp{Collection: docstore.Columns, ID: id, Kind: docstore.OpUpdate, Fields: bson.M{"name": name}}
	if err := s.dc.BatchWrite(ctx, []docstore.WriteOp{op}); err != nil {
		return fmt.Errorf("rename column: %w", err)
	}
	return nil
}

// Archive hides a column and closes the gap it leaves in the order.
func (s *Store) Archive(ctx context.Context, boardID, id primitive.ObjectID) error {
	visible, err := s.Visible(ctx, boardID)
	if err != nil {
		return err
	}
	at := indexOf(visible, id)
	if at < 0 {
		return ErrNotFound
	}

	ops := []docstore.WriteOp{{
		Collection: docstore.Columns, ID: id, Kind: docstore.OpUpdate,
		Fields: bson.M{"archived": true},
	}}
	rest := append(append([]models.Column{}, visible[:at]...), visible[at+1:]...)
	ops = append(ops, renumber(rest)...)
	if err := s.dc.BatchWrite(ctx, ops); err != nil {
		return fmt.Errorf("archive column: %w", err)
	}
	return nil
}

// Reorder sets the left-to-right order of the visible columns to ids.
// Only columns whose position changes are written.
func (s *Store) Reorder(ctx context.Context, boardID primitive.ObjectID, ids []primitive.ObjectID) error {
	visible, err := s.Visible(ctx, boardID)
	if err != nil {
		return err
	}
	if len(ids) != len(visible) {
		return ErrBadOrder
	}
	byID := make(map[primitive.ObjectID]models.Column, len(visible))
	for _, c := range visible {
		byID[c.ID] = c
	}
	ordered := make([]models.Column, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return ErrBadOrder
		}
		delete(byID, id)
		ordered = append(ordered, c)
	}

	ops := renumber(ordered)
	if len(ops) == 0 {
		return nil
	}
	if err := s.dc.BatchWrite(ctx, ops); err != nil {
		return fmt.Errorf("reorder columns: %w", err)
	}
	return nil
}

func (s *Store) newColumn(boardID primitive.ObjectID, name string, order int) models.Column {
	return models.Column{
		ID:        primitive.NewObjectID(),
		Name:      name,
		BoardID:   boardID,
		Order:     order,
		CreatedAt: s.now().UTC(),
	}
}

func insertOp(c models.Column) docstore.WriteOp {
	return docstore.WriteOp{Collection: docstore.Columns, ID: c.ID, Kind: docstore.OpInsert, Doc: c}
}

// renumber returns updates that make cols dense 1..n, skipping columns already in place.
func renumber(cols []models.Column) []docstore.WriteOp {
	var ops []docstore.WriteOp
	for i, c := range cols {
		if c.Order == i+1 {
			continue
		}
		ops = append(ops, docstore.WriteOp{
			Collection: docstore.Columns, ID: c.ID, Kind: docstore.OpUpdate,
			Fields: bson.M{"order": i + 1},
		})
	}
	return ops
}

func nameTaken(cols []models.Column, name string, except primitive.ObjectID) bool {
	folded := text.Fold(name)
	for _, c := range cols {
		if c.ID != except && text.Fold(c.Name) == folded {
			return true
		}
	}
	return false
}

func indexOf(cols []models.Column, id primitive.ObjectID) int {
	for i, c := range cols {
		if c.ID == id {
			return i
		}
	}
	return -1
}
