// Package taskstore reads and writes task cards through the document store.
package taskstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/docstore"
	"github.com/dalemusser/taskboard/internal/app/system/normalize"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound   = errors.New("task not found")
	ErrEmptyTitle = errors.New("task title is required")
)

type Store struct {
	dc  docstore.Client
	now func() time.Time
}

func New(dc docstore.Client) *Store {
	return &Store{dc: dc, now: time.Now}
}

// List returns every task of the board, archived ones included.
func (s *Store) List(ctx context.Context, boardID primitive.ObjectID) ([]models.Task, error) {
	var tasks []models.Task
	if err := s.dc.QueryByField(ctx, docstore.Tasks, "board_id", boardID, &tasks); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// GetByID loads a task and checks that it belongs to boardID.
func (s *Store) GetByID(ctx context.Context, boardID, id primitive.ObjectID) (models.Task, error) {
	var tasks []models.Task
	if err := s.dc.QueryByField(ctx, docstore.Tasks, "_id", id, &tasks); err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	if len(tasks) == 0 || tasks[0].BoardID != boardID {
		return models.Task{}, ErrNotFound
	}
	return tasks[0], nil
}

// Build prepares a new task at the bottom of columnID without writing it.
// The caller may show it locally before Insert lands.
func (s *Store) Build(ctx context.Context, boardID, columnID primitive.ObjectID, title, description string) (models.Task, error) {
	title = normalize.Title(title)
	if title == "" {
		return models.Task{}, ErrEmptyTitle
	}
	inColumn, err := s.visibleIn(ctx, boardID, columnID)
	if err != nil {
		return models.Task{}, err
	}
	now := s.now().UTC()
	return models.Task{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: description,
		ColumnID:    columnID,
		BoardID:     boardID,
		Order:       len(inColumn) + 1,
		CreatedAt:   &now,
		UpdatedAt:   now,
	}, nil
}

// Insert writes a task prepared by Build.
func (s *Store) Insert(ctx context.Context, t models.Task) error {
	op := docstore.WriteOp{Collection: docstore.Tasks, ID: t.ID, Kind: docstore.OpInsert, Doc: t}
	if err := s.dc.BatchWrite(ctx, []docstore.WriteOp{op}); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Create is Build followed by Insert.
func (s *Store) Create(ctx context.Context, boardID, columnID primitive.ObjectID, title, description string) (models.Task, error) {
	t, err := s.Build(ctx, boardID, columnID, title, description)
	if err != nil {
		return models.Task{}, err
	}
	if err := s.Insert(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// Edit replaces a task's title and description.
func (s *Store) Edit(ctx context.Context, boardID, id primitive.ObjectID, title, description string) error {
	title = normalize.Title(title)
	if title == "" {
		return ErrEmptyTitle
	}
	if _, err := s.GetByID(ctx, boardID, id); err != nil {
		return err
	}
	return s.update(ctx, "edit task", id, bson.M{
		"title":       title,
		"description": description,
		"updated_at":  s.now().UTC(),
	})
}

// Archive hides a task and closes the gap in its column.
func (s *Store) Archive(ctx context.Context, boardID, id primitive.ObjectID) error {
	t, err := s.GetByID(ctx, boardID, id)
	if err != nil {
		return err
	}
	rest, err := s.visibleIn(ctx, boardID, t.ColumnID)
	if err != nil {
		return err
	}
	ops := []docstore.WriteOp{{
		Collection: docstore.Tasks, ID: id, Kind: docstore.OpUpdate,
		Fields: bson.M{"archived": true, "updated_at": s.now().UTC()},
	}}
	ops = append(ops, renumber(without(rest, id))...)
	if err := s.dc.BatchWrite(ctx, ops); err != nil {
		return fmt.Errorf("archive task: %w", err)
	}
	return nil
}

// Delete removes a task permanently.
func (s *Store) Delete(ctx context.Context, boardID, id primitive.ObjectID) error {
	t, err := s.GetByID(ctx, boardID, id)
	if err != nil {
		return err
	}
	rest, err := s.visibleIn(ctx, boardID, t.ColumnID)
	if err != nil {
		return err
	}
	ops := []docstore.WriteOp{{Collection: docstore.Tasks, ID: id, Kind: docstore.OpDelete}}
	ops = append(ops, renumber(without(rest, id))...)
	if err := s.dc.BatchWrite(ctx, ops); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// Move places a task at 1-based position in toColumn and renumbers the
// source and destination columns in one batch.
func (s *Store) Move(ctx context.Context, boardID, id, toColumn primitive.ObjectID, position int) error {
	t, err := s.GetByID(ctx, boardID, id)
	if err != nil {
		return err
	}
	if t.Archived {
		return ErrNotFound
	}

	dest, err := s.visibleIn(ctx, boardID, toColumn)
	if err != nil {
		return err
	}
	dest = without(dest, id)
	if position < 1 {
		position = 1
	}
	if position > len(dest)+1 {
		position = len(dest) + 1
	}
	moved := t
	moved.ColumnID = toColumn
	dest = append(dest[:position-1], append([]models.Task{moved}, dest[position-1:]...)...)

	var ops []docstore.WriteOp
	if t.ColumnID != toColumn {
		src, err := s.visibleIn(ctx, boardID, t.ColumnID)
		if err != nil {
			return err
		}
		ops = append(ops, renumber(without(src, id))...)
	}
	for i, d := range dest {
		if d.ID == id {
			ops = append(ops, docstore.WriteOp{
				Collection: docstore.Tasks, ID: id, Kind: docstore.OpUpdate,
				Fields: bson.M{"column_id": toColumn, "order": i + 1, "updated_at": s.now().UTC()},
			})
			continue
		}
		if d.Order != i+1 {
			ops = append(ops, docstore.WriteOp{
				Collection: docstore.Tasks, ID: d.ID, Kind: docstore.OpUpdate,
				Fields: bson.M{"order": i + 1},
			})
		}
	}
	if err := s.dc.BatchWrite(ctx, ops); err != nil {
		return fmt.Errorf("move task: %w", err)
	}
	return nil
}

func (s *Store) update(ctx context.Context, what string, id primitive.ObjectID, set bson.M) error {
	op := docstore.WriteOp{Collection: docstore.Tasks, ID: id, Kind: docstore.OpUpdate, Fields: set}
	if err := s.dc.BatchWrite(ctx, []docstore.WriteOp{op}); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// visibleIn returns the non-archived tasks of one column sorted by order.
func (s *Store) visibleIn(ctx context.Context, boardID, columnID primitive.ObjectID) ([]models.Task, error) {
	var inColumn []models.Task
	if err := s.dc.QueryByField(ctx, docstore.Tasks, "column_id", columnID, &inColumn); err != nil {
		return nil, fmt.Errorf("list column tasks: %w", err)
	}
	out := inColumn[:0]
	for _, t := range inColumn {
		if t.BoardID == boardID && !t.Archived {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func without(tasks []models.Task, id primitive.ObjectID) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func renumber(tasks []models.Task) []docstore.WriteOp {
	var ops []docstore.WriteOp
	for i, t := range tasks {
		if t.Order != i+1 {
			ops = append(ops, docstore.WriteOp{
				Collection: docstore.Tasks, ID: t.ID, Kind: docstore.OpUpdate,
				Fields: bson.M{"order": i + 1},
			})
		}
	}
	return ops
}
