// Package boardreport builds the task report of a workspace or a single
// board and writes it as JSON or CSV.
package boardreport

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	columnstore "github.com/dalemusser/taskboard/internal/app/store/columns"
	taskstore "github.com/dalemusser/taskboard/internal/app/store/tasks"
	"github.com/dalemusser/taskboard/internal/app/system/docstore"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// DateLayout is the layout of start and end dates.
const DateLayout = "2006-01-02"

var (
	ErrBadFormat       = errors.New("format must be json or csv")
	ErrBadDate         = errors.New("dates must be YYYY-MM-DD")
	ErrBadRange        = errors.New("start date is after end date")
	ErrBoardNotInScope = errors.New("board is not in the workspace")
)

// Boards lists and loads boards.
type Boards interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Board, error)
	ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Board, error)
}

// Query selects what a report covers. A zero BoardID covers every board in
// the workspace. Start and End bound task creation dates, inclusive; tasks
// without a creation date are left out when either is set.
type Query struct {
	Workspace       models.Workspace
	BoardID         primitive.ObjectID
	Start           *time.Time
	End             *time.Time
	IncludeArchived bool
}

// ParseDates parses optional start and end dates. End covers its whole day.
func ParseDates(start, end string) (*time.Time, *time.Time, error) {
	var s, e *time.Time
	if start = strings.TrimSpace(start); start != "" {
		t, err := time.Parse(DateLayout, start)
		if err != nil {
			return nil, nil, ErrBadDate
		}
		s = &t
	}
	if end = strings.TrimSpace(end); end != "" {
		t, err := time.Parse(DateLayout, end)
		if err != nil {
			return nil, nil, ErrBadDate
		}
		t = t.Add(24*time.Hour - time.Nanosecond)
		e = &t
	}
	if s != nil && e != nil && s.After(*e) {
		return nil, nil, ErrBadRange
	}
	return s, e, nil
}

// NormalizeFormat lower-cases f and defaults it to JSON.
func NormalizeFormat(f string) (string, error) {
	switch f = strings.ToLower(strings.TrimSpace(f)); f {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", ErrBadFormat
}

// Report is the built report.
type Report struct {
	WorkspaceID   string         `json:"workspaceId"`
	WorkspaceName string         `json:"workspaceName"`
	GeneratedAt   time.Time      `json:"generatedAt"`
	Boards        []BoardSummary `json:"boards"`
	Tasks         []TaskRow      `json:"tasks"`
}

// BoardSummary counts the tasks of one board per column.
type BoardSummary struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	TaskCount int             `json:"taskCount"`
	Columns   []ColumnSummary `json:"columns"`
}

// ColumnSummary counts the reported tasks of one column.
type ColumnSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Order     int    `json:"order"`
	Archived  bool   `json:"archived,omitempty"`
	TaskCount int    `json:"taskCount"`
}

// TaskRow is one reported task.
type TaskRow struct {
	BoardID     string     `json:"boardId"`
	BoardName   string     `json:"boardName"`
	ColumnID    string     `json:"columnId"`
	ColumnName  string     `json:"columnName"`
	TaskID      string     `json:"taskId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Order       int        `json:"order"`
	Archived    bool       `json:"archived,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Builder reads boards from a board store and columns and tasks from the
// document store.
type Builder struct {
	boards  Boards
	columns *columnstore.Store
	tasks   *taskstore.Store
	now     func() time.Time
}

// NewBuilder returns a Builder over boards and dc.
func NewBuilder(boards Boards, dc docstore.Client) *Builder {
	return &Builder{
		boards:  boards,
		columns: columnstore.New(dc),
		tasks:   taskstore.New(dc),
		now:     time.Now,
	}
}

// Build assembles the report for q.
func (b *Builder) Build(ctx context.Context, q Query) (Report, error) {
	boards, err := b.boardsFor(ctx, q)
	if err != nil {
		return Report{}, err
	}

	rep := Report{
		WorkspaceID:   q.Workspace.ID.Hex(),
		WorkspaceName: q.Workspace.Name,
		GeneratedAt:   b.now().UTC(),
		Boards:        make([]BoardSummary, 0, len(boards)),
		Tasks:         []TaskRow{},
	}
	for _, board := range boards {
		summary, rows, err := b.buildBoard(ctx, board, q)
		if err != nil {
			return Report{}, err
		}
		rep.Boards = append(rep.Boards, summary)
		rep.Tasks = append(rep.Tasks, rows...)
	}
	return rep, nil
}

func (b *Builder) boardsFor(ctx context.Context, q Query) ([]models.Board, error) {
	if q.BoardID.IsZero() {
		boards, err := b.boards.ListByWorkspace(ctx, q.Workspace.ID)
		if err != nil {
			return nil, fmt.Errorf("list boards: %w", err)
		}
		return boards, nil
	}
	board, err := b.boards.GetByID(ctx, q.BoardID)
	if err != nil {
		return nil, fmt.Errorf("load board: %w", err)
	}
	if board.WorkspaceID != q.Workspace.ID {
		return nil, ErrBoardNotInScope
	}
	return []models.Board{board}, nil
}

func (b *Builder) buildBoard(ctx context.Context, board models.Board, q Query) (BoardSummary, []TaskRow, error) {
	cols, err := b.columns.List(ctx, board.ID)
	if err != nil {
		return BoardSummary{}, nil, fmt.Errorf("list columns of %s: %w", board.ID.Hex(), err)
	}
	tasks, err := b.tasks.List(ctx, board.ID)
	if err != nil {
		return BoardSummary{}, nil, fmt.Errorf("list tasks of %s: %w", board.ID.Hex(), err)
	}

	// Visible columns first in board order, then archived ones.
	sort.SliceStable(cols, func(i, j int) bool {
		if cols[i].Archived != cols[j].Archived {
			return !cols[i].Archived
		}
		return cols[i].Order < cols[j].Order
	})

	summary := BoardSummary{ID: board.ID.Hex(), Name: board.Name, Columns: []ColumnSummary{}}
	colIndex := make(map[primitive.ObjectID]int, len(cols))
	for _, c := range cols {
		if c.Archived && !q.IncludeArchived {
			continue
		}
		colIndex[c.ID] = len(summary.Columns)
		summary.Columns = append(summary.Columns, ColumnSummary{
			ID: c.ID.Hex(), Name: c.Name, Order: c.Order, Archived: c.Archived,
		})
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		ci, cj := colIndex[tasks[i].ColumnID], colIndex[tasks[j].ColumnID]
		if ci != cj {
			return ci < cj
		}
		return tasks[i].Order < tasks[j].Order
	})

	var rows []TaskRow
	for _, t := range tasks {
		idx, ok := colIndex[t.ColumnID]
		if !ok || (t.Archived && !q.IncludeArchived) || !inRange(t, q) {
			continue
		}
		col := summary.Columns[idx]
		summary.Columns[idx].TaskCount++
		summary.TaskCount++
		rows = append(rows, TaskRow{
			BoardID:     board.ID.Hex(),
			BoardName:   board.Name,
			ColumnID:    col.ID,
			ColumnName:  col.Name,
			TaskID:      t.ID.Hex(),
			Title:       t.Title,
			Description: t.Description,
			Order:       t.Order,
			Archived:    t.Archived,
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
		})
	}
	return summary, rows, nil
}

func inRange(t models.Task, q Query) bool {
	if q.Start == nil && q.End == nil {
		return true
	}
	if t.CreatedAt == nil {
		return false
	}
	if q.Start != nil && t.CreatedAt.Before(*q.Start) {
		return false
	}
	if q.End != nil && t.CreatedAt.After(*q.End) {
		return false
	}
	return true
}

// CSVHeader is the first record of a CSV report.
var CSVHeader = []string{
	"Board", "Column", "Order", "Task ID", "Title", "Description", "Archived", "Created At", "Updated At",
}

// WriteCSV writes one record per task.
func WriteCSV(w io.Writer, rep Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range rep.Tasks {
		created := ""
		if r.CreatedAt != nil {
			created = r.CreatedAt.UTC().Format(time.RFC3339)
		}
		rec := []string{
			r.BoardName,
			r.ColumnName,
			strconv.Itoa(r.Order),
			r.TaskID,
			r.Title,
			r.Description,
			strconv.FormatBool(r.Archived),
			created,
			r.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes rep as one JSON document.
func WriteJSON(w io.Writer, rep Report) error {
	data, err := sonic.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Write writes rep in format.
func Write(w io.Writer, format string, rep Report) error {
	if format == FormatCSV {
		return WriteCSV(w, rep)
	}
	return WriteJSON(w, rep)
}

// Filename returns a download name for a report generated at t.
func Filename(format string, t time.Time) string {
	return "board_report_" + t.UTC().Format("20060102_150405") + "." + format
}
