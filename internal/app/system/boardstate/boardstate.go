// Package boardstate holds the per-view copy of the board a tab is showing.
//
// A Cache is created when a board view mounts and dropped when it
// unmounts. It does no diffing of its own and no locking: the reconciler
// that owns it serialises access.
package boardstate

import (
	"github.com/dalemusser/taskboard/internal/domain/models"
)

// Cache is the local state of one board view.
type Cache struct {
	board          models.Board
	columns        []models.Column
	tasks          []models.Task
	initialized    bool
	applyingRemote bool
	lastScroll     int
}

// New returns an empty, uninitialized cache.
func New() *Cache {
	return &Cache{}
}

// UpdateBoard replaces the cached board.
func (c *Cache) UpdateBoard(b models.Board) {
	c.board = b
}

// Board returns the cached board.
func (c *Cache) Board() models.Board {
	return c.board
}

// UpdateColumns replaces the cached columns with a copy of cols.
func (c *Cache) UpdateColumns(cols []models.Column) {
	c.columns = append([]models.Column(nil), cols...)
}

// UpdateTasks replaces the cached tasks with a copy of tasks.
func (c *Cache) UpdateTasks(tasks []models.Task) {
	c.tasks = append([]models.Task(nil), tasks...)
}

// CurrentColumns returns a copy of the cached columns.
func (c *Cache) CurrentColumns() []models.Column {
	return append([]models.Column{}, c.columns...)
}

// CurrentTasks returns a copy of the cached tasks.
func (c *Cache) CurrentTasks() []models.Task {
	return append([]models.Task{}, c.tasks...)
}

// IsInitialized reports whether the first snapshot has been rendered.
func (c *Cache) IsInitialized() bool { return c.initialized }

// MarkInitialized records that the first snapshot has been rendered.
func (c *Cache) MarkInitialized() { c.initialized = true }

// IsApplyingRemote reports whether a remote update is being applied.
func (c *Cache) IsApplyingRemote() bool { return c.applyingRemote }

// SetApplyingRemote marks the start or end of applying a remote update.
func (c *Cache) SetApplyingRemote(on bool) { c.applyingRemote = on }

// SetScroll records the last horizontal scroll offset the user produced.
func (c *Cache) SetScroll(left int) { c.lastScroll = left }

// Scroll returns the last recorded scroll offset.
func (c *Cache) Scroll() int { return c.lastScroll }
