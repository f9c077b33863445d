// Package reconcile turns live snapshots of a board into the smallest
// view update that shows them.
//
// One Reconciler serves one board view. It owns the view's boardstate
// Cache and drives a boarddom Patcher. Snapshots, local edits and cooldown
// timers may arrive on different goroutines; the Reconciler serialises
// them.
package reconcile

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/boarddiff"
	"github.com/dalemusser/taskboard/internal/app/system/boarddom"
	"github.com/dalemusser/taskboard/internal/app/system/boardstate"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultCooldown is how long a view ignores snapshots after applying one.
const DefaultCooldown = 300 * time.Millisecond

// State is the reconciler's lifecycle state.
type State int

const (
	Uninitialized State = iota
	Steady
	ApplyingRemote
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Steady:
		return "steady"
	case ApplyingRemote:
		return "applying_remote"
	}
	return "unknown"
}

// Kind is what the reconciler did with a snapshot.
type Kind int

const (
	NoOp Kind = iota
	FullRender
	AppendColumns
	PatchColumns
	PatchTasks
	// Held means the snapshot arrived during a cooldown and was kept for
	// when it ends.
	Held
)

func (k Kind) String() string {
	switch k {
	case NoOp:
		return "noop"
	case FullRender:
		return "full_render"
	case AppendColumns:
		return "append_columns"
	case PatchColumns:
		return "patch_columns"
	case PatchTasks:
		return "patch_tasks"
	case Held:
		return "held"
	}
	return "unknown"
}

// Snapshot is the columns and tasks of one board at one moment.
type Snapshot struct {
	Columns []models.Column
	Tasks   []models.Task
}

// Decision reports how a snapshot was applied.
type Decision struct {
	Kind     Kind
	Appended int
}

// Options tune a Reconciler. Zero values take defaults; a negative
// Cooldown disables the cooldown.
type Options struct {
	Cooldown  time.Duration
	Window    time.Duration
	Now       func() time.Time
	AfterFunc func(d time.Duration, f func()) (stop func() bool)
	Logger    *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Cooldown == 0 {
		o.Cooldown = DefaultCooldown
	}
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.AfterFunc == nil {
		o.AfterFunc = func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Reconciler applies snapshots for one board view.
type Reconciler struct {
	mu      sync.Mutex
	cache   *boardstate.Cache
	patcher *boarddom.Patcher
	opts    Options
	tracer  trace.Tracer

	state     State
	pending   *Snapshot
	stopTimer func() bool
	closed    bool

	// unconfirmed holds ids added by AddLocalTask that no snapshot has
	// contained yet.
	unconfirmed map[primitive.ObjectID]bool
}

// New returns a reconciler that keeps cache and patcher in step with the
// snapshots it is given.
func New(cache *boardstate.Cache, patcher *boarddom.Patcher, opts Options) *Reconciler {
	return &Reconciler{
		cache:       cache,
		patcher:     patcher,
		opts:        opts.withDefaults(),
		tracer:      otel.Tracer("github.com/dalemusser/taskboard/reconcile"),
		unconfirmed: make(map[primitive.ObjectID]bool),
	}
}

// State returns the current lifecycle state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Apply reconciles snap against the cached state and patches the view.
func (r *Reconciler) Apply(ctx context.Context, snap Snapshot) Decision {
	_, span := r.tracer.Start(ctx, "reconcile.Apply", trace.WithAttributes(
		attribute.Int("columns", len(snap.Columns)),
		attribute.Int("tasks", len(snap.Tasks)),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Decision{Kind: NoOp}
	}
	if r.state == ApplyingRemote {
		s := snap
		r.pending = &s
		heldTotal.Inc()
		span.SetAttributes(attribute.String("decision", Held.String()))
		return Decision{Kind: Held}
	}

	d := r.reconcileLocked(snap)
	span.SetAttributes(attribute.String("decision", d.Kind.String()))
	return d
}

func (r *Reconciler) reconcileLocked(snap Snapshot) Decision {
	timer := prometheus.NewTimer(applyDuration)
	defer timer.ObserveDuration()

	newCols := visibleColumns(snap.Columns)

	if !r.cache.IsInitialized() {
		tasks := visibleTasks(snap.Tasks, newCols)
		r.cache.UpdateColumns(newCols)
		r.cache.UpdateTasks(tasks)
		r.patcher.FullRender(newCols, tasks, false)
		r.cache.MarkInitialized()
		r.cache.SetScroll(r.patcher.Document().Scroll().Left)
		r.state = Steady
		return r.record(Decision{Kind: FullRender})
	}

	oldCols := r.cache.CurrentColumns()
	oldTasks := r.cache.CurrentTasks()
	merged := MergeTasks(oldTasks, snap.Tasks, r.unconfirmed, r.opts.Now(), r.opts.Window)
	confirm(r.unconfirmed, snap.Tasks, merged)
	newTasks := visibleTasks(merged, newCols)

	colsChanged := boarddiff.ColumnsChanged(oldCols, newCols)
	tasksChanged := boarddiff.TasksChanged(oldTasks, newTasks) ||
		boarddiff.TaskPlacementChanged(oldTasks, newTasks)

	if !colsChanged && !tasksChanged {
		return r.record(Decision{Kind: NoOp})
	}

	var d Decision
	switch {
	case !colsChanged:
		d.Kind = PatchTasks
		r.patcher.PatchTasks(newCols, newTasks, boarddiff.ChangedTaskColumns(oldTasks, newTasks))

	case len(newCols) > len(oldCols) && !boarddiff.RequiresReordering(newCols) &&
		boarddiff.IsPrefix(oldCols, newCols):
		d.Kind = AppendColumns
		d.Appended = r.patcher.AppendColumns(newCols, newTasks, false)
		if tasksChanged {
			r.patcher.PatchTasks(oldCols, newTasks, boarddiff.ChangedTaskColumns(oldTasks, newTasks))
		}

	case len(newCols) < len(oldCols) || boarddiff.RequiresReordering(newCols) ||
		!boarddiff.SameColumnIdentity(oldCols, newCols):
		d.Kind = FullRender
		r.patcher.FullRender(newCols, newTasks, false)

	default:
		d.Kind = PatchColumns
		r.patcher.PatchColumns(newCols, newTasks)
		if tasksChanged {
			r.patcher.PatchTasks(newCols, newTasks, boarddiff.ChangedTaskColumns(oldTasks, newTasks))
		}
	}

	r.cache.UpdateColumns(newCols)
	r.cache.UpdateTasks(newTasks)
	r.cache.SetScroll(r.patcher.Document().Scroll().Left)
	r.enterCooldownLocked()
	return r.record(d)
}

func (r *Reconciler) record(d Decision) Decision {
	decisionsTotal.WithLabelValues(d.Kind.String()).Inc()
	r.opts.Logger.Debug("snapshot reconciled",
		zap.String("decision", d.Kind.String()),
		zap.Int("appended", d.Appended))
	return d
}

func (r *Reconciler) enterCooldownLocked() {
	if r.opts.Cooldown < 0 {
		return
	}
	r.state = ApplyingRemote
	r.cache.SetApplyingRemote(true)
	r.stopTimer = r.opts.AfterFunc(r.opts.Cooldown, r.endCooldown)
}

// endCooldown returns the view to Steady and reconciles the latest
// snapshot held during the cooldown, if any.
func (r *Reconciler) endCooldown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.state != ApplyingRemote {
		return
	}
	r.state = Steady
	r.cache.SetApplyingRemote(false)
	r.stopTimer = nil
	if r.pending != nil {
		snap := *r.pending
		r.pending = nil
		r.reconcileLocked(snap)
	}
}

// AddLocalTask shows a task created on this view before the store
// confirms it. A task without a creation time is stamped with now so the
// optimistic window applies.
func (r *Reconciler) AddLocalTask(t models.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if t.CreatedAt == nil {
		now := r.opts.Now()
		t.CreatedAt = &now
	}
	tasks := r.cache.CurrentTasks()
	replaced := false
	for i := range tasks {
		if tasks[i].ID == t.ID {
			tasks[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		tasks = append(tasks, t)
		r.unconfirmed[t.ID] = true
	}
	cols := r.cache.CurrentColumns()
	tasks = visibleTasks(tasks, cols)
	r.cache.UpdateTasks(tasks)
	r.patcher.PatchTasks(cols, tasks, map[primitive.ObjectID]bool{t.ColumnID: true})
}

// DropLocalTask withdraws a task shown by AddLocalTask that the store
// never accepted. Tasks a snapshot has already confirmed are left alone.
func (r *Reconciler) DropLocalTask(id primitive.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || !r.unconfirmed[id] {
		return
	}
	delete(r.unconfirmed, id)

	tasks := r.cache.CurrentTasks()
	kept := make([]models.Task, 0, len(tasks))
	var column primitive.ObjectID
	for _, t := range tasks {
		if t.ID == id {
			column = t.ColumnID
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) == len(tasks) {
		return
	}
	cols := r.cache.CurrentColumns()
	r.cache.UpdateTasks(kept)
	r.patcher.PatchTasks(cols, kept, map[primitive.ObjectID]bool{column: true})
}

// AddLocalColumn shows a column created on this view. With scrollToNew the
// strip scrolls to its end, also when a snapshot has already shown the
// column.
func (r *Reconciler) AddLocalColumn(c models.Column, scrollToNew bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || c.Archived {
		return
	}
	cols := r.cache.CurrentColumns()
	for _, existing := range cols {
		if existing.ID == c.ID {
			if scrollToNew {
				r.patcher.ScrollToEnd()
				r.cache.SetScroll(r.patcher.Document().Scroll().Left)
			}
			return
		}
	}
	cols = append(cols, c)
	tasks := r.cache.CurrentTasks()
	r.cache.UpdateColumns(cols)
	r.patcher.AppendColumns(cols, tasks, scrollToNew)
	r.cache.SetScroll(r.patcher.Document().Scroll().Left)
}

// SetBoard records the board the view shows.
func (r *Reconciler) SetBoard(b models.Board) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.UpdateBoard(b)
}

// SetScroll records the scroll offset reported by the browser.
func (r *Reconciler) SetScroll(left int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc := r.patcher.Document()
	doc.SetScroll(left)
	r.cache.SetScroll(doc.Scroll().Left)
}

// Scroll returns the recorded scroll offset of the column strip.
func (r *Reconciler) Scroll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Scroll()
}

// Columns returns the columns the view shows.
func (r *Reconciler) Columns() []models.Column {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.CurrentColumns()
}

// Tasks returns the tasks the view shows.
func (r *Reconciler) Tasks() []models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.CurrentTasks()
}

// Render writes the view's current tree.
func (r *Reconciler) Render(w io.Writer) error {
	return r.RenderAttached(w, nil)
}

// RenderAttached writes the view's current HTML and then runs attach while
// no patch can be emitted, so a stream opened by attach starts exactly
// where the written HTML ends.
func (r *Reconciler) RenderAttached(w io.Writer, attach func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.patcher.Document().Render(w); err != nil {
		return err
	}
	if attach != nil {
		attach()
	}
	return nil
}

// Close stops the cooldown timer and detaches the view. Later calls do
// nothing.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.pending = nil
	if r.stopTimer != nil {
		r.stopTimer()
		r.stopTimer = nil
	}
	r.patcher.Document().Detach()
}

// visibleColumns drops archived columns.
func visibleColumns(cols []models.Column) []models.Column {
	out := make([]models.Column, 0, len(cols))
	for _, c := range cols {
		if !c.Archived {
			out = append(out, c)
		}
	}
	return out
}

// visibleTasks drops archived tasks and tasks whose column is not shown.
func visibleTasks(tasks []models.Task, cols []models.Column) []models.Task {
	known := make(map[primitive.ObjectID]bool, len(cols))
	for _, c := range cols {
		known[c.ID] = true
	}
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Archived || !known[t.ColumnID] {
			continue
		}
		out = append(out, t)
	}
	return out
}
