package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/boardactions"
	"github.com/dalemusser/taskboard/internal/app/system/boarddom"
	"github.com/dalemusser/taskboard/internal/app/system/boardstate"
	"github.com/dalemusser/taskboard/internal/app/system/docstore"
	"github.com/dalemusser/taskboard/internal/app/system/reconcile"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var viewsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "taskboard_realtime_views",
	Help: "Board views with a live subscription",
})

// Config tunes the views a Manager mounts.
type Config struct {
	Cooldown    time.Duration
	Window      time.Duration
	ClientWidth int
	Layout      boarddom.Layout
}

// View is one mounted board view: a tab showing one board.
type View struct {
	ID         string
	BoardID    primitive.ObjectID
	Reconciler *reconcile.Reconciler
	Menu       *boardactions.Menu

	unsubscribe docstore.Unsubscribe
	lastSeen    time.Time
	tab         string
}

// Manager keeps at most one live subscription per view.
type Manager struct {
	store docstore.Client
	cfg   Config
	log   *zap.Logger
	now   func() time.Time

	mu    sync.Mutex
	views map[string]*View
	// tabs maps a browser tab key to the view it shows.
	tabs map[string]string
}

// NewManager returns a manager mounting views over store.
func NewManager(store docstore.Client, cfg Config, logger *zap.Logger) *Manager {
	if cfg.Layout == (boarddom.Layout{}) {
		cfg.Layout = boarddom.DefaultLayout
	}
	return &Manager{
		store: store,
		cfg:   cfg,
		log:   logger,
		now:   time.Now,
		views: make(map[string]*View),
		tabs:  make(map[string]string),
	}
}

// Mount starts showing board in view viewID, sending patches to sink. If
// the view is already showing that board its subscription is reused;
// if it shows another board that subscription is released first.
//
// The subscription outlives ctx; it ends with Unmount.
func (m *Manager) Mount(ctx context.Context, viewID string, board models.Board, sink boarddom.Sink) (*View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.views[viewID]; ok {
		if v.BoardID == board.ID {
			v.lastSeen = m.now()
			return v, nil
		}
		m.forgetLocked(v)
		v.release()
	}

	doc := boarddom.NewDocument(m.cfg.Layout, m.cfg.ClientWidth)
	rec := reconcile.New(boardstate.New(), boarddom.NewPatcher(doc, sink), reconcile.Options{
		Cooldown: m.cfg.Cooldown,
		Window:   m.cfg.Window,
		Logger:   m.log.With(zap.String("view", viewID)),
	})
	rec.SetBoard(board)

	subCtx := context.WithoutCancel(ctx)
	unsub, err := Watch(subCtx, m.store, board.ID, func(s reconcile.Snapshot) {
		rec.Apply(subCtx, s)
	}, m.log)
	if err != nil {
		rec.Close()
		return nil, err
	}

	v := &View{
		ID:          viewID,
		BoardID:     board.ID,
		Reconciler:  rec,
		Menu:        &boardactions.Menu{},
		unsubscribe: unsub,
		lastSeen:    m.now(),
	}
	m.views[viewID] = v
	viewsGauge.Set(float64(len(m.views)))
	m.log.Debug("board view mounted",
		zap.String("view", viewID), zap.String("board", board.ID.Hex()))
	return v, nil
}

// Unmount releases the subscription of viewID. Unknown ids are ignored.
func (m *Manager) Unmount(viewID string) {
	m.mu.Lock()
	v, ok := m.views[viewID]
	if ok {
		m.forgetLocked(v)
	}
	m.mu.Unlock()
	if ok {
		v.release()
	}
}

// ReleaseTab unmounts the view tab shows and returns its id.
func (m *Manager) ReleaseTab(tab string) (string, bool) {
	if tab == "" {
		return "", false
	}
	m.mu.Lock()
	v, ok := m.views[m.tabs[tab]]
	delete(m.tabs, tab)
	if ok {
		m.forgetLocked(v)
	}
	m.mu.Unlock()
	if !ok {
		return "", false
	}
	v.release()
	return v.ID, true
}

// Claim records that tab shows viewID. A different view the tab showed
// before is unmounted and its id returned. An empty tab or an unknown
// view claims nothing.
func (m *Manager) Claim(tab, viewID string) (string, bool) {
	if tab == "" {
		return "", false
	}
	m.mu.Lock()
	v, ok := m.views[viewID]
	if !ok {
		m.mu.Unlock()
		return "", false
	}
	prev, hadPrev := m.views[m.tabs[tab]]
	if hadPrev && prev == v {
		hadPrev = false
	}
	if hadPrev {
		m.forgetLocked(prev)
	}
	if v.tab != "" && v.tab != tab && m.tabs[v.tab] == v.ID {
		delete(m.tabs, v.tab)
	}
	v.tab = tab
	m.tabs[tab] = v.ID
	m.mu.Unlock()

	if !hadPrev {
		return "", false
	}
	prev.release()
	m.log.Debug("board view replaced in tab",
		zap.String("view", viewID), zap.String("previous", prev.ID))
	return prev.ID, true
}

// forgetLocked drops v from the view and tab indexes.
func (m *Manager) forgetLocked(v *View) {
	delete(m.views, v.ID)
	if v.tab != "" && m.tabs[v.tab] == v.ID {
		delete(m.tabs, v.tab)
	}
	viewsGauge.Set(float64(len(m.views)))
}

// View returns the mounted view with id viewID.
func (m *Manager) View(viewID string) (*View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.views[viewID]
	return v, ok
}

// Touch marks viewID as in use.
func (m *Manager) Touch(viewID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.views[viewID]; ok {
		v.lastSeen = m.now()
	}
}

// Len returns the number of mounted views.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.views)
}

// Sweep unmounts views not touched for idle and returns their ids.
func (m *Manager) Sweep(idle time.Duration) []string {
	cutoff := m.now().Add(-idle)
	m.mu.Lock()
	var stale []*View
	for _, v := range m.views {
		if v.lastSeen.Before(cutoff) {
			stale = append(stale, v)
		}
	}
	for _, v := range stale {
		m.forgetLocked(v)
	}
	viewsGauge.Set(float64(len(m.views)))
	m.mu.Unlock()

	ids := make([]string, 0, len(stale))
	for _, v := range stale {
		v.release()
		ids = append(ids, v.ID)
	}
	return ids
}

// Close unmounts every view.
func (m *Manager) Close() {
	m.mu.Lock()
	views := m.views
	m.views = make(map[string]*View)
	m.tabs = make(map[string]string)
	viewsGauge.Set(0)
	m.mu.Unlock()
	for _, v := range views {
		v.release()
	}
}

func (v *View) release() {
	v.unsubscribe()
	v.Reconciler.Close()
}
