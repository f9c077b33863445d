// internal/app/system/workers/viewjanitor.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// ViewSweeper unmounts board views idle for longer than a threshold and
// returns their ids.
type ViewSweeper interface {
	Sweep(idle time.Duration) []string
}

// ViewJanitor is a background worker that releases board views whose tab
// went away without unmounting (closed tab, lost network, never connected).
type ViewJanitor struct {
	views    ViewSweeper
	onSwept  func(viewID string)
	log      *zap.Logger
	interval time.Duration
	idle     time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewViewJanitor creates a janitor that sweeps every interval and releases
// views idle for longer than idle. onSwept, if set, runs for each released view.
func NewViewJanitor(views ViewSweeper, onSwept func(viewID string), logger *zap.Logger, interval, idle time.Duration) *ViewJanitor {
	return &ViewJanitor{
		views:    views,
		onSwept:  onSwept,
		log:      logger,
		interval: interval,
		idle:     idle,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *ViewJanitor) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("view janitor started",
		zap.Duration("interval", w.interval),
		zap.Duration("idle_threshold", w.idle))
}

// Stop signals the worker to stop and waits for it to finish. It is safe
// to call more than once.
func (w *ViewJanitor) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("view janitor stopped")
	})
}

func (w *ViewJanitor) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *ViewJanitor) sweep() {
	ids := w.views.Sweep(w.idle)
	for _, id := range ids {
		if w.onSwept != nil {
			w.onSwept(id)
		}
	}
	if len(ids) > 0 {
		w.log.Info("released idle board views", zap.Int("count", len(ids)))
	}
}
