package reconcile

import (
	"time"

	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultWindow is how long a locally created task survives snapshots
// that do not contain it yet.
const DefaultWindow = 30 * time.Second

// MergeTasks merges a server snapshot into the locally held tasks.
//
// Server tasks replace local copies by id and keep the server's order.
// Tasks only present locally follow, in local order, if they are still
// unconfirmed and were created within window of now. Every other local-only
// task is treated as deleted elsewhere.
func MergeTasks(local, server []models.Task, unconfirmed map[primitive.ObjectID]bool, now time.Time, window time.Duration) []models.Task {
	merged := make([]models.Task, 0, len(server)+len(local))
	onServer := make(map[primitive.ObjectID]bool, len(server))
	for _, t := range server {
		onServer[t.ID] = true
		merged = append(merged, t)
	}
	for _, t := range local {
		if onServer[t.ID] || !unconfirmed[t.ID] {
			continue
		}
		if t.CreatedWithin(now, window) {
			merged = append(merged, t)
		}
	}
	return merged
}

// confirm drops from unconfirmed every id the server now holds and every id
// the merge no longer kept.
func confirm(unconfirmed map[primitive.ObjectID]bool, server, merged []models.Task) {
	if len(unconfirmed) == 0 {
		return
	}
	for _, t := range server {
		delete(unconfirmed, t.ID)
	}
	kept := make(map[primitive.ObjectID]bool, len(merged))
	for _, t := range merged {
		kept[t.ID] = true
	}
	for id := range unconfirmed {
		if !kept[id] {
			delete(unconfirmed, id)
		}
	}
}
