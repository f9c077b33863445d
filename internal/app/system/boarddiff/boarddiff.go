// Package boarddiff compares column and task lists the way a board view
// needs to: cheaply, positionally and without looking at fields the view
// does not render.
package boarddiff

import (
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ColumnsChanged reports whether the two lists differ in length or in the
// id or name of any same-index pair. It does not look at Order.
func ColumnsChanged(old, new []models.Column) bool {
	if len(old) != len(new) {
		return true
	}
	for i := range old {
		if old[i].ID != new[i].ID || old[i].Name != new[i].Name {
			return true
		}
	}
	return false
}

// TasksChanged reports whether the two lists differ in length or in the
// id, title or description of any same-index pair.
func TasksChanged(old, new []models.Task) bool {
	if len(old) != len(new) {
		return true
	}
	for i := range old {
		a, b := old[i], new[i]
		if a.ID != b.ID || a.Title != b.Title || a.Description != b.Description {
			return true
		}
	}
	return false
}

// RequiresReordering reports whether any column's Order differs from its
// 1-based position in cols.
func RequiresReordering(cols []models.Column) bool {
	for i, c := range cols {
		if c.Order != i+1 {
			return true
		}
	}
	return false
}

// SameColumnIdentity reports whether old and new hold the same ids at the
// same positions.
func SameColumnIdentity(old, new []models.Column) bool {
	if len(old) != len(new) {
		return false
	}
	for i := range old {
		if old[i].ID != new[i].ID {
			return false
		}
	}
	return true
}

// IsPrefix reports whether the ids of old appear, in order, at the start
// of new.
func IsPrefix(old, new []models.Column) bool {
	if len(old) > len(new) {
		return false
	}
	return SameColumnIdentity(old, new[:len(old)])
}

// TaskPlacementChanged reports whether a task present in both lists moved
// to another column, changed order or changed its archived flag. The
// shallow TasksChanged check does not see moves.
func TaskPlacementChanged(old, new []models.Task) bool {
	prev := make(map[primitive.ObjectID]models.Task, len(old))
	for _, t := range old {
		prev[t.ID] = t
	}
	for _, t := range new {
		p, ok := prev[t.ID]
		if !ok {
			continue
		}
		if p.ColumnID != t.ColumnID || p.Order != t.Order || p.Archived != t.Archived {
			return true
		}
	}
	return false
}

// ChangedTaskColumns returns the ids of columns whose rendered task lists
// differ between old and new: a task was added, removed, moved in or out,
// reordered, or had its title or description edited.
func ChangedTaskColumns(old, new []models.Task) map[primitive.ObjectID]bool {
	changed := make(map[primitive.ObjectID]bool)
	prev := make(map[primitive.ObjectID]models.Task, len(old))
	for _, t := range old {
		prev[t.ID] = t
	}
	seen := make(map[primitive.ObjectID]bool, len(new))
	for _, t := range new {
		seen[t.ID] = true
		p, ok := prev[t.ID]
		switch {
		case !ok:
			changed[t.ColumnID] = true
		case p.ColumnID != t.ColumnID:
			changed[p.ColumnID] = true
			changed[t.ColumnID] = true
		case p.Order != t.Order || p.Archived != t.Archived ||
			p.Title != t.Title || p.Description != t.Description:
			changed[t.ColumnID] = true
		}
	}
	for _, t := range old {
		if !seen[t.ID] {
			changed[t.ColumnID] = true
		}
	}
	return changed
}

// Change lists column ids by how they differ between two snapshots.
type Change struct {
	Added     []primitive.ObjectID
	Removed   []primitive.ObjectID
	Renamed   []primitive.ObjectID
	Reordered bool
}

// Empty reports whether the change carries nothing.
func (c Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Renamed) == 0 && !c.Reordered
}

// Classify describes how new differs from old. Reordered is set when the
// columns both lists share appear in a different relative order, or when
// new itself needs reordering.
func Classify(old, new []models.Column) Change {
	var ch Change
	prev := make(map[primitive.ObjectID]models.Column, len(old))
	for _, c := range old {
		prev[c.ID] = c
	}
	next := make(map[primitive.ObjectID]bool, len(new))
	var kept []primitive.ObjectID
	for _, c := range new {
		next[c.ID] = true
		p, ok := prev[c.ID]
		if !ok {
			ch.Added = append(ch.Added, c.ID)
			continue
		}
		kept = append(kept, c.ID)
		if p.Name != c.Name {
			ch.Renamed = append(ch.Renamed, c.ID)
		}
	}
	i := 0
	for _, c := range old {
		if !next[c.ID] {
			ch.Removed = append(ch.Removed, c.ID)
			continue
		}
		if i < len(kept) && kept[i] != c.ID {
			ch.Reordered = true
		}
		i++
	}
	if RequiresReordering(new) {
		ch.Reordered = true
	}
	return ch
}
