package reconcile

import (
	"testing"
	"time"

	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestMergeTasks_RecencyWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fresh := models.Task{ID: primitive.NewObjectID(), Title: "fresh", CreatedAt: ptrTime(now)}
	stale := models.Task{ID: primitive.NewObjectID(), Title: "stale", CreatedAt: ptrTime(now.Add(-60 * time.Second))}
	undated := models.Task{ID: primitive.NewObjectID(), Title: "undated"}

	unconfirmed := map[primitive.ObjectID]bool{fresh.ID: true, stale.ID: true, undated.ID: true}
	merged := MergeTasks([]models.Task{fresh, stale, undated}, nil, unconfirmed, now, DefaultWindow)

	if len(merged) != 1 || merged[0].ID != fresh.ID {
		t.Fatalf("expected only the fresh task to survive, got %+v", merged)
	}
}

func TestMergeTasks_ServerWins(t *testing.T) {
	now := time.Now()
	id := primitive.NewObjectID()
	local := []models.Task{{ID: id, Title: "local title", CreatedAt: ptrTime(now)}}
	server := []models.Task{{ID: id, Title: "server title"}}

	merged := MergeTasks(local, server, map[primitive.ObjectID]bool{id: true}, now, DefaultWindow)
	if len(merged) != 1 || merged[0].Title != "server title" {
		t.Errorf("server copy should replace local, got %+v", merged)
	}
}

func TestMergeTasks_LocalOnlyFollowServer(t *testing.T) {
	now := time.Now()
	a := models.Task{ID: primitive.NewObjectID(), Title: "a"}
	b := models.Task{ID: primitive.NewObjectID(), Title: "b"}
	mine := models.Task{ID: primitive.NewObjectID(), Title: "mine", CreatedAt: ptrTime(now.Add(-time.Second))}

	merged := MergeTasks([]models.Task{mine, a}, []models.Task{b, a}, map[primitive.ObjectID]bool{mine.ID: true}, now, DefaultWindow)

	want := []primitive.ObjectID{b.ID, a.ID, mine.ID}
	if len(merged) != len(want) {
		t.Fatalf("got %d tasks, want %d", len(merged), len(want))
	}
	for i, id := range want {
		if merged[i].ID != id {
			t.Errorf("merged[%d] = %s, want %s", i, merged[i].Title, id.Hex())
		}
	}
}

func TestMergeTasks_ConfirmedTaskDeletedInsideWindow(t *testing.T) {
	now := time.Now()
	confirmed := models.Task{ID: primitive.NewObjectID(), Title: "confirmed", CreatedAt: ptrTime(now.Add(-time.Second))}
	pending := models.Task{ID: primitive.NewObjectID(), Title: "pending", CreatedAt: ptrTime(now)}

	merged := MergeTasks([]models.Task{confirmed, pending}, nil, map[primitive.ObjectID]bool{pending.ID: true}, now, DefaultWindow)

	if len(merged) != 1 || merged[0].ID != pending.ID {
		t.Fatalf("only the unconfirmed task should survive, got %+v", merged)
	}
}

func TestConfirm(t *testing.T) {
	now := time.Now()
	seen := models.Task{ID: primitive.NewObjectID(), CreatedAt: ptrTime(now)}
	waiting := models.Task{ID: primitive.NewObjectID(), CreatedAt: ptrTime(now)}
	expired := models.Task{ID: primitive.NewObjectID(), CreatedAt: ptrTime(now.Add(-time.Minute))}
	unconfirmed := map[primitive.ObjectID]bool{seen.ID: true, waiting.ID: true, expired.ID: true}

	server := []models.Task{seen}
	merged := MergeTasks([]models.Task{seen, waiting, expired}, server, unconfirmed, now, DefaultWindow)
	confirm(unconfirmed, server, merged)

	if len(unconfirmed) != 1 || !unconfirmed[waiting.ID] {
		t.Errorf("unconfirmed = %v, want only %s", unconfirmed, waiting.ID.Hex())
	}
}
