package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Column is one vertical list on a board. Order is the 1-based left-to-right
// position among the board's visible columns.
type Column struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string               `bson:"name" json:"name"`
	BoardID   primitive.ObjectID   `bson:"board_id" json:"board_id"`
	Order     int                  `bson:"order" json:"order"`
	Archived  bool                 `bson:"archived,omitempty" json:"archived,omitempty"`
	TaskIDs   []primitive.ObjectID `bson:"task_ids,omitempty" json:"task_ids,omitempty"`
	CreatedAt time.Time            `bson:"created_at" json:"created_at"`
}
