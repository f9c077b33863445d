package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task is a card inside a column. Order is its position within the column.
// CreatedAt is optional; tasks imported from older data may not carry it.
type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	ColumnID    primitive.ObjectID `bson:"column_id" json:"column_id"`
	BoardID     primitive.ObjectID `bson:"board_id" json:"board_id"`
	Order       int                `bson:"order" json:"order"`
	Archived    bool               `bson:"archived,omitempty" json:"archived,omitempty"`
	CreatedAt   *time.Time         `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// CreatedWithin reports whether the task was created no earlier than
// window before now. Tasks without a creation time never qualify.
func (t Task) CreatedWithin(now time.Time, window time.Duration) bool {
	if t.CreatedAt == nil {
		return false
	}
	return now.Sub(*t.CreatedAt) <= window
}
