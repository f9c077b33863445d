package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Board is the unit a board view tracks. Its columns and tasks live in
// their own collections and reference the board by board_id.
type Board struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"name_ci"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Members     []Member           `bson:"members" json:"members"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DefaultColumnNames are created with every new board.
var DefaultColumnNames = []string{"To Do", "In Progress", "Done"}
