package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member is a user's membership record on a workspace or board.
type Member struct {
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role     string             `bson:"role" json:"role"` // owner | member
	JoinedAt time.Time          `bson:"joined_at" json:"joined_at"`
}

// Workspace groups boards and the people who can see them.
// Workspaces are never hard-deleted by the board view.
type Workspace struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Name   string `bson:"name" json:"name"`
	NameCI string `bson:"name_ci" json:"name_ci"` // Case-insensitive for sorting

	OwnerID  primitive.ObjectID   `bson:"owner_id" json:"owner_id"`
	Members  []Member             `bson:"members" json:"members"`
	BoardIDs []primitive.ObjectID `bson:"board_ids" json:"board_ids"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasMember reports whether userID is the owner or a listed member.
func (w Workspace) HasMember(userID primitive.ObjectID) bool {
	if w.OwnerID == userID {
		return true
	}
	for _, m := range w.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
