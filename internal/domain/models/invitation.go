package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invitation status values.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRevoked  = "revoked"
)

// Invitation records an email invite to join a workspace.
type Invitation struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID  `bson:"workspace_id" json:"workspace_id"`
	Email       string              `bson:"email" json:"email"`
	InviterID   primitive.ObjectID  `bson:"inviter_id" json:"inviter_id"`
	Token       string              `bson:"token" json:"-"`
	Status      string              `bson:"status" json:"status"`
	Message     string              `bson:"message,omitempty" json:"message,omitempty"`
	MessageID   string              `bson:"message_id,omitempty" json:"message_id,omitempty"`
	AcceptedBy  *primitive.ObjectID `bson:"accepted_by,omitempty" json:"accepted_by,omitempty"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	AcceptedAt  *time.Time          `bson:"accepted_at,omitempty" json:"accepted_at,omitempty"`
}
