// Package invitationstore persists workspace invitations.
package invitationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/normalize"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound      = errors.New("invitation not found")
	ErrNotPending    = errors.New("invitation is no longer pending")
	ErrEmailRequired = errors.New("invitation email is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("invitations")}
}

// Create stores a pending invitation with a fresh random token.
func (s *Store) Create(ctx context.Context, inv models.Invitation) (models.Invitation, error) {
	inv.Email = normalize.Email(inv.Email)
	if inv.Email == "" {
		return models.Invitation{}, ErrEmailRequired
	}
	inv.ID = primitive.NewObjectID()
	inv.Token = uuid.NewString()
	inv.Status = models.InvitationPending
	inv.CreatedAt = time.Now().UTC()
	inv.AcceptedAt = nil
	inv.AcceptedBy = nil
	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		return models.Invitation{}, err
	}
	return inv, nil
}

// GetByToken loads an invitation by its token.
func (s *Store) GetByToken(ctx context.Context, token string) (models.Invitation, error) {
	var inv models.Invitation
	if err := s.c.FindOne(ctx, bson.M{"token": token}).Decode(&inv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Invitation{}, ErrNotFound
		}
		return models.Invitation{}, err
	}
	return inv, nil
}

// SetMessageID records the mail transport's message id.
func (s *Store) SetMessageID(ctx context.Context, id primitive.ObjectID, messageID string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"message_id": messageID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAccepted moves a pending invitation to accepted. Accepting an
// invitation that is not pending returns ErrNotPending.
func (s *Store) MarkAccepted(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.transition(ctx, id, bson.M{
		"status":      models.InvitationAccepted,
		"accepted_by": userID,
		"accepted_at": time.Now().UTC(),
	})
}

// Revoke cancels a pending invitation.
func (s *Store) Revoke(ctx context.Context, id primitive.ObjectID) error {
	return s.transition(ctx, id, bson.M{"status": models.InvitationRevoked})
}

func (s *Store) transition(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.InvitationPending},
		bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}); err == nil && n == 0 {
			return ErrNotFound
		}
		return ErrNotPending
	}
	return nil
}
