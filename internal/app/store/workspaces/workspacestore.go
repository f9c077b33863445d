// internal/app/store/workspaces/workspacestore.go
package workspacestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/authz"
	"github.com/dalemusser/taskboard/internal/app/system/normalize"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound      = errors.New("workspace not found")
	ErrEmptyName     = errors.New("workspace name is required")
	ErrAlreadyMember = errors.New("user is already a member of this workspace")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("workspaces")}
}

// Create inserts a new workspace owned by ownerID. The owner is also
// recorded as the first member.
func (s *Store) Create(ctx context.Context, name string, ownerID primitive.ObjectID) (models.Workspace, error) {
	name = normalize.Title(name)
	if name == "" {
		return models.Workspace{}, ErrEmptyName
	}
	now := time.Now().UTC()
	ws := models.Workspace{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		OwnerID:   ownerID,
		Members:   []models.Member{{UserID: ownerID, Role: authz.RoleOwner, JoinedAt: now}},
		BoardIDs:  []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, ws); err != nil {
		return models.Workspace{}, err
	}
	return ws, nil
}

// GetByID retrieves a workspace by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error) {
	var ws models.Workspace
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ws)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Workspace{}, ErrNotFound
		}
		return models.Workspace{}, err
	}
	return ws, nil
}

// ListForUser returns the workspaces userID owns or belongs to, by name.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Workspace, error) {
	filter := bson.M{"$or": []bson.M{
		{"owner_id": userID},
		{"members.user_id": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	workspaces := []models.Workspace{}
	if err := cur.All(ctx, &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

// AddMember adds userID with role. Adding an existing member returns ErrAlreadyMember.
func (s *Store) AddMember(ctx context.Context, id, userID primitive.ObjectID, role string) error {
	role = normalize.Role(role)
	if role == "" {
		role = authz.RoleMember
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "members.user_id": bson.M{"$ne": userID}},
		bson.M{
			"$push": bson.M{"members": models.Member{UserID: userID, Role: role, JoinedAt: time.Now().UTC()}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyMember
	}
	return nil
}

// AddBoard records boardID on the workspace. Adding it twice is a no-op.
func (s *Store) AddBoard(ctx context.Context, id, boardID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{"board_ids": boardID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
