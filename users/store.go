// Package users persists the user records the interaction workflow
// reads and links back into.
package users

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"folio/db"
	"folio/errs"
	"folio/models"
)

type Store struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewStore(coll *mongo.Collection) *Store {
	return &Store{coll: coll, now: time.Now}
}

// Create inserts a user with empty interaction sets.
func (s *Store) Create(ctx context.Context, u models.User) (*models.User, error) {
	if u.ID == "" {
		return nil, errs.Validation("user id is required")
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	u.CreatedAt, u.UpdatedAt = now, now
	for _, set := range []*[]string{&u.Role, &u.LikedJobs, &u.ViewedJobs, &u.LikedPosts, &u.ViewedPosts} {
		if *set == nil {
			*set = []string{}
		}
	}

	if _, err := s.coll.InsertOne(ctx, u); err != nil {
		return nil, errs.Storage(err, "insert user %s", u.ID)
	}
	return &u, nil
}

// GetByID returns nil, nil when the user does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage(err, "find user %s", id)
	}
	return &u, nil
}

// ExistsWithInteraction reports whether resourceID is in the user's
// interaction set named by field.
func (s *Store) ExistsWithInteraction(ctx context.Context, userID, resourceID, field string) (bool, error) {
	if !models.IsUserField(field) {
		return false, errs.Validation("unknown interaction field %q", field)
	}

	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": userID, field: resourceID}, options.Count().SetLimit(1))
	if err != nil {
		return false, errs.Storage(err, "check %s of user %s", field, userID)
	}
	return n > 0, nil
}

// PatchByID applies p atomically and returns the updated user, or nil, nil
// when nothing matched.
func (s *Store) PatchByID(ctx context.Context, userID string, p models.Patch) (*models.User, error) {
	if p.Empty() {
		return nil, errs.Validation("empty patch for user %s", userID)
	}
	if err := p.CheckFields(models.IsUserField, models.NoField); err != nil {
		return nil, err
	}

	filter := db.PatchFilter(bson.M{"_id": userID}, p)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u models.User
	err := s.coll.FindOneAndUpdate(ctx, filter, db.PatchUpdate(p, s.now()), opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage(err, "patch user %s", userID)
	}
	return &u, nil
}

// PullFromAll removes resourceID from field on every user holding it and
// returns how many users changed.
func (s *Store) PullFromAll(ctx context.Context, field, resourceID string) (int64, error) {
	if !models.IsUserField(field) {
		return 0, errs.Validation("unknown interaction field %q", field)
	}

	res, err := s.coll.UpdateMany(ctx,
		bson.M{field: resourceID},
		bson.M{"$pull": bson.M{field: resourceID}},
	)
	if err != nil {
		return 0, errs.Storage(err, "pull %s from %s", resourceID, field)
	}
	return res.ModifiedCount, nil
}
