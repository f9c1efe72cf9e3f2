// Package resources persists jobs and posts. One Store serves one
// collection; both kinds share the same schema.
package resources

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"folio/db"
	"folio/errs"
	"folio/models"
)

type Store struct {
	kind models.Kind
	coll *mongo.Collection
	now  func() time.Time
}

func NewStore(kind models.Kind, coll *mongo.Collection) *Store {
	return &Store{kind: kind, coll: coll, now: time.Now}
}

func (s *Store) Kind() models.Kind { return s.kind }

// EnsureIndexes creates the indexes backing listing by poster and the
// default creation-order sort.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "posterId", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	})
	return errs.Storage(err, "create %s indexes", s.kind)
}

// Create validates the payload and inserts a fresh record with zeroed
// counters and empty interaction sets.
func (s *Store) Create(ctx context.Context, payload models.ResourcePayload) (*models.Resource, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	r := models.NewResource(primitive.NewObjectID().Hex(), payload, s.now())
	if _, err := s.coll.InsertOne(ctx, r); err != nil {
		return nil, errs.Storage(err, "insert %s", s.kind)
	}
	return &r, nil
}

// GetByID returns nil, nil when no record has the id.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Resource, error) {
	var r models.Resource
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage(err, "find %s %s", s.kind, id)
	}
	return &r, nil
}

// PatchByID applies p in one FindOneAndUpdate and returns the updated
// record. It returns nil, nil when nothing matched: the id is absent or
// the patch guard rejected the update.
func (s *Store) PatchByID(ctx context.Context, id string, p models.Patch) (*models.Resource, error) {
	if p.Empty() {
		return nil, errs.Validation("empty patch for %s %s", s.kind, id)
	}
	if err := p.CheckFields(models.IsResourceSetField, models.IsResourceCounterField); err != nil {
		return nil, err
	}

	filter := db.PatchFilter(bson.M{"_id": id}, p)
	update := db.PatchUpdate(p, s.now())
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var r models.Resource
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage(err, "patch %s %s", s.kind, id)
	}
	return &r, nil
}

// ReplaceFieldsByID is the owner edit path: load, assign the provided
// content fields in memory, write the content fields back. Interaction
// fields are never written here so concurrent likes and views survive.
func (s *Store) ReplaceFieldsByID(ctx context.Context, id string, upd models.ResourceUpdate) (*models.Resource, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	r, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errs.NotFound("%s not found", s.kind.Title())
	}

	upd.ApplyTo(r, s.now())

	set := bson.M{
		"title":       r.Title,
		"description": r.Description,
		"tools":       r.Tools,
		"tags":        r.Tags,
		"media":       r.Media,
		"updatedAt":   r.UpdatedAt,
	}
	if r.CompanyLogo != nil {
		set["companyLogo"] = r.CompanyLogo
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return nil, errs.Storage(err, "update %s %s", s.kind, id)
	}
	if res.MatchedCount == 0 {
		return nil, errs.NotFound("%s not found", s.kind.Title())
	}
	return r, nil
}

// Query returns one page of records matching filter.
func (s *Store) Query(ctx context.Context, filter models.Filter, opts models.QueryOptions) (*models.Page[models.Resource], error) {
	opts = opts.Normalize()
	f := queryFilter(filter)

	total, err := s.coll.CountDocuments(ctx, f)
	if err != nil {
		return nil, errs.Storage(err, "count %s", s.kind)
	}

	findOpts := options.Find().
		SetSort(sortDoc(opts.SortKeys())).
		SetSkip(opts.Skip()).
		SetLimit(int64(opts.Limit))

	results, err := s.find(ctx, f, findOpts)
	if err != nil {
		return nil, err
	}
	return models.NewPage(results, total, opts), nil
}

// SearchByText returns every record whose title or description contains
// text. Matching is case-sensitive and literal; an empty text matches
// every record. The result is not paginated.
func (s *Store) SearchByText(ctx context.Context, text string) ([]models.Resource, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(text)}
	filter := bson.M{"$or": bson.A{
		bson.M{"title": bson.M{"$regex": pattern}},
		bson.M{"description": bson.M{"$regex": pattern}},
	}}
	return s.find(ctx, filter, options.Find().SetSort(sortDoc(nil)))
}

// DeleteByID removes the record. Deleting an absent id is NotFound.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errs.Storage(err, "delete %s %s", s.kind, id)
	}
	if res.DeletedCount == 0 {
		return errs.NotFound("%s not found", s.kind.Title())
	}
	return nil
}

// Recount sets both counters to the size of their sets in one
// pipeline update. It returns nil, nil when the id is absent.
func (s *Store) Recount(ctx context.Context, id string) (*models.Resource, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "likesCount", Value: sizeOf("$likedBy")},
			{Key: "viewsCount", Value: sizeOf("$viewedBy")},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var r models.Resource
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage(err, "recount %s %s", s.kind, id)
	}
	return &r, nil
}

// Scan calls fn for every record in id order and stops at the first error.
func (s *Store) Scan(ctx context.Context, fn func(*models.Resource) error) error {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return errs.Storage(err, "scan %s", s.kind)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var r models.Resource
		if err := cursor.Decode(&r); err != nil {
			return errs.Storage(err, "decode %s", s.kind)
		}
		if err := fn(&r); err != nil {
			return err
		}
	}
	return errs.Storage(cursor.Err(), "scan %s", s.kind)
}

func (s *Store) find(ctx context.Context, filter any, opts *options.FindOptions) ([]models.Resource, error) {
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errs.Storage(err, "find %s", s.kind)
	}
	defer cursor.Close(ctx)

	results := []models.Resource{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, errs.Storage(err, "decode %s", s.kind)
	}
	return results, nil
}

func queryFilter(f models.Filter) bson.M {
	filter := bson.M{}
	if f.PosterID != "" {
		filter["posterId"] = f.PosterID
	}
	if f.Tag != "" {
		filter["tags"] = f.Tag
	}
	return filter
}

// sortDoc builds the sort document. _id always closes the sort so pages
// are stable; ids are ObjectID hex so they follow creation order.
func sortDoc(keys []models.SortKey) bson.D {
	if len(keys) == 0 {
		keys = []models.SortKey{{Field: "createdAt", Order: 1}}
	}
	sort := bson.D{}
	for _, k := range keys {
		sort = append(sort, bson.E{Key: k.Field, Value: k.Order})
	}
	return append(sort, bson.E{Key: "_id", Value: 1})
}

func sizeOf(field string) bson.D {
	return bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{field, bson.A{}}}}}}
}
