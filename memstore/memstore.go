// Package memstore is an in-memory implementation of the resource and user
// stores. Each operation holds the store mutex for its whole duration, so
// patches are atomic the same way a single MongoDB update is.
package memstore

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"folio/errs"
	"folio/models"
)

type Resources struct {
	mu    sync.Mutex
	kind  models.Kind
	byID  map[string]*models.Resource
	order []string

	// FailPatch, when set, is returned by PatchByID.
	FailPatch error
}

func NewResources(kind models.Kind) *Resources {
	return &Resources{kind: kind, byID: map[string]*models.Resource{}}
}

func (s *Resources) Kind() models.Kind { return s.kind }

func (s *Resources) Create(_ context.Context, p models.ResourcePayload) (*models.Resource, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r := models.NewResource(primitive.NewObjectID().Hex(), p, time.Now())
	s.byID[r.ID] = &r
	s.order = append(s.order, r.ID)
	return clone(&r), nil
}

// Put stores r as is, for seeding inconsistent states in tests.
func (s *Resources) Put(r models.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.byID[r.ID] = clone(&r)
}

func (s *Resources) GetByID(_ context.Context, id string) (*models.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return clone(r), nil
}

func (s *Resources) PatchByID(_ context.Context, id string, p models.Patch) (*models.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailPatch != nil {
		return nil, s.FailPatch
	}
	if p.Empty() {
		return nil, errs.Validation("empty patch for %s %s", s.kind, id)
	}
	if err := p.CheckFields(models.IsResourceSetField, models.IsResourceCounterField); err != nil {
		return nil, err
	}
	r, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	for field, value := range p.Absent {
		if slices.Contains(*resourceSet(r, field), value) {
			return nil, nil
		}
	}
	for field, value := range p.AddToSet {
		set := resourceSet(r, field)
		if !slices.Contains(*set, value) {
			*set = append(*set, value)
		}
	}
	for field, value := range p.Pull {
		set := resourceSet(r, field)
		*set = slices.DeleteFunc(*set, func(v string) bool { return v == value })
	}
	for field, n := range p.Inc {
		*resourceCounter(r, field) += n
	}
	r.UpdatedAt = time.Now().UTC()
	return clone(r), nil
}

func (s *Resources) ReplaceFieldsByID(_ context.Context, id string, upd models.ResourceUpdate) (*models.Resource, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return nil, errs.NotFound("%s not found", s.kind.Title())
	}
	upd.ApplyTo(r, time.Now())
	return clone(r), nil
}

func (s *Resources) Query(_ context.Context, f models.Filter, opts models.QueryOptions) (*models.Page[models.Resource], error) {
	opts = opts.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.Resource
	for _, id := range s.order {
		r := s.byID[id]
		if r == nil {
			continue
		}
		if f.PosterID != "" && r.PosterID != f.PosterID {
			continue
		}
		if f.Tag != "" && !slices.Contains(r.Tags, f.Tag) {
			continue
		}
		matched = append(matched, *clone(r))
	}

	keys := opts.SortKeys()
	sort.SliceStable(matched, func(a, b int) bool {
		for _, k := range keys {
			if c := compare(&matched[a], &matched[b], k.Field); c != 0 {
				return c*k.Order < 0
			}
		}
		return false
	})

	start := int(min(opts.Skip(), int64(len(matched))))
	end := min(start+opts.Limit, len(matched))
	return models.NewPage(matched[start:end], int64(len(matched)), opts), nil
}

func (s *Resources) SearchByText(_ context.Context, text string) ([]models.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := []models.Resource{}
	for _, id := range s.order {
		r := s.byID[id]
		if r != nil && (strings.Contains(r.Title, text) || strings.Contains(r.Description, text)) {
			results = append(results, *clone(r))
		}
	}
	return results, nil
}

func (s *Resources) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return errs.NotFound("%s not found", s.kind.Title())
	}
	delete(s.byID, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

func (s *Resources) Recount(_ context.Context, id string) (*models.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	r.LikesCount, r.ViewsCount = len(r.LikedBy), len(r.ViewedBy)
	return clone(r), nil
}

func (s *Resources) Scan(ctx context.Context, fn func(*models.Resource) error) error {
	s.mu.Lock()
	snapshot := make([]*models.Resource, 0, len(s.order))
	for _, id := range s.order {
		snapshot = append(snapshot, clone(s.byID[id]))
	}
	s.mu.Unlock()

	for _, r := range snapshot {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// resourceSet and resourceCounter expect fields already accepted by
// Patch.CheckFields.
func resourceSet(r *models.Resource, field string) *[]string {
	if field == "likedBy" {
		return &r.LikedBy
	}
	return &r.ViewedBy
}

func resourceCounter(r *models.Resource, field string) *int {
	if field == "likesCount" {
		return &r.LikesCount
	}
	return &r.ViewsCount
}

func compare(a, b *models.Resource, field string) int {
	switch field {
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "likesCount":
		return a.LikesCount - b.LikesCount
	case "viewsCount":
		return a.ViewsCount - b.ViewsCount
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func clone(r *models.Resource) *models.Resource {
	c := *r
	c.Tools = slices.Clone(r.Tools)
	c.Tags = slices.Clone(r.Tags)
	c.Media = slices.Clone(r.Media)
	c.LikedBy = slices.Clone(r.LikedBy)
	c.ViewedBy = slices.Clone(r.ViewedBy)
	return &c
}
