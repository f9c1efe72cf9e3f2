package memstore

import (
	"context"
	"slices"
	"sync"

	"folio/errs"
	"folio/models"
)

type Users struct {
	mu   sync.Mutex
	byID map[string]*models.User

	// FailPatch, when set, is returned by PatchByID.
	FailPatch error
	// FailCheck, when set, is returned by ExistsWithInteraction.
	FailCheck error
}

func NewUsers() *Users {
	return &Users{byID: map[string]*models.User{}}
}

func (s *Users) Create(_ context.Context, u models.User) (*models.User, error) {
	if u.ID == "" {
		return nil, errs.Validation("user id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[u.ID] = cloneUser(&u)
	return cloneUser(&u), nil
}

func (s *Users) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (s *Users) ExistsWithInteraction(_ context.Context, userID, resourceID, field string) (bool, error) {
	if !models.IsUserField(field) {
		return false, errs.Validation("unknown interaction field %q", field)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailCheck != nil {
		return false, s.FailCheck
	}
	u, ok := s.byID[userID]
	if !ok {
		return false, nil
	}
	return slices.Contains(*userSet(u, field), resourceID), nil
}

func (s *Users) PatchByID(_ context.Context, userID string, p models.Patch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailPatch != nil {
		return nil, s.FailPatch
	}
	if p.Empty() {
		return nil, errs.Validation("empty patch for user %s", userID)
	}
	if err := p.CheckFields(models.IsUserField, models.NoField); err != nil {
		return nil, err
	}
	u, ok := s.byID[userID]
	if !ok {
		return nil, nil
	}
	for field, value := range p.Absent {
		if slices.Contains(*userSet(u, field), value) {
			return nil, nil
		}
	}
	for field, value := range p.AddToSet {
		set := userSet(u, field)
		if !slices.Contains(*set, value) {
			*set = append(*set, value)
		}
	}
	for field, value := range p.Pull {
		set := userSet(u, field)
		*set = slices.DeleteFunc(*set, func(v string) bool { return v == value })
	}
	return cloneUser(u), nil
}

func (s *Users) PullFromAll(_ context.Context, field, resourceID string) (int64, error) {
	if !models.IsUserField(field) {
		return 0, errs.Validation("unknown interaction field %q", field)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, u := range s.byID {
		set := userSet(u, field)
		if slices.Contains(*set, resourceID) {
			*set = slices.DeleteFunc(*set, func(v string) bool { return v == resourceID })
			n++
		}
	}
	return n, nil
}

// userSet expects a field accepted by models.IsUserField.
func userSet(u *models.User, field string) *[]string {
	switch field {
	case "likedJobs":
		return &u.LikedJobs
	case "viewedJobs":
		return &u.ViewedJobs
	case "likedPosts":
		return &u.LikedPosts
	default:
		return &u.ViewedPosts
	}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Role = slices.Clone(u.Role)
	c.LikedJobs = slices.Clone(u.LikedJobs)
	c.ViewedJobs = slices.Clone(u.ViewedJobs)
	c.LikedPosts = slices.Clone(u.LikedPosts)
	c.ViewedPosts = slices.Clone(u.ViewedPosts)
	return &c
}
