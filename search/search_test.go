package search

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"folio/errs"
	"folio/memstore"
	"folio/models"
)

type nilQuerier struct{ err error }

func (q nilQuerier) Query(context.Context, models.Filter, models.QueryOptions) (*models.Page[models.Resource], error) {
	if q.err != nil {
		return nil, q.err
	}
	return &models.Page[models.Resource]{}, nil
}

func (q nilQuerier) SearchByText(context.Context, string) ([]models.Resource, error) {
	return nil, q.err
}

func seed(t *testing.T, s *memstore.Resources, titles ...string) {
	t.Helper()
	for _, title := range titles {
		_, err := s.Create(context.Background(), models.ResourcePayload{
			PosterID: "p", Title: title, Description: "description", Tools: []string{},
		})
		if err != nil {
			t.Fatalf("%+v", err)
		}
	}
}

func TestListAndSearch(t *testing.T) {
	ctx := context.Background()
	jobs := memstore.NewResources(models.KindJob)
	posts := memstore.NewResources(models.KindPost)
	seed(t, jobs, "Logo", "Poster", "Flyer")
	seed(t, posts, "Moodboard")
	f := NewFacade(map[models.Kind]Querier{models.KindJob: jobs, models.KindPost: posts})

	page, err := f.List(ctx, models.KindJob, models.Filter{}, models.QueryOptions{Limit: 2})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(page.Results) != 2 || page.TotalResults != 3 || page.TotalPages != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}

	found, err := f.Search(ctx, models.KindPost, "Mood")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(found) != 1 || found[0].Title != "Moodboard" {
		t.Fatalf("unexpected search results: %+v", found)
	}

	none, err := f.Search(ctx, models.KindPost, "mood")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if none == nil || len(none) != 0 {
		t.Fatalf("expected case-sensitive empty match, got %+v", none)
	}
}

func TestResultsNeverNil(t *testing.T) {
	ctx := context.Background()
	f := NewFacade(map[models.Kind]Querier{models.KindJob: nilQuerier{}})

	page, err := f.List(ctx, models.KindJob, models.Filter{}, models.QueryOptions{})
	if err != nil || page.Results == nil {
		t.Fatalf("expected non-nil results, got %+v, %v", page, err)
	}
	found, err := f.Search(ctx, models.KindJob, "x")
	if err != nil || found == nil {
		t.Fatalf("expected non-nil results, got %v, %v", found, err)
	}
}

func TestUnknownKindAndStorageErrors(t *testing.T) {
	ctx := context.Background()
	boom := errs.Storage(errors.New("timeout"), "query jobs")
	f := NewFacade(map[models.Kind]Querier{models.KindJob: nilQuerier{err: boom}})

	if _, err := f.List(ctx, models.KindPost, models.Filter{}, models.QueryOptions{}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.Search(ctx, models.Kind("comment"), ""); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.List(ctx, models.KindJob, models.Filter{}, models.QueryOptions{}); !errors.Is(err, errs.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if _, err := f.Search(ctx, models.KindJob, ""); !errors.Is(err, errs.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
