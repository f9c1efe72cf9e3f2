// Package search is the read side shared by every resource kind: paginated
// listing and free-text search.
package search

import (
	"context"

	"github.com/pkg/errors"

	"folio/errs"
	"folio/models"
)

type Querier interface {
	Query(ctx context.Context, f models.Filter, opts models.QueryOptions) (*models.Page[models.Resource], error)
	SearchByText(ctx context.Context, text string) ([]models.Resource, error)
}

type Facade struct {
	queriers map[models.Kind]Querier
}

func NewFacade(queriers map[models.Kind]Querier) *Facade {
	return &Facade{queriers: queriers}
}

func (f *Facade) querier(kind models.Kind) (Querier, error) {
	q, ok := f.queriers[kind]
	if !ok {
		return nil, errs.Validation("unknown resource kind %q", kind)
	}
	return q, nil
}

// List returns one page of kind, narrowed by filter.
func (f *Facade) List(ctx context.Context, kind models.Kind, filter models.Filter, opts models.QueryOptions) (*models.Page[models.Resource], error) {
	q, err := f.querier(kind)
	if err != nil {
		return nil, err
	}
	page, err := q.Query(ctx, filter, opts)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if page.Results == nil {
		page.Results = []models.Resource{}
	}
	return page, nil
}

// Search returns every record of kind whose title or description contains
// text. An empty text matches everything.
func (f *Facade) Search(ctx context.Context, kind models.Kind, text string) ([]models.Resource, error) {
	q, err := f.querier(kind)
	if err != nil {
		return nil, err
	}
	results, err := q.SearchByText(ctx, text)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if results == nil {
		results = []models.Resource{}
	}
	return results, nil
}
