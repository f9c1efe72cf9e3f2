// Package reconcile repairs what a partially failed interaction leaves
// behind: counters that disagree with their sets, and users missing the
// back-reference to a resource that counts them.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"folio/metrics"
	"folio/models"
)

// Repair kinds, used as the "what" metric label.
const (
	WhatRecount     = "recount"
	WhatRelink      = "relink"
	WhatMissingUser = "missing_user"
)

type ResourceStore interface {
	Scan(ctx context.Context, fn func(*models.Resource) error) error
	Recount(ctx context.Context, id string) (*models.Resource, error)
}

type UserStore interface {
	ExistsWithInteraction(ctx context.Context, userID, resourceID, field string) (bool, error)
	PatchByID(ctx context.Context, userID string, p models.Patch) (*models.User, error)
}

// Report counts what one pass changed.
type Report struct {
	Scanned      int
	Recounted    int
	Relinked     int
	MissingUsers int
	Failed       int
}

type Reconciler struct {
	resources map[models.Kind]ResourceStore
	users     UserStore
	logger    *slog.Logger
}

func New(resources map[models.Kind]ResourceStore, users UserStore, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{resources: resources, users: users, logger: logger}
}

// RunOnce walks every resource of every kind. Per-record failures are
// logged and counted, and the pass goes on.
func (r *Reconciler) RunOnce(ctx context.Context) (Report, error) {
	var report Report
	for _, kind := range models.Kinds {
		store, ok := r.resources[kind]
		if !ok {
			continue
		}
		err := store.Scan(ctx, func(res *models.Resource) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report.Scanned++
			r.repair(ctx, kind, store, res, &report)
			return nil
		})
		if err != nil {
			return report, errors.Wrapf(err, "scan %s", kind.Collection())
		}
	}

	r.logger.InfoContext(ctx, "reconciliation done",
		slog.Int("scanned", report.Scanned),
		slog.Int("recounted", report.Recounted),
		slog.Int("relinked", report.Relinked),
		slog.Int("missing_users", report.MissingUsers),
		slog.Int("failed", report.Failed),
	)
	return report, nil
}

func (r *Reconciler) repair(ctx context.Context, kind models.Kind, store ResourceStore, res *models.Resource, report *Report) {
	logger := r.logger.With(slog.String("kind", string(kind)), slog.String("resource_id", res.ID))

	if res.LikesCount != len(res.LikedBy) || res.ViewsCount != len(res.ViewedBy) {
		if _, err := store.Recount(ctx, res.ID); err != nil {
			report.Failed++
			logger.ErrorContext(ctx, "could not recount", slog.Any("error", err))
		} else {
			report.Recounted++
			metrics.ReconcileRepairs.WithLabelValues(string(kind), WhatRecount).Inc()
			logger.InfoContext(ctx, "counters recounted",
				slog.Int("likes", res.LikesCount), slog.Int("liked_by", len(res.LikedBy)),
				slog.Int("views", res.ViewsCount), slog.Int("viewed_by", len(res.ViewedBy)),
			)
		}
	}

	for _, i := range []models.Interaction{models.Like, models.View} {
		field := models.UserField(kind, i)
		for _, userID := range res.Set(i) {
			r.relink(ctx, logger, kind, field, userID, res.ID, report)
		}
	}
}

func (r *Reconciler) relink(ctx context.Context, logger *slog.Logger, kind models.Kind, field, userID, resourceID string, report *Report) {
	linked, err := r.users.ExistsWithInteraction(ctx, userID, resourceID, field)
	if err != nil {
		report.Failed++
		logger.ErrorContext(ctx, "could not check back-reference", slog.String("user_id", userID), slog.Any("error", err))
		return
	}
	if linked {
		return
	}

	u, err := r.users.PatchByID(ctx, userID, models.LinkBackReference(field, resourceID))
	switch {
	case err != nil:
		report.Failed++
		logger.ErrorContext(ctx, "could not relink back-reference", slog.String("user_id", userID), slog.Any("error", err))
	case u == nil:
		report.MissingUsers++
		metrics.ReconcileRepairs.WithLabelValues(string(kind), WhatMissingUser).Inc()
		logger.WarnContext(ctx, "counted user does not exist", slog.String("user_id", userID))
	default:
		report.Relinked++
		metrics.ReconcileRepairs.WithLabelValues(string(kind), WhatRelink).Inc()
		logger.InfoContext(ctx, "back-reference relinked", slog.String("user_id", userID), slog.String("field", field))
	}
}

// Run repeats RunOnce every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.ErrorContext(ctx, "reconciliation failed", slog.Any("error", err))
			}
		}
	}
}
