// Package interactions records likes and views: at most one per user and
// resource, counted on the resource and mirrored on the user.
//
// The two records live in different collections and no transaction spans
// them. A call walks START → CHECKED → COUNTED → LINKED → DONE:
//
//	CHECKED  the user does not list the resource yet, otherwise Conflict
//	COUNTED  the resource gained the user and +1, guarded by "user not in
//	         set" in the same storage operation, otherwise NotFound or
//	         Conflict
//	LINKED   the user lists the resource
//
// A failure after COUNTED is returned as a storage error and the count is
// not rolled back; reconciliation repairs the missing back-reference.
package interactions

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"folio/errs"
	"folio/metrics"
	"folio/models"
	"folio/mq"
)

type ResourceStore interface {
	GetByID(ctx context.Context, id string) (*models.Resource, error)
	PatchByID(ctx context.Context, id string, p models.Patch) (*models.Resource, error)
}

type UserStore interface {
	ExistsWithInteraction(ctx context.Context, userID, resourceID, field string) (bool, error)
	PatchByID(ctx context.Context, userID string, p models.Patch) (*models.User, error)
	PullFromAll(ctx context.Context, field, resourceID string) (int64, error)
}

type Service struct {
	resources map[models.Kind]ResourceStore
	users     UserStore
	emitter   mq.Emitter
	logger    *slog.Logger
}

type Option func(*Service)

func WithEmitter(e mq.Emitter) Option {
	return func(s *Service) { s.emitter = e }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(resources map[models.Kind]ResourceStore, users UserStore, opts ...Option) *Service {
	s := &Service{
		resources: resources,
		users:     users,
		emitter:   mq.NopEmitter{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) RecordLike(ctx context.Context, kind models.Kind, userID, resourceID string) error {
	return s.Record(ctx, kind, models.Like, userID, resourceID)
}

func (s *Service) RecordView(ctx context.Context, kind models.Kind, userID, resourceID string) error {
	return s.Record(ctx, kind, models.View, userID, resourceID)
}

// Record runs the interaction workflow. The returned error is one of the
// errs kinds: Conflict (already done), NotFound (resource absent),
// Storage (persistence failure, possibly after the count was applied) or
// Validation (unknown kind, missing ids).
func (s *Service) Record(ctx context.Context, kind models.Kind, i models.Interaction, userID, resourceID string) (err error) {
	store, ok := s.resources[kind]
	if !ok {
		return errs.Validation("unknown resource kind %q", kind)
	}
	if userID == "" || resourceID == "" {
		return errs.Validation("user id and %s id are required", kind)
	}

	outcome := metrics.OutcomeRecorded
	defer func() {
		metrics.Interactions.WithLabelValues(string(kind), string(i), outcome).Inc()
	}()

	field := models.UserField(kind, i)
	logger := s.logger.With(
		slog.String("kind", string(kind)),
		slog.String("interaction", string(i)),
		slog.String("user_id", userID),
		slog.String("resource_id", resourceID),
	)

	// START → CHECKED
	done, err := s.users.ExistsWithInteraction(ctx, userID, resourceID, field)
	if err != nil {
		outcome = metrics.OutcomeError
		return errors.WithStack(err)
	}
	if done {
		outcome = metrics.OutcomeConflict
		return errs.Conflict("%s already %s", kind.Title(), i.Past())
	}

	// CHECKED → COUNTED
	counted, err := store.PatchByID(ctx, resourceID, models.RecordInteraction(i, userID))
	if err != nil {
		outcome = metrics.OutcomeError
		return errors.WithStack(err)
	}
	if counted == nil {
		current, err := store.GetByID(ctx, resourceID)
		if err != nil {
			outcome = metrics.OutcomeError
			return errors.WithStack(err)
		}
		if current == nil {
			outcome = metrics.OutcomeNotFound
			return errs.NotFound("%s not found", kind.Title())
		}

		// The guard rejected the patch: the user is already counted, either
		// by a concurrent request or by an earlier call that failed to link.
		// Linking is idempotent, so repair the mirror before answering.
		if err := s.link(ctx, userID, field, resourceID); err != nil {
			logger.WarnContext(ctx, "could not repair back-reference", slog.Any("error", err))
		}
		outcome = metrics.OutcomeConflict
		return errs.Conflict("%s already %s", kind.Title(), i.Past())
	}

	// COUNTED → LINKED
	if err := s.link(ctx, userID, field, resourceID); err != nil {
		outcome = metrics.OutcomeUnlinked
		logger.ErrorContext(ctx, "interaction counted but back-reference not linked", slog.Any("error", err))
		return errors.WithStack(err)
	}

	// LINKED → DONE
	logger.DebugContext(ctx, "interaction recorded", slog.Int("count", counted.Count(i)))

	evt := mq.NewEvent(mq.InteractionRecorded, kind, resourceID, userID)
	evt.Interaction = i
	mq.EmitQuietly(ctx, s.emitter, evt)

	return nil
}

func (s *Service) link(ctx context.Context, userID, field, resourceID string) error {
	u, err := s.users.PatchByID(ctx, userID, models.LinkBackReference(field, resourceID))
	if err != nil {
		return err
	}
	if u == nil {
		return errs.Storage(errors.Errorf("user %s does not exist", userID), "link %s into %s", resourceID, field)
	}
	return nil
}

// Forget drops a deleted resource from every user's like and view sets.
func (s *Service) Forget(ctx context.Context, kind models.Kind, resourceID string) error {
	if _, ok := s.resources[kind]; !ok {
		return errs.Validation("unknown resource kind %q", kind)
	}

	for _, i := range []models.Interaction{models.Like, models.View} {
		field := models.UserField(kind, i)
		n, err := s.users.PullFromAll(ctx, field, resourceID)
		if err != nil {
			return errors.WithStack(err)
		}
		if n > 0 {
			s.logger.DebugContext(ctx, "back-references removed",
				slog.String("field", field),
				slog.String("resource_id", resourceID),
				slog.Int64("users", n),
			)
		}
	}
	return nil
}
