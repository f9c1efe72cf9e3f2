// Package api binds the resource, interaction and search operations to
// httprouter handlers. One Resources value serves one kind.
package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"folio/errs"
	"folio/middleware"
	"folio/models"
	"folio/mq"
	"folio/utils"
)

// RoleAdmin may edit and delete any record.
const RoleAdmin = "admin"

type ResourceStore interface {
	Create(ctx context.Context, p models.ResourcePayload) (*models.Resource, error)
	GetByID(ctx context.Context, id string) (*models.Resource, error)
	ReplaceFieldsByID(ctx context.Context, id string, upd models.ResourceUpdate) (*models.Resource, error)
	DeleteByID(ctx context.Context, id string) error
}

type Interactions interface {
	Record(ctx context.Context, kind models.Kind, i models.Interaction, userID, resourceID string) error
	Forget(ctx context.Context, kind models.Kind, resourceID string) error
}

type Finder interface {
	List(ctx context.Context, kind models.Kind, f models.Filter, opts models.QueryOptions) (*models.Page[models.Resource], error)
	Search(ctx context.Context, kind models.Kind, text string) ([]models.Resource, error)
}

type Resources struct {
	kind         models.Kind
	store        ResourceStore
	interactions Interactions
	finder       Finder
	emitter      mq.Emitter
}

func NewResources(kind models.Kind, store ResourceStore, interactions Interactions, finder Finder, emitter mq.Emitter) *Resources {
	if emitter == nil {
		emitter = mq.NopEmitter{}
	}
	return &Resources{
		kind:         kind,
		store:        store,
		interactions: interactions,
		finder:       finder,
		emitter:      emitter,
	}
}

func (h *Resources) Kind() models.Kind { return h.kind }

// ------------------ CREATE ------------------

func (h *Resources) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()

	var payload models.ResourcePayload
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	payload.PosterID = middleware.UserIDFromContext(ctx)

	created, err := h.store.Create(ctx, payload)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	mq.EmitQuietly(ctx, h.emitter, mq.NewEvent(mq.ResourceCreated, h.kind, created.ID, created.PosterID))

	utils.RespondWithJSON(w, http.StatusCreated, created)
}

// ------------------ READ ------------------

func (h *Resources) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	page, err := h.finder.List(r.Context(), h.kind, utils.ParseFilter(r), utils.ParseQueryOptions(r))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, page)
}

func (h *Resources) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	res, err := h.find(r.Context(), ps.ByName("id"))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

type searchRequest struct {
	Text string `json:"text"`
}

func (h *Resources) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req searchRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	results, err := h.finder.Search(r.Context(), h.kind, req.Text)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, results)
}

// ------------------ UPDATE ------------------

func (h *Resources) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	id := ps.ByName("id")

	var upd models.ResourceUpdate
	if err := utils.DecodeJSON(w, r, &upd); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	if err := h.authorize(ctx, id); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	updated, err := h.store.ReplaceFieldsByID(ctx, id, upd)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	mq.EmitQuietly(ctx, h.emitter, mq.NewEvent(mq.ResourceUpdated, h.kind, id, middleware.UserIDFromContext(ctx)))

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// ------------------ DELETE ------------------

func (h *Resources) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	id := ps.ByName("id")

	if err := h.authorize(ctx, id); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	if err := h.store.DeleteByID(ctx, id); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	if err := h.interactions.Forget(ctx, h.kind, id); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	mq.EmitQuietly(ctx, h.emitter, mq.NewEvent(mq.ResourceDeleted, h.kind, id, middleware.UserIDFromContext(ctx)))

	w.WriteHeader(http.StatusNoContent)
}

// ------------------ INTERACTIONS ------------------

func (h *Resources) Like(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.record(w, r, models.Like, ps.ByName("id"))
}

func (h *Resources) View(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.record(w, r, models.View, ps.ByName("id"))
}

func (h *Resources) record(w http.ResponseWriter, r *http.Request, i models.Interaction, id string) {
	ctx := r.Context()
	if err := h.interactions.Record(ctx, h.kind, i, middleware.UserIDFromContext(ctx), id); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "OK"})
}

func (h *Resources) find(ctx context.Context, id string) (*models.Resource, error) {
	res, err := h.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errs.NotFound("%s not found", h.kind.Title())
	}
	return res, nil
}

// authorize allows the poster and admins.
func (h *Resources) authorize(ctx context.Context, id string) error {
	res, err := h.find(ctx, id)
	if err != nil {
		return err
	}
	userID := middleware.UserIDFromContext(ctx)
	if res.PosterID != userID && !models.HasRole(middleware.RolesFromContext(ctx), RoleAdmin) {
		return errs.Forbidden("only the poster can change this %s", h.kind)
	}
	return nil
}
