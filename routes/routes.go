package routes

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"folio/api"
	"folio/middleware"
	"folio/ratelim"
)

// AddResourceRoutes mounts CRUD and interaction routes for one kind under
// /v1/{jobs,posts}. Reads are public; writes need a bearer token and are
// rate limited.
func AddResourceRoutes(router *httprouter.Router, h *api.Resources, auth *middleware.Authenticator, rateLimiter *ratelim.RateLimiter) {
	base := "/v1/" + h.Kind().Collection()

	router.GET(base, h.List)
	router.GET(base+"/:id", h.Get)
	router.POST(base, rateLimiter.Limit(auth.Authenticate(h.Create)))
	router.PATCH(base+"/:id", rateLimiter.Limit(auth.Authenticate(h.Update)))
	router.DELETE(base+"/:id", rateLimiter.Limit(auth.Authenticate(h.Delete)))
	router.POST(base+"/:id/like", rateLimiter.Limit(auth.Authenticate(h.Like)))
	router.POST(base+"/:id/view", rateLimiter.Limit(auth.Authenticate(h.View)))
}

// AddSearchRoutes mounts POST /v1/search/{jobs,posts}.
func AddSearchRoutes(router *httprouter.Router, h *api.Resources) {
	router.POST("/v1/search/"+h.Kind().Collection(), h.Search)
}

func AddUtilityRoutes(router *httprouter.Router) {
	router.GET("/health", Index)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

// New builds the router for every kind handler.
func New(auth *middleware.Authenticator, rateLimiter *ratelim.RateLimiter, handlers ...*api.Resources) *httprouter.Router {
	router := httprouter.New()
	AddUtilityRoutes(router)
	for _, h := range handlers {
		AddResourceRoutes(router, h, auth, rateLimiter)
		AddSearchRoutes(router, h)
	}
	return router
}
