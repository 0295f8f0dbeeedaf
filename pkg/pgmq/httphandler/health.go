package httphandler

import (
	"net/http"

	// Packages
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type healthResponse struct {
	Status string `json:"status"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterHealthHandler registers a HTTP handler which returns 200 when the
// store can be reached, and 503 when it cannot
func RegisterHealthHandler(router *http.ServeMux, prefix string, manager Manager, middleware HTTPMiddlewareFuncs) {
	router.HandleFunc(joinPath(prefix, "health"), middleware.Wrap(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if err := manager.Ping(r.Context()); err != nil {
				_ = httpresponse.Error(w, httpresponse.Err(http.StatusServiceUnavailable).With(err.Error()))
				return
			}
			_ = httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), healthResponse{Status: "ok"})
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	}))
}
