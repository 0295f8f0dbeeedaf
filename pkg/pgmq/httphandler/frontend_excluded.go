package httphandler

import (
	"net/http"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

// RegisterFrontendHandler registers a fallback handler when the frontend is
// not included
func RegisterFrontendHandler(router *http.ServeMux, prefix string, middleware HTTPMiddlewareFuncs) {
	router.HandleFunc(joinPath(prefix, "/"), middleware.Wrap(func(w http.ResponseWriter, r *http.Request) {
		_ = httpresponse.Error(w, httpresponse.ErrNotFound, r.URL.String())
	}))
}
