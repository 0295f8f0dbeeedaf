package httphandler

import (
	"net/http"

	// Packages
	schema "github.com/mutablelogic/go-pgmq/pkg/pgmq/schema"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterQueueHandlers registers HTTP handlers for queue operations
// on the provided router with the given path prefix. The manager must be non-nil.
func RegisterQueueHandlers(router *http.ServeMux, prefix string, manager Manager, middleware HTTPMiddlewareFuncs) {
	router.HandleFunc(joinPath(prefix, "queue"), middleware.Wrap(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = queueList(w, r, manager)
		case http.MethodPost:
			_ = queueCreate(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	}))

	router.HandleFunc(joinPath(prefix, "queue/{name}"), middleware.Wrap(func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		switch r.Method {
		case http.MethodGet:
			_ = queueStats(w, r, manager, name)
		case http.MethodDelete:
			_ = queueDelete(w, r, manager, name)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	}))
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func queueList(w http.ResponseWriter, r *http.Request, manager Manager) error {
	// Parse request
	var req schema.QueueListRequest
	if err := httprequest.Query(r.URL.Query(), &req); err != nil {
		return httpresponse.Error(w, err)
	}

	// List the queues
	response, err := manager.ListQueues(r.Context(), req)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), response)
}

func queueCreate(w http.ResponseWriter, r *http.Request, manager Manager) error {
	// Parse request
	var req schema.QueueMeta
	if err := httprequest.Read(r, &req); err != nil {
		return httpresponse.Error(w, err)
	}

	// Create the queue, which fails if it already exists
	response, err := manager.CreateQueue(r.Context(), req.Queue)
	if err != nil {
		return httpresponse.Error(w, httperr(err), req.Queue)
	}

	// Return success
	return httpresponse.JSON(w, http.StatusCreated, httprequest.Indent(r), response)
}

func queueStats(w http.ResponseWriter, r *http.Request, manager Manager, name string) error {
	stats, err := manager.GetQueueStats(r.Context(), name)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	} else if stats == nil {
		return httpresponse.Error(w, httpresponse.ErrNotFound, name)
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), stats)
}

func queueDelete(w http.ResponseWriter, r *http.Request, manager Manager, name string) error {
	response := schema.QueueDeleteResponse{
		Queue: name,
		Ok:    manager.DeleteQueue(r.Context(), name),
	}

	// Return the result, which is not ok when the queue could not be deleted
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), response)
}
