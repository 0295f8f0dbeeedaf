package httphandler

import (
	"net/http"
	"strconv"

	// Packages
	schema "github.com/mutablelogic/go-pgmq/pkg/pgmq/schema"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterMessageHandlers registers HTTP handlers for message operations
// on the provided router with the given path prefix. The manager must be non-nil.
func RegisterMessageHandlers(router *http.ServeMux, prefix string, manager Manager, middleware HTTPMiddlewareFuncs) {
	router.HandleFunc(joinPath(prefix, "queue/{name}/message"), middleware.Wrap(func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		switch r.Method {
		case http.MethodGet:
			_ = messageList(w, r, manager, name)
		case http.MethodPost:
			_ = messageSend(w, r, manager, name)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	}))

	router.HandleFunc(joinPath(prefix, "queue/{name}/message/{id}"), middleware.Wrap(func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		switch r.Method {
		case http.MethodDelete:
			_ = messageDelete(w, r, manager, name, r.PathValue("id"))
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	}))

	router.HandleFunc(joinPath(prefix, "queue/{name}/archive"), middleware.Wrap(func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		switch r.Method {
		case http.MethodGet:
			_ = messageArchiveList(w, r, manager, name)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	}))

	router.HandleFunc(joinPath(prefix, "queue/{name}/archive/{id}"), middleware.Wrap(func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		switch r.Method {
		case http.MethodPost:
			_ = messageArchive(w, r, manager, name, r.PathValue("id"))
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	}))
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func messageList(w http.ResponseWriter, r *http.Request, manager Manager, name string) error {
	req, err := pageRequest(r)
	if err != nil {
		return httpresponse.Error(w, err)
	}

	// Peek at the active messages
	response, err := manager.GetQueueDetail(r.Context(), name, req.Page, req.PageSize)
	if err != nil {
		return httpresponse.Error(w, httperr(err), name)
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), response)
}

func messageArchiveList(w http.ResponseWriter, r *http.Request, manager Manager, name string) error {
	req, err := pageRequest(r)
	if err != nil {
		return httpresponse.Error(w, err)
	}

	// Read the archived messages
	response, err := manager.GetArchivedMessages(r.Context(), name, req.Page, req.PageSize)
	if err != nil {
		return httpresponse.Error(w, httperr(err), name)
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), response)
}

func messageSend(w http.ResponseWriter, r *http.Request, manager Manager, name string) error {
	// Parse request
	var req schema.MessageSendRequest
	if err := httprequest.Read(r, &req); err != nil {
		return httpresponse.Error(w, err)
	}
	payloads, err := req.Payloads()
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Send one message, or a batch
	response := schema.MessageSendResponse{Queue: name}
	if len(payloads) == 1 {
		id, err := manager.SendMessage(r.Context(), name, payloads[0], req.Delay)
		if err != nil {
			return httpresponse.Error(w, httperr(err), name)
		}
		response.Ids = []int64{id}
	} else {
		ids, err := manager.SendMessages(r.Context(), name, payloads, req.Delay)
		if err != nil {
			return httpresponse.Error(w, httperr(err), name)
		}
		response.Ids = ids
	}

	// Return success
	return httpresponse.JSON(w, http.StatusCreated, httprequest.Indent(r), response)
}

func messageDelete(w http.ResponseWriter, r *http.Request, manager Manager, name, id string) error {
	key, err := messageKey(name, id)
	if err != nil {
		return httpresponse.Error(w, err)
	}

	// Return the result, which is not ok when the message could not be deleted
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), schema.MessageActionResponse{
		MessageKey: key,
		Ok:         manager.DeleteMessage(r.Context(), key.Queue, key.Id),
	})
}

func messageArchive(w http.ResponseWriter, r *http.Request, manager Manager, name, id string) error {
	key, err := messageKey(name, id)
	if err != nil {
		return httpresponse.Error(w, err)
	}

	// Return the result, which is not ok when the message could not be archived
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), schema.MessageActionResponse{
		MessageKey: key,
		Ok:         manager.ArchiveMessage(r.Context(), key.Queue, key.Id),
	})
}

// pageRequest returns the page and page size from the query, with defaults
// when they are absent
func pageRequest(r *http.Request) (schema.MessagePageRequest, error) {
	var req schema.MessagePageRequest
	if err := httprequest.Query(r.URL.Query(), &req); err != nil {
		return req, err
	}
	if !r.URL.Query().Has("page") {
		req.Page = 1
	}
	if !r.URL.Query().Has("page_size") {
		req.PageSize = schema.DefaultPageSize
	}
	return req, nil
}

func messageKey(name, id string) (schema.MessageKey, error) {
	value, err := strconv.ParseInt(id, 10, 64)
	if err != nil || value <= 0 {
		return schema.MessageKey{}, httpresponse.ErrBadRequest.Withf("invalid message id: %q", id)
	}
	return schema.MessageKey{Queue: name, Id: value}, nil
}
