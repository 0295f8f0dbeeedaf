package httphandler

import (
	"context"
	"errors"
	"net/http"

	// Packages
	pgxpool "github.com/jackc/pgx/v5/pgxpool"
	pg "github.com/mutablelogic/go-pgmq"
	pgmq "github.com/mutablelogic/go-pgmq/pkg/pgmq"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Manager is the set of operations served over HTTP
type Manager interface {
	pgmq.QueueService
	pgmq.MessageService

	// Check the store can be reached
	Ping(context.Context) error

	// Connection pool statistics, or nil
	Stat() *pgxpool.Stat
}

var _ Manager = (*pgmq.Manager)(nil)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterBackendHandlers registers all queue and message HTTP handlers on
// the provided router with the given path prefix. The manager must be non-nil.
func RegisterBackendHandlers(router *http.ServeMux, prefix string, manager Manager, middleware HTTPMiddlewareFuncs) {
	RegisterQueueHandlers(router, prefix, manager, middleware)
	RegisterMessageHandlers(router, prefix, manager, middleware)
	RegisterMetricsHandler(router, prefix, manager, middleware)
	RegisterHealthHandler(router, prefix, manager, middleware)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func joinPath(prefix, path string) string {
	return types.JoinPath(prefix, path)
}

// httperr converts pg errors to appropriate HTTP errors.
// Returns the original error if it's already an httpresponse.Err,
// otherwise maps pg errors to their HTTP equivalents.
func httperr(err error) error {
	if err == nil {
		return nil
	}

	// If already an HTTP error, return as-is
	var httpErr httpresponse.Err
	if errors.As(err, &httpErr) {
		return err
	}

	// Map pg errors to HTTP errors
	switch {
	case errors.Is(err, pg.ErrNotFound):
		return httpresponse.ErrNotFound.With(err.Error())
	case errors.Is(err, pg.ErrBadParameter):
		return httpresponse.ErrBadRequest.With(err.Error())
	case errors.Is(err, pg.ErrConflict):
		return httpresponse.ErrConflict.With(err.Error())
	case errors.Is(err, pg.ErrNotImplemented):
		return httpresponse.ErrNotImplemented.With(err.Error())
	case errors.Is(err, pg.ErrNotAvailable), errors.Is(err, context.DeadlineExceeded):
		return httpresponse.Err(http.StatusServiceUnavailable).With(err.Error())
	default:
		return httpresponse.ErrInternalError.With(err.Error())
	}
}
