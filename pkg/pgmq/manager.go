package pgmq

import (
	"context"
	"strings"

	// Packages
	pgxpool "github.com/jackc/pgx/v5/pgxpool"
	pg "github.com/mutablelogic/go-pgmq"
	schema "github.com/mutablelogic/go-pgmq/pkg/pgmq/schema"
	sql "github.com/mutablelogic/go-pgmq/pkg/pgmq/sql"
	zap "go.uber.org/zap"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// QueueService lists, creates and deletes queues, and reads their
// contents and metrics
type QueueService interface {
	ListQueues(ctx context.Context, req schema.QueueListRequest) (*schema.QueueList, error)
	CreateQueue(ctx context.Context, name string) (*schema.Queue, error)
	DeleteQueue(ctx context.Context, name string) bool
	GetQueueDetail(ctx context.Context, name string, page, pageSize uint64) (*schema.MessagePage, error)
	GetQueueStats(ctx context.Context, name string) (*schema.QueueStats, error)
	ListQueueStats(ctx context.Context) ([]schema.QueueStats, error)
}

// MessageService sends, deletes and archives messages, and reads
// archived messages
type MessageService interface {
	SendMessage(ctx context.Context, queue, payload string, delay int) (int64, error)
	SendMessages(ctx context.Context, queue string, payloads []string, delay int) ([]int64, error)
	DeleteMessage(ctx context.Context, queue string, id int64) bool
	ArchiveMessage(ctx context.Context, queue string, id int64) bool
	GetArchivedMessages(ctx context.Context, queue string, page, pageSize uint64) (*schema.MessagePage, error)
}

type Manager struct {
	conn        pg.PoolConn
	log         *zap.Logger
	maxPageSize uint64
}

var _ QueueService = (*Manager)(nil)
var _ MessageService = (*Manager)(nil)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a new manager for the pgmq extension on the connection pool.
func New(ctx context.Context, conn pg.PoolConn, opt ...Opt) (*Manager, error) {
	self := new(Manager)

	// Apply options
	o, err := applyOpts(opt)
	if err != nil {
		return nil, err
	} else {
		self.log = o.log
		self.maxPageSize = o.maxPageSize
	}

	// Parse query SQL
	queries, err := pg.NewQueries(strings.NewReader(sql.Queries))
	if err != nil {
		return nil, err
	}

	// Check and set connection
	if conn == nil {
		return nil, pg.ErrBadParameter.With("connection is nil")
	} else {
		self.conn = conn.WithQueries(queries).(pg.PoolConn)
	}

	// Create the extension
	if o.bootstrap {
		objects, err := pg.NewQueries(strings.NewReader(sql.Objects))
		if err != nil {
			return nil, err
		}
		for _, key := range objects.Keys() {
			if err := self.conn.Exec(ctx, objects.Get(key)); err != nil {
				self.log.Error("bootstrap failed", zap.String("op", key), zap.Error(err))
				return nil, err
			}
		}
	}

	// Return success
	return self, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Conn returns the connection pool, with the queries bound
func (manager *Manager) Conn() pg.PoolConn {
	return manager.conn
}

// Stat returns the connection pool statistics, or nil if there are none
func (manager *Manager) Stat() *pgxpool.Stat {
	return manager.conn.Stat()
}

// Ping checks the store can be reached
func (manager *Manager) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return manager.conn.Ping(ctx)
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// with returns a connection whose queries are traced as spans named after
// the operation
func (manager *Manager) with(op string) pg.Conn {
	return manager.conn.With(pg.TraceSpanNameArg, op)
}
