package pgmq

import (
	"context"
	"errors"

	// Packages
	pg "github.com/mutablelogic/go-pgmq"
	schema "github.com/mutablelogic/go-pgmq/pkg/pgmq/schema"
	zap "go.uber.org/zap"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - QUEUE

// ListQueues returns queues with their message counts
func (manager *Manager) ListQueues(ctx context.Context, req schema.QueueListRequest) (*schema.QueueList, error) {
	const op = "ListQueues"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var list schema.QueueList
	if err := manager.with(op).Tx(ctx, func(conn pg.Conn) error {
		if err := conn.List(ctx, &list, req); err != nil {
			return err
		}

		// Count messages, skipping queues dropped since they were listed. Each
		// count runs in a savepoint so a missing table does not abort the list.
		queues := make([]schema.Queue, 0, len(list.Body))
		for _, queue := range list.Body {
			if err := conn.Tx(ctx, func(conn pg.Conn) error {
				return conn.Get(ctx, &queue.QueueCounts, schema.QueueCountRequest{Queue: queue.Queue})
			}); errors.Is(err, pg.ErrNotFound) {
				manager.log.Debug("queue dropped while listing", zap.String("op", op), zap.String("queue", queue.Queue))
				if list.Count > 0 {
					list.Count--
				}
				continue
			} else if err != nil {
				return err
			}
			queues = append(queues, queue)
		}
		list.Body = queues
		return nil
	}); err != nil {
		manager.log.Error("list queues failed", zap.String("op", op), zap.Error(err))
		return nil, err
	}

	// Return the list
	list.QueueListRequest = req
	return &list, nil
}

// CreateQueue creates a new queue, and returns it. Returns ErrConflict if the
// queue already exists.
func (manager *Manager) CreateQueue(ctx context.Context, name string) (*schema.Queue, error) {
	const op = "CreateQueue"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var queue schema.Queue
	if err := manager.with(op).Tx(ctx, func(conn pg.Conn) error {
		// Serialize creates of the same name until commit
		if err := conn.Get(ctx, nil, schema.QueueLock(name)); err != nil {
			return err
		}

		// Check for an existing queue
		if err := conn.Get(ctx, &queue, schema.QueueName(name)); err == nil {
			return pg.ErrConflict.Withf("queue %q already exists", queue.Queue)
		} else if !errors.Is(err, pg.ErrNotFound) {
			return err
		}

		// Create the queue and return it
		if err := conn.Insert(ctx, nil, schema.QueueMeta{Queue: name}); err != nil {
			return err
		}
		return conn.Get(ctx, &queue, schema.QueueName(name))
	}); err != nil {
		manager.log.Error("create queue failed", zap.String("op", op), zap.String("queue", name), zap.Error(err))
		return nil, err
	}

	manager.log.Info("queue created", zap.String("op", op), zap.String("queue", queue.Queue))
	return &queue, nil
}

// DeleteQueue drops a queue with its active and archived messages. Returns
// false if the queue could not be dropped, including when it does not exist.
func (manager *Manager) DeleteQueue(ctx context.Context, name string) bool {
	const op = "DeleteQueue"
	if err := ctx.Err(); err != nil {
		manager.log.Error("delete queue failed", zap.String("op", op), zap.String("queue", name), zap.Error(err))
		return false
	}

	var ok schema.Ok
	if err := manager.with(op).Delete(ctx, &ok, schema.QueueName(name)); err != nil {
		manager.log.Error("delete queue failed", zap.String("op", op), zap.String("queue", name), zap.Error(err))
		return false
	} else if !ok {
		manager.log.Warn("queue not deleted", zap.String("op", op), zap.String("queue", name))
		return false
	}

	manager.log.Info("queue deleted", zap.String("op", op), zap.String("queue", name))
	return true
}

// GetQueueDetail returns a page of active messages, without changing their
// visibility or read count. Returns ErrNotFound if the queue does not exist.
func (manager *Manager) GetQueueDetail(ctx context.Context, name string, page, pageSize uint64) (*schema.MessagePage, error) {
	const op = "GetQueueDetail"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := schema.MessageListRequest{
		Queue:              name,
		MessagePageRequest: schema.MessagePageRequest{Page: page, PageSize: pageSize},
		MaxPageSize:        manager.maxPageSize,
	}
	result := schema.MessagePage{
		Queue:              name,
		MessagePageRequest: req.MessagePageRequest,
	}
	if err := manager.with(op).Tx(ctx, func(conn pg.Conn) error {
		return conn.List(ctx, &result, req)
	}); err != nil {
		manager.log.Error("get queue detail failed", zap.String("op", op), zap.String("queue", name), zap.Error(err))
		return nil, err
	}

	return &result, nil
}

// GetQueueStats returns the metrics for a queue, or nil if the queue does
// not exist
func (manager *Manager) GetQueueStats(ctx context.Context, name string) (*schema.QueueStats, error) {
	const op = "GetQueueStats"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var stats schema.QueueStats
	if err := manager.with(op).Get(ctx, &stats, schema.QueueStatsRequest{Queue: name}); errors.Is(err, pg.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		manager.log.Error("get queue stats failed", zap.String("op", op), zap.String("queue", name), zap.Error(err))
		return nil, err
	}

	return &stats, nil
}

// ListQueueStats returns the metrics for all queues
func (manager *Manager) ListQueueStats(ctx context.Context) ([]schema.QueueStats, error) {
	const op = "ListQueueStats"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var list schema.QueueStatsList
	if err := manager.with(op).List(ctx, &list, schema.QueueStatsRequest{}); err != nil {
		manager.log.Error("list queue stats failed", zap.String("op", op), zap.Error(err))
		return nil, err
	}

	return list.Body, nil
}
