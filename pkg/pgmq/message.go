package pgmq

import (
	"context"

	// Packages
	pg "github.com/mutablelogic/go-pgmq"
	schema "github.com/mutablelogic/go-pgmq/pkg/pgmq/schema"
	zap "go.uber.org/zap"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - MESSAGE

// SendMessage sends a message to a queue, which becomes visible after
// delay seconds, and returns the message id
func (manager *Manager) SendMessage(ctx context.Context, queue, payload string, delay int) (int64, error) {
	const op = "SendMessage"
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var id schema.MessageId
	if conn, err := manager.send(op, queue); err != nil {
		manager.log.Error("send message failed", zap.String("op", op), zap.String("queue", queue), zap.Error(err))
		return 0, err
	} else if err := conn.Insert(ctx, &id, schema.MessageMeta{Message: payload, Delay: delay}); err != nil {
		manager.log.Error("send message failed", zap.String("op", op), zap.String("queue", queue), zap.Error(err))
		return 0, err
	}

	manager.log.Info("message sent", zap.String("op", op), zap.String("queue", queue), zap.Int64("msg_id", int64(id)))
	return int64(id), nil
}

// SendMessages sends messages to a queue in a single batch, and returns the
// message ids in the same order as the payloads
func (manager *Manager) SendMessages(ctx context.Context, queue string, payloads []string, delay int) ([]int64, error) {
	const op = "SendMessages"
	if err := ctx.Err(); err != nil {
		return nil, err
	} else if len(payloads) == 0 {
		return nil, pg.ErrBadParameter.With("no messages to send")
	}

	conn, err := manager.send(op, queue)
	if err != nil {
		manager.log.Error("send messages failed", zap.String("op", op), zap.String("queue", queue), zap.Error(err))
		return nil, err
	}

	var ids schema.MessageIds
	if err := conn.Bulk(ctx, func(conn pg.Conn) error {
		for _, payload := range payloads {
			if err := conn.Insert(ctx, &ids, schema.MessageMeta{Message: payload, Delay: delay}); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		manager.log.Error("send messages failed", zap.String("op", op), zap.String("queue", queue), zap.Error(err))
		return nil, err
	}

	manager.log.Info("messages sent", zap.String("op", op), zap.String("queue", queue), zap.Int64s("msg_id", ids))
	return ids, nil
}

// DeleteMessage removes an active message. Returns false if the message
// could not be deleted, including when it does not exist.
func (manager *Manager) DeleteMessage(ctx context.Context, queue string, id int64) bool {
	const op = "DeleteMessage"
	return manager.action(ctx, op, schema.MessageKey{Queue: queue, Id: id}, func(conn pg.Conn, ok *schema.Ok, key schema.MessageKey) error {
		return conn.Delete(ctx, ok, key)
	})
}

// ArchiveMessage moves an active message to the archive. Returns false if
// the message could not be archived, including when it does not exist.
func (manager *Manager) ArchiveMessage(ctx context.Context, queue string, id int64) bool {
	const op = "ArchiveMessage"
	return manager.action(ctx, op, schema.MessageKey{Queue: queue, Id: id}, func(conn pg.Conn, ok *schema.Ok, key schema.MessageKey) error {
		return conn.Update(ctx, ok, key, nil)
	})
}

// GetArchivedMessages returns a page of archived messages, most recently
// enqueued first. Returns ErrNotFound if the queue does not exist.
func (manager *Manager) GetArchivedMessages(ctx context.Context, queue string, page, pageSize uint64) (*schema.MessagePage, error) {
	const op = "GetArchivedMessages"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := schema.MessageArchiveRequest{
		Queue:              queue,
		MessagePageRequest: schema.MessagePageRequest{Page: page, PageSize: pageSize},
		MaxPageSize:        manager.maxPageSize,
	}
	result := schema.MessagePage{
		Queue:              queue,
		MessagePageRequest: req.MessagePageRequest,
	}
	if err := manager.with(op).Tx(ctx, func(conn pg.Conn) error {
		return conn.List(ctx, &result, req)
	}); err != nil {
		manager.log.Error("get archived messages failed", zap.String("op", op), zap.String("queue", queue), zap.Error(err))
		return nil, err
	}

	return &result, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// send returns a connection with the queue name bound for sending
func (manager *Manager) send(op, queue string) (pg.Conn, error) {
	name, err := schema.QueueName(queue).Normalize()
	if err != nil {
		return nil, err
	}
	return manager.with(op).With("name", name), nil
}

// action deletes or archives a message, logging and returning false on
// failure
func (manager *Manager) action(ctx context.Context, op string, key schema.MessageKey, fn func(pg.Conn, *schema.Ok, schema.MessageKey) error) bool {
	fields := []zap.Field{zap.String("op", op), zap.String("queue", key.Queue), zap.Int64("msg_id", key.Id)}
	if err := ctx.Err(); err != nil {
		manager.log.Error("message action failed", append(fields, zap.Error(err))...)
		return false
	}

	var ok schema.Ok
	if err := fn(manager.with(op), &ok, key); err != nil {
		manager.log.Error("message action failed", append(fields, zap.Error(err))...)
		return false
	} else if !ok {
		manager.log.Warn("message not found", fields...)
		return false
	}

	manager.log.Info("message action succeeded", fields...)
	return true
}
