/*
Package pgmq administers queues and messages of the PostgreSQL pgmq
extension: listing, creating and dropping queues, paging through active and
archived messages, sending, deleting and archiving messages, and reading
queue metrics.

# Manager

Create a manager on a connection pool:

	pool, err := pg.NewPool(ctx, pg.WithURL(url))
	if err != nil {
		panic(err)
	}
	mgr, err := pgmq.New(ctx, pool, pgmq.WithBootstrap(), pgmq.WithLogger(log))
	if err != nil {
		panic(err)
	}

# Queues

	queue, err := mgr.CreateQueue(ctx, "orders")
	list, err := mgr.ListQueues(ctx, schema.QueueListRequest{})
	stats, err := mgr.GetQueueStats(ctx, "orders") // nil when the queue does not exist
	ok := mgr.DeleteQueue(ctx, "orders")

# Messages

	id, err := mgr.SendMessage(ctx, "orders", `{"order_id":1001}`, 0)
	page, err := mgr.GetQueueDetail(ctx, "orders", 1, 20)
	ok := mgr.ArchiveMessage(ctx, "orders", id)
	archived, err := mgr.GetArchivedMessages(ctx, "orders", 1, 20)
	ok = mgr.DeleteMessage(ctx, "orders", id)

Reading a page of active messages does not lease them, so consumers are not
affected. Deleting queues and deleting or archiving messages return false
rather than an error, and the error is logged.

# Subpackages

  - schema: Data types, request/response structures, and SQL generation
  - httphandler: REST API handlers for all queue and message operations
  - httpclient: Typed Go client for the REST API
*/
package pgmq
