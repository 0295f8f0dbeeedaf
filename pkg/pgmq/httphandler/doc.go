/*
Package httphandler provides HTTP handlers for the pgmq package.

# Queue Endpoints

	GET    /queue                       - List queues (optional ?offset, ?limit)
	POST   /queue                       - Create a queue
	GET    /queue/{name}                - Get queue metrics
	DELETE /queue/{name}                - Delete a queue and its messages

# Message Endpoints

	GET    /queue/{name}/message        - Page of active messages (optional ?page, ?page_size)
	POST   /queue/{name}/message        - Send a message, or an array of messages
	DELETE /queue/{name}/message/{id}   - Delete a message
	GET    /queue/{name}/archive        - Page of archived messages (optional ?page, ?page_size)
	POST   /queue/{name}/archive/{id}   - Archive a message

Deleting a queue, and deleting or archiving a message, always return 200 with
an "ok" field which is false when the operation failed.

# Other Endpoints

	GET    /metrics                     - Prometheus metrics
	GET    /health                      - Store health

# Usage

	manager, _ := pgmq.New(ctx, conn)
	router := http.NewServeMux()
	middleware := httphandler.HTTPMiddlewareFuncs{httphandler.LogMiddleware(log)}

	httphandler.RegisterBackendHandlers(router, "/api", manager, middleware)
	httphandler.RegisterFrontendHandler(router, "", middleware)

	http.ListenAndServe(":8080", router)
*/
package httphandler
