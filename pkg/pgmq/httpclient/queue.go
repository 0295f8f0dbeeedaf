package httpclient

import (
	"context"
	"net/http"

	// Packages
	client "github.com/mutablelogic/go-client"
	schema "github.com/mutablelogic/go-pgmq/pkg/pgmq/schema"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ListQueues returns queues with their message counts (GET /queue).
func (c *Client) ListQueues(ctx context.Context, opts ...Opt) (*schema.QueueList, error) {
	req := client.NewRequest()

	// Apply options
	opt, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}

	// Perform request
	var response schema.QueueList
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("queue"), client.OptQuery(opt.Values)); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}

// CreateQueue creates a new queue (POST /queue).
func (c *Client) CreateQueue(ctx context.Context, name string) (*schema.Queue, error) {
	req, err := client.NewJSONRequest(schema.QueueMeta{Queue: name})
	if err != nil {
		return nil, err
	}

	// Perform request
	var response schema.Queue
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("queue")); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}

// GetQueueStats returns the metrics for a queue (GET /queue/{name}).
func (c *Client) GetQueueStats(ctx context.Context, name string) (*schema.QueueStats, error) {
	req := client.NewRequest()

	// Perform request
	var response schema.QueueStats
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("queue", name)); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}

// DeleteQueue deletes a queue with its messages (DELETE /queue/{name}),
// and returns false if it could not be deleted.
func (c *Client) DeleteQueue(ctx context.Context, name string) (bool, error) {
	req := client.NewRequestEx(http.MethodDelete, "")

	// Perform request
	var response schema.QueueDeleteResponse
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("queue", name)); err != nil {
		return false, err
	}

	// Return the response
	return response.Ok, nil
}
