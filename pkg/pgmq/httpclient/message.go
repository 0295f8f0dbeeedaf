package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	// Packages
	client "github.com/mutablelogic/go-client"
	pg "github.com/mutablelogic/go-pgmq"
	schema "github.com/mutablelogic/go-pgmq/pkg/pgmq/schema"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ListMessages returns a page of active messages (GET /queue/{name}/message).
func (c *Client) ListMessages(ctx context.Context, queue string, opts ...Opt) (*schema.MessagePage, error) {
	return c.page(ctx, queue, "message", opts...)
}

// ListArchivedMessages returns a page of archived messages
// (GET /queue/{name}/archive).
func (c *Client) ListArchivedMessages(ctx context.Context, queue string, opts ...Opt) (*schema.MessagePage, error) {
	return c.page(ctx, queue, "archive", opts...)
}

// SendMessage sends one or more messages to a queue
// (POST /queue/{name}/message), and returns the message ids. The payloads
// must be valid JSON. A single payload which is an array is sent as a batch
// of one.
func (c *Client) SendMessage(ctx context.Context, queue string, meta ...schema.MessageMeta) ([]int64, error) {
	var payload schema.MessageSendRequest
	switch {
	case len(meta) == 0:
		return nil, pg.ErrBadParameter.With("no messages to send")
	case len(meta) == 1 && !strings.HasPrefix(strings.TrimSpace(meta[0].Message), "["):
		payload.Message = json.RawMessage(meta[0].Message)
		payload.Delay = meta[0].Delay
	default:
		messages := make([]json.RawMessage, len(meta))
		for i, m := range meta {
			if m.Delay != meta[0].Delay {
				return nil, pg.ErrBadParameter.With("messages must have the same delay")
			}
			messages[i] = json.RawMessage(m.Message)
		}
		data, err := json.Marshal(messages)
		if err != nil {
			return nil, err
		}
		payload.Message = data
		payload.Delay = meta[0].Delay
	}

	req, err := client.NewJSONRequest(payload)
	if err != nil {
		return nil, err
	}

	// Perform request
	var response schema.MessageSendResponse
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("queue", queue, "message")); err != nil {
		return nil, err
	}

	// Return the response
	return response.Ids, nil
}

// DeleteMessage deletes an active message
// (DELETE /queue/{name}/message/{id}), and returns false if it could not be
// deleted.
func (c *Client) DeleteMessage(ctx context.Context, queue string, id int64) (bool, error) {
	req := client.NewRequestEx(http.MethodDelete, "")

	// Perform request
	var response schema.MessageActionResponse
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("queue", queue, "message", fmt.Sprint(id))); err != nil {
		return false, err
	}

	// Return the response
	return response.Ok, nil
}

// ArchiveMessage moves an active message to the archive
// (POST /queue/{name}/archive/{id}), and returns false if it could not be
// archived.
func (c *Client) ArchiveMessage(ctx context.Context, queue string, id int64) (bool, error) {
	req := client.NewRequestEx(http.MethodPost, "")

	// Perform request
	var response schema.MessageActionResponse
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("queue", queue, "archive", fmt.Sprint(id))); err != nil {
		return false, err
	}

	// Return the response
	return response.Ok, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (c *Client) page(ctx context.Context, queue, path string, opts ...Opt) (*schema.MessagePage, error) {
	req := client.NewRequest()

	// Apply options
	opt, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}

	// Perform request
	var response schema.MessagePage
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("queue", queue, path), client.OptQuery(opt.Values)); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}
