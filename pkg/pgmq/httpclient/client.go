package httpclient

import (
	// Packages
	client "github.com/mutablelogic/go-client"
	pg "github.com/mutablelogic/go-pgmq"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type Client struct {
	*client.Client
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a new client for the API at the url, which includes any
// path prefix
func New(url string, opts ...client.ClientOpt) (*Client, error) {
	if url == "" {
		return nil, pg.ErrBadParameter.With("missing url")
	}
	c, err := client.New(append(opts, client.OptEndpoint(url))...)
	if err != nil {
		return nil, err
	}
	return &Client{c}, nil
}
