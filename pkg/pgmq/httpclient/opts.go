package httpclient

import (
	"fmt"
	"net/url"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type opt struct {
	url.Values
}

// Opt is an option to set on the client request.
type Opt func(*opt) error

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func applyOpts(opts ...Opt) (*opt, error) {
	o := new(opt)
	o.Values = make(url.Values)
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithOffsetLimit sets offset and limit query parameters for listing queues.
func WithOffsetLimit(offset uint64, limit *uint64) Opt {
	return func(o *opt) error {
		if offset > 0 {
			o.Set("offset", fmt.Sprint(offset))
		}
		if limit != nil {
			o.Set("limit", fmt.Sprint(*limit))
		}
		return nil
	}
}

// WithPage sets the page and page size query parameters for listing
// messages. Zero values are omitted, so the server defaults apply.
func WithPage(page, pageSize uint64) Opt {
	return func(o *opt) error {
		if page > 0 {
			o.Set("page", fmt.Sprint(page))
		}
		if pageSize > 0 {
			o.Set("page_size", fmt.Sprint(pageSize))
		}
		return nil
	}
}
