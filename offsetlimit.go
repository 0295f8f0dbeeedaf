package pg

import (
	"fmt"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// OffsetLimit is embedded in list requests to page through results
type OffsetLimit struct {
	Offset uint64  `json:"offset,omitempty"`
	Limit  *uint64 `json:"limit,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Bind sets the "offsetlimit" bind variable. A nil limit, or a limit
// greater than max, is clamped to max. A max of zero means no limit.
func (r *OffsetLimit) Bind(bind *Bind, max uint64) {
	var limit uint64
	if r.Limit != nil {
		limit = *r.Limit
	}
	if max > 0 && (r.Limit == nil || limit > max) {
		limit = max
	}

	switch {
	case r.Limit == nil && max == 0 && r.Offset == 0:
		bind.Set("offsetlimit", "")
	case r.Limit == nil && max == 0:
		bind.Set("offsetlimit", fmt.Sprintf("OFFSET %d", r.Offset))
	case r.Offset == 0:
		bind.Set("offsetlimit", fmt.Sprintf("LIMIT %d", limit))
	default:
		bind.Set("offsetlimit", fmt.Sprintf("OFFSET %d LIMIT %d", r.Offset, limit))
	}
}

