package pgmq

import (
	// Packages
	pg "github.com/mutablelogic/go-pgmq"
	schema "github.com/mutablelogic/go-pgmq/pkg/pgmq/schema"
	zap "go.uber.org/zap"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for the manager
type Opt func(*opts) error

type opts struct {
	log         *zap.Logger
	bootstrap   bool
	maxPageSize uint64
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithLogger sets the structured logger. Operations are logged with the
// op, queue and msg_id fields. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Opt {
	return func(o *opts) error {
		if log == nil {
			return pg.ErrBadParameter.With("logger is nil")
		}
		o.log = log
		return nil
	}
}

// WithBootstrap creates the pgmq extension, if it does not already exist,
// when the manager is created
func WithBootstrap() Opt {
	return func(o *opts) error {
		o.bootstrap = true
		return nil
	}
}

// WithMaxPageSize sets the largest page size accepted when reading
// messages
func WithMaxPageSize(n uint64) Opt {
	return func(o *opts) error {
		if n < 1 {
			return pg.ErrBadParameter.With("max page size must be >= 1")
		}
		o.maxPageSize = n
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func applyOpts(opt []Opt) (opts, error) {
	// Set defaults
	o := opts{
		log:         zap.NewNop(),
		maxPageSize: schema.MaxPageSize,
	}

	// Apply options
	for _, fn := range opt {
		if err := fn(&o); err != nil {
			return opts{}, err
		}
	}

	// Return success
	return o, nil
}
