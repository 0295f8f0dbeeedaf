package schema

import (
	"strings"
	"time"

	// Packages
	pg "github.com/mutablelogic/go-pgmq"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// QueueName is the name of a queue. It is the only type which places a
// queue name in identifier position within a query.
type QueueName string

type QueueMeta struct {
	Queue string `json:"queue,omitempty" arg:"" help:"Queue name"`
}

type QueueCounts struct {
	TotalMessages    uint64 `json:"total_messages"`
	InFlightMessages uint64 `json:"in_flight_messages"`
	ArchivedMessages uint64 `json:"archived_messages"`
}

type Queue struct {
	QueueMeta
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	IsPartitioned bool       `json:"is_partitioned,omitempty"`
	IsUnlogged    bool       `json:"is_unlogged,omitempty"`
	QueueCounts
}

type QueueListRequest struct {
	pg.OffsetLimit
}

type QueueList struct {
	QueueListRequest
	Count uint64  `json:"count"`
	Body  []Queue `json:"body,omitempty"`
}

// QueueCountRequest selects the message counts for a queue
type QueueCountRequest struct {
	Queue string
}

// QueueDeleteResponse is the result of dropping a queue
type QueueDeleteResponse struct {
	Queue string `json:"queue"`
	Ok    bool   `json:"ok"`
}

// QueueLock selects a transaction-scoped lock on a queue name, held until
// the transaction ends
type QueueLock string

// Ok is the boolean result of a store function
type Ok bool

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (q Queue) String() string {
	return stringify(q)
}

func (q QueueMeta) String() string {
	return stringify(q)
}

func (q QueueList) String() string {
	return stringify(q)
}

func (q QueueDeleteResponse) String() string {
	return stringify(q)
}

////////////////////////////////////////////////////////////////////////////////
// READER

// Queue
func (q *Queue) Scan(row pg.Row) error {
	return row.Scan(&q.Queue, &q.CreatedAt, &q.IsPartitioned, &q.IsUnlogged)
}

// QueueCounts
func (c *QueueCounts) Scan(row pg.Row) error {
	return row.Scan(&c.TotalMessages, &c.InFlightMessages, &c.ArchivedMessages)
}

// QueueList
func (l *QueueList) Scan(row pg.Row) error {
	var queue Queue
	if err := queue.Scan(row); err != nil {
		return err
	}
	l.Body = append(l.Body, queue)
	return nil
}

// QueueListCount
func (l *QueueList) ScanCount(row pg.Row) error {
	return row.Scan(&l.Count)
}

// Ok
func (o *Ok) Scan(row pg.Row) error {
	var ok *bool
	if err := row.Scan(&ok); err != nil {
		return err
	}
	*o = Ok(ok != nil && *ok)
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// SELECTOR

func (q QueueName) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if _, err := q.Bind(bind); err != nil {
		return "", err
	}

	switch op {
	case pg.Get:
		return bind.Replace("${pgmq.get}"), nil
	case pg.Delete:
		return bind.Replace("${pgmq.drop}"), nil
	default:
		return "", pg.ErrNotImplemented.Withf("unsupported QueueName operation %q", op)
	}
}

func (q QueueLock) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if _, err := QueueName(q).Bind(bind); err != nil {
		return "", err
	}

	switch op {
	case pg.Get:
		return bind.Replace("${pgmq.lock}"), nil
	default:
		return "", pg.ErrNotImplemented.Withf("unsupported QueueLock operation %q", op)
	}
}

func (l QueueListRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	l.OffsetLimit.Bind(bind, QueueListLimit)

	switch op {
	case pg.List:
		return bind.Replace("${pgmq.list}"), nil
	default:
		return "", pg.ErrNotImplemented.Withf("unsupported QueueListRequest operation %q", op)
	}
}

func (r QueueCountRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if _, err := QueueName(r.Queue).Bind(bind); err != nil {
		return "", err
	}

	switch op {
	case pg.Get:
		return bind.Replace("${pgmq.counts}"), nil
	default:
		return "", pg.ErrNotImplemented.Withf("unsupported QueueCountRequest operation %q", op)
	}
}

////////////////////////////////////////////////////////////////////////////////
// WRITER

// Insert
func (q QueueMeta) Insert(bind *pg.Bind) (string, error) {
	if _, err := QueueName(q.Queue).Bind(bind); err != nil {
		return "", err
	}
	return bind.Replace("${pgmq.create}"), nil
}

// Update is not supported, queues have no mutable attributes
func (q QueueMeta) Update(bind *pg.Bind) error {
	return pg.ErrNotImplemented.With("queues cannot be updated")
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Normalize returns the lowercased queue name, or an error if it is not a
// valid queue name
func (q QueueName) Normalize() (string, error) {
	name := strings.ToLower(strings.TrimSpace(string(q)))
	if name == "" {
		return "", pg.ErrBadParameter.With("missing queue name")
	} else if len(name) > MaxQueueNameLength {
		return "", pg.ErrBadParameter.Withf("queue name %q is longer than %d characters", name, MaxQueueNameLength)
	} else if !reQueueName.MatchString(name) {
		return "", pg.ErrBadParameter.Withf("invalid queue name: %q", name)
	}
	return name, nil
}

// Bind sets the queue name and the queue and archive table identifiers,
// and returns the normalized queue name. The tables are substituted into
// queries with the ${"queue_table"} and ${"archive_table"} syntax which
// double-quotes them.
func (q QueueName) Bind(bind *pg.Bind) (string, error) {
	name, err := q.Normalize()
	if err != nil {
		return "", err
	}
	bind.Set("name", name)
	bind.Set("queue_table", QueueTablePrefix+name)
	bind.Set("archive_table", ArchiveTablePrefix+name)
	return name, nil
}
