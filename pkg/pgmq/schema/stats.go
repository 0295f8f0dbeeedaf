package schema

import (
	"time"

	// Packages
	pg "github.com/mutablelogic/go-pgmq"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// QueueStats are the metrics for a queue. The message ages are nil when
// the queue is empty.
type QueueStats struct {
	Queue           string    `json:"queue"`
	QueueLength     int64     `json:"queue_length"`
	NewestMsgAgeSec *int64    `json:"newest_msg_age_sec"`
	OldestMsgAgeSec *int64    `json:"oldest_msg_age_sec"`
	TotalMessages   int64     `json:"total_messages"`
	ScrapeTime      time.Time `json:"scrape_time"`
}

// QueueStatsRequest selects the metrics for one queue, or for all queues
// when listing
type QueueStatsRequest struct {
	Queue string
}

type QueueStatsList struct {
	Body []QueueStats `json:"body,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (s QueueStats) String() string {
	return stringify(s)
}

func (s QueueStatsList) String() string {
	return stringify(s)
}

////////////////////////////////////////////////////////////////////////////////
// READER

func (s *QueueStats) Scan(row pg.Row) error {
	var newest, oldest *int32
	if err := row.Scan(&s.Queue, &s.QueueLength, &newest, &oldest, &s.TotalMessages, &s.ScrapeTime); err != nil {
		return err
	}
	s.NewestMsgAgeSec = age(newest)
	s.OldestMsgAgeSec = age(oldest)
	return nil
}

func (l *QueueStatsList) Scan(row pg.Row) error {
	var stats QueueStats
	if err := stats.Scan(row); err != nil {
		return err
	}
	l.Body = append(l.Body, stats)
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// SELECTOR

func (r QueueStatsRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	switch op {
	case pg.Get:
		if _, err := QueueName(r.Queue).Bind(bind); err != nil {
			return "", err
		}
		return bind.Replace("${pgmq.metrics}"), nil
	case pg.List:
		return bind.Replace("${pgmq.metrics_all}"), nil
	default:
		return "", pg.ErrNotImplemented.Withf("unsupported QueueStatsRequest operation %q", op)
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func age(v *int32) *int64 {
	if v == nil {
		return nil
	}
	age := int64(*v)
	return &age
}
