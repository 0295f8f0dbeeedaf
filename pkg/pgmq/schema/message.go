package schema

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"

	// Packages
	pg "github.com/mutablelogic/go-pgmq"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// MessageMeta is a message to be sent to a queue. The payload is passed to
// the store as jsonb, which rejects payloads which are not valid JSON.
type MessageMeta struct {
	Message string `json:"message"`
	Delay   int    `json:"delay,omitempty" help:"Seconds before the message becomes visible"`
}

// Message is a message in the active or archive table of a queue
type Message struct {
	Id         int64      `json:"msg_id"`
	Message    *string    `json:"message,omitempty"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	Vt         *time.Time `json:"vt,omitempty"`
	ReadCount  int64      `json:"read_ct"`
}

type MessageId int64

type MessageIds []int64

// MessagePageRequest is a 1-based page number and a page size
type MessagePageRequest struct {
	Page     uint64 `json:"page,omitempty"`
	PageSize uint64 `json:"page_size,omitempty"`
}

// MessageListRequest selects a page of active messages for a queue
type MessageListRequest struct {
	Queue string
	MessagePageRequest
	MaxPageSize uint64
}

// MessageArchiveRequest selects a page of archived messages for a queue
type MessageArchiveRequest MessageListRequest

// MessagePage is a page of messages, with the count of all messages
type MessagePage struct {
	Queue string `json:"queue"`
	MessagePageRequest
	Count uint64    `json:"count"`
	Body  []Message `json:"body,omitempty"`
}

// MessageKey selects a single message in a queue. Delete removes the
// message and Update moves it to the archive table.
type MessageKey struct {
	Queue string `json:"queue"`
	Id    int64  `json:"id"`
}

// MessageSendRequest is one message, or an array of messages, to send to a
// queue. A payload which is itself an array must be sent inside an array.
type MessageSendRequest struct {
	Message json.RawMessage `json:"message"`
	Delay   int             `json:"delay,omitempty"`
}

// MessageSendResponse are the ids of the sent messages
type MessageSendResponse struct {
	Queue string  `json:"queue"`
	Ids   []int64 `json:"msg_id"`
}

// MessageActionResponse is the result of deleting or archiving a message
type MessageActionResponse struct {
	MessageKey
	Ok bool `json:"ok"`
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (m Message) String() string {
	return stringify(m)
}

func (m MessageMeta) String() string {
	return stringify(m)
}

func (m MessagePage) String() string {
	return stringify(m)
}

func (m MessageActionResponse) String() string {
	return stringify(m)
}

func (m MessageSendResponse) String() string {
	return stringify(m)
}

////////////////////////////////////////////////////////////////////////////////
// READER

func (m *Message) Scan(row pg.Row) error {
	return row.Scan(&m.Id, &m.Message, &m.EnqueuedAt, &m.Vt, &m.ReadCount)
}

func (m *MessageId) Scan(row pg.Row) error {
	return row.Scan((*int64)(m))
}

func (m *MessageIds) Scan(row pg.Row) error {
	var id int64
	if err := row.Scan(&id); err != nil {
		return err
	}
	*m = append(*m, id)
	return nil
}

func (m *MessagePage) Scan(row pg.Row) error {
	var message Message
	if err := message.Scan(row); err != nil {
		return err
	}
	m.Body = append(m.Body, message)
	return nil
}

func (m *MessagePage) ScanCount(row pg.Row) error {
	return row.Scan(&m.Count)
}

////////////////////////////////////////////////////////////////////////////////
// SELECTOR

func (r MessageListRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if _, err := QueueName(r.Queue).Bind(bind); err != nil {
		return "", err
	}
	if err := r.MessagePageRequest.Bind(bind, r.MaxPageSize); err != nil {
		return "", err
	}

	switch op {
	case pg.List:
		return bind.Replace("${pgmq.message_list}"), nil
	default:
		return "", pg.ErrNotImplemented.Withf("unsupported MessageListRequest operation %q", op)
	}
}

func (r MessageArchiveRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if _, err := QueueName(r.Queue).Bind(bind); err != nil {
		return "", err
	}
	if err := r.MessagePageRequest.Bind(bind, r.MaxPageSize); err != nil {
		return "", err
	}

	switch op {
	case pg.List:
		return bind.Replace("${pgmq.archive_list}"), nil
	default:
		return "", pg.ErrNotImplemented.Withf("unsupported MessageArchiveRequest operation %q", op)
	}
}

func (k MessageKey) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if _, err := QueueName(k.Queue).Bind(bind); err != nil {
		return "", err
	}
	if k.Id <= 0 {
		return "", pg.ErrBadParameter.Withf("invalid message id: %d", k.Id)
	}
	bind.Set("id", k.Id)

	switch op {
	case pg.Delete:
		return bind.Replace("${pgmq.delete}"), nil
	case pg.Update:
		return bind.Replace("${pgmq.archive}"), nil
	default:
		return "", pg.ErrNotImplemented.Withf("unsupported MessageKey operation %q", op)
	}
}

////////////////////////////////////////////////////////////////////////////////
// WRITER

// Insert requires the queue name to be bound already
func (m MessageMeta) Insert(bind *pg.Bind) (string, error) {
	if !bind.Has("name") {
		return "", pg.ErrBadParameter.With("missing queue name")
	}
	if strings.TrimSpace(m.Message) == "" {
		return "", pg.ErrBadParameter.With("missing message payload")
	}
	if m.Delay < 0 {
		return "", pg.ErrBadParameter.Withf("negative delay: %d", m.Delay)
	}
	bind.Set("message", m.Message)
	bind.Set("delay", m.Delay)
	return bind.Replace("${pgmq.send}"), nil
}

// Update is not supported, messages are immutable
func (m MessageMeta) Update(bind *pg.Bind) error {
	return pg.ErrNotImplemented.With("messages cannot be updated")
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Bind checks the page number and page size and sets the offset and limit.
// Pages start at 1.
func (r MessagePageRequest) Bind(bind *pg.Bind, max uint64) error {
	if max == 0 {
		max = MaxPageSize
	}
	if r.Page < 1 {
		return pg.ErrBadParameter.Withf("invalid page: %d", r.Page)
	}
	if r.PageSize < 1 || r.PageSize > max {
		return pg.ErrBadParameter.Withf("page size must be between 1 and %d", max)
	}
	if r.Page-1 > math.MaxInt64/r.PageSize {
		return pg.ErrBadParameter.Withf("page out of range: %d", r.Page)
	}
	limit := r.PageSize
	offsetlimit := pg.OffsetLimit{
		Offset: (r.Page - 1) * r.PageSize,
		Limit:  &limit,
	}
	offsetlimit.Bind(bind, max)
	return nil
}

// Payloads returns the payloads to send, which is more than one when the
// message is an array
func (r MessageSendRequest) Payloads() ([]string, error) {
	message := bytes.TrimSpace(r.Message)
	if len(message) == 0 || bytes.Equal(message, []byte("null")) {
		return nil, pg.ErrBadParameter.With("missing message")
	}
	if message[0] != '[' {
		return []string{string(message)}, nil
	}

	// Split an array into its elements
	var elements []json.RawMessage
	if err := json.Unmarshal(message, &elements); err != nil {
		return nil, pg.ErrBadParameter.With(err.Error())
	} else if len(elements) == 0 {
		return nil, pg.ErrBadParameter.With("missing message")
	}
	payloads := make([]string, len(elements))
	for i, element := range elements {
		payloads[i] = string(element)
	}
	return payloads, nil
}
