package httphandler_test

import (
	"context"
	"sort"
	"sync"
	"time"

	// Packages
	pgxpool "github.com/jackc/pgx/v5/pgxpool"
	pg "github.com/mutablelogic/go-pgmq"
	httphandler "github.com/mutablelogic/go-pgmq/pkg/pgmq/httphandler"
	schema "github.com/mutablelogic/go-pgmq/pkg/pgmq/schema"
)

////////////////////////////////////////////////////////////////////////////////
// IN-MEMORY MANAGER

// memManager keeps queues in memory, and fails every operation with err
// when it is set
type memManager struct {
	sync.Mutex
	err      error
	id       int64
	active   map[string][]schema.Message
	archived map[string][]schema.Message
	pool     *pgxpool.Pool
}

var _ httphandler.Manager = (*memManager)(nil)

func newMemManager() *memManager {
	return &memManager{
		active:   make(map[string][]schema.Message),
		archived: make(map[string][]schema.Message),
	}
}

func (m *memManager) Ping(context.Context) error {
	return m.err
}

func (m *memManager) Stat() *pgxpool.Stat {
	if m.pool == nil {
		return nil
	}
	return m.pool.Stat()
}

func (m *memManager) ListQueues(_ context.Context, req schema.QueueListRequest) (*schema.QueueList, error) {
	m.Lock()
	defer m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	list := schema.QueueList{QueueListRequest: req}
	for name, messages := range m.active {
		list.Body = append(list.Body, schema.Queue{
			QueueMeta: schema.QueueMeta{Queue: name},
			QueueCounts: schema.QueueCounts{
				TotalMessages:    uint64(len(messages)),
				ArchivedMessages: uint64(len(m.archived[name])),
			},
		})
	}
	sort.Slice(list.Body, func(i, j int) bool { return list.Body[i].Queue < list.Body[j].Queue })
	list.Count = uint64(len(list.Body))
	return &list, nil
}

func (m *memManager) CreateQueue(_ context.Context, name string) (*schema.Queue, error) {
	m.Lock()
	defer m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	name, err := schema.QueueName(name).Normalize()
	if err != nil {
		return nil, err
	}
	if _, exists := m.active[name]; exists {
		return nil, pg.ErrConflict.Withf("queue %q already exists", name)
	}
	m.active[name] = nil
	return &schema.Queue{QueueMeta: schema.QueueMeta{Queue: name}}, nil
}

func (m *memManager) DeleteQueue(_ context.Context, name string) bool {
	m.Lock()
	defer m.Unlock()
	if _, exists := m.active[name]; !exists || m.err != nil {
		return false
	}
	delete(m.active, name)
	delete(m.archived, name)
	return true
}

func (m *memManager) GetQueueDetail(_ context.Context, name string, page, pageSize uint64) (*schema.MessagePage, error) {
	return m.page(m.active, name, page, pageSize)
}

func (m *memManager) GetArchivedMessages(_ context.Context, name string, page, pageSize uint64) (*schema.MessagePage, error) {
	return m.page(m.archived, name, page, pageSize)
}

func (m *memManager) GetQueueStats(_ context.Context, name string) (*schema.QueueStats, error) {
	m.Lock()
	defer m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	messages, exists := m.active[name]
	if !exists {
		return nil, nil
	}
	return &schema.QueueStats{Queue: name, QueueLength: int64(len(messages)), TotalMessages: m.id, ScrapeTime: time.Now()}, nil
}

func (m *memManager) ListQueueStats(ctx context.Context) ([]schema.QueueStats, error) {
	list, err := m.ListQueues(ctx, schema.QueueListRequest{})
	if err != nil {
		return nil, err
	}
	result := make([]schema.QueueStats, 0, len(list.Body))
	for _, queue := range list.Body {
		stats, err := m.GetQueueStats(ctx, queue.Queue)
		if err != nil {
			return nil, err
		}
		result = append(result, *stats)
	}
	return result, nil
}

func (m *memManager) SendMessage(ctx context.Context, queue, payload string, delay int) (int64, error) {
	ids, err := m.SendMessages(ctx, queue, []string{payload}, delay)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

func (m *memManager) SendMessages(_ context.Context, queue string, payloads []string, delay int) ([]int64, error) {
	m.Lock()
	defer m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if _, exists := m.active[queue]; !exists {
		return nil, pg.ErrNotFound.With(queue)
	}
	if delay < 0 {
		return nil, pg.ErrBadParameter.With("negative delay")
	}
	ids := make([]int64, 0, len(payloads))
	for _, payload := range payloads {
		m.id++
		payload := payload
		m.active[queue] = append(m.active[queue], schema.Message{Id: m.id, Message: &payload, EnqueuedAt: time.Now()})
		ids = append(ids, m.id)
	}
	return ids, nil
}

func (m *memManager) DeleteMessage(_ context.Context, queue string, id int64) bool {
	m.Lock()
	defer m.Unlock()
	_, ok := m.remove(queue, id)
	return ok
}

func (m *memManager) ArchiveMessage(_ context.Context, queue string, id int64) bool {
	m.Lock()
	defer m.Unlock()
	message, ok := m.remove(queue, id)
	if ok {
		m.archived[queue] = append(m.archived[queue], message)
	}
	return ok
}

func (m *memManager) remove(queue string, id int64) (schema.Message, bool) {
	if m.err != nil {
		return schema.Message{}, false
	}
	for i, message := range m.active[queue] {
		if message.Id == id {
			m.active[queue] = append(m.active[queue][:i], m.active[queue][i+1:]...)
			return message, true
		}
	}
	return schema.Message{}, false
}

func (m *memManager) page(messages map[string][]schema.Message, name string, page, pageSize uint64) (*schema.MessagePage, error) {
	m.Lock()
	defer m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if page < 1 || pageSize < 1 {
		return nil, pg.ErrBadParameter.With("invalid page")
	}
	all, exists := messages[name]
	if _, queue := m.active[name]; !exists && !queue {
		return nil, pg.ErrNotFound.With(name)
	}
	result := &schema.MessagePage{
		Queue:              name,
		MessagePageRequest: schema.MessagePageRequest{Page: page, PageSize: pageSize},
		Count:              uint64(len(all)),
	}
	start := (page - 1) * pageSize
	for i := start; i < start+pageSize && i < uint64(len(all)); i++ {
		result.Body = append(result.Body, all[i])
	}
	return result, nil
}
