package httphandler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	// Packages
	pgxpool "github.com/jackc/pgx/v5/pgxpool"
	pg "github.com/mutablelogic/go-pgmq"
	httphandler "github.com/mutablelogic/go-pgmq/pkg/pgmq/httphandler"
	schema "github.com/mutablelogic/go-pgmq/pkg/pgmq/schema"
	assert "github.com/stretchr/testify/assert"
	zap "go.uber.org/zap"
	observer "go.uber.org/zap/zaptest/observer"
)

func newRouter(manager httphandler.Manager, middleware ...httphandler.HTTPMiddlewareFunc) *http.ServeMux {
	router := http.NewServeMux()
	httphandler.RegisterBackendHandlers(router, "/api", manager, middleware)
	httphandler.RegisterFrontendHandler(router, "", middleware)
	return router
}

func do(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

////////////////////////////////////////////////////////////////////////////////
// QUEUE HANDLER TESTS

func Test_Queue_Handlers(t *testing.T) {
	assert := assert.New(t)
	router := newRouter(newMemManager())

	t.Run("Create", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/queue", schema.QueueMeta{Queue: "orders"})
		assert.Equal(http.StatusCreated, w.Code)
		var queue schema.Queue
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &queue))
		assert.Equal("orders", queue.Queue)
	})

	t.Run("CreateConflict", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/queue", schema.QueueMeta{Queue: "orders"})
		assert.Equal(http.StatusConflict, w.Code)
	})

	t.Run("CreateInvalid", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/queue", schema.QueueMeta{Queue: "not a queue"})
		assert.Equal(http.StatusBadRequest, w.Code)
	})

	t.Run("List", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/queue", nil)
		assert.Equal(http.StatusOK, w.Code)
		assert.Contains(w.Header().Get("Content-Type"), "application/json")
		var list schema.QueueList
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &list))
		assert.Equal(uint64(1), list.Count)
	})

	t.Run("Stats", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/queue/orders", nil)
		assert.Equal(http.StatusOK, w.Code)
		var stats schema.QueueStats
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal("orders", stats.Queue)
		assert.Nil(stats.OldestMsgAgeSec)
	})

	t.Run("StatsNotFound", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/queue/missing", nil)
		assert.Equal(http.StatusNotFound, w.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		w := do(router, http.MethodDelete, "/api/queue/orders", nil)
		assert.Equal(http.StatusOK, w.Code)
		var resp schema.QueueDeleteResponse
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(resp.Ok)

		w = do(router, http.MethodDelete, "/api/queue/orders", nil)
		assert.Equal(http.StatusOK, w.Code)
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(resp.Ok)
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		w := do(router, http.MethodPatch, "/api/queue/orders", nil)
		assert.Equal(http.StatusMethodNotAllowed, w.Code)
	})
}

////////////////////////////////////////////////////////////////////////////////
// MESSAGE HANDLER TESTS

func Test_Message_Handlers(t *testing.T) {
	assert := assert.New(t)
	manager := newMemManager()
	router := newRouter(manager)
	do(router, http.MethodPost, "/api/queue", schema.QueueMeta{Queue: "orders-test"})

	var ids []int64
	t.Run("Send", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/queue/orders-test/message", map[string]any{"message": map[string]int{"order_id": 1001}})
		assert.Equal(http.StatusCreated, w.Code)
		var resp schema.MessageSendResponse
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		if assert.Len(resp.Ids, 1) {
			assert.Greater(resp.Ids[0], int64(0))
			ids = append(ids, resp.Ids...)
		}
	})

	t.Run("SendArray", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/queue/orders-test/message", map[string]any{"message": []map[string]int{{"order_id": 1002}, {"order_id": 1003}}})
		assert.Equal(http.StatusCreated, w.Code)
		var resp schema.MessageSendResponse
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(resp.Ids, 2)
		ids = append(ids, resp.Ids...)
	})

	t.Run("SendMissingMessage", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/queue/orders-test/message", map[string]any{"delay": 1})
		assert.Equal(http.StatusBadRequest, w.Code)
	})

	t.Run("SendNegativeDelay", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/queue/orders-test/message", map[string]any{"message": 1, "delay": -1})
		assert.Equal(http.StatusBadRequest, w.Code)
	})

	t.Run("SendMissingQueue", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/queue/missing/message", map[string]any{"message": 1})
		assert.Equal(http.StatusNotFound, w.Code)
	})

	t.Run("ListDefaults", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/queue/orders-test/message", nil)
		assert.Equal(http.StatusOK, w.Code)
		var page schema.MessagePage
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(uint64(1), page.Page)
		assert.Equal(uint64(schema.DefaultPageSize), page.PageSize)
		assert.Equal(uint64(3), page.Count)
		assert.Len(page.Body, 3)
	})

	t.Run("ListPage", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/queue/orders-test/message?page=2&page_size=1", nil)
		assert.Equal(http.StatusOK, w.Code)
		var page schema.MessagePage
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(uint64(3), page.Count)
		assert.Len(page.Body, 1)
	})

	t.Run("ListInvalidPage", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/queue/orders-test/message?page=0", nil)
		assert.Equal(http.StatusBadRequest, w.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		path := "/api/queue/orders-test/message/" + strconv.FormatInt(ids[0], 10)
		w := do(router, http.MethodDelete, path, nil)
		assert.Equal(http.StatusOK, w.Code)
		var resp schema.MessageActionResponse
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(resp.Ok)
		assert.Equal(ids[0], resp.Id)
		assert.Equal("orders-test", resp.Queue)

		w = do(router, http.MethodDelete, path, nil)
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(resp.Ok)
	})

	t.Run("DeleteInvalidId", func(t *testing.T) {
		w := do(router, http.MethodDelete, "/api/queue/orders-test/message/abc", nil)
		assert.Equal(http.StatusBadRequest, w.Code)
	})

	t.Run("Archive", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/queue/orders-test/archive/"+strconv.FormatInt(ids[1], 10), nil)
		assert.Equal(http.StatusOK, w.Code)
		var resp schema.MessageActionResponse
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(resp.Ok)
	})

	t.Run("ArchiveList", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/queue/orders-test/archive", nil)
		assert.Equal(http.StatusOK, w.Code)
		var page schema.MessagePage
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(uint64(1), page.Count)
		if assert.Len(page.Body, 1) {
			assert.Equal(ids[1], page.Body[0].Id)
		}
	})
}

////////////////////////////////////////////////////////////////////////////////
// OTHER HANDLER TESTS

func Test_Other_Handlers(t *testing.T) {
	assert := assert.New(t)
	manager := newMemManager()
	router := newRouter(manager)
	do(router, http.MethodPost, "/api/queue", schema.QueueMeta{Queue: "orders"})
	do(router, http.MethodPost, "/api/queue/orders/message", map[string]any{"message": 1})

	t.Run("Metrics", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/metrics", nil)
		assert.Equal(http.StatusOK, w.Code)
		assert.Contains(w.Body.String(), `pgmq_queue_length{queue="orders"} 1`)
		assert.Contains(w.Body.String(), `pgmq_queue_messages_total{queue="orders"} 1`)
		assert.NotContains(w.Body.String(), "pgmq_pool_")
	})

	t.Run("PoolMetrics", func(t *testing.T) {
		// The pool connects lazily, so no server is needed
		pool, err := pgxpool.New(context.Background(), "postgres://pgmq@127.0.0.1:1/pgmq?pool_max_conns=7")
		if !assert.NoError(err) {
			t.FailNow()
		}
		defer pool.Close()
		manager.pool = pool
		defer func() { manager.pool = nil }()

		w := do(router, http.MethodGet, "/api/metrics", nil)
		assert.Equal(http.StatusOK, w.Code)
		assert.Contains(w.Body.String(), "pgmq_pool_max_conns 7")
		assert.Contains(w.Body.String(), "pgmq_pool_acquired_conns 0")
	})

	t.Run("Health", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/health", nil)
		assert.Equal(http.StatusOK, w.Code)
	})

	t.Run("Frontend", func(t *testing.T) {
		w := do(router, http.MethodGet, "/index.html", nil)
		assert.Equal(http.StatusNotFound, w.Code)
	})

	t.Run("Unavailable", func(t *testing.T) {
		manager.err = pg.ErrNotAvailable.With("connection refused")
		defer func() { manager.err = nil }()

		w := do(router, http.MethodGet, "/api/health", nil)
		assert.Equal(http.StatusServiceUnavailable, w.Code)
		w = do(router, http.MethodGet, "/api/queue", nil)
		assert.Equal(http.StatusServiceUnavailable, w.Code)
	})

	t.Run("QueryError", func(t *testing.T) {
		manager.err = pg.ErrQuery.With("syntax error")
		defer func() { manager.err = nil }()

		w := do(router, http.MethodGet, "/api/queue", nil)
		assert.Equal(http.StatusInternalServerError, w.Code)
	})
}

////////////////////////////////////////////////////////////////////////////////
// MIDDLEWARE TESTS

func Test_Middleware(t *testing.T) {
	assert := assert.New(t)

	t.Run("Order", func(t *testing.T) {
		var order []string
		mw := func(name string) httphandler.HTTPMiddlewareFunc {
			return func(next http.HandlerFunc) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next(w, r)
				}
			}
		}
		fn := httphandler.HTTPMiddlewareFuncs{mw("a"), nil, mw("b")}.Wrap(func(http.ResponseWriter, *http.Request) {
			order = append(order, "handler")
		})
		fn(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal([]string{"a", "b", "handler"}, order)
	})

	t.Run("Log", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		router := newRouter(newMemManager(), httphandler.LogMiddleware(zap.New(core)))

		w := do(router, http.MethodGet, "/api/queue/missing", nil)
		assert.Equal(http.StatusNotFound, w.Code)
		id := w.Header().Get(httphandler.RequestIdHeader)
		assert.NotEmpty(id)

		entries := logs.All()
		if assert.Len(entries, 1) {
			fields := entries[0].ContextMap()
			assert.Equal(id, fields["request_id"])
			assert.Equal(int64(http.StatusNotFound), fields["status"])
			assert.Equal("/api/queue/missing", fields["path"])
		}
	})

	t.Run("RequestId", func(t *testing.T) {
		router := newRouter(newMemManager(), httphandler.LogMiddleware(zap.NewNop()))
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set(httphandler.RequestIdHeader, "abc")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal("abc", w.Header().Get(httphandler.RequestIdHeader))
	})

	t.Run("RateLimit", func(t *testing.T) {
		router := newRouter(newMemManager(), httphandler.RateLimitMiddleware(2, time.Minute))
		assert.Equal(http.StatusOK, do(router, http.MethodGet, "/api/health", nil).Code)
		assert.Equal(http.StatusOK, do(router, http.MethodGet, "/api/health", nil).Code)
		assert.Equal(http.StatusTooManyRequests, do(router, http.MethodGet, "/api/health", nil).Code)
	})
}
