package pgmq_test

import (
	"context"
	"encoding/json"
	"testing"

	// Packages
	pg "github.com/mutablelogic/go-pgmq"
	schema "github.com/mutablelogic/go-pgmq/pkg/pgmq/schema"
	assert "github.com/stretchr/testify/assert"
)

////////////////////////////////////////////////////////////////////////////////
// MESSAGE TESTS

func Test_Message_Send(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()
	mgr := newManager(t, conn)

	name := queueName("send")
	_, err := mgr.CreateQueue(ctx, name)
	assert.NoError(err)

	t.Run("SendMessage", func(t *testing.T) {
		id, err := mgr.SendMessage(ctx, name, `{"order_id":1001}`, 0)
		assert.NoError(err)
		assert.Greater(id, int64(0))
	})

	t.Run("SendMessageIdsIncrease", func(t *testing.T) {
		id1, err := mgr.SendMessage(ctx, name, `{"n":1}`, 0)
		assert.NoError(err)
		id2, err := mgr.SendMessage(ctx, name, `{"n":2}`, 0)
		assert.NoError(err)
		assert.Greater(id2, id1)
	})

	t.Run("SendMessageDelayed", func(t *testing.T) {
		id, err := mgr.SendMessage(ctx, name, `{"delayed":true}`, 60)
		assert.NoError(err)

		page, err := mgr.GetQueueDetail(ctx, name, 1, 100)
		if assert.NoError(err) {
			for _, message := range page.Body {
				if message.Id == id && assert.NotNil(message.Vt) {
					assert.True(message.Vt.After(message.EnqueuedAt))
				}
			}
		}
	})

	t.Run("SendMessageNegativeDelay", func(t *testing.T) {
		_, err := mgr.SendMessage(ctx, name, `{}`, -1)
		assert.ErrorIs(err, pg.ErrBadParameter)
	})

	t.Run("SendMessageEmptyPayload", func(t *testing.T) {
		_, err := mgr.SendMessage(ctx, name, "  ", 0)
		assert.ErrorIs(err, pg.ErrBadParameter)
	})

	t.Run("SendMessageInvalidJSON", func(t *testing.T) {
		_, err := mgr.SendMessage(ctx, name, `{not json`, 0)
		assert.ErrorIs(err, pg.ErrBadParameter)
	})

	t.Run("SendMessageMissingQueue", func(t *testing.T) {
		_, err := mgr.SendMessage(ctx, queueName("missing"), `{}`, 0)
		assert.ErrorIs(err, pg.ErrNotFound)
	})

	t.Run("SendMessages", func(t *testing.T) {
		ids, err := mgr.SendMessages(ctx, name, []string{`{"n":1}`, `{"n":2}`, `{"n":3}`}, 0)
		if assert.NoError(err) && assert.Len(ids, 3) {
			assert.Less(ids[0], ids[1])
			assert.Less(ids[1], ids[2])
		}
	})

	t.Run("SendMessagesEmpty", func(t *testing.T) {
		_, err := mgr.SendMessages(ctx, name, nil, 0)
		assert.ErrorIs(err, pg.ErrBadParameter)
	})
}

func Test_Message_Delete(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()
	mgr := newManager(t, conn)

	name := queueName("delete")
	_, err := mgr.CreateQueue(ctx, name)
	assert.NoError(err)

	t.Run("DeleteMessageTwice", func(t *testing.T) {
		id, err := mgr.SendMessage(ctx, name, `{"n":1}`, 0)
		assert.NoError(err)
		assert.Greater(id, int64(0))
		assert.True(mgr.DeleteMessage(ctx, name, id))
		assert.False(mgr.DeleteMessage(ctx, name, id))
	})

	t.Run("DeleteMessageMissingQueue", func(t *testing.T) {
		assert.False(mgr.DeleteMessage(ctx, queueName("missing"), 1))
	})

	t.Run("DeleteMessageInvalidId", func(t *testing.T) {
		assert.False(mgr.DeleteMessage(ctx, name, 0))
		assert.False(mgr.DeleteMessage(ctx, name, -1))
	})
}

func Test_Message_Archive(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()
	mgr := newManager(t, conn)

	name := queueName("archive")
	_, err := mgr.CreateQueue(ctx, name)
	assert.NoError(err)

	t.Run("ArchiveMessage", func(t *testing.T) {
		id, err := mgr.SendMessage(ctx, name, `{"n":1}`, 0)
		assert.NoError(err)
		assert.True(mgr.ArchiveMessage(ctx, name, id))

		// Not in the active page
		page, err := mgr.GetQueueDetail(ctx, name, 1, 100)
		if assert.NoError(err) {
			for _, message := range page.Body {
				assert.NotEqual(id, message.Id)
			}
		}

		// In the archived page
		archived, err := mgr.GetArchivedMessages(ctx, name, 1, 100)
		if assert.NoError(err) {
			assert.Contains(ids(archived), id)
		}
	})

	t.Run("ArchiveMessageTwice", func(t *testing.T) {
		id, err := mgr.SendMessage(ctx, name, `{"n":2}`, 0)
		assert.NoError(err)
		assert.True(mgr.ArchiveMessage(ctx, name, id))
		assert.False(mgr.ArchiveMessage(ctx, name, id))
	})

	t.Run("ArchivedOrder", func(t *testing.T) {
		archived, err := mgr.GetArchivedMessages(ctx, name, 1, 100)
		if assert.NoError(err) && assert.GreaterOrEqual(len(archived.Body), 2) {
			for i := 1; i < len(archived.Body); i++ {
				assert.False(archived.Body[i].EnqueuedAt.After(archived.Body[i-1].EnqueuedAt))
			}
		}
	})

	t.Run("ArchivedCount", func(t *testing.T) {
		archived, err := mgr.GetArchivedMessages(ctx, name, 1, 1)
		if assert.NoError(err) {
			assert.Len(archived.Body, 1)
			assert.Equal(uint64(2), archived.Count)
		}
	})

	t.Run("ArchivedMissingQueue", func(t *testing.T) {
		_, err := mgr.GetArchivedMessages(ctx, queueName("missing"), 1, 1)
		assert.ErrorIs(err, pg.ErrNotFound)
	})
}

func Test_Message_Detail(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()
	mgr := newManager(t, conn)

	name := queueName("detail")
	_, err := mgr.CreateQueue(ctx, name)
	assert.NoError(err)
	_, err = mgr.SendMessage(ctx, name, `{"n":1}`, 0)
	assert.NoError(err)
	_, err = mgr.SendMessage(ctx, name, `{"n":2}`, 0)
	assert.NoError(err)

	t.Run("Pagination", func(t *testing.T) {
		page, err := mgr.GetQueueDetail(ctx, name, 1, 1)
		if assert.NoError(err) {
			assert.Len(page.Body, 1)
			assert.Equal(uint64(2), page.Count)
			assert.Equal(uint64(1), page.Page)
			assert.Equal(uint64(1), page.PageSize)
		}
		page2, err := mgr.GetQueueDetail(ctx, name, 2, 1)
		if assert.NoError(err) && assert.Len(page2.Body, 1) {
			assert.Greater(page2.Body[0].Id, page.Body[0].Id)
		}
		page3, err := mgr.GetQueueDetail(ctx, name, 3, 1)
		if assert.NoError(err) {
			assert.Empty(page3.Body)
			assert.Equal(uint64(2), page3.Count)
		}
	})

	t.Run("PeekDoesNotLease", func(t *testing.T) {
		before, err := mgr.GetQueueDetail(ctx, name, 1, 10)
		assert.NoError(err)
		after, err := mgr.GetQueueDetail(ctx, name, 1, 10)
		if assert.NoError(err) && assert.Len(after.Body, len(before.Body)) {
			for i := range after.Body {
				assert.Equal(before.Body[i].ReadCount, after.Body[i].ReadCount)
				assert.Equal(before.Body[i].Vt, after.Body[i].Vt)
			}
		}
	})

	t.Run("Payload", func(t *testing.T) {
		page, err := mgr.GetQueueDetail(ctx, name, 1, 1)
		if assert.NoError(err) && assert.Len(page.Body, 1) && assert.NotNil(page.Body[0].Message) {
			var payload map[string]any
			assert.NoError(json.Unmarshal([]byte(*page.Body[0].Message), &payload))
			assert.Equal(float64(1), payload["n"])
		}
	})

	t.Run("InvalidPage", func(t *testing.T) {
		_, err := mgr.GetQueueDetail(ctx, name, 0, 10)
		assert.ErrorIs(err, pg.ErrBadParameter)
		_, err = mgr.GetQueueDetail(ctx, name, 1, 0)
		assert.ErrorIs(err, pg.ErrBadParameter)
		_, err = mgr.GetQueueDetail(ctx, name, 1, schema.MaxPageSize+1)
		assert.ErrorIs(err, pg.ErrBadParameter)
	})

	t.Run("MissingQueue", func(t *testing.T) {
		_, err := mgr.GetQueueDetail(ctx, queueName("missing"), 1, 10)
		assert.ErrorIs(err, pg.ErrNotFound)
	})
}

// The orders scenario from end to end
func Test_Message_Orders(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()
	mgr := newManager(t, conn)

	// Start from a clean queue
	mgr.DeleteQueue(ctx, "orders-test")
	_, err := mgr.CreateQueue(ctx, "orders-test")
	if !assert.NoError(err) {
		t.FailNow()
	}

	id1, err := mgr.SendMessage(ctx, "orders-test", `{"order_id":1001}`, 0)
	assert.NoError(err)
	id2, err := mgr.SendMessage(ctx, "orders-test", `{"order_id":1002}`, 0)
	assert.NoError(err)

	stats, err := mgr.GetQueueStats(ctx, "orders-test")
	if assert.NoError(err) && assert.NotNil(stats) {
		assert.GreaterOrEqual(stats.TotalMessages, int64(2))
	}

	assert.True(mgr.DeleteMessage(ctx, "orders-test", id1))
	assert.True(mgr.ArchiveMessage(ctx, "orders-test", id2))
	assert.True(mgr.DeleteQueue(ctx, "orders-test"))
}

func ids(page *schema.MessagePage) []int64 {
	result := make([]int64, 0, len(page.Body))
	for _, message := range page.Body {
		result = append(result, message.Id)
	}
	return result
}
