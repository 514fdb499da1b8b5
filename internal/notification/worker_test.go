package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"hostel-backend/internal/model"
	"hostel-backend/internal/store"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func noticeRows(id string, priority model.NoticePriority, title string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "message", "priority", "created_at"}).
		AddRow(id, title, "Assemble at the gate", string(priority), time.Now())
}

func subscriptionRows(endpoint string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
		AddRow(endpoint, "test_p256dh", "test_auth", time.Now())
}

func TestWorkerPool_NotifyNotice(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, store.NewGormStore(db), &webpush.Options{})

	assert.True(t, wp.NotifyNotice("n1"))

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, "n1", job)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for job to be queued")
	}
}

func TestWorkerPool_NotifyNoticeNeverBlocks(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, store.NewGormStore(db), &webpush.Options{})

	for i := 0; i < cap(wp.Jobs()); i++ {
		require.True(t, wp.NotifyNotice("n"))
	}
	assert.False(t, wp.NotifyNotice("overflow"))
}

func TestNewPayload(t *testing.T) {
	p := NewPayload(&model.Notice{ID: "n1", Title: "Fire drill", Message: "Now", Priority: model.PriorityUrgent})
	assert.Equal(t, "URGENT: Fire drill", p.Title)
	assert.Equal(t, "Now", p.Body)
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, store.NewGormStore(gormDB), &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		wp.Wait()
	}()
	wp.Start(ctx)

	t.Run("sends notification for one subscription", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				defer wg.Done()
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				var got Payload
				assert.NoError(t, json.Unmarshal(payload, &got))
				assert.Equal(t, "URGENT: Fire drill", got.Title)
				assert.Equal(t, "n1", got.NoticeID)
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "notices" WHERE id = \$1`).
			WillReturnRows(noticeRows("n1", model.PriorityUrgent, "Fire drill"))
		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions"`).
			WillReturnRows(subscriptionRows("https://example.com/push"))

		require.True(t, wp.NotifyNotice("n1"))
		wg.Wait()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "notices" WHERE id = \$1`).
			WillReturnRows(noticeRows("n2", model.PriorityHigh, "Water cut"))
		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions"`).
			WillReturnRows(subscriptionRows("https://example.com/expired"))
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE endpoint = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		require.True(t, wp.NotifyNotice("n2"))

		assert.Eventually(t, func() bool {
			return mock.ExpectationsWereMet() == nil
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("skips sending when there are no subscriptions", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				t.Error("no subscription should be contacted")
				return nil, nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "notices" WHERE id = \$1`).
			WillReturnRows(noticeRows("n3", model.PriorityHigh, "Lift repair"))
		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions"`).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}))

		require.True(t, wp.NotifyNotice("n3"))

		assert.Eventually(t, func() bool {
			return mock.ExpectationsWereMet() == nil
		}, time.Second, 10*time.Millisecond)
	})
}
