package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"

	"hostel-backend/internal/logger"
	"hostel-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Store is what the workers read and prune.
type Store interface {
	GetNotice(ctx context.Context, noticeID string) (*model.Notice, error)
	ListPushSubscriptions(ctx context.Context) ([]model.PushSubscription, error)
	DeletePushSubscription(ctx context.Context, endpoint string) error
}

// Payload is the JSON body delivered to the browser service worker.
type Payload struct {
	NoticeID string               `json:"notice_id"`
	Title    string               `json:"title"`
	Body     string               `json:"body"`
	Priority model.NoticePriority `json:"priority"`
}

// WorkerPool manages a pool of workers for sending notice notifications.
type WorkerPool struct {
	size    int
	jobs    chan string
	store   Store
	webpush *webpush.Options
	sender  NotificationSender
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s Store, webpushOptions *webpush.Options) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan string, size*16),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		logger:  logger.WithComponent("push"),
	}
}

// Start launches the worker goroutines. They stop when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has returned.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	log := wp.logger.With("worker", id)
	log.Debug("worker started")
	for {
		select {
		case noticeID := <-wp.jobs:
			log.Debug("processing notice", "notice_id", noticeID)
			wp.sendNotificationsForNotice(ctx, noticeID)
		case <-ctx.Done():
			log.Debug("worker shutting down")
			return
		}
	}
}

// NotifyNotice queues a notice for delivery without blocking. It reports
// false when the queue is full and the notice was dropped.
func (wp *WorkerPool) NotifyNotice(noticeID string) bool {
	select {
	case wp.jobs <- noticeID:
		return true
	default:
		return false
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan string {
	return wp.jobs
}

func (wp *WorkerPool) sendNotificationsForNotice(ctx context.Context, noticeID string) {
	notice, err := wp.store.GetNotice(ctx, noticeID)
	if err != nil {
		wp.logger.Error("failed to load notice", "notice_id", noticeID, "error", err)
		return
	}

	subscriptions, err := wp.store.ListPushSubscriptions(ctx)
	if err != nil {
		wp.logger.Error("failed to list subscriptions", "notice_id", noticeID, "error", err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(NewPayload(notice))
	if err != nil {
		wp.logger.Error("failed to encode payload", "notice_id", noticeID, "error", err)
		return
	}

	wp.logger.Info("sending notice", "notice_id", noticeID, "subscriptions", len(subscriptions))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// NewPayload builds the push message for a notice.
func NewPayload(n *model.Notice) Payload {
	return Payload{
		NoticeID: n.ID,
		Title:    fmt.Sprintf("%s: %s", n.Priority, n.Title),
		Body:     n.Message,
		Priority: n.Priority,
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.logger.Warn("failed to send notification", "endpoint", sub.Endpoint, "error", err)
		return
	}
	defer resp.Body.Close()

	// Gone means the browser dropped the subscription.
	if resp.StatusCode == http.StatusGone {
		wp.logger.Info("subscription expired, deleting", "endpoint", sub.Endpoint)
		if err := wp.store.DeletePushSubscription(ctx, sub.Endpoint); err != nil {
			wp.logger.Error("failed to delete expired subscription", "endpoint", sub.Endpoint, "error", err)
		}
	}
}
