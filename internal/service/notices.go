package service

import (
	"context"
	"strings"
	"time"

	"hostel-backend/internal/auth"
	"hostel-backend/internal/logger"
	"hostel-backend/internal/model"
	"hostel-backend/internal/realtime"
	"hostel-backend/internal/store"
)

// PostNoticeInput is a new notice. Priority defaults to NORMAL.
type PostNoticeInput struct {
	Title     string               `json:"title" validate:"required,max=200"`
	Message   string               `json:"message" validate:"required,max=5000"`
	Priority  model.NoticePriority `json:"priority" validate:"omitempty,oneof=LOW NORMAL HIGH URGENT"`
	ExpiresAt *time.Time           `json:"expires_at"`
}

// NoticeView is a notice with its expiry evaluated at read time.
type NoticeView struct {
	model.Notice
	Expired bool `json:"expired"`
}

// Notices is the notice board.
type Notices struct {
	store    store.NoticeStore
	policy   Authorizer
	pub      realtime.Publisher
	notifier NoticeNotifier
	now      func() time.Time
}

func NewNotices(s store.NoticeStore, policy Authorizer, pub realtime.Publisher, notifier NoticeNotifier, now func() time.Time) *Notices {
	return &Notices{store: s, policy: policy, pub: pub, notifier: notifier, now: now}
}

// Post publishes a notice. HIGH and URGENT notices are also pushed to browsers.
func (s *Notices) Post(ctx context.Context, p auth.Principal, in PostNoticeInput) (*NoticeView, error) {
	if err := s.policy.Authorize(p, auth.ResourceNotices, auth.ActionWrite); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	if in.Priority == "" {
		in.Priority = model.PriorityNormal
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	author := p.ProfileID
	notice := &model.Notice{
		Title:     in.Title,
		Message:   in.Message,
		Priority:  in.Priority,
		CreatedBy: &author,
		ExpiresAt: in.ExpiresAt,
	}
	if err := s.store.CreateNotice(ctx, notice); err != nil {
		return nil, wrap("post notice", err)
	}
	s.pub.Publish(ctx, realtime.Changed(realtime.EventInsert, realtime.TableNotices)...)

	if notice.Priority.Pushable() && s.notifier != nil {
		if !s.notifier.NotifyNotice(notice.ID) {
			logger.WithComponent("notices").Warn("push queue full, notice not pushed", "notice_id", notice.ID)
		}
	}
	return s.view(notice), nil
}

// Delete removes a notice permanently.
func (s *Notices) Delete(ctx context.Context, p auth.Principal, noticeID string) error {
	if err := s.policy.Authorize(p, auth.ResourceNotices, auth.ActionWrite); err != nil {
		return err
	}
	if err := s.store.DeleteNotice(ctx, noticeID); err != nil {
		return notFound(err, "notice %s not found", noticeID)
	}
	s.pub.Publish(ctx, realtime.Changed(realtime.EventDelete, realtime.TableNotices)...)
	return nil
}

// List returns notices newest first, each flagged expired or not.
// Expiry never changes what is stored.
func (s *Notices) List(ctx context.Context, p auth.Principal, limit int) ([]NoticeView, error) {
	if err := s.policy.Authorize(p, auth.ResourceNotices, auth.ActionRead); err != nil {
		return nil, err
	}
	notices, err := s.store.ListNotices(ctx, limit)
	if err != nil {
		return nil, wrap("list notices", err)
	}
	views := make([]NoticeView, len(notices))
	for i := range notices {
		views[i] = *s.view(&notices[i])
	}
	return views, nil
}

func (s *Notices) view(n *model.Notice) *NoticeView {
	return &NoticeView{Notice: *n, Expired: n.IsExpired(s.now())}
}
