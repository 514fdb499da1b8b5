package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"hostel-backend/internal/model"
)

func (s *gormStore) CreateNotice(ctx context.Context, notice *model.Notice) error {
	if err := s.db.WithContext(ctx).Create(notice).Error; err != nil {
		return fmt.Errorf("failed to create notice: %w", err)
	}
	return nil
}

func (s *gormStore) GetNotice(ctx context.Context, noticeID string) (*model.Notice, error) {
	var notice model.Notice
	if err := s.db.WithContext(ctx).First(&notice, "id = ?", noticeID).Error; err != nil {
		return nil, fmt.Errorf("failed to get notice %s: %w", noticeID, err)
	}
	return &notice, nil
}

// ListNotices returns notices newest first; limit <= 0 means all.
func (s *gormStore) ListNotices(ctx context.Context, limit int) ([]model.Notice, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var notices []model.Notice
	if err := q.Find(&notices).Error; err != nil {
		return nil, fmt.Errorf("failed to list notices: %w", err)
	}
	return notices, nil
}

// DeleteNotice hard-deletes a notice.
func (s *gormStore) DeleteNotice(ctx context.Context, noticeID string) error {
	res := s.db.WithContext(ctx).Delete(&model.Notice{}, "id = ?", noticeID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete notice %s: %w", noticeID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to delete notice %s: %w", noticeID, gorm.ErrRecordNotFound)
	}
	return nil
}
