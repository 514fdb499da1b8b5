package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"hostel-backend/internal/model"
)

func (s *gormStore) CreateComplaint(ctx context.Context, complaint *model.Complaint) error {
	if err := s.db.WithContext(ctx).Create(complaint).Error; err != nil {
		return fmt.Errorf("failed to create complaint: %w", err)
	}
	return nil
}

func (s *gormStore) GetComplaint(ctx context.Context, complaintID string) (*model.Complaint, error) {
	var complaint model.Complaint
	if err := s.db.WithContext(ctx).Preload("Student.Profile").First(&complaint, "id = ?", complaintID).Error; err != nil {
		return nil, fmt.Errorf("failed to get complaint %s: %w", complaintID, err)
	}
	return &complaint, nil
}

// ListComplaints returns complaints newest first.
func (s *gormStore) ListComplaints(ctx context.Context, filter ComplaintFilter) ([]model.Complaint, error) {
	q := s.db.WithContext(ctx).Preload("Student.Profile")
	if filter.StudentID != "" {
		q = q.Where("student_id = ?", filter.StudentID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var complaints []model.Complaint
	if err := q.Order("created_at DESC").Find(&complaints).Error; err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	return complaints, nil
}

// UpdateComplaintStatus sets any status; transitions are not ordered.
func (s *gormStore) UpdateComplaintStatus(ctx context.Context, complaintID string, status model.ComplaintStatus) (*model.Complaint, error) {
	return s.updateComplaint(ctx, complaintID, map[string]any{"status": status})
}

// RespondToComplaint stores the response and forces IN_PROGRESS in one UPDATE.
func (s *gormStore) RespondToComplaint(ctx context.Context, complaintID, response string) (*model.Complaint, error) {
	return s.updateComplaint(ctx, complaintID, map[string]any{
		"admin_response": response,
		"status":         model.ComplaintInProgress,
	})
}

func (s *gormStore) updateComplaint(ctx context.Context, complaintID string, values map[string]any) (*model.Complaint, error) {
	res := s.db.WithContext(ctx).Model(&model.Complaint{}).Where("id = ?", complaintID).Updates(values)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update complaint %s: %w", complaintID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("failed to update complaint %s: %w", complaintID, gorm.ErrRecordNotFound)
	}
	return s.GetComplaint(ctx, complaintID)
}
