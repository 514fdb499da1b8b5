package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/model"
)

// CreateRent inserts a rent record. A second record for the same student and
// month is rejected by the unique index.
func (s *gormStore) CreateRent(ctx context.Context, rent *model.Rent) error {
	if err := s.db.WithContext(ctx).Create(rent).Error; err != nil {
		if apperr.IsDuplicate(err) {
			return apperr.Conflict("rent for %s already exists for this student", rent.Month)
		}
		return fmt.Errorf("failed to create rent: %w", err)
	}
	return nil
}

func (s *gormStore) GetRent(ctx context.Context, rentID string) (*model.Rent, error) {
	var rent model.Rent
	if err := s.db.WithContext(ctx).Preload("Student.Profile").First(&rent, "id = ?", rentID).Error; err != nil {
		return nil, fmt.Errorf("failed to get rent %s: %w", rentID, err)
	}
	return &rent, nil
}

func (s *gormStore) ListRent(ctx context.Context, filter RentFilter) ([]model.Rent, error) {
	var rents []model.Rent
	if err := rentFilter(s.db.WithContext(ctx), filter).Preload("Student.Profile").
		Order("month DESC").Order("created_at DESC").Find(&rents).Error; err != nil {
		return nil, fmt.Errorf("failed to list rent: %w", err)
	}
	return rents, nil
}

func rentFilter(q *gorm.DB, filter RentFilter) *gorm.DB {
	if filter.StudentID != "" {
		q = q.Where("student_id = ?", filter.StudentID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	return q
}

// MarkRentPaid moves a PENDING or OVERDUE record to PAID. A record that is
// already PAID keeps its original paid_at.
func (s *gormStore) MarkRentPaid(ctx context.Context, rentID string, paidAt time.Time) (*model.Rent, error) {
	return s.transitionRent(ctx, rentID, []model.RentStatus{model.RentPending, model.RentOverdue},
		map[string]any{"status": model.RentPaid, "paid_at": paidAt}, true)
}

// MarkRentOverdue is valid only from PENDING.
func (s *gormStore) MarkRentOverdue(ctx context.Context, rentID string) (*model.Rent, error) {
	return s.transitionRent(ctx, rentID, []model.RentStatus{model.RentPending},
		map[string]any{"status": model.RentOverdue}, false)
}

// UndoRentPayment is valid only from PAID and clears paid_at.
func (s *gormStore) UndoRentPayment(ctx context.Context, rentID string) (*model.Rent, error) {
	return s.transitionRent(ctx, rentID, []model.RentStatus{model.RentPaid},
		map[string]any{"status": model.RentPending, "paid_at": nil}, false)
}

// transitionRent applies values only while the record is in one of from.
// The status check and the write are one conditional UPDATE.
func (s *gormStore) transitionRent(ctx context.Context, rentID string, from []model.RentStatus, values map[string]any, idempotent bool) (*model.Rent, error) {
	res := s.db.WithContext(ctx).Model(&model.Rent{}).
		Where("id = ? AND status IN ?", rentID, from).
		Updates(values)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update rent %s: %w", rentID, res.Error)
	}

	rent, err := s.GetRent(ctx, rentID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		target := values["status"].(model.RentStatus)
		if idempotent && rent.Status == target {
			return rent, nil
		}
		return nil, apperr.Conflict("rent record is %s and cannot be marked %s", rent.Status, target)
	}
	return rent, nil
}

// RentTotals sums amount per status. It is computed on every call.
func (s *gormStore) RentTotals(ctx context.Context, filter RentFilter) ([]RentTotal, error) {
	var totals []RentTotal
	if err := rentFilter(s.db.WithContext(ctx).Model(&model.Rent{}), filter).
		Select("status, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Group("status").
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("failed to sum rent: %w", err)
	}
	return totals, nil
}
