package store

import (
	"context"
	"fmt"

	"hostel-backend/internal/model"
)

func (s *gormStore) count(ctx context.Context, what string, m any, query string, args ...any) (int64, error) {
	var n int64
	q := s.db.WithContext(ctx).Model(m)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", what, err)
	}
	return n, nil
}

func (s *gormStore) CountRooms(ctx context.Context) (int64, error) {
	return s.count(ctx, "rooms", &model.Room{}, "")
}

func (s *gormStore) CountBeds(ctx context.Context) (int64, error) {
	return s.count(ctx, "beds", &model.Bed{}, "")
}

func (s *gormStore) CountOccupiedBeds(ctx context.Context) (int64, error) {
	return s.count(ctx, "occupied beds", &model.Bed{}, "is_occupied = ?", true)
}

func (s *gormStore) CountComplaintsNotResolved(ctx context.Context) (int64, error) {
	return s.count(ctx, "open complaints", &model.Complaint{}, "status <> ?", model.ComplaintResolved)
}

func (s *gormStore) CountRentByStatus(ctx context.Context, status model.RentStatus) (int64, error) {
	return s.count(ctx, "rent records", &model.Rent{}, "status = ?", status)
}

func (s *gormStore) CountProfilesByRole(ctx context.Context, role model.Role) (int64, error) {
	return s.count(ctx, "profiles", &model.Profile{}, "role = ?", role)
}
