package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"hostel-backend/internal/model"
)

// CheckConsistency reports violations of the occupancy invariant without writing.
func (s *gormStore) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	db := s.db.WithContext(ctx)
	report := &ConsistencyReport{}

	if err := occupiedWithoutStudent(db).Pluck("id", &report.OccupiedWithoutStudent).Error; err != nil {
		return nil, fmt.Errorf("failed to check occupied beds: %w", err)
	}
	if err := studentsOnFreeBeds(db).Pluck("students.id", &report.StudentOnFreeBed).Error; err != nil {
		return nil, fmt.Errorf("failed to check assigned students: %w", err)
	}
	if err := danglingBedRefs(db).Pluck("id", &report.DanglingBedRefs).Error; err != nil {
		return nil, fmt.Errorf("failed to check bed references: %w", err)
	}
	return report, nil
}

// ReconcileOccupancy recomputes is_occupied from student references and
// clears references to beds that no longer exist.
func (s *gormStore) ReconcileOccupancy(ctx context.Context) (*ReconcileResult, error) {
	result := &ReconcileResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := danglingBedRefs(tx).Pluck("id", &result.StudentsCleared).Error; err != nil {
			return fmt.Errorf("failed to find dangling bed references: %w", err)
		}
		if len(result.StudentsCleared) > 0 {
			if err := tx.Model(&model.Student{}).Where("id IN ?", result.StudentsCleared).Update("bed_id", nil).Error; err != nil {
				return fmt.Errorf("failed to clear dangling bed references: %w", err)
			}
		}

		if err := occupiedWithoutStudent(tx).Pluck("id", &result.BedsMarkedFree).Error; err != nil {
			return fmt.Errorf("failed to find stale occupied beds: %w", err)
		}
		if len(result.BedsMarkedFree) > 0 {
			if err := tx.Model(&model.Bed{}).Where("id IN ?", result.BedsMarkedFree).Update("is_occupied", false).Error; err != nil {
				return fmt.Errorf("failed to free stale beds: %w", err)
			}
		}

		if err := tx.Model(&model.Bed{}).
			Where("is_occupied = ? AND id IN (?)", false, assignedBedIDs(tx)).
			Pluck("id", &result.BedsMarkedOccupied).Error; err != nil {
			return fmt.Errorf("failed to find unflagged assigned beds: %w", err)
		}
		if len(result.BedsMarkedOccupied) > 0 {
			if err := tx.Model(&model.Bed{}).Where("id IN ?", result.BedsMarkedOccupied).Update("is_occupied", true).Error; err != nil {
				return fmt.Errorf("failed to flag assigned beds: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func assignedBedIDs(db *gorm.DB) *gorm.DB {
	return db.Model(&model.Student{}).Select("bed_id").Where("bed_id IS NOT NULL")
}

func occupiedWithoutStudent(db *gorm.DB) *gorm.DB {
	return db.Model(&model.Bed{}).Where("is_occupied = ? AND id NOT IN (?)", true, assignedBedIDs(db))
}

func studentsOnFreeBeds(db *gorm.DB) *gorm.DB {
	return db.Model(&model.Student{}).
		Joins("JOIN beds ON beds.id = students.bed_id").
		Where("beds.is_occupied = ?", false)
}

func danglingBedRefs(db *gorm.DB) *gorm.DB {
	return db.Model(&model.Student{}).
		Where("bed_id IS NOT NULL AND bed_id NOT IN (?)", db.Model(&model.Bed{}).Select("id"))
}
