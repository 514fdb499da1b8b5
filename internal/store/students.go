package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/model"
)

func (s *gormStore) CreateStudent(ctx context.Context, student *model.Student) error {
	if err := s.db.WithContext(ctx).Create(student).Error; err != nil {
		if apperr.IsDuplicate(err) {
			return apperr.Conflict("profile %s already has a student record", student.UserID)
		}
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

func (s *gormStore) GetStudent(ctx context.Context, studentID string) (*model.Student, error) {
	var student model.Student
	if err := s.studentQuery(ctx).First(&student, "students.id = ?", studentID).Error; err != nil {
		return nil, fmt.Errorf("failed to get student %s: %w", studentID, err)
	}
	return &student, nil
}

func (s *gormStore) GetStudentByProfile(ctx context.Context, profileID string) (*model.Student, error) {
	var student model.Student
	if err := s.studentQuery(ctx).First(&student, "students.user_id = ?", profileID).Error; err != nil {
		return nil, fmt.Errorf("failed to get student for profile %s: %w", profileID, err)
	}
	return &student, nil
}

// ListStudents returns every student with its profile and bed (with room).
func (s *gormStore) ListStudents(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	if err := s.studentQuery(ctx).Order("students.created_at DESC").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

func (s *gormStore) studentQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Profile").Preload("Bed.Room")
}

// AssignBed moves a student onto bedID. The previous bed, if any, is freed and
// both sides of the new assignment are written in the same transaction.
func (s *gormStore) AssignBed(ctx context.Context, studentID, bedID string) (*model.Student, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student model.Student
		if err := forUpdate(tx).First(&student, "id = ?", studentID).Error; err != nil {
			return fmt.Errorf("failed to load student %s: %w", studentID, err)
		}
		var bed model.Bed
		if err := forUpdate(tx).First(&bed, "id = ?", bedID).Error; err != nil {
			return fmt.Errorf("failed to load bed %s: %w", bedID, err)
		}
		if student.HoldsBed(bedID) {
			if bed.IsOccupied {
				return nil
			}
			if err := tx.Model(&model.Bed{}).Where("id = ?", bedID).Update("is_occupied", true).Error; err != nil {
				return fmt.Errorf("failed to occupy bed %s: %w", bedID, err)
			}
			return nil
		}

		var holders int64
		if err := tx.Model(&model.Student{}).Where("bed_id = ? AND id <> ?", bedID, studentID).Count(&holders).Error; err != nil {
			return fmt.Errorf("failed to check bed %s: %w", bedID, err)
		}
		if holders > 0 {
			return apperr.Conflict("bed %s is already assigned to another student", bed.BedNumber)
		}

		if student.BedID != nil {
			if err := tx.Model(&model.Bed{}).Where("id = ?", *student.BedID).Update("is_occupied", false).Error; err != nil {
				return fmt.Errorf("failed to free previous bed %s: %w", *student.BedID, err)
			}
		}
		if err := tx.Model(&model.Student{}).Where("id = ?", studentID).Update("bed_id", bedID).Error; err != nil {
			if apperr.IsDuplicate(err) {
				return apperr.Conflict("bed %s is already assigned to another student", bed.BedNumber)
			}
			return fmt.Errorf("failed to assign bed %s: %w", bedID, err)
		}
		if err := tx.Model(&model.Bed{}).Where("id = ?", bedID).Update("is_occupied", true).Error; err != nil {
			return fmt.Errorf("failed to occupy bed %s: %w", bedID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetStudent(ctx, studentID)
}

// UnassignBed clears bed_id on the student and occupancy on the bed together.
func (s *gormStore) UnassignBed(ctx context.Context, studentID, bedID string) (*model.Student, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student model.Student
		if err := forUpdate(tx).First(&student, "id = ?", studentID).Error; err != nil {
			return fmt.Errorf("failed to load student %s: %w", studentID, err)
		}
		if !student.HoldsBed(bedID) {
			return apperr.Conflict("student %s is not assigned to bed %s", studentID, bedID)
		}
		if err := tx.Model(&model.Student{}).Where("id = ?", studentID).Update("bed_id", nil).Error; err != nil {
			return fmt.Errorf("failed to clear bed of student %s: %w", studentID, err)
		}
		if err := tx.Model(&model.Bed{}).Where("id = ?", bedID).Update("is_occupied", false).Error; err != nil {
			return fmt.Errorf("failed to free bed %s: %w", bedID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetStudent(ctx, studentID)
}

// SetStudentActive flips the active flag without touching the bed.
func (s *gormStore) SetStudentActive(ctx context.Context, studentID string, active bool) (*model.Student, error) {
	res := s.db.WithContext(ctx).Model(&model.Student{}).Where("id = ?", studentID).Update("active", active)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update student %s: %w", studentID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("failed to update student %s: %w", studentID, gorm.ErrRecordNotFound)
	}
	return s.GetStudent(ctx, studentID)
}
