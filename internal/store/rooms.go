package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/model"
)

// orderBedNumber sorts "2" before "10".
func orderBedNumber(db *gorm.DB) *gorm.DB {
	return db.Order("LENGTH(bed_number), bed_number")
}

// CreateRoomWithBeds inserts room and bedCount beds labelled "1".."bedCount"
// in one transaction. A failed bed insert rolls the room back.
func (s *gormStore) CreateRoomWithBeds(ctx context.Context, room *model.Room, bedCount int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room.Beds = nil
		if err := tx.Create(room).Error; err != nil {
			if apperr.IsDuplicate(err) {
				return apperr.Conflict("room %s already exists", room.RoomNumber)
			}
			return fmt.Errorf("failed to create room %s: %w", room.RoomNumber, err)
		}

		beds := make([]model.Bed, bedCount)
		for i := range beds {
			beds[i] = model.Bed{RoomID: room.ID, BedNumber: strconv.Itoa(i + 1)}
		}
		if bedCount > 0 {
			if err := tx.Create(&beds).Error; err != nil {
				return fmt.Errorf("failed to create beds for room %s: %w", room.RoomNumber, err)
			}
		}
		room.Beds = beds
		return nil
	})
}

// DeleteRoom clears bed_id on every student holding one of the room's beds,
// then removes the beds and the room, all in one transaction.
func (s *gormStore) DeleteRoom(ctx context.Context, roomID string) (*RoomDeletion, error) {
	result := &RoomDeletion{RoomID: roomID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room model.Room
		if err := forUpdate(tx).First(&room, "id = ?", roomID).Error; err != nil {
			return fmt.Errorf("failed to load room %s: %w", roomID, err)
		}

		bedIDs := tx.Model(&model.Bed{}).Select("id").Where("room_id = ?", roomID)
		if err := tx.Model(&model.Student{}).Where("bed_id IN (?)", bedIDs).
			Pluck("id", &result.UnassignedStudents).Error; err != nil {
			return fmt.Errorf("failed to find residents of room %s: %w", roomID, err)
		}
		if len(result.UnassignedStudents) > 0 {
			if err := tx.Model(&model.Student{}).Where("id IN ?", result.UnassignedStudents).
				Update("bed_id", nil).Error; err != nil {
				return fmt.Errorf("failed to unassign residents of room %s: %w", roomID, err)
			}
		}

		res := tx.Where("room_id = ?", roomID).Delete(&model.Bed{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete beds of room %s: %w", roomID, res.Error)
		}
		result.BedsRemoved = res.RowsAffected

		if err := tx.Delete(&model.Room{}, "id = ?", roomID).Error; err != nil {
			return fmt.Errorf("failed to delete room %s: %w", roomID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *gormStore) GetRoom(ctx context.Context, roomID string) (*model.Room, error) {
	var room model.Room
	if err := s.db.WithContext(ctx).Preload("Beds", orderBedNumber).First(&room, "id = ?", roomID).Error; err != nil {
		return nil, fmt.Errorf("failed to get room %s: %w", roomID, err)
	}
	return &room, nil
}

// ListRooms returns all rooms with their beds, ordered by room number.
func (s *gormStore) ListRooms(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	if err := s.db.WithContext(ctx).Preload("Beds", orderBedNumber).Order("room_number").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

func (s *gormStore) ListBeds(ctx context.Context, filter BedFilter) ([]model.Bed, error) {
	q := s.db.WithContext(ctx).Preload("Room")
	if filter.RoomID != "" {
		q = q.Where("room_id = ?", filter.RoomID)
	}
	if filter.AvailableOnly {
		q = q.Where("is_occupied = ?", false)
	}
	var beds []model.Bed
	if err := orderBedNumber(q.Order("room_id")).Find(&beds).Error; err != nil {
		return nil, fmt.Errorf("failed to list beds: %w", err)
	}
	return beds, nil
}

func (s *gormStore) GetBed(ctx context.Context, bedID string) (*model.Bed, error) {
	var bed model.Bed
	if err := s.db.WithContext(ctx).Preload("Room").First(&bed, "id = ?", bedID).Error; err != nil {
		return nil, fmt.Errorf("failed to get bed %s: %w", bedID, err)
	}
	return &bed, nil
}

// VacateBed frees bedID together with the student holding it and returns
// that student's id. A bed nobody holds is rejected.
func (s *gormStore) VacateBed(ctx context.Context, bedID string) (string, error) {
	var studentID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bed model.Bed
		if err := forUpdate(tx).First(&bed, "id = ?", bedID).Error; err != nil {
			return fmt.Errorf("failed to load bed %s: %w", bedID, err)
		}

		var holder model.Student
		err := forUpdate(tx).Where("bed_id = ?", bedID).First(&holder).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if !bed.IsOccupied {
				return apperr.Validation("bed %s is free; assign a student to occupy a bed", bed.BedNumber)
			}
			// Flagged occupied with no holder: repair the flag.
		case err != nil:
			return fmt.Errorf("failed to find holder of bed %s: %w", bedID, err)
		default:
			studentID = holder.ID
			if err := tx.Model(&model.Student{}).Where("id = ?", holder.ID).Update("bed_id", nil).Error; err != nil {
				return fmt.Errorf("failed to unassign student %s: %w", holder.ID, err)
			}
		}

		if err := tx.Model(&model.Bed{}).Where("id = ?", bedID).Update("is_occupied", false).Error; err != nil {
			return fmt.Errorf("failed to free bed %s: %w", bedID, err)
		}
		return nil
	})
	return studentID, err
}
