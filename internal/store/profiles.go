package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/model"
)

// CreateProfileWithStudent inserts a profile and, when student is non-nil,
// its residency record in the same transaction.
func (s *gormStore) CreateProfileWithStudent(ctx context.Context, profile *model.Profile, student *model.Student) error {
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(profile).Error; err != nil {
			if apperr.IsDuplicate(err) {
				return apperr.Conflict("an account with email %s already exists", profile.Email)
			}
			return fmt.Errorf("failed to create profile: %w", err)
		}
		if student == nil {
			return nil
		}
		student.UserID = profile.ID
		if err := tx.Create(student).Error; err != nil {
			return fmt.Errorf("failed to create student for profile %s: %w", profile.ID, err)
		}
		return nil
	})
}

func (s *gormStore) GetProfile(ctx context.Context, profileID string) (*model.Profile, error) {
	var profile model.Profile
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", profileID).Error; err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", profileID, err)
	}
	return &profile, nil
}

func (s *gormStore) GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error) {
	var profile model.Profile
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.db.WithContext(ctx).First(&profile, "email = ?", email).Error; err != nil {
		return nil, fmt.Errorf("failed to get profile by email: %w", err)
	}
	return &profile, nil
}
