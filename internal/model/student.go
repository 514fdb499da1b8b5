package model

import (
	"time"

	"gorm.io/gorm"
)

// Student is the residency record of a STUDENT profile.
// BedID is unique so that no two students can hold the same bed.
type Student struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	UserID           string    `gorm:"size:36;not null;uniqueIndex" json:"user_id"`
	BedID            *string   `gorm:"size:36;uniqueIndex" json:"bed_id"`
	Phone            string    `gorm:"size:32" json:"phone,omitempty"`
	EmergencyContact string    `gorm:"size:64" json:"emergency_contact,omitempty"`
	Address          string    `gorm:"size:255" json:"address,omitempty"`
	JoinDate         time.Time `gorm:"not null" json:"join_date"`
	Active           bool      `gorm:"not null" json:"active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Associations
	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	Bed     *Bed     `gorm:"foreignKey:BedID" json:"bed,omitempty"`
}

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// HoldsBed reports whether the student is assigned to bedID.
func (s *Student) HoldsBed(bedID string) bool {
	return s.BedID != nil && *s.BedID == bedID
}
