package model

import (
	"time"

	"gorm.io/gorm"
)

// ComplaintStatus is the lifecycle state of a complaint.
type ComplaintStatus string

const (
	ComplaintOpen       ComplaintStatus = "OPEN"
	ComplaintInProgress ComplaintStatus = "IN_PROGRESS"
	ComplaintResolved   ComplaintStatus = "RESOLVED"
)

// Valid reports whether s is a known status.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintOpen, ComplaintInProgress, ComplaintResolved:
		return true
	}
	return false
}

// ComplaintCategory is one of a fixed set of complaint subjects.
type ComplaintCategory string

const (
	CategoryMaintenance ComplaintCategory = "Maintenance"
	CategoryCleanliness ComplaintCategory = "Cleanliness"
	CategoryFood        ComplaintCategory = "Food"
	CategoryInternet    ComplaintCategory = "Internet"
	CategorySecurity    ComplaintCategory = "Security"
	CategoryNoise       ComplaintCategory = "Noise"
	CategoryPlumbing    ComplaintCategory = "Plumbing"
	CategoryElectrical  ComplaintCategory = "Electrical"
	CategoryOthers      ComplaintCategory = "Others"
)

// ComplaintCategories lists every accepted category in display order.
var ComplaintCategories = []ComplaintCategory{
	CategoryMaintenance, CategoryCleanliness, CategoryFood, CategoryInternet, CategorySecurity,
	CategoryNoise, CategoryPlumbing, CategoryElectrical, CategoryOthers,
}

// Valid reports whether c is one of ComplaintCategories.
func (c ComplaintCategory) Valid() bool {
	for _, known := range ComplaintCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Complaint is an issue filed by a resident.
type Complaint struct {
	ID            string            `gorm:"primaryKey;size:36" json:"id"`
	StudentID     string            `gorm:"size:36;not null;index" json:"student_id"`
	Category      ComplaintCategory `gorm:"size:32;not null" json:"category"`
	Description   string            `gorm:"type:text;not null" json:"description"`
	Status        ComplaintStatus   `gorm:"size:16;not null;index" json:"status"`
	AdminResponse *string           `gorm:"type:text" json:"admin_response,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`

	// Associations
	Student *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
