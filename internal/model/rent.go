package model

import (
	"time"

	"gorm.io/gorm"
)

// RentStatus is the payment state of a rent record.
type RentStatus string

const (
	RentPending RentStatus = "PENDING"
	RentPaid    RentStatus = "PAID"
	RentOverdue RentStatus = "OVERDUE"
)

// Valid reports whether s is a known status.
func (s RentStatus) Valid() bool {
	switch s {
	case RentPending, RentPaid, RentOverdue:
		return true
	}
	return false
}

// Rent is one month's rent obligation of a student.
// PaidAt is set if and only if Status is PAID.
type Rent struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	StudentID string     `gorm:"size:36;not null;uniqueIndex:idx_rent_student_month" json:"student_id"`
	Month     string     `gorm:"size:7;not null;uniqueIndex:idx_rent_student_month" json:"month"`
	Amount    float64    `gorm:"not null" json:"amount"`
	Status    RentStatus `gorm:"size:16;not null;index" json:"status"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Associations
	Student *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

// TableName keeps the singular table name used by existing deployments.
func (Rent) TableName() string {
	return "rent"
}

func (r *Rent) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
