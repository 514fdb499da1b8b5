package model

import (
	"time"

	"gorm.io/gorm"
)

// Room represents a hostel room. Capacity equals the number of beds created with it.
type Room struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	RoomNumber string    `gorm:"uniqueIndex;size:32;not null" json:"room_number"`
	Floor      int       `gorm:"not null" json:"floor"`
	Capacity   int       `gorm:"not null" json:"capacity"`
	RentAmount float64   `gorm:"not null" json:"rent_amount"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Associations
	Beds []Bed `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"beds,omitempty"`
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// OccupiedBeds counts the beds of r currently marked occupied.
func (r *Room) OccupiedBeds() int {
	n := 0
	for _, b := range r.Beds {
		if b.IsOccupied {
			n++
		}
	}
	return n
}

// Bed is a single bed within a room.
// IsOccupied mirrors whether a student references the bed; it is only
// written in the same transaction that changes students.bed_id.
type Bed struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	RoomID     string    `gorm:"size:36;not null;uniqueIndex:idx_bed_room_number" json:"room_id"`
	BedNumber  string    `gorm:"size:16;not null;uniqueIndex:idx_bed_room_number" json:"bed_number"`
	IsOccupied bool      `gorm:"not null" json:"is_occupied"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Associations
	Room *Room `gorm:"foreignKey:RoomID" json:"room,omitempty"`
}

func (b *Bed) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	return nil
}
