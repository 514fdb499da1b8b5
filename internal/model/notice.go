package model

import (
	"time"

	"gorm.io/gorm"
)

// NoticePriority orders notices by importance.
type NoticePriority string

const (
	PriorityLow    NoticePriority = "LOW"
	PriorityNormal NoticePriority = "NORMAL"
	PriorityHigh   NoticePriority = "HIGH"
	PriorityUrgent NoticePriority = "URGENT"
)

// Valid reports whether p is a known priority.
func (p NoticePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Pushable reports whether notices of this priority are sent as browser push.
func (p NoticePriority) Pushable() bool {
	return p == PriorityHigh || p == PriorityUrgent
}

// Notice is a board announcement. Expiry is informational and never
// changes the stored row.
type Notice struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Title     string         `gorm:"size:200;not null" json:"title"`
	Message   string         `gorm:"type:text;not null" json:"message"`
	Priority  NoticePriority `gorm:"size:16;not null" json:"priority"`
	CreatedBy *string        `gorm:"size:36;index" json:"created_by,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (n *Notice) BeforeCreate(tx *gorm.DB) error {
	ensureID(&n.ID)
	return nil
}

// IsExpired reports whether the notice's expiry lies before now.
func (n *Notice) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && n.ExpiresAt.Before(now)
}
