package model

import "time"

// PushSubscription holds the information for a browser push subscription
// that receives high-priority notices.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	ProfileID *string   `gorm:"size:36;index" json:"profile_id,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// All lists every model managed by migrations, in dependency order.
func All() []any {
	return []any{
		&Profile{},
		&Room{},
		&Bed{},
		&Student{},
		&Complaint{},
		&Notice{},
		&Rent{},
		&PushSubscription{},
	}
}
