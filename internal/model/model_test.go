package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNotice_IsExpired(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&Notice{ExpiresAt: &past}).IsExpired(now))
	assert.False(t, (&Notice{ExpiresAt: &future}).IsExpired(now))
	assert.False(t, (&Notice{}).IsExpired(now), "notices without expiry never expire")
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("WARDEN").Valid())

	assert.True(t, ComplaintResolved.Valid())
	assert.False(t, ComplaintStatus("CLOSED").Valid())

	assert.True(t, CategoryPlumbing.Valid())
	assert.False(t, ComplaintCategory("maintenance").Valid(), "categories are case sensitive")
	assert.Len(t, ComplaintCategories, 9)

	assert.True(t, PriorityUrgent.Pushable())
	assert.False(t, PriorityNormal.Pushable())

	assert.True(t, RentOverdue.Valid())
	assert.False(t, RentStatus("UNPAID").Valid())
}

func TestStudent_HoldsBed(t *testing.T) {
	bed := "bed-1"
	assert.True(t, (&Student{BedID: &bed}).HoldsBed("bed-1"))
	assert.False(t, (&Student{BedID: &bed}).HoldsBed("bed-2"))
	assert.False(t, (&Student{}).HoldsBed("bed-1"))
}

func TestRoom_OccupiedBeds(t *testing.T) {
	r := Room{Beds: []Bed{{IsOccupied: true}, {}, {IsOccupied: true}}}
	assert.Equal(t, 2, r.OccupiedBeds())
}
