package service

import (
	"context"
	"strings"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/auth"
	"hostel-backend/internal/model"
	"hostel-backend/internal/parse"
	"hostel-backend/internal/realtime"
	"hostel-backend/internal/store"
)

// CreateRoomInput describes a new room. Floor is derived from the room
// number when omitted.
type CreateRoomInput struct {
	RoomNumber string  `json:"room_number" validate:"required,max=32"`
	Floor      *int    `json:"floor" validate:"omitempty,min=0,max=200"`
	RentAmount float64 `json:"rent_amount" validate:"gte=0"`
	BedCount   int     `json:"bed_count" validate:"required,min=1,max=50"`
}

// RoomView is a room with its occupancy counts.
type RoomView struct {
	model.Room
	OccupiedBeds  int `json:"occupied_beds"`
	AvailableBeds int `json:"available_beds"`
}

// Inventory owns rooms, beds and their occupancy.
type Inventory struct {
	store  store.RoomStore
	policy Authorizer
	pub    realtime.Publisher
}

func NewInventory(s store.RoomStore, policy Authorizer, pub realtime.Publisher) *Inventory {
	return &Inventory{store: s, policy: policy, pub: pub}
}

// CreateRoom creates the room and exactly BedCount free beds atomically.
func (s *Inventory) CreateRoom(ctx context.Context, p auth.Principal, in CreateRoomInput) (*model.Room, error) {
	if err := s.policy.Authorize(p, auth.ResourceRooms, auth.ActionWrite); err != nil {
		return nil, err
	}
	in.RoomNumber = strings.TrimSpace(in.RoomNumber)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	floor := 0
	if in.Floor != nil {
		floor = *in.Floor
	} else {
		f, err := parse.FloorFromRoomNumber(in.RoomNumber)
		if err != nil {
			return nil, apperr.ValidationFields(map[string]string{"floor": "required"})
		}
		floor = f
	}

	room := &model.Room{
		RoomNumber: in.RoomNumber,
		Floor:      floor,
		Capacity:   in.BedCount,
		RentAmount: in.RentAmount,
	}
	if err := s.store.CreateRoomWithBeds(ctx, room, in.BedCount); err != nil {
		return nil, wrap("create room", err)
	}
	s.pub.Publish(ctx, realtime.Changed(realtime.EventInsert, realtime.TableRooms, realtime.TableBeds)...)
	return room, nil
}

// DeleteRoom removes the room with its beds and unassigns their residents.
func (s *Inventory) DeleteRoom(ctx context.Context, p auth.Principal, roomID string) (*store.RoomDeletion, error) {
	if err := s.policy.Authorize(p, auth.ResourceRooms, auth.ActionWrite); err != nil {
		return nil, err
	}
	if err := requireID("room_id", roomID); err != nil {
		return nil, err
	}
	deletion, err := s.store.DeleteRoom(ctx, roomID)
	if err != nil {
		return nil, notFound(err, "room %s not found", roomID)
	}

	events := realtime.Changed(realtime.EventDelete, realtime.TableRooms, realtime.TableBeds)
	if len(deletion.UnassignedStudents) > 0 {
		events = append(events, realtime.Changed(realtime.EventUpdate, realtime.TableStudents)...)
	}
	s.pub.Publish(ctx, events...)
	return deletion, nil
}

// ToggleBedOccupancy vacates an occupied bed together with its resident.
// A free bed cannot be toggled to occupied; assign a student instead.
// It returns the id of the student who was unassigned, if any.
func (s *Inventory) ToggleBedOccupancy(ctx context.Context, p auth.Principal, bedID string) (string, error) {
	if err := s.policy.Authorize(p, auth.ResourceBeds, auth.ActionWrite); err != nil {
		return "", err
	}
	if err := requireID("bed_id", bedID); err != nil {
		return "", err
	}
	studentID, err := s.store.VacateBed(ctx, bedID)
	if err != nil {
		return "", notFound(err, "bed %s not found", bedID)
	}

	events := realtime.Changed(realtime.EventUpdate, realtime.TableBeds)
	if studentID != "" {
		events = append(events, realtime.Changed(realtime.EventUpdate, realtime.TableStudents)...)
	}
	s.pub.Publish(ctx, events...)
	return studentID, nil
}

// ListRooms returns every room with beds and occupancy counts.
func (s *Inventory) ListRooms(ctx context.Context, p auth.Principal) ([]RoomView, error) {
	if err := s.policy.Authorize(p, auth.ResourceRooms, auth.ActionRead); err != nil {
		return nil, err
	}
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return nil, wrap("list rooms", err)
	}
	views := make([]RoomView, len(rooms))
	for i := range rooms {
		occupied := rooms[i].OccupiedBeds()
		views[i] = RoomView{Room: rooms[i], OccupiedBeds: occupied, AvailableBeds: len(rooms[i].Beds) - occupied}
	}
	return views, nil
}

// ListBeds returns beds, optionally only the free ones or those of one room.
func (s *Inventory) ListBeds(ctx context.Context, p auth.Principal, filter store.BedFilter) ([]model.Bed, error) {
	if err := s.policy.Authorize(p, auth.ResourceBeds, auth.ActionRead); err != nil {
		return nil, err
	}
	beds, err := s.store.ListBeds(ctx, filter)
	if err != nil {
		return nil, wrap("list beds", err)
	}
	return beds, nil
}

// ListAvailableBeds returns every free bed with its room.
func (s *Inventory) ListAvailableBeds(ctx context.Context, p auth.Principal) ([]model.Bed, error) {
	return s.ListBeds(ctx, p, store.BedFilter{AvailableOnly: true})
}
