package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-backend/internal/model"
)

// RoomStore persists rooms and their beds.
type RoomStore interface {
	CreateRoomWithBeds(ctx context.Context, room *model.Room, bedCount int) error
	DeleteRoom(ctx context.Context, roomID string) (*RoomDeletion, error)
	GetRoom(ctx context.Context, roomID string) (*model.Room, error)
	ListRooms(ctx context.Context) ([]model.Room, error)
	ListBeds(ctx context.Context, filter BedFilter) ([]model.Bed, error)
	GetBed(ctx context.Context, bedID string) (*model.Bed, error)
	VacateBed(ctx context.Context, bedID string) (string, error)
}

// StudentStore persists residency records and bed assignment.
type StudentStore interface {
	CreateStudent(ctx context.Context, student *model.Student) error
	GetStudent(ctx context.Context, studentID string) (*model.Student, error)
	GetStudentByProfile(ctx context.Context, profileID string) (*model.Student, error)
	ListStudents(ctx context.Context) ([]model.Student, error)
	AssignBed(ctx context.Context, studentID, bedID string) (*model.Student, error)
	UnassignBed(ctx context.Context, studentID, bedID string) (*model.Student, error)
	SetStudentActive(ctx context.Context, studentID string, active bool) (*model.Student, error)
}

// ComplaintStore persists complaints.
type ComplaintStore interface {
	CreateComplaint(ctx context.Context, complaint *model.Complaint) error
	GetComplaint(ctx context.Context, complaintID string) (*model.Complaint, error)
	ListComplaints(ctx context.Context, filter ComplaintFilter) ([]model.Complaint, error)
	UpdateComplaintStatus(ctx context.Context, complaintID string, status model.ComplaintStatus) (*model.Complaint, error)
	RespondToComplaint(ctx context.Context, complaintID, response string) (*model.Complaint, error)
}

// NoticeStore persists notices.
type NoticeStore interface {
	CreateNotice(ctx context.Context, notice *model.Notice) error
	GetNotice(ctx context.Context, noticeID string) (*model.Notice, error)
	ListNotices(ctx context.Context, limit int) ([]model.Notice, error)
	DeleteNotice(ctx context.Context, noticeID string) error
}

// RentStore persists rent records and their payment transitions.
type RentStore interface {
	CreateRent(ctx context.Context, rent *model.Rent) error
	GetRent(ctx context.Context, rentID string) (*model.Rent, error)
	ListRent(ctx context.Context, filter RentFilter) ([]model.Rent, error)
	MarkRentPaid(ctx context.Context, rentID string, paidAt time.Time) (*model.Rent, error)
	MarkRentOverdue(ctx context.Context, rentID string) (*model.Rent, error)
	UndoRentPayment(ctx context.Context, rentID string) (*model.Rent, error)
	RentTotals(ctx context.Context, filter RentFilter) ([]RentTotal, error)
}

// ProfileStore persists accounts.
type ProfileStore interface {
	CreateProfileWithStudent(ctx context.Context, profile *model.Profile, student *model.Student) error
	GetProfile(ctx context.Context, profileID string) (*model.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error)
	CountProfilesByRole(ctx context.Context, role model.Role) (int64, error)
}

// PushStore persists browser push subscriptions.
type PushStore interface {
	UpsertPushSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeletePushSubscription(ctx context.Context, endpoint string) error
	GetPushSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	ListPushSubscriptions(ctx context.Context) ([]model.PushSubscription, error)
}

// ConsistencyStore checks and repairs bed occupancy.
type ConsistencyStore interface {
	CheckConsistency(ctx context.Context) (*ConsistencyReport, error)
	ReconcileOccupancy(ctx context.Context) (*ReconcileResult, error)
}

// CountStore answers the aggregate questions of the dashboard.
type CountStore interface {
	CountRooms(ctx context.Context) (int64, error)
	CountBeds(ctx context.Context) (int64, error)
	CountOccupiedBeds(ctx context.Context) (int64, error)
	CountComplaintsNotResolved(ctx context.Context) (int64, error)
	CountRentByStatus(ctx context.Context, status model.RentStatus) (int64, error)
}

// Store defines the interface for all database operations.
type Store interface {
	RoomStore
	StudentStore
	ComplaintStore
	NoticeStore
	RentStore
	ProfileStore
	PushStore
	ConsistencyStore
	CountStore
	Ping(ctx context.Context) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// forUpdate adds a row lock on dialects that support SELECT ... FOR UPDATE.
// SQLite serializes writers on its own.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
