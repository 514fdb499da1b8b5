package service

import (
	"context"
	"time"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/auth"
	"hostel-backend/internal/model"
	"hostel-backend/internal/parse"
	"hostel-backend/internal/realtime"
	"hostel-backend/internal/store"
)

// RentLedgerStore is what Rent reads and writes.
type RentLedgerStore interface {
	store.RentStore
	GetStudent(ctx context.Context, studentID string) (*model.Student, error)
	GetStudentByProfile(ctx context.Context, profileID string) (*model.Student, error)
}

// CreateRentInput is a new monthly obligation. When Amount is zero the
// rent of the student's current room is used.
type CreateRentInput struct {
	StudentID string  `json:"student_id" validate:"required"`
	Month     string  `json:"month" validate:"required"`
	Amount    float64 `json:"amount" validate:"gte=0"`
}

// RentSummary aggregates amounts by status. It is recomputed on every call.
type RentSummary struct {
	Pending        float64 `json:"pending"`
	Overdue        float64 `json:"overdue"`
	Collected      float64 `json:"collected"`
	PendingCount   int64   `json:"pending_count"`
	OverdueCount   int64   `json:"overdue_count"`
	CollectedCount int64   `json:"collected_count"`
}

// Rent is the rent ledger.
type Rent struct {
	store  RentLedgerStore
	policy Authorizer
	pub    realtime.Publisher
	now    func() time.Time
}

func NewRent(s RentLedgerStore, policy Authorizer, pub realtime.Publisher, now func() time.Time) *Rent {
	return &Rent{store: s, policy: policy, pub: pub, now: now}
}

// CreateRecord adds a PENDING record. A second record for the same student
// and month is a conflict.
func (s *Rent) CreateRecord(ctx context.Context, p auth.Principal, in CreateRentInput) (*model.Rent, error) {
	if err := s.policy.Authorize(p, auth.ResourceRent, auth.ActionWrite); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	month, err := parse.Month(in.Month)
	if err != nil {
		return nil, apperr.ValidationFields(map[string]string{"month": "YYYY-MM"})
	}

	st, err := s.store.GetStudent(ctx, in.StudentID)
	if err != nil {
		return nil, notFound(err, "student %s not found", in.StudentID)
	}
	amount := in.Amount
	if amount == 0 {
		if st.Bed != nil && st.Bed.Room != nil {
			amount = st.Bed.Room.RentAmount
		}
		if amount == 0 {
			return nil, apperr.ValidationFields(map[string]string{"amount": "required"})
		}
	}

	rent := &model.Rent{
		StudentID: in.StudentID,
		Month:     month,
		Amount:    amount,
		Status:    model.RentPending,
	}
	if err := s.store.CreateRent(ctx, rent); err != nil {
		return nil, wrap("create rent", err)
	}
	s.pub.Publish(ctx, realtime.Changed(realtime.EventInsert, realtime.TableRent)...)
	return rent, nil
}

// MarkPaid sets PAID and paid_at=now. Marking a PAID record again is a no-op.
func (s *Rent) MarkPaid(ctx context.Context, p auth.Principal, rentID string) (*model.Rent, error) {
	return s.transition(ctx, p, rentID, func(ctx context.Context) (*model.Rent, error) {
		return s.store.MarkRentPaid(ctx, rentID, s.now().UTC())
	})
}

// MarkOverdue is only valid from PENDING.
func (s *Rent) MarkOverdue(ctx context.Context, p auth.Principal, rentID string) (*model.Rent, error) {
	return s.transition(ctx, p, rentID, func(ctx context.Context) (*model.Rent, error) {
		return s.store.MarkRentOverdue(ctx, rentID)
	})
}

// Undo returns a PAID record to PENDING and clears paid_at.
func (s *Rent) Undo(ctx context.Context, p auth.Principal, rentID string) (*model.Rent, error) {
	return s.transition(ctx, p, rentID, func(ctx context.Context) (*model.Rent, error) {
		return s.store.UndoRentPayment(ctx, rentID)
	})
}

func (s *Rent) transition(ctx context.Context, p auth.Principal, rentID string, apply func(context.Context) (*model.Rent, error)) (*model.Rent, error) {
	if err := s.policy.Authorize(p, auth.ResourceRent, auth.ActionWrite); err != nil {
		return nil, err
	}
	rent, err := apply(ctx)
	if err != nil {
		return nil, notFound(err, "rent record %s not found", rentID)
	}
	s.pub.Publish(ctx, realtime.Changed(realtime.EventUpdate, realtime.TableRent)...)
	return rent, nil
}

// RentQuery narrows List. StudentID selects one student's history.
type RentQuery struct {
	Status    model.RentStatus
	StudentID string
}

// List returns rent records; residents only see their own.
func (s *Rent) List(ctx context.Context, p auth.Principal, q RentQuery) ([]model.Rent, error) {
	filter, err := s.scopedFilter(ctx, p, q.Status)
	if err != nil {
		return nil, err
	}
	if q.StudentID != "" {
		if filter.StudentID != "" {
			if filter.StudentID != q.StudentID {
				return nil, apperr.Forbidden("residents can only read their own rent")
			}
		} else {
			if _, err := s.store.GetStudent(ctx, q.StudentID); err != nil {
				return nil, notFound(err, "student %s not found", q.StudentID)
			}
			filter.StudentID = q.StudentID
		}
	}
	if err != nil {
		return nil, err
	}
	rents, err := s.store.ListRent(ctx, filter)
	if err != nil {
		return nil, wrap("list rent", err)
	}
	return rents, nil
}

// Summary sums pending, overdue and collected amounts over visible records.
func (s *Rent) Summary(ctx context.Context, p auth.Principal) (*RentSummary, error) {
	filter, err := s.scopedFilter(ctx, p, "")
	if err != nil {
		return nil, err
	}
	totals, err := s.store.RentTotals(ctx, filter)
	if err != nil {
		return nil, wrap("rent summary", err)
	}
	summary := &RentSummary{}
	for _, t := range totals {
		switch t.Status {
		case model.RentPending:
			summary.Pending, summary.PendingCount = t.Total, t.Count
		case model.RentOverdue:
			summary.Overdue, summary.OverdueCount = t.Total, t.Count
		case model.RentPaid:
			summary.Collected, summary.CollectedCount = t.Total, t.Count
		}
	}
	return summary, nil
}

func (s *Rent) scopedFilter(ctx context.Context, p auth.Principal, status model.RentStatus) (store.RentFilter, error) {
	scope, err := s.policy.ReadScope(p, auth.ResourceRent)
	if err != nil {
		return store.RentFilter{}, err
	}
	if status != "" && !status.Valid() {
		return store.RentFilter{}, apperr.ValidationFields(map[string]string{"status": "oneof"})
	}
	filter := store.RentFilter{Status: status}
	if scope == auth.ScopeOwn {
		if filter.StudentID, err = ownStudentID(ctx, s.store, p); err != nil {
			return store.RentFilter{}, err
		}
	}
	return filter, nil
}
