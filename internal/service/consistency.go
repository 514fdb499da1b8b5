package service

import (
	"context"

	"hostel-backend/internal/auth"
	"hostel-backend/internal/logger"
	"hostel-backend/internal/realtime"
	"hostel-backend/internal/store"
)

// Consistency audits and repairs bed occupancy.
type Consistency struct {
	store  store.ConsistencyStore
	policy Authorizer
	pub    realtime.Publisher
}

func NewConsistency(s store.ConsistencyStore, policy Authorizer, pub realtime.Publisher) *Consistency {
	return &Consistency{store: s, policy: policy, pub: pub}
}

// Check reports occupancy violations without changing anything.
func (s *Consistency) Check(ctx context.Context, p auth.Principal) (*store.ConsistencyReport, error) {
	if err := s.policy.Authorize(p, auth.ResourceConsistency, auth.ActionRead); err != nil {
		return nil, err
	}
	report, err := s.store.CheckConsistency(ctx)
	if err != nil {
		return nil, wrap("check consistency", err)
	}
	return report, nil
}

// Reconcile recomputes every bed's occupancy from student assignments.
func (s *Consistency) Reconcile(ctx context.Context, p auth.Principal) (*store.ReconcileResult, error) {
	if err := s.policy.Authorize(p, auth.ResourceConsistency, auth.ActionWrite); err != nil {
		return nil, err
	}
	result, err := s.store.ReconcileOccupancy(ctx)
	if err != nil {
		return nil, wrap("reconcile occupancy", err)
	}
	if result.Changed() {
		logger.WithComponent("consistency").Warn("occupancy drift corrected",
			"marked_occupied", len(result.BedsMarkedOccupied),
			"marked_free", len(result.BedsMarkedFree),
			"students_cleared", len(result.StudentsCleared),
		)
		s.pub.Publish(ctx, realtime.Changed(realtime.EventUpdate, realtime.TableBeds, realtime.TableStudents)...)
	}
	return result, nil
}
