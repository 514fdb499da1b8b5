// Package audit periodically verifies that bed occupancy flags agree with
// student assignments.
package audit

import (
	"context"
	"log/slog"
	"time"

	"hostel-backend/config"
	"hostel-backend/internal/logger"
	"hostel-backend/internal/realtime"
	"hostel-backend/internal/store"
)

// Service runs the occupancy audit on a timer.
type Service struct {
	cfg    config.AuditConfig
	store  store.ConsistencyStore
	pub    realtime.Publisher
	logger *slog.Logger
}

// NewService creates an audit service. pub receives change events when a
// repair modified rows.
func NewService(cfg config.AuditConfig, s store.ConsistencyStore, pub realtime.Publisher) *Service {
	return &Service{
		cfg:    cfg,
		store:  s,
		pub:    pub,
		logger: logger.WithComponent("audit"),
	}
}

// Run audits once immediately and then every configured interval until ctx ends.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info("occupancy audit is disabled")
		return
	}
	s.logger.Info("starting occupancy audit", "interval", s.cfg.Interval, "repair", s.cfg.Repair)

	s.RunOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("occupancy audit shutting down")
			return
		case <-timer.C:
			s.RunOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// RunOnce performs a single audit. It reports whether the data was clean
// when the audit started.
func (s *Service) RunOnce(ctx context.Context) bool {
	report, err := s.store.CheckConsistency(ctx)
	if err != nil {
		s.logger.Error("occupancy audit failed", "error", err)
		return false
	}
	if report.Clean() {
		s.logger.Debug("bed occupancy is consistent")
		return true
	}

	s.logger.Warn("occupancy drift detected",
		"occupied_without_student", len(report.OccupiedWithoutStudent),
		"student_on_free_bed", len(report.StudentOnFreeBed),
		"dangling_bed_refs", len(report.DanglingBedRefs),
	)
	if !s.cfg.Repair {
		return false
	}

	result, err := s.store.ReconcileOccupancy(ctx)
	if err != nil {
		s.logger.Error("occupancy repair failed", "error", err)
		return false
	}
	if result.Changed() {
		s.pub.Publish(ctx, realtime.Changed(realtime.EventUpdate, realtime.TableBeds, realtime.TableStudents)...)
	}
	s.logger.Info("occupancy repaired",
		"beds_marked_occupied", len(result.BedsMarkedOccupied),
		"beds_marked_free", len(result.BedsMarkedFree),
		"students_cleared", len(result.StudentsCleared),
	)
	return false
}
