package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"hostel-backend/internal/auth"
	"hostel-backend/internal/model"
	"hostel-backend/internal/store"
)

// DashboardStore is what Dashboard reads.
type DashboardStore interface {
	store.CountStore
	ListComplaints(ctx context.Context, filter store.ComplaintFilter) ([]model.Complaint, error)
	ListNotices(ctx context.Context, limit int) ([]model.Notice, error)
}

const (
	recentComplaints = 5
	recentNotices    = 3
)

// DashboardSummary is the administrator overview.
type DashboardSummary struct {
	TotalRooms       int64             `json:"total_rooms"`
	TotalBeds        int64             `json:"total_beds"`
	OccupiedBeds     int64             `json:"occupied_beds"`
	AvailableBeds    int64             `json:"available_beds"`
	OpenComplaints   int64             `json:"open_complaints"`
	PendingRent      int64             `json:"pending_rent"`
	RecentComplaints []model.Complaint `json:"recent_complaints"`
	RecentNotices    []model.Notice    `json:"recent_notices"`
}

// Dashboard builds the overview from independent queries.
type Dashboard struct {
	store  DashboardStore
	policy Authorizer
}

func NewDashboard(s DashboardStore, policy Authorizer) *Dashboard {
	return &Dashboard{store: s, policy: policy}
}

// Summary issues every query concurrently and waits for all of them.
func (s *Dashboard) Summary(ctx context.Context, p auth.Principal) (*DashboardSummary, error) {
	if err := s.policy.Authorize(p, auth.ResourceDashboard, auth.ActionRead); err != nil {
		return nil, err
	}

	var out DashboardSummary
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.store.CountRooms(gctx)
		out.TotalRooms = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountBeds(gctx)
		out.TotalBeds = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountOccupiedBeds(gctx)
		out.OccupiedBeds = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountComplaintsNotResolved(gctx)
		out.OpenComplaints = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountRentByStatus(gctx, model.RentPending)
		out.PendingRent = n
		return err
	})
	g.Go(func() error {
		list, err := s.store.ListComplaints(gctx, store.ComplaintFilter{Limit: recentComplaints})
		out.RecentComplaints = list
		return err
	})
	g.Go(func() error {
		list, err := s.store.ListNotices(gctx, recentNotices)
		out.RecentNotices = list
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, wrap("dashboard summary", err)
	}
	out.AvailableBeds = out.TotalBeds - out.OccupiedBeds
	return &out, nil
}
