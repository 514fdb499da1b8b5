package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hostel-backend/config"
	"hostel-backend/internal/realtime"
	"hostel-backend/internal/store"
)

type mockStore struct {
	mu         sync.Mutex
	report     store.ConsistencyReport
	checkErr   error
	checks     int
	reconciles int
}

func (m *mockStore) CheckConsistency(context.Context) (*store.ConsistencyReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks++
	if m.checkErr != nil {
		return nil, m.checkErr
	}
	r := m.report
	return &r, nil
}

func (m *mockStore) ReconcileOccupancy(context.Context) (*store.ReconcileResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconciles++
	result := &store.ReconcileResult{BedsMarkedFree: m.report.OccupiedWithoutStudent}
	m.report = store.ConsistencyReport{}
	return result, nil
}

func (m *mockStore) checkCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checks
}

type recorder struct {
	events []realtime.Event
}

func (r *recorder) Publish(_ context.Context, events ...realtime.Event) {
	r.events = append(r.events, events...)
}

func TestRunOnce(t *testing.T) {
	drift := store.ConsistencyReport{OccupiedWithoutStudent: []string{"bed-1"}}

	tests := []struct {
		name           string
		report         store.ConsistencyReport
		checkErr       error
		repair         bool
		wantClean      bool
		wantReconciles int
		wantEvents     int
	}{
		{name: "clean", wantClean: true},
		{name: "drift reported only", report: drift},
		{name: "drift repaired", report: drift, repair: true, wantReconciles: 1, wantEvents: 2},
		{name: "check fails", checkErr: errors.New("db down"), repair: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &mockStore{report: tt.report, checkErr: tt.checkErr}
			pub := &recorder{}
			svc := NewService(config.AuditConfig{Enabled: true, Repair: tt.repair}, s, pub)

			assert.Equal(t, tt.wantClean, svc.RunOnce(context.Background()))
			assert.Equal(t, tt.wantReconciles, s.reconciles)
			assert.Len(t, pub.events, tt.wantEvents)
		})
	}
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	s := &mockStore{}
	svc := NewService(config.AuditConfig{Enabled: true, Interval: 10 * time.Millisecond}, s, &recorder{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return s.checkCount() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_Disabled(t *testing.T) {
	s := &mockStore{}
	NewService(config.AuditConfig{}, s, &recorder{}).Run(context.Background())
	assert.Zero(t, s.checkCount())
}
