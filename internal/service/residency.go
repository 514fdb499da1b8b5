package service

import (
	"context"
	"strings"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/auth"
	"hostel-backend/internal/model"
	"hostel-backend/internal/realtime"
	"hostel-backend/internal/store"
)

// Residency owns students and their bed assignment.
type Residency struct {
	store  store.StudentStore
	policy Authorizer
	pub    realtime.Publisher
}

func NewResidency(s store.StudentStore, policy Authorizer, pub realtime.Publisher) *Residency {
	return &Residency{store: s, policy: policy, pub: pub}
}

// AssignBed moves the student onto bedID, freeing any bed it held before.
func (s *Residency) AssignBed(ctx context.Context, p auth.Principal, studentID, bedID string) (*model.Student, error) {
	if err := s.policy.Authorize(p, auth.ResourceStudents, auth.ActionWrite); err != nil {
		return nil, err
	}
	if err := requireID("student_id", studentID); err != nil {
		return nil, err
	}
	if err := requireID("bed_id", bedID); err != nil {
		return nil, err
	}
	st, err := s.store.AssignBed(ctx, studentID, bedID)
	if err != nil {
		return nil, notFound(err, "student or bed not found")
	}
	s.pub.Publish(ctx, realtime.Changed(realtime.EventUpdate, realtime.TableStudents, realtime.TableBeds)...)
	return st, nil
}

// UnassignBed clears the student's bed and frees it.
func (s *Residency) UnassignBed(ctx context.Context, p auth.Principal, studentID, bedID string) (*model.Student, error) {
	if err := s.policy.Authorize(p, auth.ResourceStudents, auth.ActionWrite); err != nil {
		return nil, err
	}
	if err := requireID("student_id", studentID); err != nil {
		return nil, err
	}
	if bedID == "" {
		current, err := s.store.GetStudent(ctx, studentID)
		if err != nil {
			return nil, notFound(err, "student %s not found", studentID)
		}
		if current.BedID == nil {
			return nil, apperr.Conflict("student %s has no bed", studentID)
		}
		bedID = *current.BedID
	}
	st, err := s.store.UnassignBed(ctx, studentID, bedID)
	if err != nil {
		return nil, notFound(err, "student %s not found", studentID)
	}
	s.pub.Publish(ctx, realtime.Changed(realtime.EventUpdate, realtime.TableStudents, realtime.TableBeds)...)
	return st, nil
}

// SetActive marks a resident active or inactive; the bed is untouched.
func (s *Residency) SetActive(ctx context.Context, p auth.Principal, studentID string, active bool) (*model.Student, error) {
	if err := s.policy.Authorize(p, auth.ResourceStudents, auth.ActionWrite); err != nil {
		return nil, err
	}
	st, err := s.store.SetStudentActive(ctx, studentID, active)
	if err != nil {
		return nil, notFound(err, "student %s not found", studentID)
	}
	s.pub.Publish(ctx, realtime.Changed(realtime.EventUpdate, realtime.TableStudents)...)
	return st, nil
}

// List returns every student for admins and the caller's own record for residents.
func (s *Residency) List(ctx context.Context, p auth.Principal) ([]model.Student, error) {
	scope, err := s.policy.ReadScope(p, auth.ResourceStudents)
	if err != nil {
		return nil, err
	}
	if scope == auth.ScopeOwn {
		st, err := s.store.GetStudentByProfile(ctx, p.ProfileID)
		if err != nil {
			return nil, notFound(err, "no student record for this account")
		}
		return []model.Student{*st}, nil
	}
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return nil, wrap("list students", err)
	}
	return students, nil
}

// Get returns one student; residents may only read their own record.
func (s *Residency) Get(ctx context.Context, p auth.Principal, studentID string) (*model.Student, error) {
	scope, err := s.policy.ReadScope(p, auth.ResourceStudents)
	if err != nil {
		return nil, err
	}
	st, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, notFound(err, "student %s not found", studentID)
	}
	if scope == auth.ScopeOwn && st.UserID != p.ProfileID {
		return nil, apperr.Forbidden("residents may only read their own record")
	}
	return st, nil
}

// Search filters the visible students by a case-insensitive substring of
// name or email. An empty term returns everything visible.
func (s *Residency) Search(ctx context.Context, p auth.Principal, term string) ([]model.Student, error) {
	students, err := s.List(ctx, p)
	if err != nil {
		return nil, err
	}
	return FilterStudents(students, term), nil
}

// FilterStudents keeps students whose profile name or email contains term.
func FilterStudents(students []model.Student, term string) []model.Student {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return students
	}
	matched := make([]model.Student, 0, len(students))
	for _, st := range students {
		if st.Profile == nil {
			continue
		}
		if strings.Contains(strings.ToLower(st.Profile.Name), term) ||
			strings.Contains(strings.ToLower(st.Profile.Email), term) {
			matched = append(matched, st)
		}
	}
	return matched
}
