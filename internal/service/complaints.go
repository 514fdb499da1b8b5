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

// ComplaintsStore is what Complaints reads and writes.
type ComplaintsStore interface {
	store.ComplaintStore
	GetStudentByProfile(ctx context.Context, profileID string) (*model.Student, error)
}

// FileComplaintInput is a resident's complaint. Category defaults to Maintenance.
type FileComplaintInput struct {
	Category    model.ComplaintCategory `json:"category"`
	Description string                  `json:"description" validate:"required,max=2000"`
}

// Complaints tracks complaints through OPEN, IN_PROGRESS and RESOLVED.
type Complaints struct {
	store  ComplaintsStore
	policy Authorizer
	pub    realtime.Publisher
}

func NewComplaints(s ComplaintsStore, policy Authorizer, pub realtime.Publisher) *Complaints {
	return &Complaints{store: s, policy: policy, pub: pub}
}

// File records a new OPEN complaint for the caller's student record.
func (s *Complaints) File(ctx context.Context, p auth.Principal, in FileComplaintInput) (*model.Complaint, error) {
	if err := s.policy.Authorize(p, auth.ResourceComplaints, auth.ActionCreate); err != nil {
		return nil, err
	}
	in.Description = strings.TrimSpace(in.Description)
	if in.Category == "" {
		in.Category = model.CategoryMaintenance
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !in.Category.Valid() {
		return nil, apperr.ValidationFields(map[string]string{"category": "oneof"})
	}

	studentID, err := ownStudentID(ctx, s.store, p)
	if err != nil {
		return nil, err
	}
	complaint := &model.Complaint{
		StudentID:   studentID,
		Category:    in.Category,
		Description: in.Description,
		Status:      model.ComplaintOpen,
	}
	if err := s.store.CreateComplaint(ctx, complaint); err != nil {
		return nil, wrap("file complaint", err)
	}
	s.pub.Publish(ctx, realtime.Changed(realtime.EventInsert, realtime.TableComplaints)...)
	return complaint, nil
}

// List returns complaints newest first; residents only see their own.
func (s *Complaints) List(ctx context.Context, p auth.Principal, status model.ComplaintStatus) ([]model.Complaint, error) {
	scope, err := s.policy.ReadScope(p, auth.ResourceComplaints)
	if err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, apperr.ValidationFields(map[string]string{"status": "oneof"})
	}
	filter := store.ComplaintFilter{Status: status}
	if scope == auth.ScopeOwn {
		if filter.StudentID, err = ownStudentID(ctx, s.store, p); err != nil {
			return nil, err
		}
	}
	complaints, err := s.store.ListComplaints(ctx, filter)
	if err != nil {
		return nil, wrap("list complaints", err)
	}
	return complaints, nil
}

// SetStatus sets any status. There is no forced ordering and RESOLVED can be reopened.
func (s *Complaints) SetStatus(ctx context.Context, p auth.Principal, complaintID string, status model.ComplaintStatus) (*model.Complaint, error) {
	if err := s.policy.Authorize(p, auth.ResourceComplaints, auth.ActionWrite); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperr.ValidationFields(map[string]string{"status": "oneof"})
	}
	complaint, err := s.store.UpdateComplaintStatus(ctx, complaintID, status)
	if err != nil {
		return nil, notFound(err, "complaint %s not found", complaintID)
	}
	s.pub.Publish(ctx, realtime.Changed(realtime.EventUpdate, realtime.TableComplaints)...)
	return complaint, nil
}

// Respond stores the response, replacing any earlier one, and moves the
// complaint to IN_PROGRESS whatever its prior status.
func (s *Complaints) Respond(ctx context.Context, p auth.Principal, complaintID, response string) (*model.Complaint, error) {
	if err := s.policy.Authorize(p, auth.ResourceComplaints, auth.ActionRespond); err != nil {
		return nil, err
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, apperr.ValidationFields(map[string]string{"response": "required"})
	}
	complaint, err := s.store.RespondToComplaint(ctx, complaintID, response)
	if err != nil {
		return nil, notFound(err, "complaint %s not found", complaintID)
	}
	s.pub.Publish(ctx, realtime.Changed(realtime.EventUpdate, realtime.TableComplaints)...)
	return complaint, nil
}
