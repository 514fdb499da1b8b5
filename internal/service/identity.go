package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/auth"
	"hostel-backend/internal/model"
	"hostel-backend/internal/realtime"
	"hostel-backend/internal/store"
)

// IdentityStore is what Identity reads and writes.
type IdentityStore interface {
	store.ProfileStore
	GetStudentByProfile(ctx context.Context, profileID string) (*model.Student, error)
}

// RegisterInput is a sign-up request.
type RegisterInput struct {
	Name             string     `json:"name" validate:"required,max=128"`
	Email            string     `json:"email" validate:"required,email,max=255"`
	Password         string     `json:"password" validate:"required,min=8,max=72"`
	Role             model.Role `json:"role" validate:"omitempty,oneof=ADMIN STUDENT"`
	Phone            string     `json:"phone" validate:"omitempty,max=32"`
	EmergencyContact string     `json:"emergency_contact" validate:"omitempty,max=64"`
	Address          string     `json:"address" validate:"omitempty,max=255"`
}

// Session is the result of a successful sign-in.
type Session struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Profile   *model.Profile `json:"profile"`
}

// Me is the caller's own account view.
type Me struct {
	Profile *model.Profile `json:"profile"`
	Student *model.Student `json:"student,omitempty"`
}

// Identity registers and authenticates accounts.
type Identity struct {
	store      IdentityStore
	tokens     *auth.TokenIssuer
	bcryptCost int
	pub        realtime.Publisher
	now        func() time.Time
}

func NewIdentity(s IdentityStore, tokens *auth.TokenIssuer, bcryptCost int, pub realtime.Publisher, now func() time.Time) *Identity {
	return &Identity{store: s, tokens: tokens, bcryptCost: bcryptCost, pub: pub, now: now}
}

// Register creates an account and signs it in. STUDENT accounts get their
// residency record in the same transaction. ADMIN accounts may be created by
// an admin caller, or by anyone while no admin exists yet.
func (s *Identity) Register(ctx context.Context, caller *auth.Principal, in RegisterInput) (*Session, error) {
	if in.Role == "" {
		in.Role = model.RoleStudent
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if in.Role == model.RoleAdmin && (caller == nil || !caller.IsAdmin()) {
		admins, err := s.store.CountProfilesByRole(ctx, model.RoleAdmin)
		if err != nil {
			return nil, wrap("count admins", err)
		}
		if admins > 0 {
			return nil, apperr.Forbidden("only an administrator can create administrator accounts")
		}
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperr.Internal(err, "failed to hash password")
	}

	profile := &model.Profile{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Role:         in.Role,
		PasswordHash: hash,
	}
	var student *model.Student
	if in.Role == model.RoleStudent {
		student = &model.Student{
			Phone:            in.Phone,
			EmergencyContact: in.EmergencyContact,
			Address:          in.Address,
			JoinDate:         s.now().UTC(),
			Active:           true,
		}
	}
	if err := s.store.CreateProfileWithStudent(ctx, profile, student); err != nil {
		return nil, wrap("register", err)
	}

	tables := []string{realtime.TableProfiles}
	if student != nil {
		tables = append(tables, realtime.TableStudents)
	}
	s.pub.Publish(ctx, realtime.Changed(realtime.EventInsert, tables...)...)

	return s.issue(profile)
}

// Login checks credentials and returns a fresh session.
func (s *Identity) Login(ctx context.Context, email, password string) (*Session, error) {
	profile, err := s.store.GetProfileByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, wrap("login", err)
	}
	if !auth.CheckPassword(profile.PasswordHash, password) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	return s.issue(profile)
}

// Me returns the caller's profile and, for residents, their student record.
func (s *Identity) Me(ctx context.Context, p auth.Principal) (*Me, error) {
	profile, err := s.store.GetProfile(ctx, p.ProfileID)
	if err != nil {
		return nil, notFound(err, "profile not found")
	}
	me := &Me{Profile: profile}
	if profile.Role == model.RoleStudent {
		st, err := s.store.GetStudentByProfile(ctx, p.ProfileID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wrap("me", err)
		}
		me.Student = st
	}
	return me, nil
}

// Principal resolves the stored role of profileID. The role in a token is
// only trusted while it matches the profile.
func (s *Identity) Principal(ctx context.Context, profileID string) (auth.Principal, error) {
	profile, err := s.store.GetProfile(ctx, profileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return auth.Principal{}, apperr.Unauthorized("account no longer exists")
	}
	if err != nil {
		return auth.Principal{}, wrap("resolve principal", err)
	}
	return auth.Principal{ProfileID: profile.ID, Role: profile.Role}, nil
}

func (s *Identity) issue(profile *model.Profile) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(auth.Principal{ProfileID: profile.ID, Role: profile.Role})
	if err != nil {
		return nil, apperr.Internal(err, "failed to issue token")
	}
	return &Session{Token: token, ExpiresAt: expiresAt, Profile: profile}, nil
}
