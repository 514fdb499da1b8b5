// Package service implements the hostel's managers on top of the store.
// Every call takes the caller's auth.Principal explicitly, checks it against
// the policy, and publishes change events after its writes commit.
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/auth"
	"hostel-backend/internal/model"
	"hostel-backend/internal/realtime"
	"hostel-backend/internal/store"
)

// Authorizer decides what a principal may do.
type Authorizer interface {
	Authorize(p auth.Principal, resource, action string) error
	ReadScope(p auth.Principal, resource string) (auth.Scope, error)
}

// NoticeNotifier is told about notices that should be pushed to browsers.
type NoticeNotifier interface {
	NotifyNotice(noticeID string) bool
}

// Deps bundles what the services need.
type Deps struct {
	Store      store.Store
	Policy     Authorizer
	Publisher  realtime.Publisher
	Tokens     *auth.TokenIssuer
	Notifier   NoticeNotifier
	BcryptCost int
	Now        func() time.Time
}

// Services holds one instance of every manager.
type Services struct {
	Identity    *Identity
	Inventory   *Inventory
	Residency   *Residency
	Complaints  *Complaints
	Notices     *Notices
	Rent        *Rent
	Dashboard   *Dashboard
	Consistency *Consistency
}

// New wires every manager from d.
func New(d Deps) *Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Publisher == nil {
		d.Publisher = nopPublisher{}
	}
	return &Services{
		Identity:    NewIdentity(d.Store, d.Tokens, d.BcryptCost, d.Publisher, d.Now),
		Inventory:   NewInventory(d.Store, d.Policy, d.Publisher),
		Residency:   NewResidency(d.Store, d.Policy, d.Publisher),
		Complaints:  NewComplaints(d.Store, d.Policy, d.Publisher),
		Notices:     NewNotices(d.Store, d.Policy, d.Publisher, d.Notifier, d.Now),
		Rent:        NewRent(d.Store, d.Policy, d.Publisher, d.Now),
		Dashboard:   NewDashboard(d.Store, d.Policy),
		Consistency: NewConsistency(d.Store, d.Policy, d.Publisher),
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ...realtime.Event) {}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateInput checks validate tags and reports failures per field.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return apperr.Validation("invalid input")
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		if fe.Param() != "" {
			fields[fe.Field()] = fe.Tag() + "=" + fe.Param()
		} else {
			fields[fe.Field()] = fe.Tag()
		}
	}
	return apperr.ValidationFields(fields)
}

// notFound turns a wrapped record-not-found into a named not_found error.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(format, args...)
	}
	return err
}

type studentLookup interface {
	GetStudentByProfile(ctx context.Context, profileID string) (*model.Student, error)
}

// ownStudentID resolves the student record of a STUDENT principal.
func ownStudentID(ctx context.Context, students studentLookup, p auth.Principal) (string, error) {
	st, err := students.GetStudentByProfile(ctx, p.ProfileID)
	if err != nil {
		return "", notFound(err, "no student record for this account")
	}
	return st.ID, nil
}

func requireID(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperr.ValidationFields(map[string]string{name: "required"})
	}
	return nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
