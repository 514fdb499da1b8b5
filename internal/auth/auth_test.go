package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"hostel-backend/config"
	"hostel-backend/internal/apperr"
	"hostel-backend/internal/db"
	"hostel-backend/internal/model"
)

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	want := Principal{ProfileID: "p1", Role: model.RoleAdmin}
	token, expiresAt, err := issuer.Issue(want)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	got, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Minute)
	require.NoError(t, err)
	token, _, err := issuer.Issue(Principal{ProfileID: "p1", Role: model.RoleStudent})
	require.NoError(t, err)

	other, err := NewTokenIssuer("other-secret", time.Minute)
	require.NoError(t, err)
	_, err = other.Verify(token)
	assert.True(t, apperr.Is(err, apperr.TypeUnauthorized), "wrong secret")

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = issuer.Verify(token)
	assert.True(t, apperr.Is(err, apperr.TypeUnauthorized), "expired")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ProfileID: "p1", Role: model.RoleAdmin})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Verify(unsigned)
	assert.True(t, apperr.Is(err, apperr.TypeUnauthorized), "alg none")

	_, err = NewTokenIssuer("", time.Minute)
	assert.Error(t, err)
}

func newTestPolicy(t *testing.T, name string) *Policy {
	t.Helper()
	gormDB, err := db.Open(&config.DatabaseConfig{
		DSN:      "file:" + name + "?mode=memory&cache=shared",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	policy, err := NewPolicy(gormDB)
	require.NoError(t, err)
	return policy
}

func TestPolicy_DefaultRules(t *testing.T) {
	policy := newTestPolicy(t, "policy_default_rules")
	admin := Principal{ProfileID: "a", Role: model.RoleAdmin}
	student := Principal{ProfileID: "s", Role: model.RoleStudent}

	tests := []struct {
		name     string
		p        Principal
		resource string
		action   string
		allowed  bool
	}{
		{"admin writes rooms", admin, ResourceRooms, ActionWrite, true},
		{"admin responds to complaints", admin, ResourceComplaints, ActionRespond, true},
		{"admin reads dashboard", admin, ResourceDashboard, ActionRead, true},
		{"student reads rooms", student, ResourceRooms, ActionRead, true},
		{"student cannot write rooms", student, ResourceRooms, ActionWrite, false},
		{"student files complaints", student, ResourceComplaints, ActionCreate, true},
		{"student cannot respond", student, ResourceComplaints, ActionRespond, false},
		{"student cannot post notices", student, ResourceNotices, ActionWrite, false},
		{"student cannot change rent", student, ResourceRent, ActionWrite, false},
		{"student cannot reconcile", student, ResourceConsistency, ActionWrite, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Authorize(tt.p, tt.resource, tt.action)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.True(t, apperr.Is(err, apperr.TypeForbidden))
			}
		})
	}
}

func TestPolicy_ReadScope(t *testing.T) {
	policy := newTestPolicy(t, "policy_read_scope")
	admin := Principal{ProfileID: "a", Role: model.RoleAdmin}
	student := Principal{ProfileID: "s", Role: model.RoleStudent}

	scope, err := policy.ReadScope(admin, ResourceRent)
	require.NoError(t, err)
	assert.Equal(t, ScopeAll, scope)

	scope, err = policy.ReadScope(student, ResourceRent)
	require.NoError(t, err)
	assert.Equal(t, ScopeOwn, scope)

	_, err = policy.ReadScope(student, ResourceDashboard)
	assert.True(t, apperr.Is(err, apperr.TypeForbidden))
}

func TestPolicy_GrantPersists(t *testing.T) {
	policy := newTestPolicy(t, "policy_grant_persists")
	student := Principal{ProfileID: "s", Role: model.RoleStudent}

	require.NoError(t, policy.Grant(model.RoleStudent, ResourceDashboard, ActionRead))
	assert.NoError(t, policy.Authorize(student, ResourceDashboard, ActionRead))

	// A second policy over the same database sees the stored rule and does not reseed.
	reloaded := newTestPolicy(t, "policy_grant_persists")
	assert.NoError(t, reloaded.Authorize(student, ResourceDashboard, ActionRead))

	require.NoError(t, policy.Revoke(model.RoleStudent, ResourceDashboard, ActionRead))
	assert.Error(t, policy.Authorize(student, ResourceDashboard, ActionRead))
}
