package auth

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/logger"
	"hostel-backend/internal/model"
)

// Resources guarded by the policy.
const (
	ResourceRooms       = "rooms"
	ResourceBeds        = "beds"
	ResourceStudents    = "students"
	ResourceComplaints  = "complaints"
	ResourceNotices     = "notices"
	ResourceRent        = "rent"
	ResourceDashboard   = "dashboard"
	ResourceConsistency = "consistency"
	ResourceChanges     = "changes"
)

// Actions. ActionReadOwn grants reads restricted to the caller's own rows.
const (
	ActionRead    = "read"
	ActionReadOwn = "read_own"
	ActionCreate  = "create"
	ActionWrite   = "write"
	ActionRespond = "respond"
	ActionAny     = "*"
)

// Scope is how much of a resource a caller may read.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeOwn
	ScopeAll
)

const policyModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && (r.act == p.act || p.act == "*")
`

// DefaultPolicies are seeded into an empty policy table.
var DefaultPolicies = [][]string{
	{string(model.RoleAdmin), ResourceRooms, ActionAny},
	{string(model.RoleAdmin), ResourceBeds, ActionAny},
	{string(model.RoleAdmin), ResourceStudents, ActionAny},
	{string(model.RoleAdmin), ResourceComplaints, ActionAny},
	{string(model.RoleAdmin), ResourceNotices, ActionAny},
	{string(model.RoleAdmin), ResourceRent, ActionAny},
	{string(model.RoleAdmin), ResourceDashboard, ActionRead},
	{string(model.RoleAdmin), ResourceConsistency, ActionAny},
	{string(model.RoleAdmin), ResourceChanges, ActionRead},

	{string(model.RoleStudent), ResourceRooms, ActionRead},
	{string(model.RoleStudent), ResourceNotices, ActionRead},
	{string(model.RoleStudent), ResourceComplaints, ActionCreate},
	{string(model.RoleStudent), ResourceComplaints, ActionReadOwn},
	{string(model.RoleStudent), ResourceRent, ActionReadOwn},
	{string(model.RoleStudent), ResourceStudents, ActionReadOwn},
	{string(model.RoleStudent), ResourceChanges, ActionRead},
}

// Policy answers role/resource/action questions from rules kept in casbin_rule.
type Policy struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
}

// NewPolicy loads the rules stored in db, seeding DefaultPolicies when the
// table is empty.
func NewPolicy(db *gorm.DB) (*Policy, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	m, err := casbinmodel.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse policy model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	p := &Policy{enforcer: enforcer}
	if err := p.seed(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Policy) seed() error {
	existing, err := p.enforcer.GetPolicy()
	if err != nil {
		return fmt.Errorf("failed to read policy: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	log := logger.WithComponent("policy")
	for _, rule := range DefaultPolicies {
		if _, err := p.enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
			return fmt.Errorf("failed to add policy %v: %w", rule, err)
		}
	}
	log.Info("seeded default policies", "count", len(DefaultPolicies))
	return nil
}

// Allowed reports whether the principal's role may perform action on resource.
func (p *Policy) Allowed(pr Principal, resource, action string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	allowed, err := p.enforcer.Enforce(string(pr.Role), resource, action)
	if err != nil {
		return false, fmt.Errorf("permission check failed: %w", err)
	}
	return allowed, nil
}

// Authorize returns a forbidden error unless the principal may act.
func (p *Policy) Authorize(pr Principal, resource, action string) error {
	allowed, err := p.Allowed(pr, resource, action)
	if err != nil {
		return apperr.Internal(err, "permission check failed")
	}
	if !allowed {
		return apperr.Forbidden("%s may not %s %s", pr.Role, action, resource)
	}
	return nil
}

// ReadScope tells whether the principal may read all rows of resource, only
// its own, or none.
func (p *Policy) ReadScope(pr Principal, resource string) (Scope, error) {
	if allowed, err := p.Allowed(pr, resource, ActionRead); err != nil {
		return ScopeNone, apperr.Internal(err, "permission check failed")
	} else if allowed {
		return ScopeAll, nil
	}
	if allowed, err := p.Allowed(pr, resource, ActionReadOwn); err != nil {
		return ScopeNone, apperr.Internal(err, "permission check failed")
	} else if allowed {
		return ScopeOwn, nil
	}
	return ScopeNone, apperr.Forbidden("%s may not read %s", pr.Role, resource)
}

// Grant adds a rule at runtime and persists it.
func (p *Policy) Grant(role model.Role, resource, action string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.enforcer.AddPolicy(string(role), resource, action); err != nil {
		return fmt.Errorf("failed to add policy: %w", err)
	}
	return nil
}

// Revoke removes a rule at runtime and persists the change.
func (p *Policy) Revoke(role model.Role, resource, action string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.enforcer.RemovePolicy(string(role), resource, action); err != nil {
		return fmt.Errorf("failed to remove policy: %w", err)
	}
	return nil
}
