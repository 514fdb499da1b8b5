package mw

import (
	"time"

	"github.com/patrickmn/go-cache"

	"hostel-backend/internal/auth"
)

// PrincipalCache remembers the resolved role of recently seen accounts so
// that every request does not reload the profile. Roles are fixed at
// registration, so entries only expire.
type PrincipalCache struct {
	store *cache.Cache
}

// NewPrincipalCache creates a cache whose entries live for ttl.
func NewPrincipalCache(ttl time.Duration) *PrincipalCache {
	return &PrincipalCache{store: cache.New(ttl, 2*ttl)}
}

func (p *PrincipalCache) Get(profileID string) (auth.Principal, bool) {
	v, found := p.store.Get(profileID)
	if !found {
		return auth.Principal{}, false
	}
	return v.(auth.Principal), true
}

func (p *PrincipalCache) Set(pr auth.Principal) {
	p.store.SetDefault(pr.ProfileID, pr)
}
