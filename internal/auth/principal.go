// Package auth issues session tokens and decides what a caller may do.
package auth

import "hostel-backend/internal/model"

// Principal is the authenticated caller. It is passed explicitly to every
// service call instead of living in process-wide session state.
type Principal struct {
	ProfileID string     `json:"profile_id"`
	Role      model.Role `json:"role"`
}

// IsAdmin reports whether the caller has the ADMIN role.
func (p Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

// Valid reports whether p identifies a caller with a known role.
func (p Principal) Valid() bool {
	return p.ProfileID != "" && p.Role.Valid()
}
