package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin    = "admin"
	RoleOverseer = "overseer"
)

// RoleAssignment grants a single privilege role to a user. A user may
// hold both roles; neither implies the other.
type RoleAssignment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_role_assignments_user_role" json:"user_id"`
	Role      string     `gorm:"size:20;not null;uniqueIndex:idx_role_assignments_user_role" json:"role"`
	GrantedBy *uuid.UUID `gorm:"type:uuid" json:"granted_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ValidRole reports whether role is one of the two privilege roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleOverseer
}
