package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a club member account. Privilege roles live in RoleAssignment,
// not here: a fresh account holds no roles at all.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	FullName  string         `gorm:"size:255" json:"full_name,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
