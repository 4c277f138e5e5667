package models

import (
	"time"

	"github.com/google/uuid"
)

// StatsKey is the fixed key of the single ClubStats row. The unique
// index on Key plus an ON CONFLICT write keeps the row a true singleton
// even under concurrent saves.
const StatsKey = "club"

type ClubStats struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Key            string    `gorm:"size:20;not null;uniqueIndex" json:"-"`
	ActiveMembers  int       `gorm:"not null;default:0" json:"active_members"`
	Competitions   int       `gorm:"not null;default:0" json:"competitions"`
	AwardsWon      int       `gorm:"not null;default:0" json:"awards_won"`
	YearsRunning   int       `gorm:"not null;default:0" json:"years_running"`
	SuccessRate    int       `gorm:"not null;default:0" json:"success_rate"`
	WeeklySessions int       `gorm:"not null;default:0" json:"weekly_sessions"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
