package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a club event as shown on the public events page. Date and
// Time stay free text because that is what the event form collects.
type Event struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"not null;size:255" json:"name"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	Date         string    `gorm:"not null;size:50" json:"date"`
	Time         string    `gorm:"size:50" json:"time"`
	Location     string    `gorm:"size:255" json:"location"`
	Participants string    `gorm:"type:text" json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
