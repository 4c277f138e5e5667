package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Announcement is either imported from Google Classroom or written by an
// admin. AnnouncementID is the upsert key for imports; locally created
// rows get a generated one so the unique index holds either way.
// CreationTime/UpdateTime carry the upstream RFC3339 strings verbatim.
type Announcement struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ClassroomID    string         `gorm:"size:100;index" json:"classroom_id,omitempty"`
	AnnouncementID string         `gorm:"size:100;not null;uniqueIndex" json:"announcement_id"`
	Title          string         `gorm:"size:255" json:"title,omitempty"`
	Text           string         `gorm:"type:text" json:"text,omitempty"`
	CreatorName    string         `gorm:"size:255" json:"creator_name,omitempty"`
	CreationTime   string         `gorm:"size:50" json:"creation_time,omitempty"`
	UpdateTime     string         `gorm:"size:50" json:"update_time,omitempty"`
	Attachments    datatypes.JSON `json:"attachments,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
