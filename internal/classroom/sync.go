package classroom

import (
	"context"
	"log/slog"

	"github.com/breakingmathclub/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Syncer imports course announcements into the local store. Upserts are
// keyed by the upstream announcement id, so re-running a sync with
// unchanged upstream data leaves the row count where it was.
type Syncer struct {
	db     *gorm.DB
	client *Client
}

func NewSyncer(db *gorm.DB, client *Client) *Syncer {
	return &Syncer{db: db, client: client}
}

// Sync runs one import pass for a course and returns the number of
// upstream records processed. A failed upsert for one record is logged
// and skips that record; partial progress is never rolled back since
// re-running is idempotent.
func (s *Syncer) Sync(ctx context.Context, courseID string) (int, error) {
	token, err := s.client.Token(ctx)
	if err != nil {
		return 0, err
	}

	announcements, err := s.client.ListAnnouncements(ctx, token, courseID)
	if err != nil {
		return 0, err
	}

	for _, a := range announcements {
		creatorName := "Unknown"
		if a.CreatorProfile != nil && a.CreatorProfile.Name.FullName != "" {
			creatorName = a.CreatorProfile.Name.FullName
		}

		record := models.Announcement{
			ID:             uuid.New(),
			ClassroomID:    courseID,
			AnnouncementID: a.ID,
			Text:           a.Text,
			CreatorName:    creatorName,
			CreationTime:   a.CreationTime,
			UpdateTime:     a.UpdateTime,
		}
		if len(a.Materials) > 0 {
			record.Attachments = datatypes.JSON(a.Materials)
		}

		err := s.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "announcement_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"classroom_id", "text", "creator_name",
				"creation_time", "update_time", "attachments", "updated_at",
			}),
		}).Create(&record).Error
		if err != nil {
			slog.Error("announcement upsert failed", "announcement_id", a.ID, "error", err)
		}
	}

	return len(announcements), nil
}
