package classroom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/breakingmathclub/backend/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Announcement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

const announcementsPayload = `{
	"announcements": [
		{
			"id": "ann-1",
			"text": "Competition practice moved to room 204.",
			"state": "PUBLISHED",
			"creationTime": "2026-01-12T15:04:05Z",
			"updateTime": "2026-01-12T15:04:05Z",
			"creatorUserId": "teacher-1",
			"creatorProfile": {"id": "teacher-1", "name": {"fullName": "Ms. Rivera"}},
			"materials": [{"link": {"url": "https://example.com/worksheet.pdf"}}]
		},
		{
			"id": "ann-2",
			"text": "AMC registration closes Friday.",
			"state": "PUBLISHED",
			"creationTime": "2026-01-10T09:00:00Z",
			"updateTime": "2026-01-11T10:00:00Z",
			"creatorUserId": "teacher-1"
		}
	]
}`

func stubGoogle(t *testing.T, announcementsBody string, announcementsStatus int) *Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse token form: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "urn:ietf:params:oauth:grant-type:jwt-bearer" {
			t.Errorf("unexpected grant_type %q", got)
		}
		if r.Form.Get("assertion") == "" {
			t.Error("missing assertion")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "stub-token", "expires_in": 3600}`))
	})
	mux.HandleFunc("/v1/courses/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer stub-token" {
			t.Errorf("unexpected authorization %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(announcementsStatus)
		w.Write([]byte(announcementsBody))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	creds, _ := testCredentials(t)
	creds.TokenURI = server.URL + "/token"

	return NewClient(creds, "test-scope", 2*time.Second).WithAPIBase(server.URL)
}

func TestSyncUpsertsAnnouncements(t *testing.T) {
	c := qt.New(t)
	db := testDB(t)
	client := stubGoogle(t, announcementsPayload, http.StatusOK)

	count, err := NewSyncer(db, client).Sync(context.Background(), "course-42")
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 2)

	var rows []models.Announcement
	c.Assert(db.Order("announcement_id asc").Find(&rows).Error, qt.IsNil)
	c.Assert(rows, qt.HasLen, 2)

	c.Assert(rows[0].AnnouncementID, qt.Equals, "ann-1")
	c.Assert(rows[0].ClassroomID, qt.Equals, "course-42")
	c.Assert(rows[0].Text, qt.Equals, "Competition practice moved to room 204.")
	c.Assert(rows[0].CreatorName, qt.Equals, "Ms. Rivera")
	c.Assert(len(rows[0].Attachments) > 0, qt.IsTrue)

	// No creator profile comes back as "Unknown".
	c.Assert(rows[1].CreatorName, qt.Equals, "Unknown")
}

func TestSyncIsIdempotent(t *testing.T) {
	c := qt.New(t)
	db := testDB(t)
	client := stubGoogle(t, announcementsPayload, http.StatusOK)
	syncer := NewSyncer(db, client)

	_, err := syncer.Sync(context.Background(), "course-42")
	c.Assert(err, qt.IsNil)

	count, err := syncer.Sync(context.Background(), "course-42")
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 2)

	var total int64
	c.Assert(db.Model(&models.Announcement{}).Count(&total).Error, qt.IsNil)
	c.Assert(total, qt.Equals, int64(2))
}

func TestSyncUpstreamErrorAborts(t *testing.T) {
	c := qt.New(t)
	db := testDB(t)
	client := stubGoogle(t, `{"error": {"code": 403}}`, http.StatusForbidden)

	_, err := NewSyncer(db, client).Sync(context.Background(), "course-42")
	c.Assert(err, qt.IsNotNil)

	var apiErr *APIError
	c.Assert(err, qt.ErrorAs, &apiErr)

	var total int64
	c.Assert(db.Model(&models.Announcement{}).Count(&total).Error, qt.IsNil)
	c.Assert(total, qt.Equals, int64(0))
}
