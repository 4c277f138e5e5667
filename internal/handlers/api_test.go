package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/breakingmathclub/backend/internal/config"
	"github.com/breakingmathclub/backend/internal/database"
	"github.com/breakingmathclub/backend/internal/dto"
	"github.com/breakingmathclub/backend/internal/handlers"
	"github.com/breakingmathclub/backend/internal/middleware"
	"github.com/breakingmathclub/backend/internal/models"
	"github.com/breakingmathclub/backend/internal/proxy"
	"github.com/breakingmathclub/backend/internal/routes"
	"github.com/breakingmathclub/backend/internal/services"
)

type testEnv struct {
	app         *fiber.App
	db          *gorm.DB
	cfg         *config.Config
	authService *services.AuthService
	roleService *services.RoleService
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 24 * time.Hour,
		UpstreamTimeout:  2 * time.Second,
		CORSOrigins:      "*",
	}

	authService := services.NewAuthService(db, cfg)
	roleService := services.NewRoleService(db, cfg)
	forwarder := proxy.NewForwarder("http://localhost:0", "anon-key", cfg.UpstreamTimeout)

	app := fiber.New()
	app.Use(middleware.CORS(cfg))
	routes.Setup(app, cfg, roleService, routes.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		Health:       handlers.NewHealthHandler(db),
		Event:        handlers.NewEventHandler(db),
		Announcement: handlers.NewAnnouncementHandler(db),
		Stats:        handlers.NewStatsHandler(db),
		Role:         handlers.NewRoleHandler(roleService),
		Contact:      handlers.NewContactHandler(db),
		Proxy:        handlers.NewProxyHandler(forwarder),
		Sync:         handlers.NewSyncHandler(db, cfg),
	})

	return &testEnv{app: app, db: db, cfg: cfg, authService: authService, roleService: roleService}
}

// newUser registers a user and grants the given roles, returning the
// user id and a live access token.
func (e *testEnv) newUser(t *testing.T, email string, roles ...string) (uuid.UUID, string) {
	t.Helper()

	resp, err := e.authService.Register(&dto.RegisterRequest{Email: email, Password: "long enough"})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	for _, role := range roles {
		if _, err := e.roleService.Grant(resp.User.ID, role, resp.User.ID); err != nil {
			t.Fatalf("grant %s to %s: %v", role, email, err)
		}
	}
	return resp.User.ID, resp.AccessToken
}

func (e *testEnv) request(t *testing.T, method, path, bearer string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestPreflightShortCircuits(t *testing.T) {
	env := setup(t)

	for _, path := range []string{"/api/events", "/api/roles/check", "/api/admin/stats"} {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", "https://breakingmathclub.org")
		req.Header.Set("Access-Control-Request-Method", "POST")

		resp, err := env.app.Test(req, -1)
		if err != nil {
			t.Fatalf("OPTIONS %s: %v", path, err)
		}
		if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
			t.Errorf("OPTIONS %s: status = %d", path, resp.StatusCode)
		}
		if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("OPTIONS %s: Access-Control-Allow-Origin = %q", path, got)
		}
	}
}

func TestRoleCheckMalformedTokenFailsClosed(t *testing.T) {
	env := setup(t)

	resp := env.request(t, http.MethodPost, "/api/roles/check", "", map[string]string{
		"user_id":      "u1",
		"access_token": "<malformed>",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	flags := decode[dto.RoleCheckResponse](t, resp)
	if flags.IsAdmin || flags.IsOverseer {
		t.Errorf("flags = %+v, want none", flags)
	}
}

func TestRoleCheckResolvesAdmin(t *testing.T) {
	env := setup(t)
	adminID, token := env.newUser(t, "admin@club.org", models.RoleAdmin)

	resp := env.request(t, http.MethodPost, "/api/roles/check", "", map[string]string{
		"user_id":      adminID.String(),
		"access_token": token,
	})
	flags := decode[dto.RoleCheckResponse](t, resp)
	if !flags.IsAdmin || flags.IsOverseer {
		t.Errorf("flags = %+v, want admin only", flags)
	}
}

func TestEventCreateRequiresAdmin(t *testing.T) {
	env := setup(t)

	event := map[string]string{"name": "Pi Day", "date": "2026-03-14"}

	// No token at all.
	resp := env.request(t, http.MethodPost, "/api/events", "", event)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous create: status = %d, want 401", resp.StatusCode)
	}

	// Overseer is not admin: the server-side gate must reject even
	// though the caller holds a real token.
	_, overseerToken := env.newUser(t, "overseer@club.org", models.RoleOverseer)
	resp = env.request(t, http.MethodPost, "/api/events", overseerToken, event)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("overseer create: status = %d, want 403", resp.StatusCode)
	}

	var count int64
	env.db.Model(&models.Event{}).Count(&count)
	if count != 0 {
		t.Errorf("event count = %d, want 0 after rejected writes", count)
	}
}

func TestEventRoundTrip(t *testing.T) {
	env := setup(t)
	_, adminToken := env.newUser(t, "admin@club.org", models.RoleAdmin)

	created := map[string]string{
		"name":         "AMC Prep Session",
		"description":  "Practice for the AMC 10/12.",
		"date":         "2026-02-03",
		"time":         "15:30",
		"location":     "Room 204",
		"participants": "All members",
	}
	resp := env.request(t, http.MethodPost, "/api/events", adminToken, created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201", resp.StatusCode)
	}

	resp = env.request(t, http.MethodGet, "/api/events", "", nil)
	events := decode[[]models.Event](t, resp)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	got := events[0]
	if got.Name != created["name"] || got.Date != created["date"] ||
		got.Time != created["time"] || got.Location != created["location"] ||
		got.Description != created["description"] || got.Participants != created["participants"] {
		t.Errorf("listed event %+v does not match input %+v", got, created)
	}
}

func TestEventUpdateAndDelete(t *testing.T) {
	env := setup(t)
	_, adminToken := env.newUser(t, "admin@club.org", models.RoleAdmin)

	resp := env.request(t, http.MethodPost, "/api/events", adminToken, map[string]string{
		"name": "Game Night", "date": "2026-04-01",
	})
	event := decode[models.Event](t, resp)

	resp = env.request(t, http.MethodPut, "/api/events/"+event.ID.String(), adminToken, map[string]string{
		"name": "Math Game Night", "date": "2026-04-02", "location": "Cafeteria",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: status = %d, want 200", resp.StatusCode)
	}
	updated := decode[models.Event](t, resp)
	if updated.Name != "Math Game Night" || updated.Date != "2026-04-02" || updated.Location != "Cafeteria" {
		t.Errorf("updated event = %+v", updated)
	}

	resp = env.request(t, http.MethodPut, "/api/events/"+uuid.NewString(), adminToken, map[string]string{
		"name": "x", "date": "y",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("update unknown id: status = %d, want 404", resp.StatusCode)
	}

	resp = env.request(t, http.MethodDelete, "/api/events/"+event.ID.String(), adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete: status = %d, want 200", resp.StatusCode)
	}

	var count int64
	env.db.Model(&models.Event{}).Count(&count)
	if count != 0 {
		t.Errorf("event count = %d, want 0 after delete", count)
	}
}

func TestEventListDegradesToEmpty(t *testing.T) {
	env := setup(t)

	if err := env.db.Migrator().DropTable(&models.Event{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	resp := env.request(t, http.MethodGet, "/api/events", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 even on storage error", resp.StatusCode)
	}
	events := decode[[]models.Event](t, resp)
	if len(events) != 0 {
		t.Errorf("len(events) = %d, want 0", len(events))
	}
}

func TestStatsSingletonUpsert(t *testing.T) {
	env := setup(t)
	_, adminToken := env.newUser(t, "admin@club.org", models.RoleAdmin)

	resp := env.request(t, http.MethodPut, "/api/admin/stats", adminToken, map[string]int{
		"active_members": 24, "competitions": 6,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first save: status = %d, want 200", resp.StatusCode)
	}

	// Second save must update the same row, never insert another.
	resp = env.request(t, http.MethodPut, "/api/admin/stats", adminToken, map[string]int{
		"active_members": 30, "competitions": 7, "awards_won": 3,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second save: status = %d, want 200", resp.StatusCode)
	}

	var count int64
	env.db.Model(&models.ClubStats{}).Count(&count)
	if count != 1 {
		t.Fatalf("stats rows = %d, want exactly 1", count)
	}

	resp = env.request(t, http.MethodGet, "/api/stats", "", nil)
	stats := decode[models.ClubStats](t, resp)
	if stats.ActiveMembers != 30 || stats.Competitions != 7 || stats.AwardsWon != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestStatsGetEmptyWhenUnset(t *testing.T) {
	env := setup(t)

	resp := env.request(t, http.MethodGet, "/api/stats", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if len(body) != 0 {
		t.Errorf("body = %v, want empty object", body)
	}
}

func TestStatsSaveRequiresAdmin(t *testing.T) {
	env := setup(t)
	_, overseerToken := env.newUser(t, "overseer@club.org", models.RoleOverseer)

	resp := env.request(t, http.MethodPut, "/api/admin/stats", overseerToken, map[string]int{
		"active_members": 1,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestRoleGrantRequiresOverseer(t *testing.T) {
	env := setup(t)
	_, adminToken := env.newUser(t, "admin@club.org", models.RoleAdmin)
	targetID, _ := env.newUser(t, "member@club.org")

	// Admin without overseer cannot manage roles.
	resp := env.request(t, http.MethodPost, "/api/admin/roles", adminToken, map[string]string{
		"user_id": targetID.String(), "role": models.RoleAdmin,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("admin grant: status = %d, want 403", resp.StatusCode)
	}

	_, overseerToken := env.newUser(t, "overseer@club.org", models.RoleOverseer)
	resp = env.request(t, http.MethodPost, "/api/admin/roles", overseerToken, map[string]string{
		"user_id": targetID.String(), "role": models.RoleAdmin,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("overseer grant: status = %d, want 201", resp.StatusCode)
	}

	// Duplicate grant conflicts.
	resp = env.request(t, http.MethodPost, "/api/admin/roles", overseerToken, map[string]string{
		"user_id": targetID.String(), "role": models.RoleAdmin,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate grant: status = %d, want 409", resp.StatusCode)
	}

	resp = env.request(t, http.MethodDelete, "/api/admin/roles", overseerToken, map[string]string{
		"user_id": targetID.String(), "role": models.RoleAdmin,
	})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("revoke: status = %d, want 200", resp.StatusCode)
	}
}

func TestDirectoryAllowsEitherRole(t *testing.T) {
	env := setup(t)
	_, memberToken := env.newUser(t, "member@club.org")
	_, overseerToken := env.newUser(t, "overseer@club.org", models.RoleOverseer)

	resp := env.request(t, http.MethodGet, "/api/admin/users", memberToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("member: status = %d, want 403", resp.StatusCode)
	}

	resp = env.request(t, http.MethodGet, "/api/admin/users", overseerToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("overseer: status = %d, want 200", resp.StatusCode)
	}
	dir := decode[dto.UserDirectoryResponse](t, resp)
	if len(dir.Users) != 2 {
		t.Errorf("len(users) = %d, want 2", len(dir.Users))
	}
	if len(dir.Roles) != 1 {
		t.Errorf("len(roles) = %d, want 1", len(dir.Roles))
	}
}

func TestAnnouncementCreateAndList(t *testing.T) {
	env := setup(t)
	_, adminToken := env.newUser(t, "admin@club.org", models.RoleAdmin)

	resp := env.request(t, http.MethodPost, "/api/announcements", adminToken, map[string]string{
		"title": "Welcome back",
		"text":  "First meeting is Tuesday.",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201", resp.StatusCode)
	}
	created := decode[models.Announcement](t, resp)
	if created.AnnouncementID == "" {
		t.Error("created announcement has no announcement_id")
	}

	resp = env.request(t, http.MethodPost, "/api/announcements", adminToken, map[string]string{
		"title": "Missing text",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("create without text: status = %d, want 400", resp.StatusCode)
	}

	resp = env.request(t, http.MethodGet, "/api/announcements", "", nil)
	list := decode[[]models.Announcement](t, resp)
	if len(list) != 1 {
		t.Errorf("len(announcements) = %d, want 1", len(list))
	}
}

func TestContactValidation(t *testing.T) {
	env := setup(t)

	resp := env.request(t, http.MethodPost, "/api/contact", "", map[string]string{
		"name": "Sam", "email": "", "message": "hi",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing email: status = %d, want 400", resp.StatusCode)
	}

	resp = env.request(t, http.MethodPost, "/api/contact", "", map[string]string{
		"name": "Sam", "email": "sam@example.com", "message": "When do you meet?",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("valid submit: status = %d, want 201", resp.StatusCode)
	}

	var count int64
	env.db.Model(&models.ContactMessage{}).Count(&count)
	if count != 1 {
		t.Errorf("message count = %d, want 1", count)
	}
}

func TestSyncValidation(t *testing.T) {
	env := setup(t)
	_, adminToken := env.newUser(t, "admin@club.org", models.RoleAdmin)

	resp := env.request(t, http.MethodPost, "/api/admin/sync", adminToken, map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing course id: status = %d, want 400", resp.StatusCode)
	}

	// No credentials configured: the job aborts with a server error
	// before touching anything external.
	resp = env.request(t, http.MethodPost, "/api/admin/sync", adminToken, map[string]string{
		"course_id": "course-42",
	})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("missing credentials: status = %d, want 500", resp.StatusCode)
	}
}

func TestProxyValidation(t *testing.T) {
	env := setup(t)

	resp := env.request(t, http.MethodPost, "/api/proxy", "", map[string]any{
		"method": "GET",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing endpoint: status = %d, want 400", resp.StatusCode)
	}
}

func TestProxyForwardsUpstreamResponse(t *testing.T) {
	env := setup(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("apikey"); got != "anon-key" {
			t.Errorf("apikey = %q, want anon-key", got)
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"relation does not exist"}`))
	}))
	defer upstream.Close()

	// Rebuild the proxy route against the stub upstream.
	forwarder := proxy.NewForwarder(upstream.URL, "anon-key", env.cfg.UpstreamTimeout)
	app := fiber.New()
	app.Post("/api/proxy", handlers.NewProxyHandler(forwarder).Forward)

	body, _ := json.Marshal(map[string]any{"endpoint": "/rest/v1/missing", "method": "GET"})
	req := httptest.NewRequest(http.MethodPost, "/api/proxy", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("proxy request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want upstream 404 passed through", resp.StatusCode)
	}
	data, _ := io.ReadAll(resp.Body)
	if string(data) != `{"message":"relation does not exist"}` {
		t.Errorf("body = %s", data)
	}
}

func TestHealth(t *testing.T) {
	env := setup(t)

	resp := env.request(t, http.MethodGet, "/api/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	health := decode[dto.HealthResponse](t, resp)
	if health.Status != "ok" || health.DB != "ok" {
		t.Errorf("health = %+v", health)
	}
}
