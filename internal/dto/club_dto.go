package dto

import (
	"github.com/breakingmathclub/backend/internal/models"
)

type EventRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Location     string `json:"location"`
	Participants string `json:"participants"`
}

type AnnouncementRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type StatsRequest struct {
	ActiveMembers  int `json:"active_members"`
	Competitions   int `json:"competitions"`
	AwardsWon      int `json:"awards_won"`
	YearsRunning   int `json:"years_running"`
	SuccessRate    int `json:"success_rate"`
	WeeklySessions int `json:"weekly_sessions"`
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// RoleCheckRequest carries a caller-held token for out-of-band role
// resolution (the access_token is in the body, not the Authorization
// header, because the site calls this before it has wired up auth).
type RoleCheckRequest struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
}

// RoleCheckResponse is the canonical wire shape for resolved roles:
// precomputed booleans, never a raw role list.
type RoleCheckResponse struct {
	IsAdmin    bool `json:"is_admin"`
	IsOverseer bool `json:"is_overseer"`
}

type RoleGrantRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type UserDirectoryResponse struct {
	Users []UserResponse          `json:"users"`
	Roles []models.RoleAssignment `json:"roles"`
}

// ProxyRequest is the envelope for the generic upstream forwarder.
type ProxyRequest struct {
	Endpoint string            `json:"endpoint"`
	Method   string            `json:"method"`
	Body     any               `json:"body,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
}

type SyncRequest struct {
	CourseID string `json:"course_id"`
}

type SyncResponse struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}
