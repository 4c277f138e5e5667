package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/breakingmathclub/backend/internal/classroom"
	"github.com/breakingmathclub/backend/internal/config"
	"github.com/breakingmathclub/backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SyncHandler triggers a one-shot import of classroom announcements.
// The classroom client is built per request from the configured
// credential blob, so credential rotation needs no restart.
type SyncHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewSyncHandler(db *gorm.DB, cfg *config.Config) *SyncHandler {
	return &SyncHandler{db: db, cfg: cfg}
}

func (h *SyncHandler) Sync(c *fiber.Ctx) error {
	var req dto.SyncRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.CourseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Course ID is required",
		})
	}

	creds, err := classroom.ParseCredentials(h.cfg.GoogleCredentialsJSON)
	if err != nil {
		slog.Error("sync credentials unavailable", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Google service account credentials not configured",
		})
	}

	client := classroom.NewClient(creds, h.cfg.ClassroomScope, h.cfg.SyncTimeout)
	syncer := classroom.NewSyncer(h.db, client)

	started := time.Now()
	count, err := syncer.Sync(c.Context(), req.CourseID)
	if err != nil {
		slog.Error("classroom sync failed", "course_id", req.CourseID, "error", err)
		var apiErr *classroom.APIError
		if errors.As(err, &apiErr) {
			return c.Status(apiErr.StatusCode).JSON(dto.ErrorResponse{
				Error: true, Message: apiErr.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to sync announcements",
		})
	}

	slog.Info("classroom sync finished",
		"course_id", req.CourseID, "count", count, "took", time.Since(started))

	return c.JSON(dto.SyncResponse{
		Success: true,
		Count:   count,
		Message: fmt.Sprintf("Processed %d announcements", count),
	})
}
