package handlers

import (
	"log/slog"

	"github.com/breakingmathclub/backend/internal/dto"
	"github.com/breakingmathclub/backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AnnouncementHandler struct {
	db *gorm.DB
}

func NewAnnouncementHandler(db *gorm.DB) *AnnouncementHandler {
	return &AnnouncementHandler{db: db}
}

// List is public, newest first. Degrades to an empty list on storage
// errors, same as the events page.
func (h *AnnouncementHandler) List(c *fiber.Ctx) error {
	var announcements []models.Announcement
	if err := h.db.Order("created_at desc").Find(&announcements).Error; err != nil {
		slog.Error("announcement list failed", "error", err)
		return c.JSON([]models.Announcement{})
	}
	return c.JSON(announcements)
}

// Create stores an admin-written announcement. Imported ones carry the
// upstream id; local ones get a generated key so the unique index on
// announcement_id still applies.
func (h *AnnouncementHandler) Create(c *fiber.Ctx) error {
	var req dto.AnnouncementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Text is required",
		})
	}

	id := uuid.New()
	announcement := models.Announcement{
		ID:             id,
		AnnouncementID: "local-" + id.String(),
		Title:          req.Title,
		Text:           req.Text,
	}

	if err := h.db.Create(&announcement).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create announcement",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(announcement)
}

func (h *AnnouncementHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid announcement id",
		})
	}

	result := h.db.Delete(&models.Announcement{}, "id = ?", id)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete announcement",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Announcement not found",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}
