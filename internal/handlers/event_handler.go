package handlers

import (
	"log/slog"

	"github.com/breakingmathclub/backend/internal/dto"
	"github.com/breakingmathclub/backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventHandler struct {
	db *gorm.DB
}

func NewEventHandler(db *gorm.DB) *EventHandler {
	return &EventHandler{db: db}
}

// List is public. A storage error degrades to an empty list so the
// events page renders instead of blocking on a 5xx.
func (h *EventHandler) List(c *fiber.Ctx) error {
	var events []models.Event
	if err := h.db.Order("date asc, created_at asc").Find(&events).Error; err != nil {
		slog.Error("event list failed", "error", err)
		return c.JSON([]models.Event{})
	}
	return c.JSON(events)
}

func (h *EventHandler) Create(c *fiber.Ctx) error {
	var req dto.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if req.Name == "" || req.Date == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Name and date are required",
		})
	}

	event := models.Event{
		ID:           uuid.New(),
		Name:         req.Name,
		Description:  req.Description,
		Date:         req.Date,
		Time:         req.Time,
		Location:     req.Location,
		Participants: req.Participants,
	}

	if err := h.db.Create(&event).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create event",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(event)
}

// Update is a full-row overwrite, matching how the event form submits.
func (h *EventHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid event id",
		})
	}

	var req dto.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if req.Name == "" || req.Date == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Name and date are required",
		})
	}

	var event models.Event
	if err := h.db.First(&event, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Event not found",
		})
	}

	event.Name = req.Name
	event.Description = req.Description
	event.Date = req.Date
	event.Time = req.Time
	event.Location = req.Location
	event.Participants = req.Participants

	if err := h.db.Save(&event).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update event",
		})
	}

	return c.JSON(event)
}

func (h *EventHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid event id",
		})
	}

	result := h.db.Delete(&models.Event{}, "id = ?", id)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete event",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Event not found",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}
