package handlers

import (
	"strings"

	"github.com/breakingmathclub/backend/internal/dto"
	"github.com/breakingmathclub/backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContactHandler struct {
	db *gorm.DB
}

func NewContactHandler(db *gorm.DB) *ContactHandler {
	return &ContactHandler{db: db}
}

func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	var req dto.ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Email == "" || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Name, email and message are required",
		})
	}

	msg := models.ContactMessage{
		ID:      uuid.New(),
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	}
	if err := h.db.Create(&msg).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to submit message",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}

// ListMessages is for the admin dashboard inbox.
func (h *ContactHandler) ListMessages(c *fiber.Ctx) error {
	var messages []models.ContactMessage
	if err := h.db.Order("created_at desc").Find(&messages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch messages",
		})
	}
	return c.JSON(messages)
}
