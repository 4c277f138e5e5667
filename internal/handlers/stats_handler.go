package handlers

import (
	"errors"
	"log/slog"

	"github.com/breakingmathclub/backend/internal/dto"
	"github.com/breakingmathclub/backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatsHandler struct {
	db *gorm.DB
}

func NewStatsHandler(db *gorm.DB) *StatsHandler {
	return &StatsHandler{db: db}
}

// Get returns the singleton stats row, or an empty object when it does
// not exist yet or the read fails. The landing page treats both the
// same.
func (h *StatsHandler) Get(c *fiber.Ctx) error {
	var stats models.ClubStats
	if err := h.db.Where("key = ?", models.StatsKey).First(&stats).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Error("stats read failed", "error", err)
		}
		return c.JSON(fiber.Map{})
	}
	return c.JSON(stats)
}

// Save writes the singleton row with a single conditional upsert on the
// fixed key, so two concurrent admin saves can never produce a second
// row: the loser of the insert race turns into an update.
func (h *StatsHandler) Save(c *fiber.Ctx) error {
	var req dto.StatsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	stats := models.ClubStats{
		ID:             uuid.New(),
		Key:            models.StatsKey,
		ActiveMembers:  req.ActiveMembers,
		Competitions:   req.Competitions,
		AwardsWon:      req.AwardsWon,
		YearsRunning:   req.YearsRunning,
		SuccessRate:    req.SuccessRate,
		WeeklySessions: req.WeeklySessions,
	}

	err := h.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"active_members", "competitions", "awards_won",
			"years_running", "success_rate", "weekly_sessions", "updated_at",
		}),
	}).Create(&stats).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to save stats",
		})
	}

	var saved models.ClubStats
	if err := h.db.Where("key = ?", models.StatsKey).First(&saved).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to read back stats",
		})
	}
	return c.JSON(saved)
}
