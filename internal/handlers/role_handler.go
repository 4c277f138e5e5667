package handlers

import (
	"errors"
	"log/slog"

	"github.com/breakingmathclub/backend/internal/dto"
	"github.com/breakingmathclub/backend/internal/middleware"
	"github.com/breakingmathclub/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type RoleHandler struct {
	roleService *services.RoleService
}

func NewRoleHandler(roleService *services.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// Check resolves the privilege flags for a caller-supplied user id and
// access token. This endpoint never fails: malformed tokens, mismatched
// subjects and lookup errors all come back as 200 with no privileges, so
// the site can always render something.
func (h *RoleHandler) Check(c *fiber.Ctx) error {
	var req dto.RoleCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return c.JSON(dto.RoleCheckResponse{})
	}
	if req.UserID == "" || req.AccessToken == "" {
		return c.JSON(dto.RoleCheckResponse{})
	}

	flags := h.roleService.ResolveForToken(req.UserID, req.AccessToken)
	return c.JSON(dto.RoleCheckResponse{
		IsAdmin:    flags.IsAdmin,
		IsOverseer: flags.IsOverseer,
	})
}

// Directory lists users and role assignments for the admin dashboard.
func (h *RoleHandler) Directory(c *fiber.Ctx) error {
	users, assignments, err := h.roleService.Directory()
	if err != nil {
		slog.Error("user directory failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch users",
		})
	}

	resp := dto.UserDirectoryResponse{
		Users: make([]dto.UserResponse, 0, len(users)),
		Roles: assignments,
	}
	for _, u := range users {
		resp.Users = append(resp.Users, dto.UserResponse{
			ID:       u.ID,
			Email:    u.Email,
			FullName: u.FullName,
		})
	}
	return c.JSON(resp)
}

func (h *RoleHandler) Grant(c *fiber.Ctx) error {
	var req dto.RoleGrantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user id",
		})
	}

	grantedBy, _ := middleware.CurrentUserID(c)

	assignment, err := h.roleService.Grant(userID, req.Role, grantedBy)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownRole):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrRoleExists):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to grant role",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(assignment)
}

func (h *RoleHandler) Revoke(c *fiber.Ctx) error {
	var req dto.RoleGrantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user id",
		})
	}

	if err := h.roleService.Revoke(userID, req.Role); err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownRole):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrRoleNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to revoke role",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}
