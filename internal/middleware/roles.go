package middleware

import (
	"github.com/breakingmathclub/backend/internal/dto"
	"github.com/breakingmathclub/backend/internal/models"
	"github.com/breakingmathclub/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CurrentUserID extracts the user UUID from the verified JWT placed in
// context by JWTProtected.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return uuid.Nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, false
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// RoleRequired is the authoritative server-side authorization gate. It
// runs after JWTProtected and passes if the caller holds any of the
// given roles, resolved fresh from the database on every request so a
// revoked role takes effect immediately.
func RoleRequired(roleService *services.RoleService, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := CurrentUserID(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		flags := roleService.Resolve(userID)
		for _, role := range roles {
			switch role {
			case models.RoleAdmin:
				if flags.IsAdmin {
					return c.Next()
				}
			case models.RoleOverseer:
				if flags.IsOverseer {
					return c.Next()
				}
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Insufficient role",
		})
	}
}
