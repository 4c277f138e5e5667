package services

import (
	"errors"
	"log/slog"

	"github.com/breakingmathclub/backend/internal/config"
	"github.com/breakingmathclub/backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrRoleExists   = errors.New("role already assigned")
	ErrRoleNotFound = errors.New("role assignment not found")
	ErrUnknownRole  = errors.New("unknown role")
)

// RoleFlags is the resolved privilege set for one user. The two roles
// are independent; neither implies the other.
type RoleFlags struct {
	IsAdmin    bool
	IsOverseer bool
}

type RoleService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewRoleService(db *gorm.DB, cfg *config.Config) *RoleService {
	return &RoleService{db: db, cfg: cfg}
}

// Resolve reduces the user's role assignments to boolean flags. It fails
// closed: any storage error resolves to no privileges and is logged, not
// returned, so a flaky lookup can never grant access or break a caller.
func (s *RoleService) Resolve(userID uuid.UUID) RoleFlags {
	var assignments []models.RoleAssignment
	if err := s.db.Where("user_id = ?", userID).Find(&assignments).Error; err != nil {
		slog.Error("role lookup failed", "user_id", userID, "error", err)
		return RoleFlags{}
	}

	var flags RoleFlags
	for _, a := range assignments {
		switch a.Role {
		case models.RoleAdmin:
			flags.IsAdmin = true
		case models.RoleOverseer:
			flags.IsOverseer = true
		}
	}
	return flags
}

// ResolveForToken verifies a caller-supplied access token and resolves
// roles for the given user id. The token must verify under the service
// secret and its subject must match userID; every failure mode resolves
// to no privileges.
func (s *RoleService) ResolveForToken(userID, accessToken string) RoleFlags {
	id, err := uuid.Parse(userID)
	if err != nil {
		return RoleFlags{}
	}

	token, err := jwt.Parse(accessToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return RoleFlags{}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return RoleFlags{}
	}
	sub, _ := claims["sub"].(string)
	if sub != id.String() {
		return RoleFlags{}
	}

	return s.Resolve(id)
}

// Grant assigns a role to a user. Duplicate grants are rejected so the
// caller can surface a conflict instead of silently re-inserting.
func (s *RoleService) Grant(userID uuid.UUID, role string, grantedBy uuid.UUID) (*models.RoleAssignment, error) {
	if !models.ValidRole(role) {
		return nil, ErrUnknownRole
	}

	var existing models.RoleAssignment
	if err := s.db.Where("user_id = ? AND role = ?", userID, role).First(&existing).Error; err == nil {
		return nil, ErrRoleExists
	}

	assignment := models.RoleAssignment{
		ID:        uuid.New(),
		UserID:    userID,
		Role:      role,
		GrantedBy: &grantedBy,
	}
	if err := s.db.Create(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (s *RoleService) Revoke(userID uuid.UUID, role string) error {
	if !models.ValidRole(role) {
		return ErrUnknownRole
	}

	result := s.db.Where("user_id = ? AND role = ?", userID, role).Delete(&models.RoleAssignment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoleNotFound
	}
	return nil
}

// Directory returns all users with their role assignments for the admin
// dashboard.
func (s *RoleService) Directory() ([]models.User, []models.RoleAssignment, error) {
	var users []models.User
	if err := s.db.Order("created_at asc").Find(&users).Error; err != nil {
		return nil, nil, err
	}

	var assignments []models.RoleAssignment
	if err := s.db.Find(&assignments).Error; err != nil {
		return nil, nil, err
	}
	return users, assignments, nil
}
