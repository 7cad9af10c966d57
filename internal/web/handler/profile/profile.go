// Package profile provides the self-service endpoints of an authenticated
// identity: whoami and password change.
package profile

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/auth"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/config"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/directory"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/web/handler"
	authmw "github.com/NetConsole-Admin/NetConsole-Admin/internal/web/middleware/auth"
)

const (
	// Path is the whoami endpoint.
	Path = handler.APIBasePath + "/me"
	// PasswordPath is the self-service password change endpoint.
	PasswordPath = Path + "/password"
)

// Service is the profile handler service.
type Service struct {
	cfg  *config.Config
	db   *gorm.DB
	core *handler.Core
}

// Handler is the profile handler.
var Handler = Service{}

// PasswordRequest is the password change request body.
type PasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Init initializes the profile handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, core *handler.Core) error {
	if app == nil || cfg == nil || db == nil || core == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.core = core

	authenticated := authmw.New(core)

	app.Get(Path, authenticated, s.Get)
	app.Post(PasswordPath, authenticated, s.ChangePassword)

	return nil
}

// Get returns the verified identity with its effective permissions.
func (s *Service) Get(c *fiber.Ctx) error {
	identity := authmw.Identity(c)

	permissions, err := s.core.Evaluator.EffectivePermissions(identity.ID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", identity.ID).Msg("failed to compute effective permissions")

		return fiber.NewError(fiber.StatusInternalServerError, "failed to load permissions")
	}

	return c.JSON(fiber.Map{
		"identity":    identity,
		"permissions": permissions,
	})
}

// ChangePassword changes the caller's own password through whichever
// authority governs the identity.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	identity := authmw.Identity(c)

	req := new(PasswordRequest)
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := s.db.First(&user, identity.ID).Error; err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unknown identity")
	}

	err := s.core.Auth.ChangeOwnPassword(&user, req.CurrentPassword, req.NewPassword)

	switch {
	case err == nil:
		return c.JSON(fiber.Map{"status": "ok"})
	case errors.Is(err, auth.ErrInvalidOldPassword):
		return fiber.NewError(fiber.StatusForbidden, "invalid current password")
	case errors.Is(err, auth.ErrPasswordPolicy):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, directory.ErrUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, "directory unavailable")
	default:
		log.Error().Err(err).Str("username", user.Username).Msg("password change failed")

		return fiber.NewError(fiber.StatusInternalServerError, "password change failed")
	}
}
