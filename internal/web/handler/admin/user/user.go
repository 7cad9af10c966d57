// Package user provides the administrative identity endpoints: password
// reset, group membership sync and directory import.
package user

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
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

// Path is the base path for identity administration.
const Path = handler.APIBasePath + "/admin/users"

// Service provides administrative operations on identities.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	core      *handler.Core
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// ResetPasswordRequest is the admin password reset body.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required"`
}

// SetGroupsRequest is the membership sync body. The listed group ids become
// the identity's complete directory-sourced membership.
type SetGroupsRequest struct {
	GroupIDs []uint `json:"group_ids"`
}

// ImportRequest is the batch import body.
type ImportRequest struct {
	Usernames      []string          `json:"usernames" validate:"required,min=1"`
	GroupOverrides map[string][]uint `json:"group_overrides"`
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, core *handler.Core) error {
	if app == nil || cfg == nil || db == nil || core == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.core = core
	s.validator = validator.New()

	authenticated := authmw.New(core)
	manageUsers := authmw.RequireCapability(core, auth.ResourceUsers, auth.ActionManage)

	app.Post(Path+"/import", authenticated, manageUsers, s.Import)
	app.Post(Path+"/:id/password", authenticated, manageUsers, s.ResetPassword)
	app.Post(Path+"/:id/groups", authenticated, manageUsers, s.SetGroups)

	return nil
}

// ResetPassword sets a new password for an identity without checking the
// current one.
func (s *Service) ResetPassword(c *fiber.Ctx) error {
	user, err := s.loadUser(c)
	if err != nil {
		return err
	}

	req := new(ResetPasswordRequest)
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "new_password is required")
	}

	actor := authmw.Identity(c).Username

	err = s.core.Auth.ResetPassword(actor, user, req.NewPassword)

	switch {
	case err == nil:
		return c.JSON(fiber.Map{"status": "ok"})
	case errors.Is(err, auth.ErrPasswordPolicy):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, directory.ErrUnavailable), errors.Is(err, directory.ErrDisabled):
		return fiber.NewError(fiber.StatusServiceUnavailable, "directory unavailable")
	default:
		log.Error().Err(err).Str("username", user.Username).Msg("password reset failed")

		return fiber.NewError(fiber.StatusInternalServerError, "password reset failed")
	}
}

// SetGroups reconciles the identity's directory-sourced group membership to
// exactly the posted set.
func (s *Service) SetGroups(c *fiber.Ctx) error {
	user, err := s.loadUser(c)
	if err != nil {
		return err
	}

	req := new(SetGroupsRequest)
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	actor := authmw.Identity(c).Username

	result, err := s.core.Sync.SyncMembership(actor, user, req.GroupIDs)
	if err != nil {
		if errors.Is(err, directory.ErrUnavailable) {
			return fiber.NewError(fiber.StatusServiceUnavailable, "directory unavailable")
		}

		log.Error().Err(err).Str("username", user.Username).Msg("group sync failed")

		return fiber.NewError(fiber.StatusInternalServerError, "group sync failed")
	}

	return c.JSON(fiber.Map{
		"added":   result.Added,
		"removed": result.Removed,
		"errors":  syncErrorStrings(result),
	})
}

// Import provisions directory identities as local users.
func (s *Service) Import(c *fiber.Ctx) error {
	req := new(ImportRequest)
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "usernames are required")
	}

	actor := authmw.Identity(c).Username

	result, err := s.core.Provisioner.ImportIdentities(actor, req.Usernames, req.GroupOverrides)
	if err != nil {
		if errors.Is(err, directory.ErrUnavailable) || errors.Is(err, directory.ErrDisabled) {
			return fiber.NewError(fiber.StatusServiceUnavailable, "directory unavailable")
		}

		log.Error().Err(err).Msg("identity import failed")

		return fiber.NewError(fiber.StatusInternalServerError, "identity import failed")
	}

	return c.JSON(fiber.Map{
		"imported": result.Imported,
		"skipped":  result.Skipped,
		"errors":   importErrorStrings(result),
	})
}

// loadUser resolves the :id route parameter to a user row.
func (s *Service) loadUser(c *fiber.Ctx) (*models.User, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "user not found")
		}

		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load user")
	}

	return &user, nil
}

func syncErrorStrings(result *auth.SyncResult) []fiber.Map {
	out := make([]fiber.Map, 0, len(result.Errors))
	for _, e := range result.Errors {
		out = append(out, fiber.Map{"group": e.Group, "error": e.Err.Error()})
	}

	return out
}

func importErrorStrings(result *auth.ImportResult) []fiber.Map {
	out := make([]fiber.Map, 0, len(result.Errors))
	for _, e := range result.Errors {
		out = append(out, fiber.Map{"username": e.Username, "error": e.Err.Error()})
	}

	return out
}
