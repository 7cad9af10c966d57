// Package directory provides the administrative endpoints for the directory
// connection settings, including a connection test.
package directory

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/auth"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/config"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/controller/directorysettings"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/web/handler"
	authmw "github.com/NetConsole-Admin/NetConsole-Admin/internal/web/middleware/auth"
)

const (
	// Path is the settings endpoint.
	Path = handler.APIBasePath + "/admin/settings/directory"
	// TestPath probes the configured directory connection.
	TestPath = Path + "/test"
)

// Service is the directory settings handler service.
type Service struct {
	cfg  *config.Config
	db   *gorm.DB
	core *handler.Core
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, core *handler.Core) error {
	if app == nil || cfg == nil || db == nil || core == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.core = core

	authenticated := authmw.New(core)
	manageSettings := authmw.RequireCapability(core, auth.ResourceSettings, auth.ActionManage)

	app.Get(Path, authenticated, manageSettings, s.Get)
	app.Put(Path, authenticated, manageSettings, s.Put)
	app.Post(TestPath, authenticated, manageSettings, s.Test)

	return nil
}

// Get returns the current settings with the bind password redacted.
func (s *Service) Get(c *fiber.Ctx) error {
	settings, err := directorysettings.Get(s.db)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load settings")
	}

	settings.BindPassword = ""

	return c.JSON(settings)
}

// Put validates and persists new settings as the singleton row. An empty
// bind password in the request keeps the stored one.
func (s *Service) Put(c *fiber.Ctx) error {
	settings := new(models.DirectorySettings)
	if err := c.BodyParser(settings); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if settings.BindPassword == "" {
		current, err := directorysettings.Get(s.db)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load settings")
		}

		settings.BindPassword = current.BindPassword
	}

	if err := directorysettings.Save(s.db, settings); err != nil {
		if errors.Is(err, directorysettings.ErrInvalidSettings) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		log.Error().Err(err).Msg("failed to save directory settings")

		return fiber.NewError(fiber.StatusInternalServerError, "failed to save settings")
	}

	settings.BindPassword = ""

	return c.JSON(settings)
}

// Test opens a connection with the stored settings and performs the service
// bind, reporting success or the failure cause.
func (s *Service) Test(c *fiber.Ctx) error {
	settings, err := directorysettings.Get(s.db)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load settings")
	}

	client, err := s.core.Connect(settings)
	if err != nil {
		return c.JSON(fiber.Map{"status": "failed", "error": err.Error()})
	}

	defer client.Close()

	if settings.BindDN != "" {
		if err := client.Bind(settings.BindDN, settings.BindPassword); err != nil {
			return c.JSON(fiber.Map{"status": "failed", "error": err.Error()})
		}
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
