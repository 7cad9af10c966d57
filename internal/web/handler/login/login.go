// Package login provides the JSON login endpoint issuing session tokens.
package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/config"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/web/handler"
)

// Path is the path of the login endpoint.
const Path = handler.APIBasePath + "/login"

// Service is the login handler service.
type Service struct {
	cfg  *config.Config
	core *handler.Core
}

// Handler is the login handler.
var Handler = Service{}

// Request is the login request body.
type Request struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Response is the successful login response body.
type Response struct {
	Token    string      `json:"token"`
	Identity interface{} `json:"identity"`
}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, _ *gorm.DB, core *handler.Core) error {
	if app == nil || cfg == nil || core == nil {
		return errors.New("app, cfg or core is nil")
	}

	s.cfg = cfg
	s.core = core

	app.Post(Path, s.Post)

	return nil
}

// Post handles a login attempt. Every failure cause produces the same 401
// body so callers can not probe which accounts exist.
func (s *Service) Post(c *fiber.Ctx) error {
	req := new(Request)

	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	token, identity, err := s.core.Auth.Login(req.Username, req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid username or password")
	}

	return c.JSON(Response{
		Token:    token,
		Identity: identity,
	})
}
