package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/auth"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/config"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/directory"
)

// Core bundles the identity services the handlers operate on.
type Core struct {
	// Auth is the login/verify orchestrator.
	Auth *auth.Service
	// Evaluator computes capability grants from group membership.
	Evaluator *auth.PermissionEvaluator
	// Sync reconciles group membership with the directory.
	Sync *auth.GroupSyncEngine
	// Provisioner imports directory identities.
	Provisioner *auth.UserProvisioningService
	// Connect establishes directory sessions, for connection testing.
	Connect directory.Connector
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, db *gorm.DB, core *Core) error
}
