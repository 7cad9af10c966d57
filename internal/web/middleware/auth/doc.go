// Package auth provides authentication middleware for the JSON API.
//
// The middleware validates the bearer session token on every request,
// re-reading the identity row so deactivation takes effect immediately, and
// stores the verified identity in fiber.Locals for handlers. Capability
// checks are layered on top per route group:
//
//	api.Use(authmiddleware.New(core))
//	admin.Use(authmiddleware.RequireCapability(core, auth.ResourceUsers, auth.ActionManage))
package auth
