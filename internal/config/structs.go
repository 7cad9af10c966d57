package config

import (
	"time"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/logger"
)

// Token settings for issued session tokens.
type Token struct {
	// SigningKey is the HMAC key used to sign session tokens.
	SigningKey string
	// Validity is the lifetime of an issued token. Defaults to 24h.
	Validity time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool   // disable recover middleware
	Domain         string // domain name for the webserver
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
	Token          Token  // session token settings
}
