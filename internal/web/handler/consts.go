package handler

const (
	// APIBasePath is the prefix for all JSON API routes.
	APIBasePath = "/api"

	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"
)
