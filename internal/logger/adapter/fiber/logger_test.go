package fiber_test

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapter "github.com/NetConsole-Admin/NetConsole-Admin/internal/logger/adapter/fiber"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/logger"
)

// accessLogEntry implements the access loggers default json format.
type accessLogEntry struct {
	Status int    `json:"status"`
	URI    string `json:"URI"`
	Method string `json:"method"`
}

func TestAccessLogToFile(t *testing.T) {
	dir := t.TempDir()

	cfg := adapter.Config{
		Config: logger.Log{
			File: logger.LogFile{
				Enabled:   true,
				Path:      dir,
				AccessLog: "access.log",
			},
		},
	}

	app := fiber.New()
	app.Use(adapter.New(cfg))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ping?q=1", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.NotEmpty(t, resp.Header.Get("X-Performance"))

	data, err := os.ReadFile(filepath.Join(dir, "access.log"))
	require.NoError(t, err)

	var entry accessLogEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))

	assert.Equal(t, fiber.StatusOK, entry.Status)
	assert.Equal(t, "/ping?q=1", entry.URI)
	assert.Equal(t, fiber.MethodGet, entry.Method)
}

func TestAccessLogSkipsCheckAlive(t *testing.T) {
	dir := t.TempDir()

	cfg := adapter.Config{
		CheckAliveURI: "/checkalive",
		Config: logger.Log{
			DisableCheckAlive: true,
			File: logger.LogFile{
				Enabled:   true,
				Path:      dir,
				AccessLog: "access.log",
			},
		},
	}

	app := fiber.New()
	app.Use(adapter.New(cfg))
	app.Get("/checkalive", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/checkalive", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data, _ := os.ReadFile(filepath.Join(dir, "access.log"))
	assert.Empty(t, strings.TrimSpace(string(data)))
}

func TestNextSkipsMiddleware(t *testing.T) {
	cfg := adapter.Config{
		Next: func(_ *fiber.Ctx) bool { return true },
	}

	app := fiber.New()
	app.Use(adapter.New(cfg))
	app.Get("/skip", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/skip", nil), -1)
	require.NoError(t, err)

	// skipped middleware must not add the performance header
	assert.Empty(t, resp.Header.Get("X-Performance"))
}
