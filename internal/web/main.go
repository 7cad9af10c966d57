package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/audit"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/auth"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/config"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/directory"
	fiberlogger "github.com/NetConsole-Admin/NetConsole-Admin/internal/logger/adapter/fiber"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/web/handler"
	dirsettings "github.com/NetConsole-Admin/NetConsole-Admin/internal/web/handler/admin/settings/directory"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/web/handler/admin/user"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/web/handler/login"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/web/handler/profile"
)

// CheckAlivePath answers load balancer health probes.
const CheckAlivePath = "/checkalive"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	core         *handler.Core
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// Core exposes the identity services, for wiring outside the web layer.
func (s *Service) Core() *handler.Core {
	return s.core
}

// New creates a new web service with the given configuration, database and
// directory connector.
func New(cfg *config.Config, db *gorm.DB, connect directory.Connector) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	if connect == nil {
		connect = directory.Dial
	}

	core := newCore(cfg, db, connect)

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "NetConsole-Admin",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(fiberrecover.New())
	}

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	service := &Service{
		cfg:  cfg,
		App:  app,
		db:   db,
		core: core,
	}
	service.alive.Store(true)

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// init handlers (they register their own routes with capability checks)
	initHandlers(app, cfg, db, core)

	return service
}

// newCore wires the identity services the handlers operate on.
func newCore(cfg *config.Config, db *gorm.DB, connect directory.Connector) *handler.Core {
	recorder := audit.Logger{}
	credentials := auth.NewCredentialStore(nil)
	tokens := auth.NewTokenIssuer(cfg.Webserver.Token.SigningKey, cfg.Webserver.Token.Validity)

	sync := auth.NewGroupSyncEngine(db, connect, recorder)
	provisioner := auth.NewUserProvisioningService(db, connect, credentials, recorder)

	return &handler.Core{
		Auth:        auth.NewService(db, connect, credentials, tokens, sync, provisioner, recorder),
		Evaluator:   auth.NewPermissionEvaluator(db),
		Sync:        sync,
		Provisioner: provisioner,
		Connect:     connect,
	}
}

func initHandlers(app *fiber.App, cfg *config.Config, db *gorm.DB, core *handler.Core) {
	for name, h := range map[string]handler.Service{
		"login":              &login.Handler,
		"profile":            &profile.Handler,
		"admin user":         &user.Handler,
		"directory settings": &dirsettings.Handler,
	} {
		if err := h.Init(app, cfg, db, core); err != nil {
			log.Fatal().Err(err).Msgf("failed to init %s handler", name)
		}
	}
}
