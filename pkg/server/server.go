package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"

	"github.com/goosemania/pulp-2to3-migrate/pkg/config"
	"github.com/goosemania/pulp-2to3-migrate/pkg/contract"
	"github.com/goosemania/pulp-2to3-migrate/pkg/metrics"
)

func errorHandler(c *fiber.Ctx, err error) error {
	var e *contract.Error
	if !errors.As(err, &e) {
		code := contract.ErrorCodeInternalError

		var f *fiber.Error
		if errors.As(err, &f) {
			switch f.Code {
			case fiber.StatusBadRequest:
				code = contract.ErrorCodeBadRequest
			case fiber.StatusServiceUnavailable:
				code = contract.ErrorCodeServiceUnderMaintenance
			case fiber.StatusNotFound:
				code = contract.ErrorCodeEndpointNotFound
			}
		}

		e = contract.NewError(code, err.Error())
	}

	var fn func(format string, args ...any)

	switch e.StatusCode() {
	case fiber.StatusBadRequest, fiber.StatusConflict:
		fn = logrus.Infof
	case fiber.StatusServiceUnavailable:
		fn = logrus.Warnf
	case fiber.StatusNotFound:
		fn = logrus.Debugf
	default:
		fn = logrus.Errorf
	}

	fn("Error encountered in %s %s: %s", c.Method(), c.Path(), err)

	return c.Status(e.StatusCode()).JSON(e)
}

// NewApp builds the HTTP application: the API below cfg.APIRoot plus health, version and metrics.
func NewApp(cfg *config.Config, service contract.MigrationService, m *metrics.Metrics) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		BodyLimit:             16 * 1024 * 1024,
		ReadBufferSize:        16384,
		ReadTimeout:           5 * time.Second,
		WriteTimeout:          600 * time.Second,
		IdleTimeout:           120 * time.Second,
		ServerHeader:          "pulp-2to3-migrate/" + cfg.Version,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(requestid.New())
	app.Use(compress.New())
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(logger.New(logger.Config{
		Format: "${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
		Output: logrus.StandardLogger().Writer(),
	}))

	if m != nil {
		app.Use(m.Middleware())
		app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/version", func(c *fiber.Ctx) error {
		return c.SendString(cfg.Version)
	})

	apiApp, err := newAPIApp(service)
	if err != nil {
		return nil, err
	}

	app.Mount(cfg.APIRoot, apiApp)

	return app, nil
}

func newAPIApp(service contract.MigrationService) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	parser, err := NewHTTPRequestParser()
	if err != nil {
		return nil, err
	}

	RegisterMigrationServiceRoutes(service, parser, app)

	return app, nil
}
