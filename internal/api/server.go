// Package api exposes image resolution over HTTP for viewer frontends.
package api

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"

	"github.com/wxlab/datimg/internal/imgcrypt"
	"github.com/wxlab/datimg/internal/resolver"
)

// Server serves decrypted images resolved by identifier.
type Server struct {
	app     *fiber.App
	fs      afero.Fs
	service *resolver.Service
	logger  *slog.Logger
}

// NewServer creates the media server around a resolution service. The
// filesystem must be the one the service writes decrypted output to.
func NewServer(fsys afero.Fs, service *resolver.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		app:     app,
		fs:      fsys,
		service: service,
		logger:  logger,
	}

	app.Get("/api/image/:id", s.handleGetImage)
	app.Post("/api/refresh", s.handleRefresh)

	return s
}

// Listen blocks serving HTTP on the given port.
func (s *Server) Listen(port int) error {
	return s.app.Listen(fmt.Sprintf(":%d", port))
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handleGetImage(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return RespondError(c, fiber.StatusBadRequest, ErrCodeBadRequest, "missing image identifier")
	}

	if c.QueryBool("refresh") {
		if err := s.service.Refresh(); err != nil {
			s.logger.Warn("index refresh failed", "err", err)
		}
	}

	path, err := s.service.Resolve(id)
	if err != nil {
		return s.respondResolveError(c, id, err)
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		s.logger.Error("reading resolved image", "id", id, "path", path, "err", err)
		return RespondError(c, fiber.StatusInternalServerError, ErrCodeDecryptFailed, "resolved file unreadable")
	}

	if ext := imgcrypt.SniffImageExt(data); ext != "" && ext != "jpg" {
		c.Set(fiber.HeaderContentType, "image/"+ext)
	} else {
		c.Set(fiber.HeaderContentType, "image/jpeg")
	}
	return c.Send(data)
}

func (s *Server) handleRefresh(c *fiber.Ctx) error {
	if err := s.service.Refresh(); err != nil {
		return RespondError(c, fiber.StatusInternalServerError, ErrCodeDecryptFailed, err.Error())
	}
	return RespondSuccess(c, fiber.Map{"indexed": s.service.Index().Len()})
}

func (s *Server) respondResolveError(c *fiber.Ctx, id string, err error) error {
	switch {
	case errors.Is(err, resolver.ErrNotFound):
		return RespondError(c, fiber.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("no image for %q", id))
	case errors.Is(err, resolver.ErrConfigMissing),
		errors.Is(err, imgcrypt.ErrKeyRequired),
		errors.Is(err, imgcrypt.ErrInvalidKey):
		return RespondError(c, fiber.StatusUnprocessableEntity, ErrCodeConfigMissing, err.Error())
	default:
		s.logger.Error("resolve failed", "id", id, "err", err)
		return RespondError(c, fiber.StatusInternalServerError, ErrCodeDecryptFailed, err.Error())
	}
}
