package server

import (
	"errors"

	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/service"

	"github.com/gofiber/fiber/v2"
)

// handleError maps an error from the gate or a service onto the page the
// user sees: unauthorized and forbidden redirect home with a flash, missing
// rows render the 404 page, rejected input goes back where it came from.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case models.CodeUnauthorized:
			flash(c, "danger", appErr.Message)
			return c.Redirect("/")
		case models.CodeForbidden:
			flash(c, "danger", service.MsgForbidden)
			return c.Redirect("/")
		case models.CodeNotFound:
			return s.notFound(c)
		case models.CodeValidation, models.CodeConflict:
			flash(c, "danger", appErr.Message)
			return redirectBack(c, "/")
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			return s.notFound(c)
		case fiber.StatusTooManyRequests:
			flash(c, "warning", "Too many requests, please try again later.")
			return redirectBack(c, "/")
		}
		return s.renderStatus(c, fiberErr.Code, "errors/error", fiber.Map{"Message": fiberErr.Message})
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		"error", err, "method", c.Method(), "path", c.Path())
	return s.renderStatus(c, fiber.StatusInternalServerError, "errors/error", fiber.Map{
		"Message": "Something went wrong.",
	})
}

func (s *Server) notFound(c *fiber.Ctx) error {
	return s.renderStatus(c, fiber.StatusNotFound, "errors/404", nil)
}

// errorHandler is the app-level fallback for errors no handler mapped itself,
// e.g. unknown routes or a failed template render.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	if rerr := s.handleError(c, err); rerr != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "error page failed", "error", rerr)
		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}
	return nil
}
