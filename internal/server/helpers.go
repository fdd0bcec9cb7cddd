// Package server contains the HTTP handlers and page rendering for Warbler.
package server

import (
	"net/url"

	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/service"

	"github.com/gofiber/fiber/v2"
)

const currentUserLocal = "currentUser"

// parseID extracts a route parameter as a positive uint. Anything else is
// reported as a missing row so the handler renders the 404 page.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewNotFoundError(param, c.Params(param))
	}
	return uint(id), nil
}

// redirectBack redirects to the Referer path, or fallback when there is none.
// Only the path of the referer is used so the redirect never leaves the site.
func redirectBack(c *fiber.Ctx, fallback string) error {
	target := fallback
	if ref := c.Get(fiber.HeaderReferer); ref != "" {
		if u, err := url.Parse(ref); err == nil && isLocalPath(u.Path) {
			target = u.Path
			if u.RawQuery != "" {
				target += "?" + u.RawQuery
			}
		}
	}
	return c.Redirect(target)
}

// isLocalPath reports whether p is an absolute path on this site. Browsers
// read "//host" and "/\host" as a different host.
func isLocalPath(p string) bool {
	if p == "" || p[0] != '/' {
		return false
	}
	return len(p) == 1 || (p[1] != '/' && p[1] != '\\')
}

// currentUser returns the logged-in user resolved by ResolveUser, or nil.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(currentUserLocal).(*models.User)
	return user
}

// viewerID is the current user's id, or 0 for anonymous requests.
func viewerID(c *fiber.Ctx) uint {
	if user := currentUser(c); user != nil {
		return user.ID
	}
	return 0
}

// ResolveUser loads the session user into request locals. A session naming a
// user that no longer exists leaves the request anonymous here;
// LoginRequired turns that into a not-found response on protected routes.
func (s *Server) ResolveUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentUserID(c)
		if !ok {
			return c.Next()
		}

		user, err := s.userService.GetUser(c.UserContext(), id)
		if err != nil {
			if !models.IsNotFound(err) {
				return s.handleError(c, err)
			}
			return c.Next()
		}
		c.Locals(currentUserLocal, user)
		return c.Next()
	}
}

// LoginRequired runs the authorization gate: no session identity is
// unauthorized and an identity naming no user is not found.
func (s *Server) LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) != nil {
			return c.Next()
		}

		id, ok := middleware.CurrentUserID(c)
		user, err := s.gate.RequireUser(c.UserContext(), id, ok)
		if err != nil {
			return s.handleError(c, err)
		}
		c.Locals(currentUserLocal, user)
		return c.Next()
	}
}

// requireCurrentUser is for handlers mounted behind LoginRequired.
func requireCurrentUser(c *fiber.Ctx) (*models.User, error) {
	if user := currentUser(c); user != nil {
		return user, nil
	}
	return nil, models.NewUnauthorizedError(service.MsgUnauthorized)
}
