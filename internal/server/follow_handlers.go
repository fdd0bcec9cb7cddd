package server

import (
	"github.com/gofiber/fiber/v2"
)

// FollowUser adds a follow edge from the current user to :id.
func (s *Server) FollowUser(c *fiber.Ctx) error {
	user, err := requireCurrentUser(c)
	if err != nil {
		return s.handleError(c, err)
	}
	targetID, err := parseID(c, "id")
	if err != nil {
		return s.handleError(c, err)
	}

	if err := s.followService.Follow(c.UserContext(), user.ID, targetID); err != nil {
		return s.handleError(c, err)
	}
	return redirectBack(c, userPath(user.ID)+"/following")
}

// UnfollowUser removes the current user's follow edge to :id.
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	user, err := requireCurrentUser(c)
	if err != nil {
		return s.handleError(c, err)
	}
	targetID, err := parseID(c, "id")
	if err != nil {
		return s.handleError(c, err)
	}

	if err := s.followService.Unfollow(c.UserContext(), user.ID, targetID); err != nil {
		return s.handleError(c, err)
	}
	return redirectBack(c, userPath(user.ID)+"/following")
}
