package server

import (
	"warbler/internal/forms"

	"github.com/gofiber/fiber/v2"
)

// Homepage shows the timeline for logged-in users and the landing page otherwise.
func (s *Server) Homepage(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return s.render(c, "home/anon", nil)
	}

	profile, err := s.userService.GetProfile(c.UserContext(), user.ID)
	if err != nil {
		return s.handleError(c, err)
	}
	messages, err := s.messageService.Timeline(c.UserContext(), user.ID)
	if err != nil {
		return s.handleError(c, err)
	}

	return s.render(c, "home/timeline", fiber.Map{
		"Profile":  profile,
		"Messages": messages,
	})
}

// NewMessageForm renders the composition form.
func (s *Server) NewMessageForm(c *fiber.Ctx) error {
	return s.render(c, "messages/new", fiber.Map{"Form": forms.MessageForm{}})
}

// CreateMessage posts a message as the current user.
func (s *Server) CreateMessage(c *fiber.Ctx) error {
	user, err := requireCurrentUser(c)
	if err != nil {
		return s.handleError(c, err)
	}

	var form forms.MessageForm
	if err := c.BodyParser(&form); err != nil {
		return s.renderStatus(c, fiber.StatusBadRequest, "messages/new", fiber.Map{
			"Form":  form,
			"Error": "Invalid form submission",
		})
	}
	if errs := forms.Validate(&form); !errs.Valid() {
		return s.renderStatus(c, fiber.StatusBadRequest, "messages/new", fiber.Map{
			"Form":   form,
			"Errors": errs,
		})
	}

	if _, err := s.messageService.CreateMessage(c.UserContext(), user.ID, form.Text); err != nil {
		return s.handleError(c, err)
	}
	return c.Redirect(userPath(user.ID))
}

// ShowMessage renders a single message. Only its author sees the delete control.
func (s *Server) ShowMessage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.handleError(c, err)
	}

	msg, err := s.messageService.GetMessage(c.UserContext(), id, viewerID(c))
	if err != nil {
		return s.handleError(c, err)
	}

	user := currentUser(c)
	return s.render(c, "messages/show", fiber.Map{
		"Message": msg,
		"IsOwner": user != nil && msg.IsOwnedBy(user.ID),
	})
}

// DeleteMessage removes one of the current user's messages.
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	user, err := requireCurrentUser(c)
	if err != nil {
		return s.handleError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return s.handleError(c, err)
	}

	if err := s.messageService.DeleteMessage(c.UserContext(), user, id); err != nil {
		return s.handleError(c, err)
	}
	return c.Redirect(userPath(user.ID))
}

// LikeMessage adds the current user's like.
func (s *Server) LikeMessage(c *fiber.Ctx) error {
	return s.toggleLike(c, true)
}

// UnlikeMessage removes the current user's like.
func (s *Server) UnlikeMessage(c *fiber.Ctx) error {
	return s.toggleLike(c, false)
}

func (s *Server) toggleLike(c *fiber.Ctx, like bool) error {
	user, err := requireCurrentUser(c)
	if err != nil {
		return s.handleError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return s.handleError(c, err)
	}

	if like {
		err = s.messageService.Like(c.UserContext(), user.ID, id)
	} else {
		err = s.messageService.Unlike(c.UserContext(), user.ID, id)
	}
	if err != nil {
		return s.handleError(c, err)
	}
	return redirectBack(c, "/")
}
