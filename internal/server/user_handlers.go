package server

import (
	"context"
	"strconv"
	"strings"

	"warbler/internal/forms"
	"warbler/internal/models"
	"warbler/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListUsers lists every user, or those whose username contains ?q=.
func (s *Server) ListUsers(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))

	users, err := s.userService.SearchUsers(c.UserContext(), query)
	if err != nil {
		return s.handleError(c, err)
	}
	following, err := s.followingSet(c)
	if err != nil {
		return s.handleError(c, err)
	}

	return s.render(c, "users/index", fiber.Map{
		"Users":     users,
		"Query":     query,
		"Following": following,
	})
}

// ShowUser renders a profile with its messages and live counts.
func (s *Server) ShowUser(c *fiber.Ctx) error {
	profile, err := s.profileFromParam(c)
	if err != nil {
		return s.handleError(c, err)
	}
	messages, err := s.messageService.UserMessages(c.UserContext(), profile.User.ID, viewerID(c))
	if err != nil {
		return s.handleError(c, err)
	}
	following, err := s.followingSet(c)
	if err != nil {
		return s.handleError(c, err)
	}

	return s.render(c, "users/show", fiber.Map{
		"Profile":   profile,
		"Messages":  messages,
		"Following": following,
	})
}

// ShowFollowing lists who the user follows.
func (s *Server) ShowFollowing(c *fiber.Ctx) error {
	return s.showConnections(c, "Following", s.followService.Following)
}

// ShowFollowers lists who follows the user.
func (s *Server) ShowFollowers(c *fiber.Ctx) error {
	return s.showConnections(c, "Followers", s.followService.Followers)
}

func (s *Server) showConnections(c *fiber.Ctx, title string, list func(context.Context, uint) ([]models.User, error)) error {
	profile, err := s.profileFromParam(c)
	if err != nil {
		return s.handleError(c, err)
	}
	users, err := list(c.UserContext(), profile.User.ID)
	if err != nil {
		return s.handleError(c, err)
	}
	following, err := s.followingSet(c)
	if err != nil {
		return s.handleError(c, err)
	}

	return s.render(c, "users/connections", fiber.Map{
		"Title":     title,
		"Profile":   profile,
		"Users":     users,
		"Following": following,
	})
}

// ShowLikes lists the messages the user has liked.
func (s *Server) ShowLikes(c *fiber.Ctx) error {
	profile, err := s.profileFromParam(c)
	if err != nil {
		return s.handleError(c, err)
	}
	messages, err := s.messageService.LikedMessages(c.UserContext(), profile.User.ID, viewerID(c))
	if err != nil {
		return s.handleError(c, err)
	}
	following, err := s.followingSet(c)
	if err != nil {
		return s.handleError(c, err)
	}

	return s.render(c, "users/likes", fiber.Map{
		"Profile":   profile,
		"Messages":  messages,
		"Following": following,
	})
}

// EditProfileForm renders the profile form prefilled with the current values.
func (s *Server) EditProfileForm(c *fiber.Ctx) error {
	user, err := requireCurrentUser(c)
	if err != nil {
		return s.handleError(c, err)
	}
	return s.render(c, "users/edit", fiber.Map{"Form": forms.UserEditForm{
		Username:       user.Username,
		Email:          user.Email,
		ImageURL:       user.ImageURL,
		HeaderImageURL: user.HeaderImageURL,
		Bio:            user.Bio,
		Location:       user.Location,
	}})
}

// UpdateProfile saves the profile when the current password is correct.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	user, err := requireCurrentUser(c)
	if err != nil {
		return s.handleError(c, err)
	}

	var form forms.UserEditForm
	if err := c.BodyParser(&form); err != nil {
		return s.renderStatus(c, fiber.StatusBadRequest, "users/edit", fiber.Map{
			"Form":  form,
			"Error": "Invalid form submission",
		})
	}
	if errs := forms.Validate(&form); !errs.Valid() {
		form.Password = ""
		return s.renderStatus(c, fiber.StatusBadRequest, "users/edit", fiber.Map{
			"Form":   form,
			"Errors": errs,
		})
	}

	updated, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:         user.ID,
		Username:       form.Username,
		Email:          form.Email,
		ImageURL:       form.ImageURL,
		HeaderImageURL: form.HeaderImageURL,
		Bio:            form.Bio,
		Location:       form.Location,
		Password:       form.Password,
	})
	if err != nil {
		switch models.ErrorCode(err) {
		case models.CodeValidation, models.CodeConflict:
			form.Password = ""
			return s.renderStatus(c, fiber.StatusBadRequest, "users/edit", fiber.Map{
				"Form":  form,
				"Error": err.Error(),
			})
		}
		return s.handleError(c, err)
	}

	flash(c, "success", "Profile updated.")
	return c.Redirect(userPath(updated.ID))
}

// EditPasswordForm renders the password change form.
func (s *Server) EditPasswordForm(c *fiber.Ctx) error {
	return s.render(c, "users/password", fiber.Map{"Form": forms.EditPasswordForm{}})
}

// ChangePassword replaces the password when the old one is correct.
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	user, err := requireCurrentUser(c)
	if err != nil {
		return s.handleError(c, err)
	}

	var form forms.EditPasswordForm
	if err := c.BodyParser(&form); err != nil {
		return s.renderStatus(c, fiber.StatusBadRequest, "users/password", fiber.Map{
			"Error": "Invalid form submission",
		})
	}
	if errs := forms.Validate(&form); !errs.Valid() {
		return s.renderStatus(c, fiber.StatusBadRequest, "users/password", fiber.Map{
			"Errors": errs,
		})
	}

	if err := s.userService.ChangePassword(c.UserContext(), user.ID, form.OldPassword, form.NewPassword); err != nil {
		if models.ErrorCode(err) == models.CodeValidation {
			return s.renderStatus(c, fiber.StatusBadRequest, "users/password", fiber.Map{
				"Error": err.Error(),
			})
		}
		return s.handleError(c, err)
	}

	flash(c, "success", "Password updated.")
	return c.Redirect(userPath(user.ID))
}

// profileFromParam loads the profile named by the :id route parameter.
func (s *Server) profileFromParam(c *fiber.Ctx) (*service.Profile, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}
	return s.userService.GetProfile(c.UserContext(), id)
}

// followingSet is the set of ids the current user follows; empty when anonymous.
func (s *Server) followingSet(c *fiber.Ctx) (map[uint]bool, error) {
	if user := currentUser(c); user != nil {
		return s.userService.FollowingSet(c.UserContext(), user.ID)
	}
	return map[uint]bool{}, nil
}

func userPath(id uint) string {
	return "/users/" + strconv.FormatUint(uint64(id), 10)
}
