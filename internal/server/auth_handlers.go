package server

import (
	"warbler/internal/forms"
	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SignupForm renders the signup page. Logged-in users go home.
func (s *Server) SignupForm(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/")
	}
	return s.render(c, "auth/signup", fiber.Map{"Form": forms.UserAddForm{}})
}

// Signup creates the account and logs it in.
func (s *Server) Signup(c *fiber.Ctx) error {
	var form forms.UserAddForm
	if err := c.BodyParser(&form); err != nil {
		return s.renderStatus(c, fiber.StatusBadRequest, "auth/signup", fiber.Map{
			"Form":  form,
			"Error": "Invalid form submission",
		})
	}

	if errs := forms.Validate(&form); !errs.Valid() {
		return s.renderStatus(c, fiber.StatusBadRequest, "auth/signup", fiber.Map{
			"Form":   form,
			"Errors": errs,
		})
	}

	user, err := s.userService.Signup(c.UserContext(), service.SignupInput{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
		ImageURL: form.ImageURL,
	})
	if err != nil {
		if models.ErrorCode(err) == models.CodeConflict {
			form.Password = ""
			return s.renderStatus(c, fiber.StatusBadRequest, "auth/signup", fiber.Map{
				"Form":  form,
				"Error": "Username already taken",
			})
		}
		return s.handleError(c, err)
	}

	if err := s.sessions.Login(c, user.ID); err != nil {
		return s.handleError(c, models.NewInternalError(err))
	}
	return c.Redirect("/")
}

// LoginForm renders the login page. Logged-in users go home.
func (s *Server) LoginForm(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/")
	}
	return s.render(c, "auth/login", fiber.Map{"Form": forms.LoginForm{}})
}

// Login checks the credentials and starts a session.
func (s *Server) Login(c *fiber.Ctx) error {
	var form forms.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return s.renderStatus(c, fiber.StatusBadRequest, "auth/login", fiber.Map{
			"Form":  form,
			"Error": "Invalid form submission",
		})
	}

	if errs := forms.Validate(&form); !errs.Valid() {
		return s.renderStatus(c, fiber.StatusBadRequest, "auth/login", fiber.Map{
			"Form":   form,
			"Errors": errs,
		})
	}

	user, err := s.userService.Authenticate(c.UserContext(), form.Username, form.Password)
	if err != nil {
		if models.ErrorCode(err) == models.CodeUnauthorized {
			form.Password = ""
			return s.renderStatus(c, fiber.StatusUnauthorized, "auth/login", fiber.Map{
				"Form":  form,
				"Error": "Invalid credentials.",
			})
		}
		return s.handleError(c, err)
	}

	if err := s.sessions.Login(c, user.ID); err != nil {
		return s.handleError(c, models.NewInternalError(err))
	}
	middleware.Logger.InfoContext(c.UserContext(), "user logged in", "user_id", user.ID)
	flash(c, "success", "Hello, "+user.Username+"!")
	return c.Redirect("/")
}

// Logout ends the session.
func (s *Server) Logout(c *fiber.Ctx) error {
	s.sessions.Logout(c)
	c.Locals(currentUserLocal, nil)
	flash(c, "success", "You have successfully logged out.")
	return c.Redirect("/login")
}
