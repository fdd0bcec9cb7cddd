package server

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	flashCookieName = "warbler_flash"
	flashLocal      = "flashes"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// flash queues a message for the next rendered page, which may be this
// response or the target of a redirect.
func flash(c *fiber.Ctx, category, message string) {
	pending := append(pendingFlashes(c), Flash{Category: category, Message: message})
	c.Locals(flashLocal, pending)

	raw, err := json.Marshal(pending)
	if err != nil {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// pendingFlashes returns the messages queued so far, including any carried
// over from the previous response.
func pendingFlashes(c *fiber.Ctx) []Flash {
	if pending, ok := c.Locals(flashLocal).([]Flash); ok {
		return pending
	}

	var carried []Flash
	if raw := c.Cookies(flashCookieName); raw != "" {
		if decoded, err := base64.RawURLEncoding.DecodeString(raw); err == nil {
			_ = json.Unmarshal(decoded, &carried)
		}
	}
	c.Locals(flashLocal, carried)
	return carried
}

// takeFlashes returns and clears every pending message.
func takeFlashes(c *fiber.Ctx) []Flash {
	pending := pendingFlashes(c)
	c.Locals(flashLocal, []Flash{})
	if c.Cookies(flashCookieName) != "" || len(pending) > 0 {
		c.Cookie(&fiber.Cookie{
			Name:     flashCookieName,
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return pending
}
