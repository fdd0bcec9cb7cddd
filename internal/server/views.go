package server

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"warbler/internal/forms"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/template/html/v2"
)

//go:embed views
var viewsFS embed.FS

//go:embed static
var staticFS embed.FS

const defaultLayout = "layouts/main"

// newViewEngine loads the embedded templates. Template names are paths under
// views/ without the extension, e.g. "messages/show".
func newViewEngine() *html.Engine {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("date", func(t time.Time) string {
		return t.Format("02 January 2006")
	})
	return engine
}

// staticHandler serves /static from the embedded assets.
func staticHandler() fiber.Handler {
	return filesystem.New(filesystem.Config{
		Root:       http.FS(staticFS),
		PathPrefix: "static",
		MaxAge:     3600,
	})
}

// render executes a page template inside the main layout, adding the
// current user and any pending flash messages.
func (s *Server) render(c *fiber.Ctx, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = forms.Errors{}
	}
	data["CurrentUser"] = currentUser(c)
	data["CSRF"], _ = c.Locals(csrfContextKey).(string)
	data["Flashes"] = takeFlashes(c)
	return c.Render(name, data)
}

// renderStatus is render with an explicit status code.
func (s *Server) renderStatus(c *fiber.Ctx, status int, name string, data fiber.Map) error {
	c.Status(status)
	return s.render(c, name, data)
}
