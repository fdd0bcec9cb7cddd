package server

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	*testEnv
	testuser, u1, u2, u3, u4, u5 *models.User
}

func newUserFixture(t *testing.T) *userFixture {
	env := newTestEnv(t)
	return &userFixture{
		testEnv:  env,
		testuser: env.signup("testuser", "testuser"),
		u1:       env.insertUser(0, "apple_girl"),
		u2:       env.insertUser(0, "bagel_man"),
		u3:       env.insertUser(0, "carrot_girl"),
		u4:       env.insertUser(44444, "danish_man"),
		u5:       env.insertUser(55555, "eggplant_man"),
	}
}

func (f *userFixture) setupLikes() {
	f.insertMessage(0, f.testuser.ID, "test message")
	f.insertMessage(0, f.testuser.ID, "other thing")
	f.insertMessage(9876, f.u1.ID, "liked warble")
	require.NoError(f.t, f.db.Create(&models.Like{UserID: f.testuser.ID, MessageID: 9876}).Error)
}

func (f *userFixture) setupFollowers() {
	require.NoError(f.t, f.db.Create([]models.Follow{
		{UserBeingFollowedID: f.testuser.ID, UserFollowingID: f.u1.ID},
		{UserBeingFollowedID: f.testuser.ID, UserFollowingID: f.u2.ID},
		{UserBeingFollowedID: f.u4.ID, UserFollowingID: f.testuser.ID},
	}).Error)
}

func (f *userFixture) profileHTML() string {
	f.t.Helper()
	resp := f.browserAs(f.testuser.ID).get(userPath(f.testuser.ID))
	require.Equal(f.t, fiber.StatusOK, resp.StatusCode)
	html := readBody(f.t, resp)
	assert.Contains(f.t, html, "@testuser")
	return html
}

func TestListUsers(t *testing.T) {
	f := newUserFixture(t)

	resp := f.browserAs(f.testuser.ID).get("/users")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	html := readBody(t, resp)
	for _, name := range []string{"@testuser", "@apple_girl", "@bagel_man", "@carrot_girl", "@danish_man", "@eggplant_man"} {
		assert.Contains(t, html, name)
	}
}

func TestSearchUsers(t *testing.T) {
	f := newUserFixture(t)

	resp := f.browserAs(f.testuser.ID).get("/users?q=man")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	html := readBody(t, resp)

	assert.NotContains(t, html, "@testuser")
	assert.NotContains(t, html, "@apple_girl")
	assert.Contains(t, html, "@bagel_man")
	assert.NotContains(t, html, "@carrot_girl")
	assert.Contains(t, html, "@danish_man")
	assert.Contains(t, html, "@eggplant_man")
}

func TestSearchUsers_NoResults(t *testing.T) {
	f := newUserFixture(t)

	resp := f.browser().get("/users?q=zzz")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Sorry, no users found")
}

func TestShowUser_Counts(t *testing.T) {
	t.Run("empty profile", func(t *testing.T) {
		html := newUserFixture(t).profileHTML()
		assert.Regexp(t, `<a class="messages-display-user".*0</a>`, html)
		assert.Regexp(t, `<a class="following-display".*0</a>`, html)
		assert.Regexp(t, `<a class="follower-display".*0</a>`, html)
		assert.Regexp(t, `<a class="likes-display".*0</a>`, html)
	})

	t.Run("messages and likes", func(t *testing.T) {
		f := newUserFixture(t)
		f.setupLikes()
		html := f.profileHTML()
		assert.Regexp(t, `<a class="messages-display-user".*2</a>`, html)
		assert.Regexp(t, `<a class="likes-display".*1</a>`, html)
	})

	t.Run("following and followers", func(t *testing.T) {
		f := newUserFixture(t)
		f.setupFollowers()
		html := f.profileHTML()
		assert.Regexp(t, `<a class="following-display".*1</a>`, html)
		assert.Regexp(t, `<a class="follower-display".*2</a>`, html)
	})
}

func TestShowUser_Rejections(t *testing.T) {
	f := newUserFixture(t)

	t.Run("no session", func(t *testing.T) {
		b := f.browser()
		resp := b.follow(b.get(userPath(f.testuser.ID)))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "Access unauthorized")
	})

	t.Run("missing user", func(t *testing.T) {
		resp := f.browserAs(f.testuser.ID).get("/users/99999999")
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "Page not found")
	})
}

func TestConnectionPages(t *testing.T) {
	f := newUserFixture(t)
	f.setupFollowers()
	f.setupLikes()
	b := f.browserAs(f.testuser.ID)

	resp := b.get(userPath(f.testuser.ID) + "/following")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	html := readBody(t, resp)
	assert.Contains(t, html, "@danish_man")
	assert.NotContains(t, html, "@apple_girl")

	resp = b.get(userPath(f.testuser.ID) + "/followers")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	html = readBody(t, resp)
	assert.Contains(t, html, "@apple_girl")
	assert.Contains(t, html, "@bagel_man")
	assert.NotContains(t, html, "@danish_man")

	resp = b.get(userPath(f.testuser.ID) + "/likes")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	html = readBody(t, resp)
	assert.Contains(t, html, "liked warble")
	assert.NotContains(t, html, "other thing")

	resp = b.get("/users/99999999/followers")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestFollowAndUnfollow(t *testing.T) {
	f := newUserFixture(t)
	f.setupFollowers()
	b := f.browserAs(f.testuser.ID)

	resp := b.follow(b.post("/users/55555/follow", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), f.count(&models.Follow{}, "user_being_followed_id = ?", 55555))

	resp = b.follow(b.post("/users/44444/unfollow", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Zero(t, f.count(&models.Follow{}, "user_being_followed_id = ?", 44444))

	resp = b.follow(b.post("/users/55555/unfollow", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Zero(t, f.count(&models.Follow{}, "user_following_id = ?", f.testuser.ID))
}

func TestFollow_Rejections(t *testing.T) {
	f := newUserFixture(t)
	f.setupFollowers()

	t.Run("no session", func(t *testing.T) {
		for _, target := range []string{"/users/55555/follow", "/users/44444/unfollow"} {
			b := f.browser()
			resp := b.follow(b.post(target, nil))
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Contains(t, readBody(t, resp), "Access unauthorized")
		}
		assert.Zero(t, f.count(&models.Follow{}, "user_being_followed_id = ?", 55555))
		assert.Equal(t, int64(1), f.count(&models.Follow{}, "user_being_followed_id = ?", 44444))
	})

	t.Run("missing target", func(t *testing.T) {
		for _, target := range []string{"/users/99999999/follow", "/users/999999999/unfollow"} {
			b := f.browserAs(f.testuser.ID)
			resp := b.follow(b.post(target, nil))
			assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
			assert.Contains(t, readBody(t, resp), "Page not found")
		}
	})

	t.Run("invalid session user", func(t *testing.T) {
		resp := f.browserAs(1234567).post("/users/55555/follow", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Zero(t, f.count(&models.Follow{}, "user_being_followed_id = ?", 55555))
	})

	t.Run("self", func(t *testing.T) {
		b := f.browserAs(f.testuser.ID)
		resp := b.follow(b.post(fmt.Sprintf("/users/%d/follow", f.testuser.ID), nil))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "You cannot follow yourself")
		assert.Zero(t, f.count(&models.Follow{},
			"user_being_followed_id = ? AND user_following_id = ?", f.testuser.ID, f.testuser.ID))
	})
}

func TestUpdateProfile(t *testing.T) {
	f := newUserFixture(t)
	b := f.browserAs(f.testuser.ID)

	resp := b.get("/users/profile")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `value="testuser"`)

	form := url.Values{
		"username": {"testuser"},
		"email":    {"test@test.com"},
		"bio":      {"Hello from the test"},
		"location": {"Nowhere"},
		"password": {"wrong-password"},
	}
	resp = b.post("/users/profile", form)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Wrong password, please try again.")

	form.Set("password", "testuser")
	resp = b.post("/users/profile", form)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, userPath(f.testuser.ID), resp.Header.Get(fiber.HeaderLocation))

	var saved models.User
	require.NoError(t, f.db.First(&saved, f.testuser.ID).Error)
	assert.Equal(t, "Hello from the test", saved.Bio)
	assert.Equal(t, "Nowhere", saved.Location)
	assert.Equal(t, models.DefaultImageURL, saved.ImageURL)

	form.Set("username", "apple_girl")
	resp = b.post("/users/profile", form)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Username already taken")
}

func TestChangePassword(t *testing.T) {
	f := newUserFixture(t)
	b := f.browserAs(f.testuser.ID)

	resp := b.post("/users/password", url.Values{
		"old_password": {"testuser"},
		"new_password": {"brand-new"},
		"confirm":      {"different"},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "New passwords must match!")

	resp = b.post("/users/password", url.Values{
		"old_password": {"not-my-password"},
		"new_password": {"brand-new"},
		"confirm":      {"brand-new"},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Wrong password, please try again.")

	long := strings.Repeat("x", 73)
	resp = b.post("/users/password", url.Values{
		"old_password": {"testuser"},
		"new_password": {long},
		"confirm":      {long},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "New Password cannot be longer than 72 bytes.")

	resp = b.post("/users/password", url.Values{
		"old_password": {"testuser"},
		"new_password": {"brand-new"},
		"confirm":      {"brand-new"},
	})
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)

	_, err := f.server.userService.Authenticate(context.Background(), "testuser", "brand-new")
	assert.NoError(t, err)
}
