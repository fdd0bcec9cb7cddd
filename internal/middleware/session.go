package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionCookieName is the cookie holding the signed session token.
	SessionCookieName = "warbler_session"

	sessionIssuer    = "warbler"
	revokedKeyPrefix = "session:revoked:"
	userIDLocal      = "userID"
)

// ErrInvalidSession is returned for tokens that fail signature, claim or revocation checks.
var ErrInvalidSession = errors.New("invalid session")

// SessionClaims are the claims carried by a session token.
type SessionClaims struct {
	UserID    uint
	TokenID   string
	ExpiresAt time.Time
}

// SessionManager issues, parses and revokes cookie sessions.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	redis  *redis.Client
	secure bool
}

// NewSessionManager creates a SessionManager. rdb may be nil, in which case logout only clears the cookie.
func NewSessionManager(secret string, ttl time.Duration, rdb *redis.Client, secure bool) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		redis:  rdb,
		secure: secure,
	}
}

// Issue signs a new session token for userID.
func (m *SessionManager) Issue(userID uint) (string, error) {
	if len(m.secret) == 0 {
		return "", fmt.Errorf("session secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": sessionIssuer,
		"exp": now.Add(m.ttl).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse validates a token and returns its claims.
func (m *SessionManager) Parse(ctx context.Context, tokenString string) (*SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return m.secret, nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidSession
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidSession
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return nil, ErrInvalidSession
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil, ErrInvalidSession
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidSession
	}

	if m.redis != nil {
		revoked, err := m.redis.Exists(ctx, revokedKeyPrefix+jti).Result()
		if err == nil && revoked > 0 {
			return nil, ErrInvalidSession
		}
	}

	return &SessionClaims{UserID: uint(userID), TokenID: jti, ExpiresAt: exp.Time}, nil
}

// Login issues a token for userID and stores it in the session cookie.
func (m *SessionManager) Login(c *fiber.Ctx, userID uint) error {
	token, err := m.Issue(userID)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(m.ttl),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Locals(userIDLocal, userID)
	c.SetUserContext(WithUserID(c.UserContext(), userID))
	return nil
}

// Logout revokes the current token until it would have expired and clears the cookie.
func (m *SessionManager) Logout(c *fiber.Ctx) {
	if raw := c.Cookies(SessionCookieName); raw != "" && m.redis != nil {
		if claims, err := m.Parse(c.UserContext(), raw); err == nil {
			if ttl := time.Until(claims.ExpiresAt); ttl > 0 {
				if err := m.redis.Set(c.UserContext(), revokedKeyPrefix+claims.TokenID, claims.UserID, ttl).Err(); err != nil {
					Logger.WarnContext(c.UserContext(), "failed to revoke session", "error", err)
				}
			}
		}
	}

	m.expireCookie(c)
	c.Locals(userIDLocal, nil)
}

// Middleware resolves the session cookie into the request identity.
// Missing or invalid tokens leave the request anonymous.
func (m *SessionManager) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(SessionCookieName)
		if raw == "" {
			return c.Next()
		}

		claims, err := m.Parse(c.UserContext(), raw)
		if err != nil {
			m.expireCookie(c)
			return c.Next()
		}

		c.Locals(userIDLocal, claims.UserID)
		c.SetUserContext(WithUserID(c.UserContext(), claims.UserID))
		return c.Next()
	}
}

// expireCookie overwrites the session cookie with one the browser drops immediately.
func (m *SessionManager) expireCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// CurrentUserID returns the session user id, if any.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(userIDLocal).(uint)
	return id, ok
}
