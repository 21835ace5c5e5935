package handler

import (
	"errors"
	"strings"

	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/service"
	autherror "github.com/AnthoniusHendriyanto/backoffice-auth/internal/errors"
	"github.com/AnthoniusHendriyanto/backoffice-auth/pkg/constant"
	"github.com/gofiber/fiber/v2"
)

// Auth rejects the request with 401 unless it carries a valid session token
// for an existing, active user. The user and session are stored in Locals.
func (h *AuthHandler) Auth(c *fiber.Ctx) error {
	if err := h.authenticate(c); err != nil {
		return err
	}
	return c.Next()
}

// AdminAuth is Auth followed by a 403 for non-admin users.
func (h *AuthHandler) AdminAuth(c *fiber.Ctx) error {
	if err := h.authenticate(c); err != nil {
		return err
	}
	if user := CurrentUser(c); user == nil || user.Role != constant.RoleAdmin {
		return autherror.ErrForbidden
	}
	return c.Next()
}

// AuthOptional attaches the user when a valid token is present and otherwise
// continues as an anonymous caller.
func (h *AuthHandler) AuthOptional(c *fiber.Ctx) error {
	if err := h.authenticate(c); err != nil {
		c.Locals(constant.LocalsUser, nil)
		c.Locals(constant.LocalsSession, nil)
	}
	return c.Next()
}

func (h *AuthHandler) authenticate(c *fiber.Ctx) error {
	token, ok := bearerToken(c.Get(constant.AuthorizationHeader))
	if !ok {
		return autherror.ErrUnauthorized
	}

	session, user, err := h.userService.Authenticate(c.UserContext(), token)
	if err != nil {
		if errors.Is(err, autherror.ErrUnauthorized) {
			return autherror.ErrUnauthorized
		}
		return err
	}

	c.Locals(constant.LocalsSession, session)
	c.Locals(constant.LocalsUser, user)
	return nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], constant.BearerScheme) {
		return "", false
	}
	return parts[1], true
}

// CurrentUser returns the user loaded by Auth, or nil for anonymous callers.
func CurrentUser(c *fiber.Ctx) *domain.User {
	user, _ := c.Locals(constant.LocalsUser).(*domain.User)
	return user
}

func CurrentSession(c *fiber.Ctx) (service.SessionToken, bool) {
	session, ok := c.Locals(constant.LocalsSession).(service.SessionToken)
	return session, ok
}
