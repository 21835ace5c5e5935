package handler

import (
	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/dto"
	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/service"
	autherror "github.com/AnthoniusHendriyanto/backoffice-auth/internal/errors"
	"github.com/AnthoniusHendriyanto/backoffice-auth/pkg/constant"
	"github.com/gofiber/fiber/v2"
)

var errInvalidBody = fiber.NewError(fiber.StatusBadRequest, "invalid request body")

type AuthHandler struct {
	userService *service.UserService
}

func NewAuthHandler(userService *service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var input dto.SignupInput
	if err := c.BodyParser(&input); err != nil {
		return errInvalidBody
	}

	out, err := h.userService.Signup(c.UserContext(), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": constant.SignupMessage,
		"token":   out.Token,
		"user":    out.User,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return errInvalidBody
	}
	input.IPAddress = c.IP()

	out, err := h.userService.Login(c.UserContext(), input)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   out.Token,
		"user":    out.User,
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	session, ok := CurrentSession(c)
	if !ok {
		return autherror.ErrUnauthorized
	}

	user, err := h.userService.GetCurrentUser(c.UserContext(), session)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    dto.NewUserOutput(user),
	})
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var input dto.ForgotPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return errInvalidBody
	}

	msg, err := h.userService.ForgotPassword(c.UserContext(), input)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": msg})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var input dto.ResetPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return errInvalidBody
	}

	if err := h.userService.ResetPassword(c.UserContext(), input); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": constant.ResetPasswordMessage})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	session, _ := CurrentSession(c)
	return c.JSON(fiber.Map{
		"success": true,
		"message": h.userService.Logout(c.UserContext(), session),
	})
}

// PublicKey serves the RSA public key clients use to encrypt passwords in
// transit.
func (h *AuthHandler) PublicKey(c *fiber.Ctx) error {
	key := h.userService.PublicKeyPEM()
	if key == "" {
		return fiber.NewError(fiber.StatusNotFound, "transit encryption is not configured")
	}
	return c.JSON(fiber.Map{"success": true, "publicKey": key})
}

// Status reports whether the caller is signed in. Mounted behind AuthOptional.
func (h *AuthHandler) Status(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil {
		return c.JSON(fiber.Map{"success": true, "authenticated": false})
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"authenticated": true,
		"user":          dto.NewUserOutput(user),
	})
}

func (h *AuthHandler) GetAllUsers(c *fiber.Ctx) error {
	users, err := h.userService.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "users": users})
}

func (h *AuthHandler) UpdateUserRole(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.rejectSelf(c, id); err != nil {
		return err
	}

	var input dto.UpdateRoleInput
	if err := c.BodyParser(&input); err != nil {
		return errInvalidBody
	}

	user, err := h.userService.UpdateRole(c.UserContext(), id, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

func (h *AuthHandler) UpdateUserStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.rejectSelf(c, id); err != nil {
		return err
	}

	var input dto.UpdateStatusInput
	if err := c.BodyParser(&input); err != nil {
		return errInvalidBody
	}

	user, err := h.userService.UpdateStatus(c.UserContext(), id, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

// Admins may not demote or disable themselves.
func (h *AuthHandler) rejectSelf(c *fiber.Ctx, id string) error {
	if user := CurrentUser(c); user != nil && user.ID == id {
		return autherror.NewValidationError(autherror.FieldError{Field: "id", Message: "cannot modify your own account"})
	}
	return nil
}
