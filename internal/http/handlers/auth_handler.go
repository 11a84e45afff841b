package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"smartdeals/internal/domain"
	"smartdeals/internal/log"
	"smartdeals/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type credentials struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in credentials
	if err := parseBody(c, &in); err != nil {
		return err
	}
	u, err := h.Auth.Register(c.UserContext(), in.Email, in.Name, in.Password)
	if err != nil {
		if errors.Is(err, domain.ErrBadRequest) {
			log.Security(c, "auth.register.fail", map[string]any{"reason": "validation"})
		}
		return err
	}
	log.Audit(c, "auth.register", map[string]any{"email": u.Email})
	return c.Status(fiber.StatusCreated).JSON(u)
}

// Token exchanges email and password for a bearer token.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var in credentials
	if err := parseBody(c, &in); err != nil {
		return err
	}
	token, exp, err := h.Auth.Login(c.UserContext(), in.Email, in.Password)
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"email": in.Email})
		return err
	}
	log.Audit(c, "auth.login.success", map[string]any{"email": in.Email})
	return c.JSON(fiber.Map{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

// Logout revokes the bearer token of the current request.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, _ := bearerToken(c.Get(fiber.HeaderAuthorization))
	if err := h.Auth.Logout(c.UserContext(), token); err != nil {
		return err
	}
	log.Audit(c, "auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}
