package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "smartdeals/internal/log"
	"smartdeals/internal/services"
)

// RequireBearer resolves "Authorization: Bearer <token>" to the caller's
// email and stores it under applog.PrincipalKey. Requests without a valid
// token stop here with 401.
func RequireBearer(v services.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			applog.Security(c, "auth.denied", map[string]any{"reason": "missing_bearer"})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized access"})
		}
		email, err := v.Verify(c.UserContext(), token)
		if err != nil {
			applog.Security(c, "auth.denied", map[string]any{"reason": "bad_token"})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized access"})
		}
		c.Locals(applog.PrincipalKey, email)
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// principal is the email RequireBearer stored for this request.
func principal(c *fiber.Ctx) string {
	who, _ := c.Locals(applog.PrincipalKey).(string)
	return who
}
