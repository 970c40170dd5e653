package middleware

import (
	"strconv"

	"quiz-forge/internal/domain"

	"github.com/gofiber/fiber/v2"
)

// LimitLocalKey is the fiber.Ctx local holding the validated limit.
const LimitLocalKey = "validated_limit"

// ValidateLimit parses the optional "limit" query parameter into
// c.Locals(LimitLocalKey). Absent means def.
func ValidateLimit(def, max int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := def
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return domain.ValidationErrors{domain.NewInvalidFormatError("limit", raw)}
			}
			if n < 1 || n > max {
				return domain.ValidationErrors{domain.NewOutOfRangeError("limit", n, 1, max)}
			}
			limit = n
		}
		c.Locals(LimitLocalKey, limit)
		return c.Next()
	}
}
