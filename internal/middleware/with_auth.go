package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/campus-appeals-api/internal/models"
	"github.com/noah-isme/campus-appeals-api/internal/utils"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	// Roles lists the canonical roles allowed through. Empty means any
	// authenticated user.
	Roles []string
	// Reviewer admits every role that may advance complaint statuses.
	Reviewer bool
}

// WithAuth wraps a single handler with an authentication and role guard.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	allowed := make(map[string]struct{}, len(opts.Roles))
	for _, role := range opts.Roles {
		if normalized := models.NormalizeRole(role); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals(LocalUserID).(uint)
		if userID == 0 {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		role := normalizeRoleValue(c.Locals(LocalUserRole))
		if opts.Reviewer && models.IsReviewerRole(role) {
			return handler(c)
		}
		if len(allowed) == 0 && !opts.Reviewer {
			return handler(c)
		}
		if _, ok := allowed[role]; ok {
			return handler(c)
		}

		return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
	}
}
