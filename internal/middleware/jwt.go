package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/campus-appeals-api/internal/service"
	"github.com/noah-isme/campus-appeals-api/internal/utils"
)

// Locals keys populated for authenticated requests.
const (
	LocalUserID    = "user_id"
	LocalUserRole  = "user_role"
	LocalSessionID = "session_id"
	LocalChannel   = "channel"
)

// SessionValidator confirms that a token's session is still live.
type SessionValidator interface {
	ValidateSession(ctx context.Context, sessionID string, userID uint) (service.Actor, error)
}

// JWTProtected validates HS256 bearer tokens and re-checks the session behind
// them on every request. The role stored in locals is the account's current
// role, not the one captured in the token.
func JWTProtected(secret string, sessions SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		userID := extractUserIDFromClaims(claims)
		sessionID := stringClaim(claims, "jti")
		if userID == nil || sessionID == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		role := extractUserRoleFromClaims(claims)
		channel := stringClaim(claims, "channel")

		if sessions != nil {
			actor, err := sessions.ValidateSession(c.UserContext(), sessionID, *userID)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrForbidden):
					return utils.SendError(c, fiber.StatusForbidden, err.Error())
				case errors.Is(err, service.ErrUnauthorized):
					return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
				default:
					return utils.SendError(c, fiber.StatusInternalServerError, "failed to validate session")
				}
			}
			role = actor.Role
			channel = actor.Channel
		}

		c.Locals(LocalUserID, *userID)
		c.Locals(LocalUserRole, role)
		c.Locals(LocalSessionID, sessionID)
		c.Locals(LocalChannel, channel)

		return c.Next()
	}
}

func extractUserIDFromClaims(claims jwt.MapClaims) *uint {
	keys := []string{"sub", "user_id", "id"}
	for _, key := range keys {
		if value, ok := claims[key]; ok {
			if normalized, err := normalizeUserID(value); err == nil && normalized > 0 {
				return &normalized
			}
		}
	}

	return nil
}

func normalizeUserID(value interface{}) (uint, error) {
	switch v := value.(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint(parsed), nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(v), nil
	default:
		return 0, fmt.Errorf("unsupported subject type")
	}
}

func extractUserRoleFromClaims(claims jwt.MapClaims) string {
	if value, ok := claims["role"]; ok {
		if role, ok := value.(string); ok {
			return normalizeRoleValue(role)
		}
	}
	return ""
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if value, ok := claims[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}
