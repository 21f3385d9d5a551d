package middleware

import (
	"net/http"
	"strings"

	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/fallousenghor/visit-backend/internal/respond"
	"github.com/fallousenghor/visit-backend/pkg/jwtutil"
	"github.com/fallousenghor/visit-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const userKey = "user"

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*jwtutil.UserClaims, error)
}

// AuthMiddleware rejects requests without a valid bearer token with 401 and
// stores the claims for later handlers.
func AuthMiddleware(tokens TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				return respond.Fail(c, http.StatusUnauthorized, "missing authorization token")
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				log.Warn("Invalid Authorization header format")
				return respond.Fail(c, http.StatusUnauthorized, "invalid authorization format, expected Bearer token")
			}

			claims, err := tokens.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid JWT token", zap.Error(err))
				return respond.Fail(c, http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(userKey, claims)
			logger.SetEcho(c, log.With(zap.String("user_id", claims.ID)))
			return next(c)
		}
	}
}

// RequireRoles answers 403 unless the authenticated role is one of roles.
// It must run after AuthMiddleware.
func RequireRoles(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := CurrentUser(c)
			if !ok {
				return respond.Fail(c, http.StatusUnauthorized, "authentication required")
			}
			for _, role := range roles {
				if model.Role(claims.Role) == role {
					return next(c)
				}
			}
			logger.FromEcho(c).Warn("Role not allowed",
				zap.String("role", claims.Role),
				zap.String("path", c.Path()))
			return respond.Fail(c, http.StatusForbidden, "insufficient permissions")
		}
	}
}

// CurrentUser returns the claims stored by AuthMiddleware.
func CurrentUser(c echo.Context) (*jwtutil.UserClaims, bool) {
	claims, ok := c.Get(userKey).(*jwtutil.UserClaims)
	return claims, ok
}

// CurrentUserID parses the subject of the authenticated token.
func CurrentUserID(c echo.Context) (uuid.UUID, bool) {
	claims, ok := CurrentUser(c)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
