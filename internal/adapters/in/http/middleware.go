package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/auth"
)

const actorContextKey = "actor"

// AuthMiddleware validates the Bearer token and stores the resulting domain
// actor on the request context. Routes behind it can rely on actorFrom.
func AuthMiddleware(jwtService *auth.JWTService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Code:    http.StatusUnauthorized,
					Message: "missing bearer token",
				})
			}

			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Code:    http.StatusUnauthorized,
					Message: "invalid token",
				})
			}

			actor, err := jwtService.Actor(claims)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Code:    http.StatusUnauthorized,
					Message: "invalid token",
				})
			}

			c.Set(actorContextKey, actor)
			return next(c)
		}
	}
}

func actorFrom(c echo.Context) (order.Actor, bool) {
	actor, ok := c.Get(actorContextKey).(order.Actor)
	return actor, ok
}

// requireRole rejects the request unless the authenticated actor has one of
// the listed roles. On failure it writes the response and reports false.
func requireRole(c echo.Context, roles ...order.Role) (order.Actor, bool) {
	actor, ok := actorFrom(c)
	if !ok {
		_ = c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    http.StatusUnauthorized,
			Message: "authentication required",
		})
		return order.Actor{}, false
	}

	for _, role := range roles {
		if actor.Role() == role {
			return actor, true
		}
	}

	_ = c.JSON(http.StatusForbidden, ErrorResponse{
		Code:    http.StatusForbidden,
		Message: "insufficient role",
	})
	return order.Actor{}, false
}
