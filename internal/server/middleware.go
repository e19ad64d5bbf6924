package server

import (
	"log/slog"
	"strings"
	"time"

	"bitsconnect/internal/identity"
	"bitsconnect/internal/models"
	"bitsconnect/internal/observability"
	"bitsconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID = "userID"
	localClaims = "tokenClaims"
)

// ContextMiddleware copies the request id from Fiber locals into the request
// context so the context-aware logger picks it up in deeper layers.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ctx = observability.WithRequestID(ctx, rid)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// StructuredLogger returns a Fiber middleware for logging requests using slog
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		fields := []any{
			slog.Int("status", c.Response().StatusCode()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
		}
		if err != nil {
			fields = append(fields, slog.String("error", err.Error()))
			observability.Logger.ErrorContext(c.UserContext(), "request failed", fields...)
		} else {
			observability.Logger.InfoContext(c.UserContext(), "request processed", fields...)
		}
		return err
	}
}

// AuthRequired enforces a valid, unrevoked bearer token naming a user the
// store knows. A failing revocation check lets the token through.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthError("Authorization header required"))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthError("Invalid authorization header format"))
		}

		claims, err := s.tokens.Parse(parts[1])
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthError("Invalid or expired token"))
		}
		if claims.TokenID != "" {
			revoked, err := s.revocations.Revoked(c.UserContext(), claims.TokenID)
			if err != nil {
				observability.Logger.WarnContext(c.UserContext(), "token revocation check failed",
					slog.String("error", err.Error()))
			} else if revoked {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewAuthError("Token has been revoked"))
			}
		}
		userID := claims.UserID
		if _, ok := s.store.FindUserByID(userID); !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthError("Account no longer exists"))
		}

		c.Locals(localUserID, userID)
		c.Locals(localClaims, claims)
		c.SetUserContext(observability.WithUserID(c.UserContext(), userID))
		return c.Next()
	}
}

// ProfileRequired blocks users that have not finished profile setup.
func (s *Server) ProfileRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, ok := s.store.FindUserByID(currentUserID(c))
		if stage := service.StageFor(u, ok); stage != service.StageMain {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Profile setup required",
				"code":  "PROFILE_INCOMPLETE",
				"stage": stage,
			})
		}
		return c.Next()
	}
}

func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

func currentClaims(c *fiber.Ctx) identity.Claims {
	claims, _ := c.Locals(localClaims).(identity.Claims)
	return claims
}
