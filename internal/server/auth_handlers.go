package server

import (
	"bitsconnect/internal/models"
	"bitsconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token string        `json:"token"`
	User  models.User   `json:"user"`
	Stage service.Stage `json:"stage"`
}

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req service.SignUpInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	u, err := s.services.Auth.SignUp(c.UserContext(), req)
	if err != nil {
		return respond(c, err)
	}
	return s.issue(c, fiber.StatusCreated, u)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	u, err := s.services.Auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respond(c, err)
	}
	return s.issue(c, fiber.StatusOK, u)
}

// Logout handles POST /api/auth/logout. The presented token stops working
// immediately.
func (s *Server) Logout(c *fiber.Ctx) error {
	if claims := currentClaims(c); claims.TokenID != "" {
		if err := s.revocations.Revoke(c.UserContext(), claims.TokenID, claims.ExpiresAt); err != nil {
			return respond(c, models.NewStorageError("Could not end session", err))
		}
	}
	if err := s.sessions.End(c.UserContext(), currentUserID(c)); err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (s *Server) issue(c *fiber.Ctx, status int, u models.User) error {
	token, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		return respond(c, models.NewInternalError(err))
	}
	return c.Status(status).JSON(AuthResponse{
		Token: token,
		User:  u,
		Stage: service.StageFor(u, true),
	})
}
