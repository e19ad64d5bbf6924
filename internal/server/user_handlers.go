package server

import (
	"context"

	"bitsconnect/internal/media"
	"bitsconnect/internal/models"
	"bitsconnect/internal/navigation"
	"bitsconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// MeResponse describes the signed-in session.
type MeResponse struct {
	User       models.User      `json:"user"`
	Stage      service.Stage    `json:"stage"`
	Navigation navigation.State `json:"navigation"`
}

// GetMe handles GET /api/me
func (s *Server) GetMe(c *fiber.Ctx) error {
	sess := s.session(c)
	u, ok := sess.Me()
	if !ok {
		return respond(c, models.NewNotFoundError("User", sess.UserID()))
	}
	return c.JSON(MeResponse{User: u, Stage: sess.Stage(), Navigation: sess.Navigation()})
}

// UpdateMyProfile handles PUT /api/me/profile
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var patch service.ProfilePatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request body")
	}
	u, err := s.session(c).UpdateProfile(c.UserContext(), patch)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(u)
}

// UploadAvatar handles POST /api/me/avatar
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	return s.uploadProfileImage(c, s.services.Users.UploadAvatar)
}

// UploadBanner handles POST /api/me/banner
func (s *Server) UploadBanner(c *fiber.Ctx) error {
	return s.uploadProfileImage(c, s.services.Users.UploadBanner)
}

func (s *Server) uploadProfileImage(c *fiber.Ctx, upload func(context.Context, string, media.Upload) (models.User, error)) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "No file uploaded")
	}
	u, err := readUpload(fh)
	if err != nil {
		return respond(c, err)
	}
	user, err := upload(c.UserContext(), currentUserID(c), u)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(user)
}

// GetUser handles GET /api/users/:id
func (s *Server) GetUser(c *fiber.Ctx) error {
	id := c.Params("id")
	u, ok := s.store.FindUserByID(id)
	if !ok {
		return respond(c, models.NewNotFoundError("User", id))
	}
	return c.JSON(u)
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := s.store.FindUserByID(id); !ok {
		return respond(c, models.NewNotFoundError("User", id))
	}
	return c.JSON(s.session(c).ProfilePosts(id))
}
