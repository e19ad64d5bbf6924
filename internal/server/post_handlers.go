package server

import (
	"strings"

	"bitsconnect/internal/feed"
	"bitsconnect/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed
func (s *Server) GetFeed(c *fiber.Ctx) error {
	return c.JSON(s.session(c).Feed())
}

// Search handles GET /api/search?q=...
func (s *Server) Search(c *fiber.Ctx) error {
	return c.JSON(s.session(c).Search(c.Query("q")))
}

// CreatePost handles POST /api/posts. Multipart requests carry files under
// "media"; JSON requests carry text only.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var content string
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		content = c.FormValue("content")
	} else {
		var req struct {
			Content string `json:"content"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		content = req.Content
	}

	uploads, err := formUploads(c, "media")
	if err != nil {
		return respond(c, err)
	}

	post, err := s.session(c).Publish(c.UserContext(), content, uploads)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id := c.Params("id")
	post, ok := s.store.FindPostByID(id)
	if !ok {
		return respond(c, models.NewNotFoundError("Post", id))
	}
	return c.JSON(post)
}

// LikePost handles POST /api/posts/:id/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	post, err := s.session(c).Like(c.UserContext(), c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(post)
}

// DislikePost handles POST /api/posts/:id/dislike
func (s *Server) DislikePost(c *fiber.Ctx) error {
	post, err := s.session(c).Dislike(c.UserContext(), c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(post)
}

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	id := c.Params("id")
	post, ok := s.store.FindPostByID(id)
	if !ok {
		return respond(c, models.NewNotFoundError("Post", id))
	}
	return c.JSON(feed.CommentsInOrder(post))
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	comment, err := s.session(c).Comment(c.UserContext(), c.Params("id"), req.Text)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}
