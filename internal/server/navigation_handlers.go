package server

import (
	"bitsconnect/internal/navigation"

	"github.com/gofiber/fiber/v2"
)

// Navigation actions accepted by POST /api/navigation.
const (
	ActionNavigate    = "navigate"
	ActionViewProfile = "viewProfile"
	ActionSelectUser  = "selectUser"
	ActionSelectPost  = "selectPost"
	ActionStartChat   = "startChat"
)

// NavigateRequest is one navigation intent.
type NavigateRequest struct {
	Action   string `json:"action"`
	Page     string `json:"page,omitempty"`
	FromLogo bool   `json:"fromLogo,omitempty"`
	UserID   string `json:"userId,omitempty"`
	PostID   string `json:"postId,omitempty"`
}

// GetNavigation handles GET /api/navigation
func (s *Server) GetNavigation(c *fiber.Ctx) error {
	return c.JSON(s.session(c).Navigation())
}

// Navigate handles POST /api/navigation
func (s *Server) Navigate(c *fiber.Ctx) error {
	var req NavigateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	sess := s.session(c)
	switch req.Action {
	case ActionNavigate, "":
		page, err := navigation.ParsePage(req.Page)
		if err != nil {
			return badRequest(c, err.Error())
		}
		var flags navigation.Intent
		if req.FromLogo {
			flags |= navigation.FromLogo
		}
		return c.JSON(sess.Navigate(page, flags))
	case ActionViewProfile, ActionSelectUser, ActionStartChat:
		if _, ok := s.store.FindUserByID(req.UserID); !ok {
			return badRequest(c, "Unknown user")
		}
		switch req.Action {
		case ActionViewProfile:
			return c.JSON(sess.ViewProfile(req.UserID))
		case ActionSelectUser:
			return c.JSON(sess.SelectSearchUser(req.UserID))
		default:
			return c.JSON(sess.MessageUser(req.UserID))
		}
	case ActionSelectPost:
		if _, ok := s.store.FindPostByID(req.PostID); !ok {
			return badRequest(c, "Unknown post")
		}
		return c.JSON(sess.SelectSearchPost(req.PostID))
	default:
		return badRequest(c, "Unknown navigation action "+req.Action)
	}
}
