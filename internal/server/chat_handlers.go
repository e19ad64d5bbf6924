package server

import (
	"bitsconnect/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ConversationResponse is one message thread.
type ConversationResponse struct {
	Partner  *models.User         `json:"partner"`
	Messages []models.ChatMessage `json:"messages"`
}

// GetConversations handles GET /api/conversations
func (s *Server) GetConversations(c *fiber.Ctx) error {
	return c.JSON(s.session(c).Conversations())
}

// GetActiveConversation handles GET /api/conversations/active
func (s *Server) GetActiveConversation(c *fiber.Ctx) error {
	sess := s.session(c)
	resp := ConversationResponse{Messages: sess.ActiveConversation()}
	if id := sess.Navigation().ActiveChatUserID; id != "" {
		if u, ok := s.store.FindUserByID(id); ok {
			resp.Partner = &u
		}
	}
	return c.JSON(resp)
}

// GetMessages handles GET /api/conversations/:userId/messages
func (s *Server) GetMessages(c *fiber.Ctx) error {
	partnerID := c.Params("userId")
	u, ok := s.store.FindUserByID(partnerID)
	if !ok {
		return respond(c, models.NewNotFoundError("User", partnerID))
	}
	return c.JSON(ConversationResponse{Partner: &u, Messages: s.session(c).Thread(partnerID)})
}

// SendMessage handles POST /api/conversations/:userId/messages
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	msg, err := s.session(c).SendTo(c.UserContext(), c.Params("userId"), req.Text)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
