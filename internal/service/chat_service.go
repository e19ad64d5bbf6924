package service

import (
	"context"
	"strings"

	"bitsconnect/internal/models"
	"bitsconnect/internal/store"

	"github.com/google/uuid"
)

type ChatService struct {
	store             *store.Store
	allowSelfMessages bool
}

func NewChatService(st *store.Store, allowSelfMessages bool) *ChatService {
	return &ChatService{store: st, allowSelfMessages: allowSelfMessages}
}

// SendMessage appends a direct message to the log. Nothing else changes.
func (s *ChatService) SendMessage(ctx context.Context, senderID, receiverID, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	var out models.ChatMessage
	err := s.store.Update(OpSendMessage, func(tx *store.Tx) error {
		if text == "" {
			return models.NewValidationError("Message cannot be empty")
		}
		if senderID == receiverID && !s.allowSelfMessages {
			return models.NewValidationError("Cannot send a message to yourself")
		}
		if _, ok := tx.User(senderID); !ok {
			return models.NewValidationError("Unknown sender")
		}
		if _, ok := tx.User(receiverID); !ok {
			return models.NewValidationError("Unknown receiver")
		}
		out = models.ChatMessage{
			ID:         uuid.NewString(),
			Seq:        tx.NextSeq(),
			SenderID:   senderID,
			ReceiverID: receiverID,
			Text:       text,
			Timestamp:  tx.Now(),
		}
		tx.AppendMessage(out)
		return nil
	})
	observe(ctx, OpSendMessage, err, map[string]interface{}{"receiver_id": receiverID})
	if err != nil {
		return models.ChatMessage{}, err
	}
	return out, nil
}
