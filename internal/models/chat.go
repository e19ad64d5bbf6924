package models

import "time"

// ChatMessage is one entry of the append-only direct message log.
type ChatMessage struct {
	ID         string    `json:"id"`
	Seq        uint64    `json:"seq"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}

// Involves reports whether userID sent or received the message.
func (m ChatMessage) Involves(userID string) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// Counterpart returns the id on the other side of the message from userID,
// or "" when userID is not part of it.
func (m ChatMessage) Counterpart(userID string) string {
	switch userID {
	case m.SenderID:
		return m.ReceiverID
	case m.ReceiverID:
		return m.SenderID
	default:
		return ""
	}
}
