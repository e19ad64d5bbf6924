// Package conversation derives chat partner lists and message threads from
// the message log.
package conversation

import (
	"sort"

	"bitsconnect/internal/models"
)

// Partners returns the distinct ids on the other side of every message that
// involves currentUserID, in order of first appearance in the log.
func Partners(currentUserID string, messages []models.ChatMessage) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, m := range messages {
		if !m.Involves(currentUserID) {
			continue
		}
		id := m.Counterpart(currentUserID)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// For resolves Partners to users. Ids that no longer resolve are dropped.
func For(currentUserID string, messages []models.ChatMessage, users []models.User) []models.User {
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := []models.User{}
	for _, id := range Partners(currentUserID, messages) {
		if u, ok := byID[id]; ok {
			out = append(out, u.Clone())
		}
	}
	return out
}

// Between returns the messages exchanged between a and b, oldest first.
func Between(a, b string, messages []models.ChatMessage) []models.ChatMessage {
	out := []models.ChatMessage{}
	for _, m := range messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}
