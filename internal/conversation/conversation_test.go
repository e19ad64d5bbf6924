package conversation

import (
	"testing"
	"time"

	"bitsconnect/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

func msg(id string, seq uint64, from, to string, at time.Time) models.ChatMessage {
	return models.ChatMessage{ID: id, Seq: seq, SenderID: from, ReceiverID: to, Text: id, Timestamp: at}
}

func sampleLog() []models.ChatMessage {
	return []models.ChatMessage{
		msg("m1", 1, "me", "bob", t0),
		msg("m2", 2, "carol", "dave", t0.Add(time.Minute)),
		msg("m3", 3, "carol", "me", t0.Add(2*time.Minute)),
		msg("m4", 4, "bob", "me", t0.Add(3*time.Minute)),
		msg("m5", 5, "me", "ghost", t0.Add(4*time.Minute)),
	}
}

func TestPartners_FirstAppearanceNoDuplicates(t *testing.T) {
	assert.Equal(t, []string{"bob", "carol", "ghost"}, Partners("me", sampleLog()))
	assert.Empty(t, Partners("nobody", sampleLog()))
}

func TestPartners_Completeness(t *testing.T) {
	log := sampleLog()
	for _, user := range []string{"me", "bob", "carol", "dave"} {
		got := Partners(user, log)
		seen := map[string]bool{}
		for _, id := range got {
			assert.False(t, seen[id], "duplicate partner %s for %s", id, user)
			seen[id] = true

			found := false
			for _, m := range log {
				if (m.SenderID == user && m.ReceiverID == id) || (m.ReceiverID == user && m.SenderID == id) {
					found = true
					break
				}
			}
			assert.True(t, found, "partner %s of %s has no message", id, user)
		}
	}
}

func TestPartners_SelfMessage(t *testing.T) {
	log := []models.ChatMessage{msg("m1", 1, "me", "me", t0)}
	assert.Equal(t, []string{"me"}, Partners("me", log))
}

func TestFor_DropsUnresolved(t *testing.T) {
	users := []models.User{
		{ID: "carol", Username: "carol"},
		{ID: "bob", Username: "bob"},
		{ID: "me", Username: "me"},
	}

	got := For("me", sampleLog(), users)

	require.Len(t, got, 2)
	assert.Equal(t, "bob", got[0].ID)
	assert.Equal(t, "carol", got[1].ID)
}

func TestBetween_OnlyPairAscending(t *testing.T) {
	log := append(sampleLog(),
		msg("m6", 6, "bob", "me", t0),
		msg("m7", 7, "me", "bob", t0.Add(10*time.Minute)),
	)

	got := Between("me", "bob", log)

	var gotIDs []string
	for _, m := range got {
		gotIDs = append(gotIDs, m.ID)
	}
	assert.Equal(t, []string{"m1", "m6", "m4", "m7"}, gotIDs)
	assert.Equal(t, gotIDs, idsOf(Between("bob", "me", log)))
}

func TestBetween_Empty(t *testing.T) {
	got := Between("me", "dave", sampleLog())
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func idsOf(msgs []models.ChatMessage) []string {
	var out []string
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}
