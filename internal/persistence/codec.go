package persistence

import (
	"encoding/json"
	"fmt"

	"bitsconnect/internal/models"
	"bitsconnect/internal/store"
)

// currentUserRecord is the persisted form of the signed-in identity.
// Session=false is the explicit "no session" marker.
type currentUserRecord struct {
	Session bool         `json:"session"`
	User    *models.User `json:"user,omitempty"`
}

// Encode serializes one collection of snap.
func Encode(snap store.Snapshot, col store.Collection) ([]byte, error) {
	var v interface{}
	switch col {
	case store.CollectionUsers:
		v = nonNil(snap.Users)
	case store.CollectionPosts:
		v = nonNil(snap.Posts)
	case store.CollectionMessages:
		v = nonNil(snap.Messages)
	case store.CollectionCurrentUser:
		v = currentUserRecord{Session: snap.CurrentUser != nil, User: snap.CurrentUser}
	default:
		return nil, fmt.Errorf("unknown collection %q", col)
	}
	return json.Marshal(v)
}

// Decode reads one collection into snap.
func Decode(snap *store.Snapshot, col store.Collection, payload []byte) error {
	var err error
	switch col {
	case store.CollectionUsers:
		err = json.Unmarshal(payload, &snap.Users)
	case store.CollectionPosts:
		err = json.Unmarshal(payload, &snap.Posts)
	case store.CollectionMessages:
		err = json.Unmarshal(payload, &snap.Messages)
	case store.CollectionCurrentUser:
		var rec currentUserRecord
		if err = json.Unmarshal(payload, &rec); err == nil {
			snap.CurrentUser = nil
			if rec.Session {
				snap.CurrentUser = rec.User
			}
		}
	default:
		return fmt.Errorf("unknown collection %q", col)
	}
	if err != nil {
		return fmt.Errorf("decode collection %s: %w", col, err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
