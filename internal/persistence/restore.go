package persistence

import (
	"context"

	"bitsconnect/internal/observability"
	"bitsconnect/internal/store"
)

// Restore loads every collection from port into st. Absent collections
// start empty; collections that fail to load or decode are logged and
// start empty too. The loaded snapshot is returned.
func Restore(ctx context.Context, port Port, st *store.Store) store.Snapshot {
	log := observability.NewComponentLogger("persistence")
	var snap store.Snapshot
	for _, col := range store.AllCollections {
		payload, found, err := port.Load(ctx, string(col))
		if err != nil {
			log.LogError(ctx, err, "load", map[string]interface{}{"collection": string(col)})
			continue
		}
		if !found {
			continue
		}
		var part store.Snapshot
		if err := Decode(&part, col, payload); err != nil {
			log.LogError(ctx, err, "decode", map[string]interface{}{"collection": string(col)})
			continue
		}
		merge(&snap, part, col)
	}
	st.Replace(snap)
	return st.Snapshot()
}

func merge(dst *store.Snapshot, src store.Snapshot, col store.Collection) {
	switch col {
	case store.CollectionUsers:
		dst.Users = src.Users
	case store.CollectionPosts:
		dst.Posts = src.Posts
	case store.CollectionMessages:
		dst.Messages = src.Messages
	case store.CollectionCurrentUser:
		dst.CurrentUser = src.CurrentUser
	}
}
