// Package store holds the canonical in-memory collections (users, posts,
// messages and the signed-in identity) and hands out consistent snapshots.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bitsconnect/internal/models"
	"bitsconnect/internal/observability"
)

// Collection names a persisted collection of the store.
type Collection string

const (
	CollectionUsers       Collection = "users"
	CollectionPosts       Collection = "posts"
	CollectionMessages    Collection = "messages"
	CollectionCurrentUser Collection = "current_user"
)

// AllCollections lists every collection in a stable order.
var AllCollections = []Collection{
	CollectionUsers,
	CollectionPosts,
	CollectionMessages,
	CollectionCurrentUser,
}

// OpRestore is the Change.Op used when a snapshot is loaded from persistence.
const OpRestore = "restore"

// Snapshot is a complete, self-consistent view of the store.
// Posts are kept in creation order, newest first.
type Snapshot struct {
	Users       []models.User
	Posts       []models.Post
	Messages    []models.ChatMessage
	CurrentUser *models.User
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Users:       cloneUsers(s.Users),
		Posts:       clonePosts(s.Posts),
		Messages:    append([]models.ChatMessage(nil), s.Messages...),
		CurrentUser: cloneUserPtr(s.CurrentUser),
	}
}

// Change describes one committed update.
type Change struct {
	Op          string
	Collections []Collection
	Version     uint64
}

// Touches reports whether the change modified the given collection.
func (c Change) Touches(col Collection) bool {
	for _, v := range c.Collections {
		if v == col {
			return true
		}
	}
	return false
}

// Listener is notified after every committed change.
type Listener func(Change)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for entity timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// WithSnapshot seeds the store with an initial snapshot.
func WithSnapshot(snap Snapshot) Option {
	return func(s *Store) { s.setSnapshot(snap) }
}

// Store is the single source of truth for the session.
type Store struct {
	mu      sync.RWMutex
	snap    Snapshot
	seq     uint64
	lastNow time.Time
	version uint64
	clock   func() time.Time

	subsMu  sync.Mutex
	subs    map[int]Listener
	nextSub int

	logger *observability.ComponentLogger
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		clock:  time.Now,
		subs:   make(map[int]Listener),
		logger: observability.NewComponentLogger("store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// Version increases by one with every committed change.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Users returns a copy of all users in store order.
func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUsers(s.snap.Users)
}

// Posts returns a copy of all posts in creation order, newest first.
func (s *Store) Posts() []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePosts(s.snap.Posts)
}

// Messages returns a copy of the message log in append order.
func (s *Store) Messages() []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ChatMessage(nil), s.snap.Messages...)
}

// CurrentUser returns the signed-in user, if any.
func (s *Store) CurrentUser() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap.CurrentUser == nil {
		return models.User{}, false
	}
	return s.snap.CurrentUser.Clone(), true
}

// FindUserByID looks a user up by id. Unknown ids report false.
func (s *Store) FindUserByID(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexUser(s.snap.Users, id); i >= 0 {
		return s.snap.Users[i].Clone(), true
	}
	return models.User{}, false
}

// FindUserByEmail looks a user up by email, ignoring case.
func (s *Store) FindUserByEmail(email string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.snap.Users {
		if strings.EqualFold(u.Email, email) {
			return u.Clone(), true
		}
	}
	return models.User{}, false
}

// FindUserByUsername looks a user up by username, ignoring case.
func (s *Store) FindUserByUsername(username string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.snap.Users {
		if strings.EqualFold(u.Username, username) {
			return u.Clone(), true
		}
	}
	return models.User{}, false
}

// FindPostByID looks a post up by id. Unknown ids report false.
func (s *Store) FindPostByID(id string) (models.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexPost(s.snap.Posts, id); i >= 0 {
		return s.snap.Posts[i].Clone(), true
	}
	return models.Post{}, false
}

// Subscribe registers fn for change notifications and returns a function
// that removes the subscription.
func (s *Store) Subscribe(fn Listener) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()
	observability.StoreSubscribers.Inc()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
			observability.StoreSubscribers.Dec()
		})
	}
}

// Update applies fn to a private copy of the state and commits it in one
// step. If fn returns an error nothing is applied.
func (s *Store) Update(op string, fn func(tx *Tx) error) error {
	s.mu.Lock()
	tx := newTx(s)
	if err := fn(tx); err != nil {
		s.mu.Unlock()
		return err
	}
	touched := tx.touchedCollections()
	if len(touched) == 0 {
		s.mu.Unlock()
		return nil
	}
	tx.commit()
	s.version++
	change := Change{Op: op, Collections: touched, Version: s.version}
	s.mu.Unlock()

	s.notify(change)
	return nil
}

// Replace swaps in a snapshot loaded from persistence.
func (s *Store) Replace(snap Snapshot) {
	s.mu.Lock()
	s.setSnapshot(snap)
	s.version++
	change := Change{Op: OpRestore, Collections: AllCollections, Version: s.version}
	s.mu.Unlock()

	s.logger.LogMutation(context.Background(), OpRestore, map[string]interface{}{
		"users":    len(snap.Users),
		"posts":    len(snap.Posts),
		"messages": len(snap.Messages),
	})
	s.notify(change)
}

func (s *Store) setSnapshot(snap Snapshot) {
	s.snap = snap.Clone()
	s.seq = maxSeq(s.snap)
	s.lastNow = maxTimestamp(s.snap)
}

func (s *Store) notify(change Change) {
	s.subsMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.subs[id])
	}
	s.subsMu.Unlock()

	for _, l := range listeners {
		l(change)
	}
}

func maxSeq(snap Snapshot) uint64 {
	var max uint64
	for _, p := range snap.Posts {
		if p.Seq > max {
			max = p.Seq
		}
		for _, c := range p.Comments {
			if c.Seq > max {
				max = c.Seq
			}
		}
	}
	for _, m := range snap.Messages {
		if m.Seq > max {
			max = m.Seq
		}
	}
	return max
}

func maxTimestamp(snap Snapshot) time.Time {
	var max time.Time
	for _, p := range snap.Posts {
		if p.Timestamp.After(max) {
			max = p.Timestamp
		}
		for _, c := range p.Comments {
			if c.Timestamp.After(max) {
				max = c.Timestamp
			}
		}
	}
	for _, m := range snap.Messages {
		if m.Timestamp.After(max) {
			max = m.Timestamp
		}
	}
	return max
}

func indexUser(users []models.User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}

func indexPost(posts []models.Post, id string) int {
	for i := range posts {
		if posts[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneUsers(users []models.User) []models.User {
	if users == nil {
		return nil
	}
	out := make([]models.User, len(users))
	for i, u := range users {
		out[i] = u.Clone()
	}
	return out
}

func clonePosts(posts []models.Post) []models.Post {
	if posts == nil {
		return nil
	}
	out := make([]models.Post, len(posts))
	for i, p := range posts {
		out[i] = p.Clone()
	}
	return out
}

func cloneUserPtr(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := u.Clone()
	return &c
}
