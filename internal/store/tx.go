package store

import (
	"strings"
	"time"

	"bitsconnect/internal/models"
)

// Tx is the mutable view handed to Store.Update. Collections are copied on
// first write, so an aborted Tx leaves the store untouched.
type Tx struct {
	store    *Store
	users    []models.User
	posts    []models.Post
	messages []models.ChatMessage
	current  *models.User
	touched  map[Collection]bool
	seq      uint64
	lastNow  time.Time
}

func newTx(s *Store) *Tx {
	return &Tx{
		store:    s,
		users:    s.snap.Users,
		posts:    s.snap.Posts,
		messages: s.snap.Messages,
		current:  s.snap.CurrentUser,
		touched:  make(map[Collection]bool),
		seq:      s.seq,
		lastNow:  s.lastNow,
	}
}

func (tx *Tx) touch(col Collection) {
	if tx.touched[col] {
		return
	}
	tx.touched[col] = true
	switch col {
	case CollectionUsers:
		tx.users = cloneUsers(tx.users)
	case CollectionPosts:
		tx.posts = clonePosts(tx.posts)
	case CollectionMessages:
		tx.messages = append([]models.ChatMessage(nil), tx.messages...)
	case CollectionCurrentUser:
		tx.current = cloneUserPtr(tx.current)
	}
}

func (tx *Tx) touchedCollections() []Collection {
	var out []Collection
	for _, col := range AllCollections {
		if tx.touched[col] {
			out = append(out, col)
		}
	}
	return out
}

func (tx *Tx) commit() {
	tx.store.snap = Snapshot{
		Users:       tx.users,
		Posts:       tx.posts,
		Messages:    tx.messages,
		CurrentUser: tx.current,
	}
	tx.store.seq = tx.seq
	tx.store.lastNow = tx.lastNow
}

// NextSeq returns the next value of the store-wide creation sequence.
func (tx *Tx) NextSeq() uint64 {
	tx.seq++
	return tx.seq
}

// Now returns the creation timestamp for a new entity. It never goes
// backwards within a store, so ties are possible and resolved by Seq.
func (tx *Tx) Now() time.Time {
	t := tx.store.clock().UTC()
	if t.Before(tx.lastNow) {
		t = tx.lastNow
	}
	tx.lastNow = t
	return t
}

// Users returns a copy of the users as seen by this transaction.
func (tx *Tx) Users() []models.User {
	return cloneUsers(tx.users)
}

// Posts returns a copy of the posts as seen by this transaction.
func (tx *Tx) Posts() []models.Post {
	return clonePosts(tx.posts)
}

// User looks a user up by id.
func (tx *Tx) User(id string) (models.User, bool) {
	if i := indexUser(tx.users, id); i >= 0 {
		return tx.users[i].Clone(), true
	}
	return models.User{}, false
}

// Post looks a post up by id.
func (tx *Tx) Post(id string) (models.Post, bool) {
	if i := indexPost(tx.posts, id); i >= 0 {
		return tx.posts[i].Clone(), true
	}
	return models.Post{}, false
}

// EmailTaken reports whether any user has the email, ignoring case.
func (tx *Tx) EmailTaken(email string) bool {
	for _, u := range tx.users {
		if strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

// UsernameTaken reports whether any user has the username, ignoring case.
func (tx *Tx) UsernameTaken(username string) bool {
	for _, u := range tx.users {
		if strings.EqualFold(u.Username, username) {
			return true
		}
	}
	return false
}

// CurrentUser returns the signed-in user as seen by this transaction.
func (tx *Tx) CurrentUser() (models.User, bool) {
	if tx.current == nil {
		return models.User{}, false
	}
	return tx.current.Clone(), true
}

// MutablePost returns a pointer to the post for in-place edits, or nil.
func (tx *Tx) MutablePost(id string) *models.Post {
	if indexPost(tx.posts, id) < 0 {
		return nil
	}
	tx.touch(CollectionPosts)
	return &tx.posts[indexPost(tx.posts, id)]
}

// PrependPost inserts a new post at the head of creation order.
func (tx *Tx) PrependPost(p models.Post) {
	tx.touch(CollectionPosts)
	tx.posts = append([]models.Post{p.Clone()}, tx.posts...)
}

// AppendUser adds a new user.
func (tx *Tx) AppendUser(u models.User) {
	tx.touch(CollectionUsers)
	tx.users = append(tx.users, u.Clone())
}

// ReplaceUser overwrites the stored user with the same id. The signed-in
// record follows when it refers to the same user. It reports false for
// unknown ids.
func (tx *Tx) ReplaceUser(u models.User) bool {
	i := indexUser(tx.users, u.ID)
	if i < 0 {
		return false
	}
	tx.touch(CollectionUsers)
	tx.users[i] = u.Clone()
	if tx.current != nil && tx.current.ID == u.ID {
		tx.SetCurrentUser(u)
	}
	return true
}

// AppendMessage adds a message to the end of the log.
func (tx *Tx) AppendMessage(m models.ChatMessage) {
	tx.touch(CollectionMessages)
	tx.messages = append(tx.messages, m)
}

// SetCurrentUser records the signed-in identity.
func (tx *Tx) SetCurrentUser(u models.User) {
	tx.touch(CollectionCurrentUser)
	c := u.Clone()
	tx.current = &c
}

// ClearCurrentUser ends the signed-in identity.
func (tx *Tx) ClearCurrentUser() {
	tx.touch(CollectionCurrentUser)
	tx.current = nil
}
