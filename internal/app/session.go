// Package app binds the store, the Mutation API and a navigation machine
// into the per-user view a client renders from.
package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"bitsconnect/internal/conversation"
	"bitsconnect/internal/feed"
	"bitsconnect/internal/media"
	"bitsconnect/internal/models"
	"bitsconnect/internal/navigation"
	"bitsconnect/internal/observability"
	"bitsconnect/internal/search"
	"bitsconnect/internal/service"
	"bitsconnect/internal/store"
)

// Services groups the mutation services a session drives.
type Services struct {
	Posts *service.PostService
	Chat  *service.ChatService
	Users *service.UserService
	Auth  *service.AuthService
}

// ErrNoActiveChat is returned when sending without an open conversation.
var ErrNoActiveChat = models.NewValidationError("No conversation is open")

// Session is one signed-in user's view. Derived views are recomputed from
// the store on every call.
type Session struct {
	userID string
	store  *store.Store
	svc    Services
	nav    *navigation.Machine
}

// NewSession creates a session for userID starting on the home page.
func NewSession(st *store.Store, svc Services, userID string) *Session {
	return &Session{userID: userID, store: st, svc: svc, nav: navigation.NewMachine()}
}

// UserID is the signed-in user.
func (s *Session) UserID() string { return s.userID }

// Me returns the signed-in user's record.
func (s *Session) Me() (models.User, bool) {
	return s.store.FindUserByID(s.userID)
}

// Navigation returns the current navigation state.
func (s *Session) Navigation() navigation.State {
	return s.nav.State()
}

// Feed ranks all posts, pinning the featured post when one is set.
func (s *Session) Feed() []models.Post {
	return feed.Rank(s.store.Posts(), s.nav.State().FeaturedPostID)
}

// Conversations lists chat partners in order of first contact.
func (s *Session) Conversations() []models.User {
	return conversation.For(s.userID, s.store.Messages(), s.store.Users())
}

// ActiveConversation returns the open thread, oldest first.
func (s *Session) ActiveConversation() []models.ChatMessage {
	partner := s.nav.State().ActiveChatUserID
	if partner == "" {
		return []models.ChatMessage{}
	}
	return s.Thread(partner)
}

// Thread returns the messages exchanged with partnerID, oldest first.
func (s *Session) Thread(partnerID string) []models.ChatMessage {
	return conversation.Between(s.userID, partnerID, s.store.Messages())
}

// Search matches users and posts against query.
func (s *Session) Search(query string) search.Results {
	return search.Search(query, s.store.Users(), s.store.Posts())
}

// ViewedProfile resolves the profile being viewed, if it still exists.
func (s *Session) ViewedProfile() (models.User, bool) {
	id := s.nav.State().ViewedProfileID
	if id == "" {
		return models.User{}, false
	}
	return s.store.FindUserByID(id)
}

// ProfilePosts lists a user's posts newest first.
func (s *Session) ProfilePosts(userID string) []models.Post {
	return s.svc.Posts.UserPosts(userID)
}

// Navigate switches page.
func (s *Session) Navigate(page navigation.Page, flags navigation.Intent) navigation.State {
	return s.nav.Navigate(page, flags)
}

// ViewProfile opens someone's profile; one's own id leads to the profile page.
func (s *Session) ViewProfile(userID string) navigation.State {
	return s.nav.OpenAuthor(userID, s.userID)
}

// SelectSearchUser opens a user picked from search results.
func (s *Session) SelectSearchUser(userID string) navigation.State {
	return s.nav.SelectSearchUser(userID)
}

// SelectSearchPost pins a post picked from search results on the feed.
func (s *Session) SelectSearchPost(postID string) navigation.State {
	return s.nav.SelectSearchPost(postID)
}

// MessageUser opens the chat with userID.
func (s *Session) MessageUser(userID string) navigation.State {
	return s.nav.StartChat(userID)
}

// SendToActive sends text to the open conversation.
func (s *Session) SendToActive(ctx context.Context, text string) (models.ChatMessage, error) {
	partner := s.nav.State().ActiveChatUserID
	if partner == "" {
		return models.ChatMessage{}, ErrNoActiveChat
	}
	return s.svc.Chat.SendMessage(ctx, s.userID, partner, text)
}

// SendTo sends text to receiverID and opens that conversation.
func (s *Session) SendTo(ctx context.Context, receiverID, text string) (models.ChatMessage, error) {
	msg, err := s.svc.Chat.SendMessage(ctx, s.userID, receiverID, text)
	if err != nil {
		return models.ChatMessage{}, err
	}
	s.nav.StartChat(receiverID)
	return msg, nil
}

// Like toggles the user's like on postID.
func (s *Session) Like(ctx context.Context, postID string) (models.Post, error) {
	return s.svc.Posts.ToggleLike(ctx, postID, s.userID)
}

// Dislike toggles the user's dislike on postID.
func (s *Session) Dislike(ctx context.Context, postID string) (models.Post, error) {
	return s.svc.Posts.ToggleDislike(ctx, postID, s.userID)
}

// Comment adds a comment as the signed-in user.
func (s *Session) Comment(ctx context.Context, postID, text string) (models.Comment, error) {
	return s.svc.Posts.AddComment(ctx, postID, s.userID, text)
}

// Publish creates a post from text and uploaded files.
func (s *Session) Publish(ctx context.Context, content string, uploads []media.Upload) (models.Post, error) {
	if len(uploads) == 0 {
		return s.svc.Posts.CreatePost(ctx, service.CreatePostInput{AuthorID: s.userID, Content: content})
	}
	return s.svc.Posts.CreatePostWithUploads(ctx, s.userID, content, uploads)
}

// UpdateProfile patches the signed-in user's profile.
func (s *Session) UpdateProfile(ctx context.Context, patch service.ProfilePatch) (models.User, error) {
	return s.svc.Users.UpdateProfile(ctx, s.userID, patch)
}

// Stage reports which part of the app this user may reach.
func (s *Session) Stage() service.Stage {
	u, ok := s.Me()
	return service.StageFor(u, ok)
}

// Registry hands out one Session per signed-in user. Sessions nobody has
// used for a while can be dropped with Prune or Sweep; the next request
// starts a fresh one on the home page.
type Registry struct {
	store    *store.Store
	svc      Services
	now      func() time.Time
	mu       sync.Mutex
	sessions map[string]*registryEntry
}

type registryEntry struct {
	session  *Session
	lastSeen time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(st *store.Store, svc Services) *Registry {
	return &Registry{store: st, svc: svc, now: time.Now, sessions: make(map[string]*registryEntry)}
}

// Session returns the session of userID, creating it on first use.
func (r *Registry) Session(userID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[userID]
	if !ok {
		e = &registryEntry{session: NewSession(r.store, r.svc, userID)}
		r.sessions[userID] = e
	}
	e.lastSeen = r.now()
	return e.session
}

// Len reports how many sessions are held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Prune drops sessions not used within maxIdle and returns how many it
// dropped. Signed-in identity in the store is untouched.
func (r *Registry) Prune(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Sweep calls Prune every interval until ctx is done.
func (r *Registry) Sweep(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Prune(maxIdle); n > 0 {
				observability.Logger.DebugContext(ctx, "pruned idle sessions", slog.Int("count", n))
			}
		}
	}
}

// End signs userID out and drops its navigation state.
func (r *Registry) End(ctx context.Context, userID string) error {
	r.mu.Lock()
	e, ok := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()
	if ok {
		e.session.nav.Reset()
	}
	if r.svc.Auth == nil {
		return nil
	}
	return r.svc.Auth.Logout(ctx, userID)
}
