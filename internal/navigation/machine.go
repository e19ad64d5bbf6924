package navigation

import "sync"

// Machine owns one session's navigation State and turns intents into
// transitions. It is safe for concurrent use.
type Machine struct {
	mu    sync.Mutex
	state State
}

// NewMachine starts a machine on the home page.
func NewMachine() *Machine {
	return &Machine{state: Initial()}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) apply(to Page, flags Intent, set func(*State)) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := Transition(m.state, to, flags)
	if set != nil {
		set(&next)
	}
	m.state = next
	return next
}

// Navigate switches to page with the given intent flags.
func (m *Machine) Navigate(page Page, flags Intent) State {
	return m.apply(page, flags, nil)
}

// ViewProfile opens another user's profile.
func (m *Machine) ViewProfile(userID string) State {
	return m.apply(PageUserProfile, 0, func(s *State) { s.ViewedProfileID = userID })
}

// SelectSearchUser opens the profile of a user picked from search results.
func (m *Machine) SelectSearchUser(userID string) State {
	return m.ViewProfile(userID)
}

// SelectSearchPost returns to the feed with postID pinned on top.
func (m *Machine) SelectSearchPost(postID string) State {
	return m.apply(PageHome, 0, func(s *State) { s.FeaturedPostID = postID })
}

// StartChat opens the chat page on a conversation with userID.
func (m *Machine) StartChat(userID string) State {
	return m.apply(PageChat, 0, func(s *State) { s.ActiveChatUserID = userID })
}

// SelectConversation switches the open conversation without leaving chat.
func (m *Machine) SelectConversation(userID string) State {
	return m.StartChat(userID)
}

// OpenAuthor follows a click on a post author: one's own posts lead to the
// profile page, anybody else's to their user profile.
func (m *Machine) OpenAuthor(authorID, currentUserID string) State {
	if authorID == currentUserID {
		return m.Navigate(PageProfile, 0)
	}
	return m.ViewProfile(authorID)
}

// Reset returns to the initial state, as on sign-out.
func (m *Machine) Reset() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Initial()
	return m.state
}
