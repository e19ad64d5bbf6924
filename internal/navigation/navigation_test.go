package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func featured() State {
	return State{CurrentPage: PageHome, FeaturedPostID: "p1", ViewedProfileID: "u9", ActiveChatUserID: "u7"}
}

func TestTransition_ResetTable(t *testing.T) {
	tests := []struct {
		name  string
		to    Page
		flags Intent
		want  State
	}{
		{
			name: "chat clears featured",
			to:   PageChat,
			want: State{CurrentPage: PageChat, ViewedProfileID: "u9", ActiveChatUserID: "u7"},
		},
		{
			name: "home without logo keeps featured",
			to:   PageHome,
			want: State{CurrentPage: PageHome, FeaturedPostID: "p1", ViewedProfileID: "u9", ActiveChatUserID: "u7"},
		},
		{
			name:  "home from logo clears featured",
			to:    PageHome,
			flags: FromLogo,
			want:  State{CurrentPage: PageHome, ViewedProfileID: "u9", ActiveChatUserID: "u7"},
		},
		{
			name: "own profile clears viewed and featured",
			to:   PageProfile,
			want: State{CurrentPage: PageProfile, ActiveChatUserID: "u7"},
		},
		{
			name: "user profile clears featured",
			to:   PageUserProfile,
			want: State{CurrentPage: PageUserProfile, ViewedProfileID: "u9", ActiveChatUserID: "u7"},
		},
		{
			name: "search clears featured",
			to:   PageSearch,
			want: State{CurrentPage: PageSearch, ViewedProfileID: "u9", ActiveChatUserID: "u7"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Transition(featured(), tt.to, tt.flags))
		})
	}
}

func TestTransition_KeepsActiveChat(t *testing.T) {
	for _, from := range Pages {
		for _, to := range Pages {
			for _, flags := range []Intent{0, FromLogo} {
				s := featured()
				s.CurrentPage = from
				got := Transition(s, to, flags)
				assert.Equal(t, "u7", got.ActiveChatUserID, "%s -> %s flags=%d", from, to, flags)
			}
		}
	}
}

func TestTransition_DoesNotMutateInput(t *testing.T) {
	s := featured()
	_ = Transition(s, PageProfile, FromLogo)
	assert.Equal(t, featured(), s)
}

func TestParsePage(t *testing.T) {
	p, err := ParsePage("userProfile")
	require.NoError(t, err)
	assert.Equal(t, PageUserProfile, p)

	_, err = ParsePage("settings")
	assert.Error(t, err)
}

func TestMachine_SearchSelections(t *testing.T) {
	m := NewMachine()

	s := m.SelectSearchPost("p1")
	assert.Equal(t, State{CurrentPage: PageHome, FeaturedPostID: "p1"}, s)

	s = m.SelectSearchUser("u2")
	assert.Equal(t, State{CurrentPage: PageUserProfile, ViewedProfileID: "u2"}, s)

	s = m.SelectSearchPost("p2")
	assert.Equal(t, "p2", s.FeaturedPostID)
	assert.Equal(t, "u2", s.ViewedProfileID)
}

func TestMachine_StartChatFromProfile(t *testing.T) {
	m := NewMachine()
	m.SelectSearchPost("p1")
	m.ViewProfile("u2")

	s := m.StartChat("u2")

	assert.Equal(t, PageChat, s.CurrentPage)
	assert.Equal(t, "u2", s.ActiveChatUserID)
	assert.Empty(t, s.FeaturedPostID)

	s = m.SelectConversation("u3")
	assert.Equal(t, "u3", s.ActiveChatUserID)
	assert.Equal(t, s, m.State())
}

func TestMachine_OpenAuthor(t *testing.T) {
	m := NewMachine()

	s := m.OpenAuthor("u2", "me")
	assert.Equal(t, PageUserProfile, s.CurrentPage)
	assert.Equal(t, "u2", s.ViewedProfileID)

	s = m.OpenAuthor("me", "me")
	assert.Equal(t, PageProfile, s.CurrentPage)
	assert.Empty(t, s.ViewedProfileID)
}

func TestMachine_Reset(t *testing.T) {
	m := NewMachine()
	m.StartChat("u2")
	m.SelectSearchPost("p1")

	assert.Equal(t, Initial(), m.Reset())
	assert.Equal(t, Initial(), m.State())
}
