// Package navigation holds the page routing state machine. All coupling
// between navigation fields lives in one reset table consulted by Transition.
package navigation

import "fmt"

// Page is a top-level view.
type Page string

const (
	PageHome        Page = "home"
	PageChat        Page = "chat"
	PageProfile     Page = "profile"
	PageUserProfile Page = "userProfile"
	PageSearch      Page = "search"
)

// Pages lists every page.
var Pages = []Page{PageHome, PageChat, PageProfile, PageUserProfile, PageSearch}

// Valid reports whether p is a known page.
func (p Page) Valid() bool {
	for _, v := range Pages {
		if v == p {
			return true
		}
	}
	return false
}

// ParsePage converts a client-supplied page name.
func ParsePage(s string) (Page, error) {
	p := Page(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown page %q", s)
	}
	return p, nil
}

// Intent carries flags qualifying a navigation request.
type Intent uint8

const (
	// FromLogo marks a return-to-top request from the home brand element.
	FromLogo Intent = 1 << iota
)

// Has reports whether all flags in f are set.
func (i Intent) Has(f Intent) bool {
	return i&f == f
}

// State is the navigation state. Empty ids mean absent.
type State struct {
	CurrentPage      Page   `json:"currentPage"`
	ViewedProfileID  string `json:"viewedProfileId,omitempty"`
	FeaturedPostID   string `json:"featuredPostId,omitempty"`
	ActiveChatUserID string `json:"activeChatUserId,omitempty"`
}

// Initial is the state of a fresh session.
func Initial() State {
	return State{CurrentPage: PageHome}
}

// Field names a resettable State field. ActiveChatUserID is not one: it
// survives every transition and only Machine.Reset clears it.
type Field uint8

const (
	FieldViewedProfile Field = 1 << iota
	FieldFeaturedPost
)

// Any matches every page in a Rule.
const Any Page = "*"

// Rule clears Resets when a transition goes from From to To with at least
// the Flags set. To may be negated with NotTo.
type Rule struct {
	From   Page
	To     Page
	NotTo  bool
	Flags  Intent
	Resets Field
}

func (r Rule) matches(from, to Page, flags Intent) bool {
	if r.From != Any && r.From != from {
		return false
	}
	toMatch := r.To == Any || r.To == to
	if r.NotTo {
		toMatch = r.To != to
	}
	return toMatch && flags.Has(r.Flags)
}

// Rules is the complete reset table.
var Rules = []Rule{
	{From: Any, To: PageProfile, Resets: FieldViewedProfile},
	{From: Any, To: PageHome, NotTo: true, Resets: FieldFeaturedPost},
	{From: Any, To: PageHome, Flags: FromLogo, Resets: FieldFeaturedPost},
}

// Transition moves s to page to, applying every matching reset rule.
func Transition(s State, to Page, flags Intent) State {
	var resets Field
	for _, r := range Rules {
		if r.matches(s.CurrentPage, to, flags) {
			resets |= r.Resets
		}
	}
	if resets&FieldViewedProfile != 0 {
		s.ViewedProfileID = ""
	}
	if resets&FieldFeaturedPost != 0 {
		s.FeaturedPostID = ""
	}
	s.CurrentPage = to
	return s
}
