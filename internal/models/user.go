// Package models contains data structures for the application's domain models.
package models

import "strings"

// Campus is one of the fixed institutional locations.
type Campus string

const (
	CampusPilani    Campus = "Pilani"
	CampusGoa       Campus = "Goa"
	CampusHyderabad Campus = "Hyderabad"
)

// Campuses lists every valid campus in display order.
var Campuses = []Campus{CampusPilani, CampusGoa, CampusHyderabad}

// Valid reports whether c is a known campus.
func (c Campus) Valid() bool {
	for _, known := range Campuses {
		if c == known {
			return true
		}
	}
	return false
}

// RelationshipStatus is the optional relationship field shown on profiles.
type RelationshipStatus string

const (
	RelationshipSingle         RelationshipStatus = "Single"
	RelationshipInRelationship RelationshipStatus = "In a relationship"
	RelationshipComplicated    RelationshipStatus = "It's complicated"
	RelationshipPreferNotToSay RelationshipStatus = "Prefer not to say"
)

// RelationshipStatuses lists every valid relationship status.
var RelationshipStatuses = []RelationshipStatus{
	RelationshipSingle,
	RelationshipInRelationship,
	RelationshipComplicated,
	RelationshipPreferNotToSay,
}

// Valid reports whether s is a known relationship status.
func (s RelationshipStatus) Valid() bool {
	for _, known := range RelationshipStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// UserProfile holds the descriptive fields a user fills in during setup.
type UserProfile struct {
	Name               string             `json:"name"`
	AdmissionYear      int                `json:"admissionYear" validate:"gte=0"`
	Campus             Campus             `json:"campus,omitempty" validate:"omitempty,campus"`
	Branch             string             `json:"branch,omitempty" validate:"max=100"`
	DormBuilding       string             `json:"dormBuilding,omitempty" validate:"max=100"`
	DormRoom           string             `json:"dormRoom,omitempty" validate:"max=20"`
	DiningHall         string             `json:"diningHall,omitempty" validate:"max=100"`
	Clubs              []string           `json:"clubs,omitempty"`
	RelationshipStatus RelationshipStatus `json:"relationshipStatus,omitempty" validate:"omitempty,relationship"`
	Bio                string             `json:"bio,omitempty" validate:"max=500"`
	Avatar             string             `json:"avatar" validate:"omitempty,uri"`
	Banner             string             `json:"banner,omitempty" validate:"omitempty,uri"`
}

// IsComplete reports whether the profile passes the completeness gate
// (name and admission year both present).
func (p UserProfile) IsComplete() bool {
	return strings.TrimSpace(p.Name) != "" && p.AdmissionYear > 0
}

// User represents an account in the store.
type User struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Profile  UserProfile `json:"profile"`
}

// Clone returns a deep copy of the user.
func (u User) Clone() User {
	out := u
	if u.Profile.Clubs != nil {
		out.Profile.Clubs = append([]string(nil), u.Profile.Clubs...)
	}
	return out
}

// DisplayName falls back to the username when the profile has no name yet.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.Profile.Name); name != "" {
		return name
	}
	return u.Username
}
