// Package search matches users and posts against a free-text query.
package search

import (
	"strings"

	"bitsconnect/internal/models"
)

// Results holds the matches for one query, in store order.
type Results struct {
	Users []models.User `json:"users"`
	Posts []models.Post `json:"posts"`
}

// Search returns every user whose name or username and every post whose
// content contains query, ignoring case. A blank query matches nothing;
// otherwise the query is matched as typed, surrounding spaces included.
func Search(query string, users []models.User, posts []models.Post) Results {
	res := Results{Users: []models.User{}, Posts: []models.Post{}}
	if strings.TrimSpace(query) == "" {
		return res
	}
	q := strings.ToLower(query)

	for _, u := range users {
		if contains(u.Profile.Name, q) || contains(u.Username, q) {
			res.Users = append(res.Users, u.Clone())
		}
	}
	for _, p := range posts {
		if contains(p.Content, q) {
			res.Posts = append(res.Posts, p.Clone())
		}
	}
	return res
}

func contains(field, lowered string) bool {
	return field != "" && strings.Contains(strings.ToLower(field), lowered)
}
