// Package feed ranks posts for the home view.
package feed

import (
	"sort"

	"bitsconnect/internal/models"
)

// Score is the net vote count of a post.
func Score(p models.Post) int {
	return p.Score()
}

// Rank orders posts by score descending, then newest first. When featuredID
// names a post in the set, that post is moved to the front regardless of its
// score. The input slice is left untouched.
func Rank(posts []models.Post, featuredID string) []models.Post {
	out := make([]models.Post, 0, len(posts))
	var featured *models.Post
	for i := range posts {
		if featuredID != "" && featured == nil && posts[i].ID == featuredID {
			p := posts[i]
			featured = &p
			continue
		}
		out = append(out, posts[i])
	}

	sort.SliceStable(out, func(i, j int) bool {
		return rankedBefore(out[i], out[j])
	})

	if featured != nil {
		out = append([]models.Post{*featured}, out...)
	}
	return out
}

func rankedBefore(a, b models.Post) bool {
	if sa, sb := a.Score(), b.Score(); sa != sb {
		return sa > sb
	}
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.Seq > b.Seq
}

// CommentsInOrder returns a post's comments oldest first.
func CommentsInOrder(p models.Post) []models.Comment {
	out := append([]models.Comment{}, p.Comments...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// ByAuthor returns the posts written by authorID, newest first.
func ByAuthor(posts []models.Post, authorID string) []models.Post {
	out := []models.Post{}
	for _, p := range posts {
		if p.AuthorID == authorID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].Seq > out[j].Seq
	})
	return out
}
