package models

import "time"

// MaxPostMedia is the most media items a single post may carry.
const MaxPostMedia = 8

// MediaType distinguishes images from videos.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// PostMedia is one attached media item.
type PostMedia struct {
	URL  string    `json:"url" validate:"required,uri"`
	Type MediaType `json:"type" validate:"oneof=image video"`
}

// Comment is an entry in a post's comment thread.
type Comment struct {
	ID        string    `json:"id"`
	Seq       uint64    `json:"seq"`
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Post represents a post in the feed. Likes and Dislikes hold user ids and
// never share an id.
type Post struct {
	ID        string      `json:"id"`
	Seq       uint64      `json:"seq"`
	AuthorID  string      `json:"authorId"`
	Content   string      `json:"content,omitempty"`
	Media     []PostMedia `json:"media,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Likes     []string    `json:"likes"`
	Dislikes  []string    `json:"dislikes"`
	Comments  []Comment   `json:"comments"`
}

// Score is the net vote count used for feed ranking.
func (p Post) Score() int {
	return len(p.Likes) - len(p.Dislikes)
}

// LikedBy reports whether userID is in the post's likes.
func (p Post) LikedBy(userID string) bool {
	return containsID(p.Likes, userID)
}

// DislikedBy reports whether userID is in the post's dislikes.
func (p Post) DislikedBy(userID string) bool {
	return containsID(p.Dislikes, userID)
}

// Clone returns a deep copy of the post.
func (p Post) Clone() Post {
	out := p
	out.Media = append([]PostMedia(nil), p.Media...)
	out.Likes = append([]string{}, p.Likes...)
	out.Dislikes = append([]string{}, p.Dislikes...)
	out.Comments = append([]Comment{}, p.Comments...)
	return out
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
