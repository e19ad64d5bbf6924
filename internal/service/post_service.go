package service

import (
	"context"
	"strings"

	"bitsconnect/internal/feed"
	"bitsconnect/internal/media"
	"bitsconnect/internal/models"
	"bitsconnect/internal/store"

	"github.com/google/uuid"
)

type PostService struct {
	store   *store.Store
	storage media.Storage
}

type CreatePostInput struct {
	AuthorID string
	Content  string
	Media    []models.PostMedia
}

func NewPostService(st *store.Store, storage media.Storage) *PostService {
	return &PostService{store: st, storage: storage}
}

// ToggleLike adds userID to the post's likes, or removes it when present.
// Adding a like withdraws any dislike by the same user.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID string) (models.Post, error) {
	return s.toggleVote(ctx, OpToggleLike, postID, userID, true)
}

// ToggleDislike is the mirror image of ToggleLike.
func (s *PostService) ToggleDislike(ctx context.Context, postID, userID string) (models.Post, error) {
	return s.toggleVote(ctx, OpToggleDislike, postID, userID, false)
}

func (s *PostService) toggleVote(ctx context.Context, op, postID, userID string, like bool) (models.Post, error) {
	var out models.Post
	err := s.store.Update(op, func(tx *store.Tx) error {
		if _, ok := tx.User(userID); !ok {
			return models.NewValidationError("Unknown user")
		}
		p := tx.MutablePost(postID)
		if p == nil {
			return models.NewNotFoundError("Post", postID)
		}
		own, other := &p.Likes, &p.Dislikes
		if !like {
			own, other = other, own
		}
		if containsID(*own, userID) {
			*own = removeID(*own, userID)
		} else {
			*own = append(*own, userID)
			*other = removeID(*other, userID)
		}
		out = p.Clone()
		return nil
	})
	observe(ctx, op, err, map[string]interface{}{"post_id": postID, "user_id": userID})
	if err != nil {
		return models.Post{}, err
	}
	return out, nil
}

// AddComment appends a comment to the post's thread.
func (s *PostService) AddComment(ctx context.Context, postID, authorID, text string) (models.Comment, error) {
	text = strings.TrimSpace(text)
	var out models.Comment
	err := s.store.Update(OpAddComment, func(tx *store.Tx) error {
		if text == "" {
			return models.NewValidationError("Comment cannot be empty")
		}
		if _, ok := tx.User(authorID); !ok {
			return models.NewValidationError("Unknown author")
		}
		p := tx.MutablePost(postID)
		if p == nil {
			return models.NewNotFoundError("Post", postID)
		}
		out = models.Comment{
			ID:        uuid.NewString(),
			Seq:       tx.NextSeq(),
			AuthorID:  authorID,
			Text:      text,
			Timestamp: tx.Now(),
		}
		p.Comments = append(p.Comments, out)
		return nil
	})
	observe(ctx, OpAddComment, err, map[string]interface{}{"post_id": postID})
	if err != nil {
		return models.Comment{}, err
	}
	return out, nil
}

// CreatePost publishes a post at the head of creation order. Media is
// de-duplicated by URL and capped at MaxPostMedia.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (models.Post, error) {
	content := strings.TrimSpace(in.Content)
	mediaItems := dedupeMedia(in.Media)

	var out models.Post
	err := s.store.Update(OpCreatePost, func(tx *store.Tx) error {
		if content == "" && len(mediaItems) == 0 {
			return models.NewValidationError("Post needs text or media")
		}
		for _, m := range mediaItems {
			if err := models.ValidateStruct(m); err != nil {
				return err
			}
		}
		if _, ok := tx.User(in.AuthorID); !ok {
			return models.NewValidationError("Unknown author")
		}
		out = models.Post{
			ID:        uuid.NewString(),
			Seq:       tx.NextSeq(),
			AuthorID:  in.AuthorID,
			Content:   content,
			Media:     mediaItems,
			Timestamp: tx.Now(),
			Likes:     []string{},
			Dislikes:  []string{},
			Comments:  []models.Comment{},
		}
		tx.PrependPost(out)
		return nil
	})
	observe(ctx, OpCreatePost, err, map[string]interface{}{"author_id": in.AuthorID, "media": len(mediaItems)})
	if err != nil {
		return models.Post{}, err
	}
	return out, nil
}

// CreatePostWithUploads uploads the selected files and publishes the post.
// Files that fail to upload are logged and left out.
func (s *PostService) CreatePostWithUploads(ctx context.Context, authorID, content string, uploads []media.Upload) (models.Post, error) {
	sel := NewMediaSelection()
	sel.Add(uploads...)

	var items []models.PostMedia
	for _, u := range sel.Items() {
		kind, err := u.MediaType()
		if err != nil {
			logger.LogRejected(ctx, OpCreatePost, err)
			continue
		}
		if s.storage == nil {
			logger.LogError(ctx, models.NewStorageError("Media storage not configured", nil), OpCreatePost, nil)
			break
		}
		uri, err := s.storage.Upload(ctx, u)
		if err != nil {
			logger.LogError(ctx, err, OpCreatePost, map[string]interface{}{"file": u.Name})
			continue
		}
		items = append(items, models.PostMedia{URL: uri, Type: kind})
	}
	return s.CreatePost(ctx, CreatePostInput{AuthorID: authorID, Content: content, Media: items})
}

// UserPosts returns the posts written by userID, newest first.
func (s *PostService) UserPosts(userID string) []models.Post {
	return feed.ByAuthor(s.store.Posts(), userID)
}

func dedupeMedia(in []models.PostMedia) []models.PostMedia {
	out := make([]models.PostMedia, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, m := range in {
		if _, ok := seen[m.URL]; ok {
			continue
		}
		seen[m.URL] = struct{}{}
		out = append(out, m)
		if len(out) == models.MaxPostMedia {
			break
		}
	}
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

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
