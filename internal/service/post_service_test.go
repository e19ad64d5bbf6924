package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"bitsconnect/internal/media"
	"bitsconnect/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_ToggleLikeTwiceRestores(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	a := f.seedUser(t, "a", "alice")
	b := f.seedUser(t, "b", "bob")
	p := f.seedPost(t, a.ID, "hello")

	_, err := f.posts.ToggleDislike(ctx, p.ID, a.ID)
	require.NoError(t, err)
	before, _ := f.store.FindPostByID(p.ID)

	for _, toggle := range []func(context.Context, string, string) (models.Post, error){f.posts.ToggleLike, f.posts.ToggleDislike} {
		_, err := toggle(ctx, p.ID, b.ID)
		require.NoError(t, err)
		_, err = toggle(ctx, p.ID, b.ID)
		require.NoError(t, err)

		after, _ := f.store.FindPostByID(p.ID)
		assert.ElementsMatch(t, before.Likes, after.Likes)
		assert.ElementsMatch(t, before.Dislikes, after.Dislikes)
	}
}

func TestPostService_VotesMutuallyExclusive(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	author := f.seedUser(t, "author", "author")
	var userIDs []string
	for i := 0; i < 4; i++ {
		userIDs = append(userIDs, f.seedUser(t, fmt.Sprintf("u%d", i), fmt.Sprintf("user%d", i)).ID)
	}
	postIDs := []string{f.seedPost(t, author.ID, "one").ID, f.seedPost(t, author.ID, "two").ID}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		postID := postIDs[rng.Intn(len(postIDs))]
		userID := userIDs[rng.Intn(len(userIDs))]
		var err error
		if rng.Intn(2) == 0 {
			_, err = f.posts.ToggleLike(ctx, postID, userID)
		} else {
			_, err = f.posts.ToggleDislike(ctx, postID, userID)
		}
		require.NoError(t, err)

		for _, p := range f.store.Posts() {
			for _, id := range p.Likes {
				assert.NotContains(t, p.Dislikes, id)
			}
		}
	}
}

func TestPostService_EndToEndLikeThenDislike(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	a, err := f.users.CreateUser(ctx, "x@hyderabad.bits-pilani.ac.in", "userA", "secret1")
	require.NoError(t, err)
	b, err := f.users.CreateUser(ctx, "y@goa.bits-pilani.ac.in", "userB", "secret2")
	require.NoError(t, err)

	p, err := f.posts.CreatePost(ctx, CreatePostInput{AuthorID: a.ID, Content: "hello"})
	require.NoError(t, err)

	liked, err := f.posts.ToggleLike(ctx, p.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, liked.Likes)

	disliked, err := f.posts.ToggleDislike(ctx, p.ID, b.ID)
	require.NoError(t, err)
	assert.Empty(t, disliked.Likes)
	assert.Equal(t, []string{b.ID}, disliked.Dislikes)

	stored, ok := f.store.FindPostByID(p.ID)
	require.True(t, ok)
	assert.Empty(t, stored.Likes)
	assert.Equal(t, []string{b.ID}, stored.Dislikes)
}

func TestPostService_ToggleErrors(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	a := f.seedUser(t, "a", "alice")
	p := f.seedPost(t, a.ID, "hi")

	_, err := f.posts.ToggleLike(ctx, "missing", a.ID)
	assertCode(t, err, models.CodeNotFound)

	_, err = f.posts.ToggleDislike(ctx, p.ID, "ghost")
	assertValidationError(t, err)
}

func TestPostService_AddComment(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	a := f.seedUser(t, "a", "alice")
	p := f.seedPost(t, a.ID, "hi")

	first, err := f.posts.AddComment(ctx, p.ID, a.ID, "  nice  ")
	require.NoError(t, err)
	assert.Equal(t, "nice", first.Text)
	second, err := f.posts.AddComment(ctx, p.ID, a.ID, "again")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Greater(t, second.Seq, first.Seq)
	assert.False(t, second.Timestamp.Before(first.Timestamp))

	stored, _ := f.store.FindPostByID(p.ID)
	require.Len(t, stored.Comments, 2)
	assert.Equal(t, first.ID, stored.Comments[0].ID)

	_, err = f.posts.AddComment(ctx, p.ID, a.ID, "   ")
	assertValidationError(t, err)
	_, err = f.posts.AddComment(ctx, "missing", a.ID, "text")
	assertCode(t, err, models.CodeNotFound)

	stored, _ = f.store.FindPostByID(p.ID)
	assert.Len(t, stored.Comments, 2)
}

func TestPostService_CreatePostValidation(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	a := f.seedUser(t, "a", "alice")

	tests := []struct {
		name string
		in   CreatePostInput
	}{
		{"empty content and media", CreatePostInput{AuthorID: a.ID, Content: "   "}},
		{"unknown author", CreatePostInput{AuthorID: "ghost", Content: "hi"}},
		{"bad media url", CreatePostInput{AuthorID: a.ID, Media: []models.PostMedia{{URL: "not a url", Type: models.MediaImage}}}},
		{"bad media type", CreatePostInput{AuthorID: a.ID, Media: []models.PostMedia{{URL: "https://x.test/a", Type: "audio"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.posts.CreatePost(ctx, tt.in)
			assertValidationError(t, err)
		})
	}
	assert.Empty(t, f.store.Posts())
}

func TestPostService_CreatePostMediaOnlyDedupedAndCapped(t *testing.T) {
	f := newFixture(t, nil, nil)
	a := f.seedUser(t, "a", "alice")

	var items []models.PostMedia
	for i := 0; i < 12; i++ {
		items = append(items, models.PostMedia{URL: fmt.Sprintf("https://cdn.test/%d.webp", i%10), Type: models.MediaImage})
	}

	p, err := f.posts.CreatePost(context.Background(), CreatePostInput{AuthorID: a.ID, Media: items})
	require.NoError(t, err)

	assert.Empty(t, p.Content)
	require.Len(t, p.Media, models.MaxPostMedia)
	assert.Equal(t, "https://cdn.test/0.webp", p.Media[0].URL)
	assert.Equal(t, "https://cdn.test/7.webp", p.Media[7].URL)
}

func TestPostService_NewPostsAtHead(t *testing.T) {
	f := newFixture(t, nil, nil)
	a := f.seedUser(t, "a", "alice")
	first := f.seedPost(t, a.ID, "first")
	second := f.seedPost(t, a.ID, "second")

	posts := f.store.Posts()
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)
	assert.Greater(t, second.Seq, first.Seq)

	mine := f.posts.UserPosts(a.ID)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
}

func TestPostService_CreatePostWithUploadsDropsFailures(t *testing.T) {
	f := newFixture(t, nil, nil)
	a := f.seedUser(t, "a", "alice")
	f.storage.uploadFn = func(_ context.Context, u media.Upload) (string, error) {
		if u.Name == "broken.png" {
			return "", models.NewStorageError("disk full", errors.New("ENOSPC"))
		}
		return "https://cdn.test/" + u.Name, nil
	}

	uploads := []media.Upload{
		{Name: "a.png", ContentType: "image/png", Content: []byte{1}},
		{Name: "a.png", ContentType: "image/png", Content: []byte{2}},
		{Name: "broken.png", ContentType: "image/png", Content: []byte{3}},
		{Name: "doc.pdf", ContentType: "application/pdf", Content: []byte{4}},
		{Name: "clip.mp4", ContentType: "video/mp4", Content: []byte{5}},
	}

	p, err := f.posts.CreatePostWithUploads(context.Background(), a.ID, "", uploads)
	require.NoError(t, err)

	assert.Equal(t, []models.PostMedia{
		{URL: "https://cdn.test/a.png", Type: models.MediaImage},
		{URL: "https://cdn.test/clip.mp4", Type: models.MediaVideo},
	}, p.Media)
	assert.Equal(t, 3, f.storage.calls)
}

func TestPostService_CreatePostWithUploadsAllFailed(t *testing.T) {
	f := newFixture(t, nil, nil)
	a := f.seedUser(t, "a", "alice")
	f.storage.uploadFn = func(context.Context, media.Upload) (string, error) {
		return "", models.NewStorageError("offline", nil)
	}

	_, err := f.posts.CreatePostWithUploads(context.Background(), a.ID, " ", []media.Upload{{Name: "a.png", ContentType: "image/png"}})

	assertValidationError(t, err)
	assert.Empty(t, f.store.Posts())
}
