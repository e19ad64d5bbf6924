package seed

import (
	"context"
	"testing"

	"bitsconnect/internal/app"
	"bitsconnect/internal/config"
	"bitsconnect/internal/conversation"
	"bitsconnect/internal/identity"
	"bitsconnect/internal/media"
	"bitsconnect/internal/models"
	"bitsconnect/internal/service"
	"bitsconnect/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type noStorage struct{}

func (noStorage) Upload(context.Context, media.Upload) (string, error) {
	return "", nil
}

func newServices(st *store.Store) app.Services {
	provider := identity.NewLocal(identity.NewMemoryCredentials(), bcrypt.MinCost)
	users := service.NewUserService(st, provider, noStorage{}, &config.Config{})
	return app.Services{
		Posts: service.NewPostService(st, noStorage{}),
		Chat:  service.NewChatService(st, false),
		Users: users,
		Auth:  service.NewAuthService(st, users, provider),
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "oconnor", slug("O'Connor", 12))
	assert.Equal(t, "abc", slug("Abcdef", 3))
	assert.Equal(t, "user", slug("   ", 5))
}

func TestSeeder_Run(t *testing.T) {
	st := store.New()
	svc := newServices(st)
	opts := Options{NumUsers: 6, NumPosts: 10, NumComments: 15, NumMessages: 12, RandomSeed: 42}

	sum, err := NewSeeder(svc, opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, sum.Users)
	assert.Equal(t, 10, sum.Posts)
	assert.Equal(t, 15, sum.Comments)
	assert.Equal(t, 12, sum.Messages)

	snap := st.Snapshot()
	require.Len(t, snap.Users, 6)
	require.Len(t, snap.Posts, 10)
	require.Len(t, snap.Messages, 12)
	assert.Nil(t, snap.CurrentUser)

	comments := 0
	for _, p := range snap.Posts {
		comments += len(p.Comments)
		for _, id := range p.Likes {
			assert.NotContains(t, p.Dislikes, id)
		}
	}
	assert.Equal(t, 15, comments)

	for _, u := range snap.Users {
		assert.True(t, u.Profile.IsComplete(), u.Username)
		for _, club := range u.Profile.Clubs {
			assert.True(t, models.DefaultCatalog.IsClubOf(u.Profile.Campus, club), club)
		}
	}
	for _, m := range snap.Messages {
		assert.NotEqual(t, m.SenderID, m.ReceiverID)
	}
	assert.NotEmpty(t, conversation.Partners(snap.Messages[0].SenderID, snap.Messages))
}

func TestSeeder_AccountsCanLogIn(t *testing.T) {
	st := store.New()
	svc := newServices(st)

	_, err := NewSeeder(svc, Options{NumUsers: 2, RandomSeed: 7}).Run(context.Background())
	require.NoError(t, err)

	u := st.Users()[1]
	got, err := svc.Auth.Login(context.Background(), u.Email, DefaultPassword)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, service.StageMain, svc.Auth.Gate())
}

func TestSeeder_NoUsers(t *testing.T) {
	st := store.New()
	sum, err := NewSeeder(newServices(st), Options{NumPosts: 5}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
	assert.Empty(t, st.Posts())
}
