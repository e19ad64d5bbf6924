package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bitsconnect/internal/config"
	"bitsconnect/internal/identity"
	"bitsconnect/internal/media"
	"bitsconnect/internal/models"
	"bitsconnect/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// storageStub is a stub for media.Storage.
type storageStub struct {
	uploadFn func(context.Context, media.Upload) (string, error)
	calls    int
}

func (s *storageStub) Upload(ctx context.Context, u media.Upload) (string, error) {
	s.calls++
	return s.uploadFn(ctx, u)
}

func noopStorage() *storageStub {
	return &storageStub{
		uploadFn: func(_ context.Context, u media.Upload) (string, error) {
			return "https://cdn.test/" + u.Name, nil
		},
	}
}

// providerStub is a stub for identity.Provider.
type providerStub struct {
	authenticateFn func(context.Context, string, string) (models.User, error)
	registerFn     func(context.Context, string, string) (models.User, error)
	unregisterFn   func(context.Context, models.User) error
	endSessionFn   func(context.Context) error
}

func (p *providerStub) Authenticate(ctx context.Context, email, credential string) (models.User, error) {
	return p.authenticateFn(ctx, email, credential)
}
func (p *providerStub) Register(ctx context.Context, email, credential string) (models.User, error) {
	return p.registerFn(ctx, email, credential)
}
func (p *providerStub) Unregister(ctx context.Context, u models.User) error {
	return p.unregisterFn(ctx, u)
}
func (p *providerStub) EndSession(ctx context.Context) error {
	return p.endSessionFn(ctx)
}

type fixture struct {
	store   *store.Store
	storage *storageStub
	posts   *PostService
	chat    *ChatService
	users   *UserService
	auth    *AuthService
}

func newFixture(t *testing.T, cfg *config.Config, provider identity.Provider) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{AllowSelfMessages: true}
	}
	if provider == nil {
		provider = identity.NewLocal(identity.NewMemoryCredentials(), bcrypt.MinCost)
	}
	clock := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	st := store.New(store.WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	storage := noopStorage()
	users := NewUserService(st, provider, storage, cfg)
	return &fixture{
		store:   st,
		storage: storage,
		posts:   NewPostService(st, storage),
		chat:    NewChatService(st, cfg.AllowSelfMessages),
		users:   users,
		auth:    NewAuthService(st, users, provider),
	}
}

// seedUser inserts a complete user straight into the store.
func (f *fixture) seedUser(t *testing.T, id, username string) models.User {
	t.Helper()
	u := models.User{
		ID:       id,
		Username: username,
		Email:    username + "@pilani.bits-pilani.ac.in",
		Profile:  models.UserProfile{Name: username, AdmissionYear: 2022, Campus: models.CampusPilani},
	}
	require.NoError(t, f.store.Update("seed", func(tx *store.Tx) error {
		tx.AppendUser(u)
		return nil
	}))
	return u
}

func (f *fixture) seedPost(t *testing.T, authorID, content string) models.Post {
	t.Helper()
	p, err := f.posts.CreatePost(context.Background(), CreatePostInput{AuthorID: authorID, Content: content})
	require.NoError(t, err)
	return p
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
