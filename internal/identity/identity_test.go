package identity

import (
	"context"
	"testing"
	"time"

	"bitsconnect/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteCredentials(t *testing.T) *GormCredentials {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Credential{}))
	return NewGormCredentials(db)
}

func newRedisCredentials(t *testing.T) *RedisCredentials {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCredentials(client, "")
}

func credentialStores(t *testing.T) map[string]CredentialStore {
	return map[string]CredentialStore{
		"memory": NewMemoryCredentials(),
		"gorm":   newSQLiteCredentials(t),
		"redis":  newRedisCredentials(t),
	}
}

func TestLocal_RegisterThenAuthenticate(t *testing.T) {
	for name, store := range credentialStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := NewLocal(store, bcrypt.MinCost)

			registered, err := p.Register(ctx, "X@hyderabad.bits-pilani.ac.in", "secret1")
			require.NoError(t, err)
			require.NotEmpty(t, registered.ID)
			assert.Equal(t, "X@hyderabad.bits-pilani.ac.in", registered.Email)

			got, err := p.Authenticate(ctx, "x@HYDERABAD.bits-pilani.ac.in", "secret1")
			require.NoError(t, err)
			assert.Equal(t, registered.ID, got.ID)

			_, err = p.Authenticate(ctx, "x@hyderabad.bits-pilani.ac.in", "wrong")
			assert.True(t, models.IsAuth(err))

			_, err = p.Authenticate(ctx, "nobody@goa.bits-pilani.ac.in", "secret1")
			assert.True(t, models.IsAuth(err))

			_, err = p.Register(ctx, "x@hyderabad.bits-pilani.ac.in", "other12")
			assert.True(t, models.IsConflict(err))

			assert.NoError(t, p.EndSession(ctx))
		})
	}
}

func TestLocal_UnregisterFreesEmail(t *testing.T) {
	for name, store := range credentialStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := NewLocal(store, bcrypt.MinCost)
			registered, err := p.Register(ctx, "y@goa.bits-pilani.ac.in", "secret1")
			require.NoError(t, err)

			require.NoError(t, p.Unregister(ctx, models.User{ID: "someone-else", Email: registered.Email}))
			_, err = p.Authenticate(ctx, "y@goa.bits-pilani.ac.in", "secret1")
			require.NoError(t, err, "a foreign user id must not remove the credential")

			require.NoError(t, p.Unregister(ctx, registered))
			_, err = p.Authenticate(ctx, "y@goa.bits-pilani.ac.in", "secret1")
			assert.True(t, models.IsAuth(err))

			again, err := p.Register(ctx, "Y@goa.bits-pilani.ac.in", "secret2")
			require.NoError(t, err)
			assert.NotEqual(t, registered.ID, again.ID)

			assert.NoError(t, p.Unregister(ctx, models.User{ID: "ghost", Email: "ghost@goa.bits-pilani.ac.in"}))
		})
	}
}

func revocationLists(t *testing.T) map[string]Revocations {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return map[string]Revocations{
		"memory": NewMemoryRevocations(),
		"redis":  NewRedisRevocations(client, ""),
	}
}

func TestRevocations(t *testing.T) {
	for name, list := range revocationLists(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			revoked, err := list.Revoked(ctx, "jti-1")
			require.NoError(t, err)
			assert.False(t, revoked)

			require.NoError(t, list.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
			revoked, err = list.Revoked(ctx, "jti-1")
			require.NoError(t, err)
			assert.True(t, revoked)

			require.NoError(t, list.Revoke(ctx, "jti-old", time.Now().Add(-time.Minute)))
			revoked, err = list.Revoked(ctx, "jti-old")
			require.NoError(t, err)
			assert.False(t, revoked)
		})
	}
}

func TestRedisRevocations_ExpireWithToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	list := NewRedisRevocations(client, "")
	ctx := context.Background()

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	assert.True(t, mr.Exists("blacklist:jti-1"))
	ttl := mr.TTL("blacklist:jti-1")
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "ttl %s", ttl)

	mr.FastForward(time.Hour + time.Second)
	revoked, err := list.Revoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokens_IssueAndParse(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	raw, err := tokens.Issue("user-1", "alice")
	require.NoError(t, err)

	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.NotEmpty(t, claims.TokenID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)

	other, err := tokens.Issue("user-1", "alice")
	require.NoError(t, err)
	otherClaims, err := tokens.Parse(other)
	require.NoError(t, err)
	assert.NotEqual(t, claims.TokenID, otherClaims.TokenID)
}

func TestTokens_RejectsForeignAndExpired(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	raw, err := tokens.Issue("user-1", "alice")
	require.NoError(t, err)

	_, err = NewTokens("other-secret", time.Hour).Parse(raw)
	assert.Error(t, err)

	expired := NewTokens("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.Parse(raw)
	assert.Error(t, err)

	_, err = tokens.Parse("not-a-token")
	assert.Error(t, err)
}

func TestTokens_MissingSecret(t *testing.T) {
	_, err := NewTokens("", 0).Issue("user-1", "alice")
	assert.Error(t, err)
}

func TestRedisCredentials_KeepsHash(t *testing.T) {
	creds := newRedisCredentials(t)
	ctx := context.Background()

	got, err := creds.Get(ctx, "absent@goa.bits-pilani.ac.in")
	require.NoError(t, err)
	assert.Nil(t, got)

	cred := &models.Credential{Email: "a@goa.bits-pilani.ac.in", UserID: "u1", PasswordHash: "hash"}
	require.NoError(t, creds.Create(ctx, cred))
	assert.ErrorIs(t, creds.Create(ctx, cred), ErrCredentialExists)

	got, err = creds.Get(ctx, cred.Email)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Equal(t, "u1", got.UserID)
}
