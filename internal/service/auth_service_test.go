package service

import (
	"context"
	"errors"
	"testing"

	"bitsconnect/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_SignUpPasswordMismatch(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.auth.SignUp(context.Background(), SignUpInput{
		Email: "x@goa.bits-pilani.ac.in", Username: "fresh", Password: "secret1", ConfirmPassword: "secret2",
	})

	assertValidationError(t, err)
	assert.Empty(t, f.store.Users())
	assert.Equal(t, StageAuth, f.auth.Gate())
}

func TestAuthService_SignUpLogoutLogin(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	created, err := f.auth.SignUp(ctx, SignUpInput{
		Email: "x@goa.bits-pilani.ac.in", Username: "fresh", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, StageProfileSetup, f.auth.Gate())

	require.NoError(t, f.auth.Logout(ctx, created.ID))
	_, ok := f.store.CurrentUser()
	assert.False(t, ok)
	assert.Equal(t, StageAuth, f.auth.Gate())

	_, err = f.auth.Login(ctx, "x@goa.bits-pilani.ac.in", "wrong")
	assertCode(t, err, models.CodeAuth)
	assert.Equal(t, StageAuth, f.auth.Gate())

	loggedIn, err := f.auth.Login(ctx, "X@GOA.bits-pilani.ac.in", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, loggedIn.ID)
	assert.Equal(t, "fresh", loggedIn.Username)
	assert.Len(t, f.store.Users(), 1)
}

func TestAuthService_LoginAdoptsUnknownUser(t *testing.T) {
	provider := &providerStub{
		authenticateFn: func(context.Context, string, string) (models.User, error) {
			return models.User{ID: "remote-1", Email: "alice@goa.bits-pilani.ac.in"}, nil
		},
		endSessionFn: func(context.Context) error { return nil },
	}
	f := newFixture(t, nil, provider)
	f.seedUser(t, "local", "alice")

	u, err := f.auth.Login(context.Background(), "alice@goa.bits-pilani.ac.in", "pw")
	require.NoError(t, err)

	assert.Equal(t, "remote-1", u.ID)
	assert.Equal(t, "alice1", u.Username)
	assert.NotEmpty(t, u.Profile.Avatar)
	stored, ok := f.store.FindUserByID("remote-1")
	require.True(t, ok)
	assert.Equal(t, u, stored)
}

func TestAuthService_LogoutClearsEvenWhenProviderFails(t *testing.T) {
	provider := &providerStub{
		authenticateFn: func(context.Context, string, string) (models.User, error) {
			return models.User{ID: "u1", Email: "bob@goa.bits-pilani.ac.in", Username: "bob"}, nil
		},
		endSessionFn: func(context.Context) error { return errors.New("network down") },
	}
	f := newFixture(t, nil, provider)
	_, err := f.auth.Login(context.Background(), "bob@goa.bits-pilani.ac.in", "pw")
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(context.Background(), "u1"))

	_, ok := f.store.CurrentUser()
	assert.False(t, ok)
}

func TestAuthService_LogoutLeavesOtherUserSignedIn(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	first, err := f.auth.SignUp(ctx, SignUpInput{
		Email: "first@goa.bits-pilani.ac.in", Username: "first", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	second, err := f.auth.SignUp(ctx, SignUpInput{
		Email: "second@goa.bits-pilani.ac.in", Username: "second", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, first.ID))
	cur, ok := f.store.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, second.ID, cur.ID)

	require.NoError(t, f.auth.Logout(ctx, second.ID))
	_, ok = f.store.CurrentUser()
	assert.False(t, ok)
}

func TestStageFor(t *testing.T) {
	complete := models.User{Profile: models.UserProfile{Name: "A", AdmissionYear: 2021}}
	assert.Equal(t, StageAuth, StageFor(complete, false))
	assert.Equal(t, StageProfileSetup, StageFor(models.User{}, true))
	assert.Equal(t, StageMain, StageFor(complete, true))
}
