package service

import (
	"context"
	"fmt"
	"strings"

	"bitsconnect/internal/identity"
	"bitsconnect/internal/models"
	"bitsconnect/internal/store"
)

// Stage is the part of the app the session is allowed to reach.
type Stage string

const (
	StageAuth         Stage = "auth"
	StageProfileSetup Stage = "profileSetup"
	StageMain         Stage = "main"
)

// AuthService manages the signed-in identity of the store.
type AuthService struct {
	store    *store.Store
	users    *UserService
	provider identity.Provider
}

type SignUpInput struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func NewAuthService(st *store.Store, users *UserService, provider identity.Provider) *AuthService {
	return &AuthService{store: st, users: users, provider: provider}
}

// SignUp checks the password confirmation and creates the account.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (models.User, error) {
	if in.Password != in.ConfirmPassword {
		err := models.NewValidationError("Passwords do not match")
		observe(ctx, OpCreateUser, err, nil)
		return models.User{}, err
	}
	return s.users.CreateUser(ctx, in.Email, in.Username, in.Password)
}

// Login authenticates against the identity provider and records the user
// as signed in. A user the provider knows but the store does not is added.
func (s *AuthService) Login(ctx context.Context, email, credential string) (models.User, error) {
	authed, err := s.provider.Authenticate(ctx, strings.TrimSpace(email), credential)
	if err != nil {
		observe(ctx, OpLogin, err, nil)
		return models.User{}, err
	}

	var out models.User
	err = s.store.Update(OpLogin, func(tx *store.Tx) error {
		if u, ok := tx.User(authed.ID); ok {
			out = u
		} else {
			out = adoptUser(tx, authed)
			tx.AppendUser(out)
		}
		tx.SetCurrentUser(out)
		return nil
	})
	observe(ctx, OpLogin, err, map[string]interface{}{"user_id": authed.ID})
	if err != nil {
		return models.User{}, err
	}
	return out, nil
}

// adoptUser fills in a store record for an identity the store has not seen.
func adoptUser(tx *store.Tx, authed models.User) models.User {
	u := authed.Clone()
	if u.Username == "" || tx.UsernameTaken(u.Username) {
		base := u.Username
		if base == "" {
			base = strings.SplitN(u.Email, "@", 2)[0]
		}
		u.Username = base
		for i := 1; tx.UsernameTaken(u.Username); i++ {
			u.Username = fmt.Sprintf("%s%d", base, i)
		}
	}
	if u.Profile.Avatar == "" {
		u.Profile.Avatar = fmt.Sprintf("https://picsum.photos/seed/%s/200", u.ID)
	}
	return u
}

// Logout ends userID's provider session and clears the signed-in identity
// when it is userID. Another user's identity is left in place. The local
// identity is cleared even when the provider call fails.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.provider.EndSession(ctx); err != nil {
		logger.LogError(ctx, err, OpLogout, map[string]interface{}{"user_id": userID})
	}
	err := s.store.Update(OpLogout, func(tx *store.Tx) error {
		if cur, ok := tx.CurrentUser(); ok && cur.ID == userID {
			tx.ClearCurrentUser()
		}
		return nil
	})
	observe(ctx, OpLogout, err, map[string]interface{}{"user_id": userID})
	return err
}

// Gate reports which stage the current session may access.
func (s *AuthService) Gate() Stage {
	return StageFor(s.store.CurrentUser())
}

// StageFor maps a session identity to its stage.
func StageFor(u models.User, signedIn bool) Stage {
	switch {
	case !signedIn:
		return StageAuth
	case !u.Profile.IsComplete():
		return StageProfileSetup
	default:
		return StageMain
	}
}
