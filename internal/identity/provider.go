// Package identity authenticates accounts and issues session tokens. The
// store treats the User a Provider returns as authoritative identity.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitsconnect/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Provider verifies credentials and registers new accounts.
type Provider interface {
	Authenticate(ctx context.Context, email, credential string) (models.User, error)
	Register(ctx context.Context, email, credential string) (models.User, error)
	// Unregister removes an account Register created, for when the caller
	// could not complete the sign-up.
	Unregister(ctx context.Context, user models.User) error
	EndSession(ctx context.Context) error
}

// ErrCredentialExists is returned by a CredentialStore on duplicate email.
var ErrCredentialExists = errors.New("credential already exists")

// CredentialStore persists password hashes keyed by lower-cased email.
type CredentialStore interface {
	Get(ctx context.Context, email string) (*models.Credential, error)
	Create(ctx context.Context, cred *models.Credential) error
	// Delete removes the credential for email if it belongs to userID.
	Delete(ctx context.Context, email, userID string) error
}

// Local is a Provider backed by bcrypt hashes in a CredentialStore.
type Local struct {
	creds CredentialStore
	cost  int
	now   func() time.Time
}

// NewLocal creates a Local provider. A zero cost uses bcrypt.DefaultCost.
func NewLocal(creds CredentialStore, cost int) *Local {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Local{creds: creds, cost: cost, now: time.Now}
}

// Authenticate checks credential against the stored hash.
func (l *Local) Authenticate(ctx context.Context, email, credential string) (models.User, error) {
	cred, err := l.creds.Get(ctx, normalizeEmail(email))
	if err != nil {
		return models.User{}, models.NewInternalError(err)
	}
	if cred == nil {
		return models.User{}, models.NewAuthError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(credential)); err != nil {
		return models.User{}, models.NewAuthError("Invalid credentials")
	}
	return models.User{ID: cred.UserID, Email: cred.Email}, nil
}

// Register hashes credential and stores it under a fresh user id.
func (l *Local) Register(ctx context.Context, email, credential string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), l.cost)
	if err != nil {
		return models.User{}, models.NewInternalError(err)
	}
	cred := &models.Credential{
		Email:        normalizeEmail(email),
		UserID:       uuid.NewString(),
		PasswordHash: string(hash),
		CreatedAt:    l.now().UTC(),
	}
	if err := l.creds.Create(ctx, cred); err != nil {
		if errors.Is(err, ErrCredentialExists) {
			return models.User{}, models.NewConflictError("Email already registered")
		}
		return models.User{}, models.NewInternalError(err)
	}
	return models.User{ID: cred.UserID, Email: strings.TrimSpace(email)}, nil
}

// Unregister deletes the credential Register stored for user.
func (l *Local) Unregister(ctx context.Context, user models.User) error {
	if err := l.creds.Delete(ctx, normalizeEmail(user.Email), user.ID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// EndSession is a no-op: bearer tokens are revoked by the HTTP layer.
func (l *Local) EndSession(context.Context) error {
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
