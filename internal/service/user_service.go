package service

import (
	"context"
	"fmt"
	"strings"

	"bitsconnect/internal/config"
	"bitsconnect/internal/identity"
	"bitsconnect/internal/media"
	"bitsconnect/internal/models"
	"bitsconnect/internal/store"
	"bitsconnect/internal/validation"
)

type UserService struct {
	store     *store.Store
	provider  identity.Provider
	storage   media.Storage
	catalog   *models.Catalog
	domains   []string
	minPasswd int
}

// ProfilePatch lists the profile fields to replace. Nil fields are kept.
type ProfilePatch struct {
	Name               *string                    `json:"name,omitempty"`
	AdmissionYear      *int                       `json:"admissionYear,omitempty"`
	Campus             *models.Campus             `json:"campus,omitempty"`
	Branch             *string                    `json:"branch,omitempty"`
	DormBuilding       *string                    `json:"dormBuilding,omitempty"`
	DormRoom           *string                    `json:"dormRoom,omitempty"`
	DiningHall         *string                    `json:"diningHall,omitempty"`
	Clubs              *[]string                  `json:"clubs,omitempty"`
	RelationshipStatus *models.RelationshipStatus `json:"relationshipStatus,omitempty"`
	Bio                *string                    `json:"bio,omitempty"`
	Avatar             *string                    `json:"avatar,omitempty"`
	Banner             *string                    `json:"banner,omitempty"`
}

func NewUserService(st *store.Store, provider identity.Provider, storage media.Storage, cfg *config.Config) *UserService {
	s := &UserService{
		store:     st,
		provider:  provider,
		storage:   storage,
		catalog:   models.DefaultCatalog,
		domains:   config.DefaultEmailDomains,
		minPasswd: 6,
	}
	if cfg != nil {
		if domains := cfg.EmailDomains(); len(domains) > 0 {
			s.domains = domains
		}
		if cfg.MinPasswordLength > 0 {
			s.minPasswd = cfg.MinPasswordLength
		}
	}
	return s
}

// CreateUser registers an account and makes it the current user. The new
// profile is deliberately incomplete so the caller lands on profile setup.
func (s *UserService) CreateUser(ctx context.Context, email, username, credential string) (models.User, error) {
	user, err := s.createUser(ctx, strings.TrimSpace(email), strings.TrimSpace(username), credential)
	observe(ctx, OpCreateUser, err, map[string]interface{}{"user_id": user.ID})
	return user, err
}

func (s *UserService) createUser(ctx context.Context, email, username, credential string) (models.User, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return models.User{}, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmailDomain(email, s.domains); err != nil {
		return models.User{}, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateUsername(username); err != nil {
		return models.User{}, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(credential, s.minPasswd); err != nil {
		return models.User{}, models.NewValidationError(err.Error())
	}
	if err := s.checkAvailable(email, username); err != nil {
		return models.User{}, err
	}

	registered, err := s.provider.Register(ctx, email, credential)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:       registered.ID,
		Username: username,
		Email:    email,
		Profile: models.UserProfile{
			Avatar: fmt.Sprintf("https://picsum.photos/seed/%s/200", registered.ID),
			Banner: fmt.Sprintf("https://picsum.photos/seed/%s/1000/200", registered.ID),
		},
	}
	err = s.store.Update(OpCreateUser, func(tx *store.Tx) error {
		if tx.EmailTaken(email) {
			return models.NewConflictError("An account with this email already exists")
		}
		if tx.UsernameTaken(username) {
			return models.NewConflictError("This username is already taken")
		}
		tx.AppendUser(user)
		tx.SetCurrentUser(user)
		return nil
	})
	if err != nil {
		// The account lost a race for its email or username after the
		// credential was stored; drop the credential again.
		registered.Email = email
		if uerr := s.provider.Unregister(ctx, registered); uerr != nil {
			logger.LogError(ctx, uerr, OpCreateUser, map[string]interface{}{"user_id": registered.ID})
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) checkAvailable(email, username string) error {
	if _, taken := s.store.FindUserByEmail(email); taken {
		return models.NewConflictError("An account with this email already exists")
	}
	if _, taken := s.store.FindUserByUsername(username); taken {
		return models.NewConflictError("This username is already taken")
	}
	return nil
}

// UpdateProfile replaces the patched fields of a user's profile. Changing
// campus without sending clubs clears the clubs.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (models.User, error) {
	var out models.User
	err := s.store.Update(OpUpdateProfile, func(tx *store.Tx) error {
		u, ok := tx.User(userID)
		if !ok {
			return models.NewNotFoundError("User", userID)
		}
		profile, err := s.applyPatch(u.Profile, patch)
		if err != nil {
			return err
		}
		u.Profile = profile
		tx.ReplaceUser(u)
		out = u
		return nil
	})
	observe(ctx, OpUpdateProfile, err, map[string]interface{}{"user_id": userID})
	if err != nil {
		return models.User{}, err
	}
	return out, nil
}

func (s *UserService) applyPatch(prev models.UserProfile, patch ProfilePatch) (models.UserProfile, error) {
	p := prev
	p.Clubs = append([]string(nil), prev.Clubs...)

	setString(&p.Name, patch.Name)
	setString(&p.Branch, patch.Branch)
	setString(&p.DormBuilding, patch.DormBuilding)
	setString(&p.DormRoom, patch.DormRoom)
	setString(&p.DiningHall, patch.DiningHall)
	setString(&p.Bio, patch.Bio)
	setString(&p.Avatar, patch.Avatar)
	setString(&p.Banner, patch.Banner)
	if patch.AdmissionYear != nil {
		p.AdmissionYear = *patch.AdmissionYear
	}
	if patch.Campus != nil {
		p.Campus = *patch.Campus
	}
	if patch.RelationshipStatus != nil {
		p.RelationshipStatus = *patch.RelationshipStatus
	}
	if patch.Clubs != nil {
		p.Clubs = uniqueStrings(*patch.Clubs)
	} else if p.Campus != prev.Campus {
		p.Clubs = nil
	}
	p.Name = strings.TrimSpace(p.Name)

	if !p.IsComplete() {
		return prev, models.NewValidationError("Full name and admission year are required")
	}
	if !prev.IsComplete() && p.Campus == "" {
		return prev, models.NewValidationError("Campus is required")
	}
	if err := models.ValidateStruct(p); err != nil {
		return prev, err
	}
	if len(p.Clubs) > 0 && p.Campus == "" {
		return prev, models.NewValidationError("Select a campus before choosing clubs")
	}
	for _, club := range p.Clubs {
		if !s.catalog.IsClubOf(p.Campus, club) {
			return prev, models.NewValidationError(fmt.Sprintf("%q is not a club at %s", club, p.Campus))
		}
	}
	return p, nil
}

// UploadAvatar stores an image and makes it the user's avatar.
func (s *UserService) UploadAvatar(ctx context.Context, userID string, u media.Upload) (models.User, error) {
	return s.uploadImage(ctx, OpUploadAvatar, userID, u, func(p *models.UserProfile, uri string) { p.Avatar = uri })
}

// UploadBanner stores an image and makes it the user's banner.
func (s *UserService) UploadBanner(ctx context.Context, userID string, u media.Upload) (models.User, error) {
	return s.uploadImage(ctx, OpUploadBanner, userID, u, func(p *models.UserProfile, uri string) { p.Banner = uri })
}

func (s *UserService) uploadImage(ctx context.Context, op, userID string, u media.Upload, set func(*models.UserProfile, string)) (models.User, error) {
	out, err := s.uploadAndSet(ctx, op, userID, u, set)
	observe(ctx, op, err, map[string]interface{}{"user_id": userID})
	return out, err
}

func (s *UserService) uploadAndSet(ctx context.Context, op, userID string, u media.Upload, set func(*models.UserProfile, string)) (models.User, error) {
	if _, ok := s.store.FindUserByID(userID); !ok {
		return models.User{}, models.NewNotFoundError("User", userID)
	}
	kind, err := u.MediaType()
	if err != nil {
		return models.User{}, err
	}
	if kind != models.MediaImage {
		return models.User{}, models.NewValidationError("Profile pictures must be images")
	}
	if s.storage == nil {
		return models.User{}, models.NewStorageError("Media storage not configured", nil)
	}
	uri, err := s.storage.Upload(ctx, u)
	if err != nil {
		return models.User{}, err
	}

	var out models.User
	err = s.store.Update(op, func(tx *store.Tx) error {
		user, ok := tx.User(userID)
		if !ok {
			return models.NewNotFoundError("User", userID)
		}
		set(&user.Profile, uri)
		tx.ReplaceUser(user)
		out = user
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return out, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func uniqueStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
