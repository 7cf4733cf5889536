package service

import (
	"context"
	"log/slog"
	"strings"

	"virtuefeed/internal/middleware"
	"virtuefeed/internal/models"
	"virtuefeed/internal/repository"
	"virtuefeed/internal/validation"
)

// WebhookUserCreated is the only provider event that changes local state.
const WebhookUserCreated = "user.created"

var usernameRule = validation.TextRule{Field: "username", MaxLen: 191}

type UserService struct {
	userRepo repository.UserRepository
	profiles ProfileFetcher
}

type UpdateMeInput struct {
	ExternalID string
	Username   *string
	AvatarURL  *string
}

func NewUserService(userRepo repository.UserRepository, profiles ProfileFetcher) *UserService {
	return &UserService{
		userRepo: userRepo,
		profiles: profiles,
	}
}

func (s *UserService) GetMe(ctx context.Context, externalID string) (*models.User, error) {
	user, err := s.userRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		if models.StatusFor(err) == 404 {
			return nil, &models.AppError{Code: models.CodeNotFound, Message: "User not found."}
		}
		return nil, err
	}
	return user, nil
}

// Sync provisions or refreshes the local user for a verified identity. The
// provider's admin API is authoritative when configured; otherwise the token
// claims are used.
func (s *UserService) Sync(ctx context.Context, identity *middleware.Identity) (*models.User, error) {
	profile := profileFromIdentity(identity)
	if s.profiles != nil {
		fetched, err := s.profiles.FetchProfile(ctx, identity.ExternalID)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if fetched.ExternalID == "" {
			fetched.ExternalID = identity.ExternalID
		}
		profile = fetched
	}

	if strings.TrimSpace(profile.Email) == "" {
		return nil, models.NewValidationError("Identity provider user has no email address.")
	}
	return s.userRepo.UpsertByExternalID(ctx, userFromProfile(profile))
}

func (s *UserService) UpdateMe(ctx context.Context, in UpdateMeInput) (*models.User, error) {
	user, err := s.GetMe(ctx, in.ExternalID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username, err := usernameRule.Replacement(*in.Username)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Username = username
	}
	if in.AvatarURL != nil {
		avatar, err := validation.OptionalURL("avatarUrl", *in.AvatarURL)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.AvatarURL = avatar
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetProfile(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// HandleWebhookEvent applies a verified provider event. Events other than
// user.created are acknowledged without side effects.
func (s *UserService) HandleWebhookEvent(ctx context.Context, eventType string, profile *IdentityProfile) error {
	if eventType != WebhookUserCreated {
		middleware.Logger.InfoContext(ctx, "ignoring identity webhook", slog.String("type", eventType))
		return nil
	}
	if strings.TrimSpace(profile.Email) == "" {
		middleware.Logger.WarnContext(ctx, "identity webhook missing email", slog.String("external_id", profile.ExternalID))
		return models.NewValidationError("Missing email address")
	}

	incoming := userFromProfile(profile)
	existing, err := s.userRepo.FindByExternalIDOrEmail(ctx, incoming.ExternalID, incoming.Email)
	if err != nil {
		return err
	}
	if existing == nil {
		return s.userRepo.Create(ctx, incoming)
	}

	existing.ExternalID = incoming.ExternalID
	existing.Email = incoming.Email
	existing.Username = incoming.Username
	existing.AvatarURL = incoming.AvatarURL
	return s.userRepo.Update(ctx, existing)
}

// ResolveIdentity returns the local user behind a verified identity,
// provisioning it on the fly when the token carries an email.
func (s *UserService) ResolveIdentity(ctx context.Context, identity *middleware.Identity) (*models.User, error) {
	user, err := s.userRepo.GetByExternalID(ctx, identity.ExternalID)
	if err == nil {
		return user, nil
	}
	if models.StatusFor(err) != 404 {
		return nil, err
	}
	if strings.TrimSpace(identity.Email) == "" {
		return nil, &models.AppError{Code: models.CodeNotFound, Message: "User not found. Call /users/sync first."}
	}
	return s.userRepo.UpsertByExternalID(ctx, userFromProfile(profileFromIdentity(identity)))
}

// LookupViewer returns the local id for externalID, or "" when there is none.
func (s *UserService) LookupViewer(ctx context.Context, externalID string) string {
	if externalID == "" {
		return ""
	}
	user, err := s.userRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		if models.StatusFor(err) != 404 {
			middleware.Logger.WarnContext(ctx, "viewer lookup failed", slog.String("error", err.Error()))
		}
		return ""
	}
	return user.ID
}

func profileFromIdentity(identity *middleware.Identity) *IdentityProfile {
	return &IdentityProfile{
		ExternalID: identity.ExternalID,
		Email:      identity.Email,
		Username:   identity.Username,
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
		ImageURL:   identity.ImageURL,
	}
}

func userFromProfile(p *IdentityProfile) *models.User {
	email := strings.TrimSpace(p.Email)
	return &models.User{
		ExternalID: p.ExternalID,
		Email:      email,
		Username:   displayName(p, email),
		AvatarURL:  strings.TrimSpace(p.ImageURL),
	}
}

// displayName picks the provider username, then "first last", then the
// email local part, then the external id.
func displayName(p *IdentityProfile, email string) string {
	if name := strings.TrimSpace(p.Username); name != "" {
		return name
	}
	if name := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName)); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return local
	}
	return p.ExternalID
}
