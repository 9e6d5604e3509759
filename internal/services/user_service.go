package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/justsurfingit/jobflow/internal/apperr"
	"github.com/justsurfingit/jobflow/internal/dtos"
	"github.com/justsurfingit/jobflow/internal/models"
	"github.com/justsurfingit/jobflow/internal/store"
)

// UserService covers the demo user's record, their application profiles and
// the job platforms.
type UserService struct {
	store store.Store
	log   *zap.Logger
}

func NewUserService(s store.Store, log *zap.Logger) *UserService {
	return &UserService{store: s, log: log}
}

// ResolveDemoUser returns the user with email, or the earliest user when no
// such user exists.
func (s *UserService) ResolveDemoUser(ctx context.Context, email string) (models.User, error) {
	if email != "" {
		u, err := s.store.GetUserByEmail(ctx, email)
		if err == nil {
			return u, nil
		}
		if !apperr.IsNotFound(err) {
			return models.User{}, err
		}
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		return models.User{}, apperr.NotFound("user", email)
	}
	return users[0], nil
}

func (s *UserService) Get(ctx context.Context, id string) (models.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *UserService) Update(ctx context.Context, id string, upd dtos.UserUpdate) (models.User, error) {
	if err := upd.Validate(); err != nil {
		return models.User{}, err
	}
	return s.store.UpdateUser(ctx, id, func(u *models.User) error {
		upd.ApplyTo(u)
		return nil
	})
}

func (s *UserService) Profiles(ctx context.Context, userID string) ([]models.UserProfile, error) {
	return s.store.ListProfiles(ctx, userID)
}

func (s *UserService) CreateProfile(ctx context.Context, userID string, req dtos.ProfileCreationRequest) (models.UserProfile, error) {
	if req.Name == "" {
		return models.UserProfile{}, apperr.Validation("profile name is required")
	}
	if req.TemplateData == nil {
		return models.UserProfile{}, apperr.Validation("templateData is required")
	}
	return s.store.CreateProfile(ctx, req.ToModel(userID))
}

// ownProfile loads profile id, hiding profiles of other users.
func (s *UserService) ownProfile(ctx context.Context, userID, id string) error {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return err
	}
	if p.UserID != userID {
		return apperr.NotFound("profile", id)
	}
	return nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID, id string, upd dtos.ProfileUpdate) (models.UserProfile, error) {
	if err := upd.Validate(); err != nil {
		return models.UserProfile{}, err
	}
	if err := s.ownProfile(ctx, userID, id); err != nil {
		return models.UserProfile{}, err
	}
	return s.store.UpdateProfile(ctx, id, func(p *models.UserProfile) error {
		upd.ApplyTo(p)
		return nil
	})
}

func (s *UserService) DeleteProfile(ctx context.Context, userID, id string) (bool, error) {
	if err := s.ownProfile(ctx, userID, id); err != nil {
		if apperr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return s.store.DeleteProfile(ctx, id)
}

func (s *UserService) Platforms(ctx context.Context) ([]models.JobPlatform, error) {
	return s.store.ListPlatforms(ctx)
}

func (s *UserService) UpdatePlatform(ctx context.Context, id string, upd dtos.PlatformUpdate) (models.JobPlatform, error) {
	if err := upd.Validate(); err != nil {
		return models.JobPlatform{}, err
	}
	p, err := s.store.UpdatePlatform(ctx, id, func(p *models.JobPlatform) error {
		upd.ApplyTo(p)
		return nil
	})
	if err != nil {
		return models.JobPlatform{}, err
	}
	s.log.Info("platform updated", zap.String("platform_id", id), zap.String("rate_limit_status", string(p.RateLimitStatus)))
	return p, nil
}
