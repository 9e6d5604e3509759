package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/justsurfingit/jobflow/internal/apperr"
	"github.com/justsurfingit/jobflow/internal/models"
	"github.com/justsurfingit/jobflow/internal/store"
)

// Store is the Postgres-backed store.Store.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func notFoundOr(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	return fmt.Errorf("load %s %s: %w", entity, id, err)
}

// lockedUpdate loads the row FOR UPDATE, applies mutate and saves it in one
// transaction. keep restores the fields mutate is not allowed to change.
func lockedUpdate[T any](ctx context.Context, db *gorm.DB, entity, id string, mutate func(*T) error, keep func(current, next *T)) (T, error) {
	var out T
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current T
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, "id = ?", id).Error; err != nil {
			return notFoundOr(err, entity, id)
		}
		next := current
		if err := mutate(&next); err != nil {
			return err
		}
		keep(&current, &next)
		if err := tx.Save(&next).Error; err != nil {
			return fmt.Errorf("save %s %s: %w", entity, id, err)
		}
		out = next
		return nil
	})
	return out, err
}

func remove[T any](ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var zero T
	res := db.WithContext(ctx).Delete(&zero, "id = ?", id)
	if res.Error != nil {
		return false, fmt.Errorf("delete %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Users

func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	store.UserDefaults(&u, s.now())
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, apperr.Validation("email %s is already registered", u.Email)
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return models.User{}, notFoundOr(err, "user", id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "LOWER(email) = LOWER(?)", email).Error; err != nil {
		return models.User{}, notFoundOr(err, "user", email)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, mutate func(*models.User) error) (models.User, error) {
	var email string
	u, err := lockedUpdate(ctx, s.db, "user", id, func(u *models.User) error {
		err := mutate(u)
		email = u.Email
		return err
	}, func(cur, next *models.User) {
		next.ID, next.CreatedAt = cur.ID, cur.CreatedAt
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.User{}, apperr.Validation("email %s is already registered", email)
	}
	return u, err
}

// Platforms

func (s *Store) CreatePlatform(ctx context.Context, p models.JobPlatform) (models.JobPlatform, error) {
	store.PlatformDefaults(&p, s.now())
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return models.JobPlatform{}, fmt.Errorf("create platform: %w", err)
	}
	return p, nil
}

func (s *Store) GetPlatform(ctx context.Context, id string) (models.JobPlatform, error) {
	var p models.JobPlatform
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return models.JobPlatform{}, notFoundOr(err, "platform", id)
	}
	return p, nil
}

func (s *Store) ListPlatforms(ctx context.Context) ([]models.JobPlatform, error) {
	var platforms []models.JobPlatform
	if err := s.db.WithContext(ctx).Order("created_at").Find(&platforms).Error; err != nil {
		return nil, fmt.Errorf("list platforms: %w", err)
	}
	return platforms, nil
}

func (s *Store) UpdatePlatform(ctx context.Context, id string, mutate func(*models.JobPlatform) error) (models.JobPlatform, error) {
	return lockedUpdate(ctx, s.db, "platform", id, mutate, func(cur, next *models.JobPlatform) {
		next.ID, next.CreatedAt = cur.ID, cur.CreatedAt
	})
}

// Jobs

func (s *Store) CreateJob(ctx context.Context, j models.Job) (models.Job, error) {
	store.JobDefaults(&j, s.now())
	if err := s.db.WithContext(ctx).Create(&j).Error; err != nil {
		return models.Job{}, fmt.Errorf("create job: %w", err)
	}
	return j, nil
}

func (s *Store) GetJob(ctx context.Context, id string) (models.Job, error) {
	var j models.Job
	if err := s.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return models.Job{}, notFoundOr(err, "job", id)
	}
	return j, nil
}

func (s *Store) ListJobs(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	if err := s.db.WithContext(ctx).Order("created_at").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

func (s *Store) UpdateJob(ctx context.Context, id string, mutate func(*models.Job) error) (models.Job, error) {
	return lockedUpdate(ctx, s.db, "job", id, mutate, func(cur, next *models.Job) {
		next.ID, next.CreatedAt = cur.ID, cur.CreatedAt
	})
}

func (s *Store) DeleteJob(ctx context.Context, id string) (bool, error) {
	return remove[models.Job](ctx, s.db, id)
}

// Applications

func (s *Store) CreateApplication(ctx context.Context, a models.Application) (models.Application, error) {
	store.ApplicationDefaults(&a, s.now())
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return models.Application{}, fmt.Errorf("create application: %w", err)
	}
	return a, nil
}

// CreateApplicationIfAbsent serializes writers of the same (user, job) pair on a
// transaction-scoped advisory lock, so the count and the insert cannot race.
func (s *Store) CreateApplicationIfAbsent(ctx context.Context, a models.Application, event models.ApplicationTracking) (models.Application, error) {
	now := s.now()
	store.ApplicationDefaults(&a, now)
	event.ApplicationID = a.ID
	store.TrackingDefaults(&event, now)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", a.UserID+"/"+a.JobID).Error; err != nil {
			return fmt.Errorf("lock application pair: %w", err)
		}
		var count int64
		err := tx.Model(&models.Application{}).
			Where("user_id = ? AND job_id = ?", a.UserID, a.JobID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("count applications: %w", err)
		}
		if count > 0 {
			return apperr.DuplicateApplication(a.UserID, a.JobID)
		}
		if err := tx.Create(&a).Error; err != nil {
			return fmt.Errorf("create application: %w", err)
		}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("create tracking: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Application{}, err
	}
	return a, nil
}

func (s *Store) GetApplication(ctx context.Context, id string) (models.Application, error) {
	var a models.Application
	if err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return models.Application{}, notFoundOr(err, "application", id)
	}
	return a, nil
}

func (s *Store) ListApplicationsByUser(ctx context.Context, userID string) ([]models.Application, error) {
	var apps []models.Application
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

func (s *Store) UpdateApplication(ctx context.Context, id string, mutate func(*models.Application) error) (models.Application, error) {
	return lockedUpdate(ctx, s.db, "application", id, mutate, func(cur, next *models.Application) {
		next.ID, next.CreatedAt = cur.ID, cur.CreatedAt
		next.UserID, next.JobID = cur.UserID, cur.JobID
	})
}

func (s *Store) DeleteApplication(ctx context.Context, id string) (bool, error) {
	return remove[models.Application](ctx, s.db, id)
}

// Tracking

func (s *Store) CreateTracking(ctx context.Context, t models.ApplicationTracking) (models.ApplicationTracking, error) {
	store.TrackingDefaults(&t, s.now())
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return models.ApplicationTracking{}, fmt.Errorf("create tracking: %w", err)
	}
	return t, nil
}

func (s *Store) ListTracking(ctx context.Context, applicationID string) ([]models.ApplicationTracking, error) {
	var events []models.ApplicationTracking
	err := s.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("timestamp DESC, seq DESC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list tracking: %w", err)
	}
	return events, nil
}

// Profiles

// lockProfiles serializes default-flag changes for one user's profiles until
// tx ends.
func lockProfiles(tx *gorm.DB, userID string) error {
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "profiles/"+userID).Error; err != nil {
		return fmt.Errorf("lock profiles of %s: %w", userID, err)
	}
	return nil
}

func clearDefault(tx *gorm.DB, userID, exceptID string) error {
	err := tx.Model(&models.UserProfile{}).
		Where("user_id = ? AND id <> ? AND is_default", userID, exceptID).
		Update("is_default", false).Error
	if err != nil {
		return fmt.Errorf("clear default profile: %w", err)
	}
	return nil
}

func (s *Store) CreateProfile(ctx context.Context, p models.UserProfile) (models.UserProfile, error) {
	store.ProfileDefaults(&p, s.now())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.IsDefault {
			if err := lockProfiles(tx, p.UserID); err != nil {
				return err
			}
			if err := clearDefault(tx, p.UserID, p.ID); err != nil {
				return err
			}
		}
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.UserProfile{}, err
	}
	return p, nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (models.UserProfile, error) {
	var p models.UserProfile
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return models.UserProfile{}, notFoundOr(err, "profile", id)
	}
	return p, nil
}

func (s *Store) ListProfiles(ctx context.Context, userID string) ([]models.UserProfile, error) {
	var profiles []models.UserProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id string, mutate func(*models.UserProfile) error) (models.UserProfile, error) {
	var out models.UserProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The user lock is taken before the row lock; clearDefault writes the
		// user's other rows while holding it.
		var owner models.UserProfile
		if err := tx.Select("user_id").First(&owner, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "profile", id)
		}
		if err := lockProfiles(tx, owner.UserID); err != nil {
			return err
		}
		var current models.UserProfile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "profile", id)
		}
		next := current.Clone()
		if err := mutate(&next); err != nil {
			return err
		}
		next.ID, next.CreatedAt, next.UserID = current.ID, current.CreatedAt, current.UserID
		if next.IsDefault {
			if err := clearDefault(tx, next.UserID, next.ID); err != nil {
				return err
			}
		}
		if err := tx.Save(&next).Error; err != nil {
			return fmt.Errorf("save profile %s: %w", id, err)
		}
		out = next
		return nil
	})
	return out, err
}

func (s *Store) DeleteProfile(ctx context.Context, id string) (bool, error) {
	return remove[models.UserProfile](ctx, s.db, id)
}
