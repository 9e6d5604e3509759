// Package memory is an in-memory implementation of store.Store. It is safe for
// concurrent use; each entity map is guarded by its own lock.
package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/justsurfingit/jobflow/internal/apperr"
	"github.com/justsurfingit/jobflow/internal/models"
	"github.com/justsurfingit/jobflow/internal/store"
)

type Store struct {
	now func() time.Time

	users        *table[models.User]
	platforms    *table[models.JobPlatform]
	jobs         *table[models.Job]
	applications *table[models.Application]
	tracking     *table[models.ApplicationTracking]
	profiles     *table[models.UserProfile]
}

var _ store.Store = (*Store)(nil)

type Option func(*Store)

// WithClock overrides the time source used for timestamps and defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:          time.Now,
		users:        newTable(models.User.Clone),
		platforms:    newTable(models.JobPlatform.Clone),
		jobs:         newTable(models.Job.Clone),
		applications: newTable(models.Application.Clone),
		tracking:     newTable(func(t models.ApplicationTracking) models.ApplicationTracking { return t }),
		profiles:     newTable(models.UserProfile.Clone),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Users ----------------------------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u models.User) (models.User, error) {
	store.UserDefaults(&u, s.now())

	s.users.mu.Lock()
	defer s.users.mu.Unlock()
	for _, existing := range s.users.rows {
		if strings.EqualFold(existing.Email, u.Email) {
			return models.User{}, apperr.Validation("email %s is already registered", u.Email)
		}
	}
	s.users.insertLocked(u.ID, u)
	return u.Clone(), nil
}

func (s *Store) GetUser(_ context.Context, id string) (models.User, error) {
	u, ok := s.users.get(id)
	if !ok {
		return models.User{}, apperr.NotFound("user", id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	found := s.users.list(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
	if len(found) == 0 {
		return models.User{}, apperr.NotFound("user", email)
	}
	return found[0], nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	return s.users.list(nil), nil
}

func (s *Store) UpdateUser(_ context.Context, id string, mutate func(*models.User) error) (models.User, error) {
	// mutate runs with s.users.mu held, so the email scan sees every row.
	u, ok, err := s.users.update(id, func(u *models.User) error {
		original := *u
		if err := mutate(u); err != nil {
			return err
		}
		u.ID, u.CreatedAt = original.ID, original.CreatedAt
		for otherID, other := range s.users.rows {
			if otherID != id && strings.EqualFold(other.Email, u.Email) {
				return apperr.Validation("email %s is already registered", u.Email)
			}
		}
		return nil
	})
	if !ok {
		return models.User{}, apperr.NotFound("user", id)
	}
	return u, err
}

// Platforms ------------------------------------------------------------------

func (s *Store) CreatePlatform(_ context.Context, p models.JobPlatform) (models.JobPlatform, error) {
	store.PlatformDefaults(&p, s.now())
	s.platforms.insert(p.ID, p)
	return p.Clone(), nil
}

func (s *Store) GetPlatform(_ context.Context, id string) (models.JobPlatform, error) {
	p, ok := s.platforms.get(id)
	if !ok {
		return models.JobPlatform{}, apperr.NotFound("platform", id)
	}
	return p, nil
}

func (s *Store) ListPlatforms(_ context.Context) ([]models.JobPlatform, error) {
	return s.platforms.list(nil), nil
}

func (s *Store) UpdatePlatform(_ context.Context, id string, mutate func(*models.JobPlatform) error) (models.JobPlatform, error) {
	p, ok, err := s.platforms.update(id, func(p *models.JobPlatform) error {
		original := *p
		if err := mutate(p); err != nil {
			return err
		}
		p.ID, p.CreatedAt = original.ID, original.CreatedAt
		return nil
	})
	if !ok {
		return models.JobPlatform{}, apperr.NotFound("platform", id)
	}
	return p, err
}

// Jobs -----------------------------------------------------------------------

func (s *Store) CreateJob(_ context.Context, j models.Job) (models.Job, error) {
	store.JobDefaults(&j, s.now())
	s.jobs.insert(j.ID, j)
	return j.Clone(), nil
}

func (s *Store) GetJob(_ context.Context, id string) (models.Job, error) {
	j, ok := s.jobs.get(id)
	if !ok {
		return models.Job{}, apperr.NotFound("job", id)
	}
	return j, nil
}

func (s *Store) ListJobs(_ context.Context) ([]models.Job, error) {
	return s.jobs.list(nil), nil
}

func (s *Store) UpdateJob(_ context.Context, id string, mutate func(*models.Job) error) (models.Job, error) {
	j, ok, err := s.jobs.update(id, func(j *models.Job) error {
		original := *j
		if err := mutate(j); err != nil {
			return err
		}
		j.ID, j.CreatedAt = original.ID, original.CreatedAt
		return nil
	})
	if !ok {
		return models.Job{}, apperr.NotFound("job", id)
	}
	return j, err
}

func (s *Store) DeleteJob(_ context.Context, id string) (bool, error) {
	return s.jobs.remove(id), nil
}

// Applications ---------------------------------------------------------------

func (s *Store) CreateApplication(_ context.Context, a models.Application) (models.Application, error) {
	store.ApplicationDefaults(&a, s.now())
	s.applications.insert(a.ID, a)
	return a.Clone(), nil
}

// CreateApplicationIfAbsent takes the applications lock before the tracking
// lock. Nothing else holds both.
func (s *Store) CreateApplicationIfAbsent(_ context.Context, a models.Application, event models.ApplicationTracking) (models.Application, error) {
	s.applications.mu.Lock()
	defer s.applications.mu.Unlock()

	for _, existing := range s.applications.rows {
		if existing.UserID == a.UserID && existing.JobID == a.JobID {
			return models.Application{}, apperr.DuplicateApplication(a.UserID, a.JobID)
		}
	}
	now := s.now()
	store.ApplicationDefaults(&a, now)
	event.ApplicationID = a.ID
	store.TrackingDefaults(&event, now)

	s.tracking.mu.Lock()
	s.tracking.insertLocked(event.ID, event)
	s.tracking.mu.Unlock()
	s.applications.insertLocked(a.ID, a)
	return a.Clone(), nil
}

func (s *Store) GetApplication(_ context.Context, id string) (models.Application, error) {
	a, ok := s.applications.get(id)
	if !ok {
		return models.Application{}, apperr.NotFound("application", id)
	}
	return a, nil
}

func (s *Store) ListApplicationsByUser(_ context.Context, userID string) ([]models.Application, error) {
	return s.applications.list(func(a models.Application) bool { return a.UserID == userID }), nil
}

func (s *Store) UpdateApplication(_ context.Context, id string, mutate func(*models.Application) error) (models.Application, error) {
	a, ok, err := s.applications.update(id, func(a *models.Application) error {
		original := *a
		if err := mutate(a); err != nil {
			return err
		}
		a.ID, a.CreatedAt = original.ID, original.CreatedAt
		a.UserID, a.JobID = original.UserID, original.JobID
		return nil
	})
	if !ok {
		return models.Application{}, apperr.NotFound("application", id)
	}
	return a, err
}

func (s *Store) DeleteApplication(_ context.Context, id string) (bool, error) {
	return s.applications.remove(id), nil
}

// Tracking -------------------------------------------------------------------

func (s *Store) CreateTracking(_ context.Context, t models.ApplicationTracking) (models.ApplicationTracking, error) {
	store.TrackingDefaults(&t, s.now())
	s.tracking.insert(t.ID, t)
	return t, nil
}

func (s *Store) ListTracking(_ context.Context, applicationID string) ([]models.ApplicationTracking, error) {
	events := s.tracking.list(func(t models.ApplicationTracking) bool { return t.ApplicationID == applicationID })
	slices.Reverse(events)
	slices.SortStableFunc(events, func(a, b models.ApplicationTracking) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return events, nil
}

// Profiles -------------------------------------------------------------------

func (s *Store) CreateProfile(_ context.Context, p models.UserProfile) (models.UserProfile, error) {
	store.ProfileDefaults(&p, s.now())

	s.profiles.mu.Lock()
	defer s.profiles.mu.Unlock()
	if p.IsDefault {
		s.clearDefaultLocked(p.UserID, p.ID)
	}
	s.profiles.insertLocked(p.ID, p)
	return p.Clone(), nil
}

func (s *Store) GetProfile(_ context.Context, id string) (models.UserProfile, error) {
	p, ok := s.profiles.get(id)
	if !ok {
		return models.UserProfile{}, apperr.NotFound("profile", id)
	}
	return p, nil
}

func (s *Store) ListProfiles(_ context.Context, userID string) ([]models.UserProfile, error) {
	return s.profiles.list(func(p models.UserProfile) bool { return p.UserID == userID }), nil
}

func (s *Store) UpdateProfile(_ context.Context, id string, mutate func(*models.UserProfile) error) (models.UserProfile, error) {
	s.profiles.mu.Lock()
	defer s.profiles.mu.Unlock()

	current, ok := s.profiles.rows[id]
	if !ok {
		return models.UserProfile{}, apperr.NotFound("profile", id)
	}
	next := current.Clone()
	if err := mutate(&next); err != nil {
		return models.UserProfile{}, err
	}
	next.ID, next.CreatedAt, next.UserID = current.ID, current.CreatedAt, current.UserID
	if next.IsDefault {
		s.clearDefaultLocked(next.UserID, next.ID)
	}
	s.profiles.rows[id] = next.Clone()
	return next, nil
}

func (s *Store) DeleteProfile(_ context.Context, id string) (bool, error) {
	return s.profiles.remove(id), nil
}

// clearDefaultLocked requires s.profiles.mu held for writing.
func (s *Store) clearDefaultLocked(userID, exceptID string) {
	for id, p := range s.profiles.rows {
		if id != exceptID && p.UserID == userID && p.IsDefault {
			p.IsDefault = false
			s.profiles.rows[id] = p
		}
	}
}
