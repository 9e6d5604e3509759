// Package store defines the Entity Store contract shared by the in-memory and
// GORM backends, together with the defaulting rules and sample-data seeding.
package store

import (
	"context"

	"github.com/justsurfingit/jobflow/internal/models"
)

// Lookups on a missing id return an apperr NotFound error. Update methods run
// mutate inside a single critical section; mutate cannot change ID or CreatedAt.
// Deletes report whether a record was removed and are idempotent. List methods
// return records in creation order.

type UserStore interface {
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, mutate func(*models.User) error) (models.User, error)
}

type PlatformStore interface {
	CreatePlatform(ctx context.Context, p models.JobPlatform) (models.JobPlatform, error)
	GetPlatform(ctx context.Context, id string) (models.JobPlatform, error)
	ListPlatforms(ctx context.Context) ([]models.JobPlatform, error)
	UpdatePlatform(ctx context.Context, id string, mutate func(*models.JobPlatform) error) (models.JobPlatform, error)
}

type JobStore interface {
	CreateJob(ctx context.Context, j models.Job) (models.Job, error)
	GetJob(ctx context.Context, id string) (models.Job, error)
	ListJobs(ctx context.Context) ([]models.Job, error)
	UpdateJob(ctx context.Context, id string, mutate func(*models.Job) error) (models.Job, error)
	DeleteJob(ctx context.Context, id string) (bool, error)
}

type ApplicationStore interface {
	// CreateApplication stores a without any uniqueness check.
	CreateApplication(ctx context.Context, a models.Application) (models.Application, error)
	// CreateApplicationIfAbsent stores a together with its first tracking
	// event unless an application for the same (UserID, JobID) exists, in which
	// case it returns apperr.DuplicateApplication. event.ApplicationID is set to
	// the new application. The check and both inserts are atomic: either both
	// rows are stored or neither is.
	CreateApplicationIfAbsent(ctx context.Context, a models.Application, event models.ApplicationTracking) (models.Application, error)
	GetApplication(ctx context.Context, id string) (models.Application, error)
	ListApplicationsByUser(ctx context.Context, userID string) ([]models.Application, error)
	UpdateApplication(ctx context.Context, id string, mutate func(*models.Application) error) (models.Application, error)
	DeleteApplication(ctx context.Context, id string) (bool, error)
}

type TrackingStore interface {
	CreateTracking(ctx context.Context, t models.ApplicationTracking) (models.ApplicationTracking, error)
	// ListTracking returns an application's events newest first.
	ListTracking(ctx context.Context, applicationID string) ([]models.ApplicationTracking, error)
}

// ProfileStore keeps at most one default profile per user: storing a profile
// with IsDefault set clears the flag on the user's other profiles.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p models.UserProfile) (models.UserProfile, error)
	GetProfile(ctx context.Context, id string) (models.UserProfile, error)
	ListProfiles(ctx context.Context, userID string) ([]models.UserProfile, error)
	UpdateProfile(ctx context.Context, id string, mutate func(*models.UserProfile) error) (models.UserProfile, error)
	DeleteProfile(ctx context.Context, id string) (bool, error)
}

type Store interface {
	UserStore
	PlatformStore
	JobStore
	ApplicationStore
	TrackingStore
	ProfileStore
}
