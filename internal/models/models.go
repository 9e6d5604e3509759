package models

import (
	"maps"
	"slices"
	"time"
)

type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "pending"
	StatusUnderReview ApplicationStatus = "under_review"
	StatusInterview   ApplicationStatus = "interview"
	StatusRejected    ApplicationStatus = "rejected"
	StatusOffered     ApplicationStatus = "offered"
)

// Statuses lists every known status in the order of the expected progression.
var Statuses = []ApplicationStatus{StatusPending, StatusUnderReview, StatusInterview, StatusRejected, StatusOffered}

func (s ApplicationStatus) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Terminal statuses end the lifecycle; email sync ignores applications in them.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusRejected || s == StatusOffered
}

type RateLimitStatus string

const (
	RateLimitNormal  RateLimitStatus = "normal"
	RateLimitLimited RateLimitStatus = "limited"
	RateLimitBlocked RateLimitStatus = "blocked"
)

func (s RateLimitStatus) Valid() bool {
	return s == RateLimitNormal || s == RateLimitLimited || s == RateLimitBlocked
}

// Tracking event tags.
const (
	EventApplied          = "applied"
	EventSubmitted        = "submitted"
	EventSubmissionFailed = "submission_failed"
	EventEmailUpdate      = "email_update"
)

type User struct {
	ID                string    `gorm:"primaryKey;type:uuid" json:"id"`
	Email             string    `gorm:"uniqueIndex;not null" json:"email"`
	Name              string    `gorm:"not null" json:"name"`
	Password          string    `gorm:"not null" json:"-"`
	Resume            *string   `gorm:"type:text" json:"resume"`
	Skills            []string  `gorm:"serializer:json;type:jsonb" json:"skills"`
	Experience        *string   `json:"experience"`
	Location          *string   `json:"location"`
	TargetSalary      *int      `json:"targetSalary"`
	PreferredJobTypes []string  `gorm:"serializer:json;type:jsonb" json:"preferredJobTypes"`
	LinkedinProfile   *string   `json:"linkedinProfile"`
	GithubProfile     *string   `json:"githubProfile"`
	PortfolioURL      *string   `json:"portfolioUrl"`
	CreatedAt         time.Time `json:"createdAt"`
}

func (u User) Clone() User {
	u.Skills = slices.Clone(u.Skills)
	u.PreferredJobTypes = slices.Clone(u.PreferredJobTypes)
	return u
}

type JobPlatform struct {
	ID              string          `gorm:"primaryKey;type:uuid" json:"id"`
	Name            string          `gorm:"not null" json:"name"`
	IsConnected     bool            `json:"isConnected"`
	Credentials     map[string]any  `gorm:"serializer:json;type:jsonb" json:"credentials"`
	RateLimitStatus RateLimitStatus `gorm:"default:normal" json:"rateLimitStatus"`
	LastSyncAt      *time.Time      `json:"lastSyncAt"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func (p JobPlatform) Clone() JobPlatform {
	p.Credentials = maps.Clone(p.Credentials)
	return p
}

type Job struct {
	ID              string     `gorm:"primaryKey;type:uuid" json:"id"`
	Title           string     `gorm:"not null" json:"title"`
	Company         string     `gorm:"not null" json:"company"`
	Location        *string    `json:"location"`
	Salary          *string    `json:"salary"`
	Description     *string    `gorm:"type:text" json:"description"`
	Requirements    []string   `gorm:"serializer:json;type:jsonb" json:"requirements"`
	Benefits        []string   `gorm:"serializer:json;type:jsonb" json:"benefits"`
	JobType         *string    `json:"jobType"`
	ExperienceLevel *string    `json:"experienceLevel"`
	PlatformID      *string    `gorm:"type:uuid;index" json:"platformId"`
	ExternalURL     *string    `gorm:"index" json:"externalUrl"`
	MatchPercentage *int       `json:"matchPercentage"`
	PostedAt        *time.Time `json:"postedAt"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func (j Job) Clone() Job {
	j.Requirements = slices.Clone(j.Requirements)
	j.Benefits = slices.Clone(j.Benefits)
	return j
}

// Match returns the match percentage, treating an unknown match as zero.
func (j Job) Match() int {
	if j.MatchPercentage == nil {
		return 0
	}
	return *j.MatchPercentage
}

type Application struct {
	ID              string            `gorm:"primaryKey;type:uuid" json:"id"`
	UserID          string            `gorm:"type:uuid;not null;index" json:"userId"`
	JobID           string            `gorm:"type:uuid;not null;index" json:"jobId"`
	Status          ApplicationStatus `gorm:"not null" json:"status"`
	AppliedAt       *time.Time        `json:"appliedAt"`
	ResponseAt      *time.Time        `json:"responseAt"`
	Notes           *string           `gorm:"type:text" json:"notes"`
	CoverLetter     *string           `gorm:"type:text" json:"coverLetter"`
	IsAutoApplied   bool              `json:"isAutoApplied"`
	ApplicationData map[string]any    `gorm:"serializer:json;type:jsonb" json:"applicationData"`
	CreatedAt       time.Time         `json:"createdAt"`
}

func (a Application) Clone() Application {
	a.ApplicationData = maps.Clone(a.ApplicationData)
	return a
}

// ApplicationTracking is an append-only audit entry for one application.
type ApplicationTracking struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	ApplicationID string    `gorm:"type:uuid;not null;index" json:"applicationId"`
	Event         string    `gorm:"not null" json:"event"`
	Details       *string   `gorm:"type:text" json:"details"`
	Timestamp     time.Time `json:"timestamp"`
	// Seq orders events that share a timestamp by insertion.
	Seq           int64     `gorm:"autoIncrement;not null;index" json:"-"`
}

func (ApplicationTracking) TableName() string { return "application_tracking" }

// UserProfile is a named template of application-filling data.
type UserProfile struct {
	ID           string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string         `gorm:"type:uuid;not null;index" json:"userId"`
	Name         string         `gorm:"not null" json:"name"`
	TemplateData map[string]any `gorm:"serializer:json;type:jsonb;not null" json:"templateData"`
	IsDefault    bool           `json:"isDefault"`
	CreatedAt    time.Time      `json:"createdAt"`
}

func (p UserProfile) Clone() UserProfile {
	p.TemplateData = maps.Clone(p.TemplateData)
	return p
}

// JobWithPlatform is a Job joined with the platform it was found on. Platform
// is omitted when the job has no platform or the platform no longer exists.
type JobWithPlatform struct {
	Job
	Platform *JobPlatform `json:"platform,omitempty"`
}

type ApplicationWithJob struct {
	Application
	Job JobWithPlatform `json:"job"`
}

type DashboardStats struct {
	TotalApplications  int `json:"totalApplications"`
	Interviews         int `json:"interviews"`
	Pending            int `json:"pending"`
	Matches            int `json:"matches"`
	WeeklyApplications int `json:"weeklyApplications"`
	WeeklyInterviews   int `json:"weeklyInterviews"`
	ResponseRate       int `json:"responseRate"`
	NewMatchesToday    int `json:"newMatchesToday"`
}

// DailyCount is one bucket of the applications-per-day series.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
