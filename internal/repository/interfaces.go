package repository

import (
	"context"

	"clientdesk/internal/model"
)

// Transactor runs fn inside one database transaction
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProjectRepository manages inquiries/projects
type ProjectRepository interface {
	Create(ctx context.Context, p *model.Project) error
	List(ctx context.Context) ([]model.Project, error)
	Get(ctx context.Context, id model.ID) (*model.Project, error)
	Delete(ctx context.Context, id model.ID) (*model.Project, error)
	UpdateStatus(ctx context.Context, id model.ID, status model.ProjectStatus) (*model.Project, error)
	UpdateProgress(ctx context.Context, id model.ID, progress int) error
	PromoteIfPending(ctx context.Context, id model.ID) (bool, error)
	ListByDeveloper(ctx context.Context, developerID model.ID) ([]model.Project, error)
}

// TimelineRepository manages project timeline items
type TimelineRepository interface {
	ListByProject(ctx context.Context, projectID model.ID) ([]model.TimelineItem, error)
	Counts(ctx context.Context, projectID model.ID) (completed int, total int, err error)
	Create(ctx context.Context, item *model.TimelineItem) error
	UpdateStatus(ctx context.Context, projectID, itemID model.ID, status model.TimelineStatus) (*model.TimelineItem, error)
}

// NoteRepository manages project notes
type NoteRepository interface {
	ListByProject(ctx context.Context, projectID model.ID) ([]model.Note, error)
	Create(ctx context.Context, n *model.Note) error
}

// UserRepository manages dashboard users
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ListDevelopers(ctx context.Context) ([]model.Developer, error)
}

// AssignmentRepository manages developer/project pairs
type AssignmentRepository interface {
	Exists(ctx context.Context, developerID, projectID model.ID) (bool, error)
	Create(ctx context.Context, a *model.Assignment) error
	Delete(ctx context.Context, id model.ID) error
}

// SentimentRepository manages one sentiment row per project
type SentimentRepository interface {
	Get(ctx context.Context, projectID model.ID) (*model.ProjectSentiment, error)
	Upsert(ctx context.Context, s *model.ProjectSentiment) error
	InsertIfAbsent(ctx context.Context, s *model.ProjectSentiment) (bool, error)
	ProjectIDsWithSentiment(ctx context.Context) (map[model.ID]bool, error)
}

// EventRecorder appends a domain event to the outbox in the caller's transaction
type EventRecorder interface {
	Record(ctx context.Context, aggregateType string, aggregateID model.ID, routingKey string, payload any) error
}
