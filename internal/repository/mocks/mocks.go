package mocks

import (
	"context"

	"clientdesk/internal/model"

	"github.com/stretchr/testify/mock"
)

// Transactor runs fn directly, without a database transaction.
type Transactor struct{}

func (Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ProjectRepository is a mock for repository.ProjectRepository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, p *model.Project) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProjectRepository) List(ctx context.Context) ([]model.Project, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]model.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Get(ctx context.Context, id model.ID) (*model.Project, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*model.Project); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Delete(ctx context.Context, id model.ID) (*model.Project, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*model.Project); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) UpdateStatus(ctx context.Context, id model.ID, status model.ProjectStatus) (*model.Project, error) {
	args := m.Called(ctx, id, status)
	if p, ok := args.Get(0).(*model.Project); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) UpdateProgress(ctx context.Context, id model.ID, progress int) error {
	args := m.Called(ctx, id, progress)
	return args.Error(0)
}

func (m *ProjectRepository) PromoteIfPending(ctx context.Context, id model.ID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *ProjectRepository) ListByDeveloper(ctx context.Context, developerID model.ID) ([]model.Project, error) {
	args := m.Called(ctx, developerID)
	if list, ok := args.Get(0).([]model.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// TimelineRepository is a mock for repository.TimelineRepository.
type TimelineRepository struct {
	mock.Mock
}

func (m *TimelineRepository) ListByProject(ctx context.Context, projectID model.ID) ([]model.TimelineItem, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]model.TimelineItem); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TimelineRepository) Counts(ctx context.Context, projectID model.ID) (int, int, error) {
	args := m.Called(ctx, projectID)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *TimelineRepository) Create(ctx context.Context, item *model.TimelineItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *TimelineRepository) UpdateStatus(ctx context.Context, projectID, itemID model.ID, status model.TimelineStatus) (*model.TimelineItem, error) {
	args := m.Called(ctx, projectID, itemID, status)
	if it, ok := args.Get(0).(*model.TimelineItem); ok {
		return it, args.Error(1)
	}
	return nil, args.Error(1)
}

// NoteRepository is a mock for repository.NoteRepository.
type NoteRepository struct {
	mock.Mock
}

func (m *NoteRepository) ListByProject(ctx context.Context, projectID model.ID) ([]model.Note, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]model.Note); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NoteRepository) Create(ctx context.Context, n *model.Note) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// UserRepository is a mock for repository.UserRepository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, u *model.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) ListDevelopers(ctx context.Context) ([]model.Developer, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]model.Developer); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// AssignmentRepository is a mock for repository.AssignmentRepository.
type AssignmentRepository struct {
	mock.Mock
}

func (m *AssignmentRepository) Exists(ctx context.Context, developerID, projectID model.ID) (bool, error) {
	args := m.Called(ctx, developerID, projectID)
	return args.Bool(0), args.Error(1)
}

func (m *AssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *AssignmentRepository) Delete(ctx context.Context, id model.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// SentimentRepository is a mock for repository.SentimentRepository.
type SentimentRepository struct {
	mock.Mock
}

func (m *SentimentRepository) Get(ctx context.Context, projectID model.ID) (*model.ProjectSentiment, error) {
	args := m.Called(ctx, projectID)
	if s, ok := args.Get(0).(*model.ProjectSentiment); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SentimentRepository) Upsert(ctx context.Context, s *model.ProjectSentiment) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *SentimentRepository) InsertIfAbsent(ctx context.Context, s *model.ProjectSentiment) (bool, error) {
	args := m.Called(ctx, s)
	return args.Bool(0), args.Error(1)
}

func (m *SentimentRepository) ProjectIDsWithSentiment(ctx context.Context) (map[model.ID]bool, error) {
	args := m.Called(ctx)
	if ids, ok := args.Get(0).(map[model.ID]bool); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

// EventRecorder is a mock for repository.EventRecorder.
type EventRecorder struct {
	mock.Mock
}

func (m *EventRecorder) Record(ctx context.Context, aggregateType string, aggregateID model.ID, routingKey string, payload any) error {
	args := m.Called(ctx, aggregateType, aggregateID, routingKey, payload)
	return args.Error(0)
}
