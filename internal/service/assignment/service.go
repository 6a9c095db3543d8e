package assignment

import (
	"context"
	"errors"
	"fmt"

	mqcontracts "clientdesk/contracts/mq"
	"clientdesk/internal/model"
	"clientdesk/internal/repository"
	"clientdesk/pkg/logger"
	"clientdesk/pkg/trace"

	"go.uber.org/zap"
)

var (
	ErrAlreadyAssigned    = errors.New("developer is already assigned to this project")
	ErrNotFound           = errors.New("developer or project not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
)

type Service struct {
	tx          repository.Transactor
	assignments repository.AssignmentRepository
	projects    repository.ProjectRepository
	users       repository.UserRepository
	events      repository.EventRecorder
	logger      *zap.Logger
}

func NewService(
	tx repository.Transactor,
	assignments repository.AssignmentRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	events repository.EventRecorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		tx:          tx,
		assignments: assignments,
		projects:    projects,
		users:       users,
		events:      events,
		logger:      logger,
	}
}

// Assign 分配开发者；项目仍为 Pending 时改为 In Progress
func (s *Service) Assign(ctx context.Context, developerID, projectID model.ID) (*model.Assignment, error) {
	log := logger.WithTrace(ctx, s.logger).With(
		zap.Int64("developer_id", int64(developerID)),
		zap.Int64("project_id", int64(projectID)),
	)

	a := &model.Assignment{DeveloperID: developerID, ProjectID: projectID}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := s.assignments.Exists(ctx, developerID, projectID)
		if err != nil {
			return fmt.Errorf("check assignment: %w", err)
		}
		if exists {
			return ErrAlreadyAssigned
		}

		if err := s.assignments.Create(ctx, a); err != nil {
			switch {
			case errors.Is(err, repository.ErrConflict):
				return ErrAlreadyAssigned
			case errors.Is(err, repository.ErrReferenceMissing):
				return ErrNotFound
			}
			return fmt.Errorf("create assignment: %w", err)
		}

		promoted, err := s.projects.PromoteIfPending(ctx, projectID)
		if err != nil {
			return fmt.Errorf("promote project: %w", err)
		}

		return s.events.Record(ctx, mqcontracts.AggregateProject, projectID, mqcontracts.RoutingProjectAssigned,
			mqcontracts.ProjectAssignedPayload{
				AssignmentID: int64(a.ID),
				DeveloperID:  int64(developerID),
				ProjectID:    int64(projectID),
				Promoted:     promoted,
				AssignedAt:   a.AssignedAt,
				TraceID:      trace.FromContext(ctx),
			})
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyAssigned) || errors.Is(err, ErrNotFound) {
			log.Warn("Assignment rejected", zap.Error(err))
		} else {
			log.Error("Failed to assign developer", zap.Error(err))
		}
		return nil, err
	}

	log.Info("Developer assigned", zap.Int64("assignment_id", int64(a.ID)))
	return a, nil
}

func (s *Service) ListDevelopers(ctx context.Context) ([]model.Developer, error) {
	return s.users.ListDevelopers(ctx)
}

func (s *Service) Unassign(ctx context.Context, assignmentID model.ID) error {
	if err := s.assignments.Delete(ctx, assignmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}
	logger.WithTrace(ctx, s.logger).Info("Assignment removed", zap.Int64("assignment_id", int64(assignmentID)))
	return nil
}
