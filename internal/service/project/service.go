package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mqcontracts "clientdesk/contracts/mq"
	"clientdesk/internal/model"
	"clientdesk/internal/repository"
	"clientdesk/pkg/logger"
	"clientdesk/pkg/metrics"
	"clientdesk/pkg/trace"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("project not found")
	ErrTimelineItemNotFound = errors.New("timeline item not found")
)

// TimelineInput 新增进度节点的参数
type TimelineInput struct {
	Title       string
	Description *string
	Date        *time.Time
}

type Service struct {
	tx       repository.Transactor
	projects repository.ProjectRepository
	timeline repository.TimelineRepository
	notes    repository.NoteRepository
	events   repository.EventRecorder
	validate *validator.Validate
	logger   *zap.Logger
}

func NewService(
	tx repository.Transactor,
	projects repository.ProjectRepository,
	timeline repository.TimelineRepository,
	notes repository.NoteRepository,
	events repository.EventRecorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		tx:       tx,
		projects: projects,
		timeline: timeline,
		notes:    notes,
		events:   events,
		validate: newValidator(),
		logger:   logger,
	}
}

// notFound 把仓储层的 ErrNotFound 换成 sentinel
func notFound(err error, sentinel error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return sentinel
	}
	return err
}

// Submit 保存公开表单提交的询盘，同一事务写入 inquiry.submitted 事件
func (s *Service) Submit(ctx context.Context, in model.Inquiry) (*model.Project, error) {
	log := logger.WithTrace(ctx, s.logger)

	if err := s.validateInquiry(&in); err != nil {
		log.Warn("Inquiry rejected", zap.Error(err))
		return nil, err
	}

	p := &model.Project{
		ClientName:     in.Name,
		Email:          in.Email,
		Phone:          in.Phone,
		ProjectType:    in.ProjectType,
		Requirements:   in.Requirements,
		Company:        in.Company,
		Budget:         in.Budget,
		TimelineRange:  in.Timeline,
		Source:         in.Source,
		TargetAudience: in.TargetAudience,
		KeyFeatures:    in.KeyFeatures,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.projects.Create(ctx, p); err != nil {
			return fmt.Errorf("create inquiry: %w", err)
		}
		return s.events.Record(ctx, mqcontracts.AggregateProject, p.ID, mqcontracts.RoutingInquirySubmitted,
			mqcontracts.InquirySubmittedPayload{
				ProjectID:    int64(p.ID),
				ClientName:   p.ClientName,
				Email:        p.Email,
				ProjectType:  p.ProjectType,
				Requirements: p.Requirements,
				SubmittedAt:  p.CreatedAt,
				TraceID:      trace.FromContext(ctx),
			})
	})
	if err != nil {
		log.Error("Failed to submit inquiry", zap.Error(err))
		return nil, err
	}

	metrics.InquirySubmittedCount.Inc()
	log.Info("Inquiry submitted",
		zap.Int64("project_id", int64(p.ID)),
		zap.String("project_type", p.ProjectType),
	)
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]model.Project, error) {
	return s.projects.List(ctx)
}

// Get 返回项目及其时间线和备注
func (s *Service) Get(ctx context.Context, id model.ID) (*model.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}

	if p.TimelineItems, err = s.timeline.ListByProject(ctx, id); err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	if p.Notes, err = s.notes.ListByProject(ctx, id); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id model.ID) (*model.Project, error) {
	p, err := s.projects.Delete(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	logger.WithTrace(ctx, s.logger).Info("Project deleted", zap.Int64("project_id", int64(id)))
	return p, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id model.ID, status string) (*model.Project, error) {
	st, err := model.ParseProjectStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	p, err := s.projects.UpdateStatus(ctx, id, st)
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	return p, nil
}

// ListNotes 最新的在前
func (s *Service) ListNotes(ctx context.Context, projectID model.ID) ([]model.Note, error) {
	return s.notes.ListByProject(ctx, projectID)
}

func (s *Service) AddNote(ctx context.Context, projectID model.ID, content string) (*model.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	n := &model.Note{ProjectID: projectID, Content: content}
	if err := s.notes.Create(ctx, n); err != nil {
		if errors.Is(err, repository.ErrReferenceMissing) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

// ListTimeline 按日期升序，没有日期的排在最后
func (s *Service) ListTimeline(ctx context.Context, projectID model.ID) ([]model.TimelineItem, error) {
	return s.timeline.ListByProject(ctx, projectID)
}

// AddTimelineItem 新增 pending 节点并持久化进度
// 进度按插入前的计数 +1 个未完成节点计算
func (s *Service) AddTimelineItem(ctx context.Context, projectID model.ID, in TimelineInput) (*model.TimelineItem, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	item := &model.TimelineItem{
		ProjectID:   projectID,
		Title:       title,
		Description: in.Description,
		Status:      model.TimelinePending,
		Date:        in.Date,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		completed, total, err := s.timeline.Counts(ctx, projectID)
		if err != nil {
			return fmt.Errorf("count timeline: %w", err)
		}
		if err := s.timeline.Create(ctx, item); err != nil {
			if errors.Is(err, repository.ErrReferenceMissing) {
				return ErrNotFound
			}
			return err
		}
		return s.projects.UpdateProgress(ctx, projectID, model.ProgressPercent(completed, total+1))
	})
	if err != nil {
		return nil, err
	}

	metrics.IncrementProgressRecalculation("timeline_add")
	return item, nil
}

// UpdateTimelineItem 修改节点状态后重新计数并持久化进度
func (s *Service) UpdateTimelineItem(ctx context.Context, projectID, itemID model.ID, status string) (*model.TimelineItem, error) {
	st, err := model.ParseTimelineStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	item, err := s.timeline.UpdateStatus(ctx, projectID, itemID, st)
	if err != nil {
		return nil, notFound(err, ErrTimelineItemNotFound)
	}

	// 进度重算失败不回滚状态修改
	completed, total, err := s.timeline.Counts(ctx, projectID)
	if err == nil {
		err = s.projects.UpdateProgress(ctx, projectID, model.ProgressPercent(completed, total))
	}
	if err != nil {
		logger.WithTrace(ctx, s.logger).Error("Failed to recalculate progress",
			zap.Int64("project_id", int64(projectID)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("recalculate progress: %w", err)
	}

	metrics.IncrementProgressRecalculation("timeline_update")
	return item, nil
}

// ListAssigned 开发者被分配的项目；分配表尚未创建时返回空列表
func (s *Service) ListAssigned(ctx context.Context, developerID model.ID) ([]model.Project, error) {
	projects, err := s.projects.ListByDeveloper(ctx, developerID)
	if errors.Is(err, repository.ErrUndefinedTable) {
		logger.WithTrace(ctx, s.logger).Warn("project_assignments table missing, returning empty list")
		return []model.Project{}, nil
	}
	return projects, err
}
