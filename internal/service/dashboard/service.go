package dashboard

import (
	"context"
	"fmt"

	"clientdesk/internal/model"
)

// ProjectSource 由 project.Service 实现
type ProjectSource interface {
	List(ctx context.Context) ([]model.Project, error)
	ListAssigned(ctx context.Context, developerID model.ID) ([]model.Project, error)
}

// Overview 仪表盘首页数据
type Overview struct {
	Role     model.Role         `json:"role"`
	Projects []model.Project    `json:"projects"`
	Stats    model.ProjectStats `json:"stats"`
}

type Service struct {
	projects ProjectSource
}

func NewService(projects ProjectSource) *Service {
	return &Service{projects: projects}
}

// Overview admin 看到全部项目，developer 只看到分配给自己的
func (s *Service) Overview(ctx context.Context, userID model.ID, role model.Role) (*Overview, error) {
	var (
		projects []model.Project
		err      error
	)
	switch role {
	case model.RoleAdmin:
		projects, err = s.projects.List(ctx)
	case model.RoleDeveloper:
		projects, err = s.projects.ListAssigned(ctx, userID)
	default:
		return nil, fmt.Errorf("unsupported role %q", role)
	}
	if err != nil {
		return nil, err
	}

	return &Overview{
		Role:     role,
		Projects: projects,
		Stats:    model.CountStats(projects),
	}, nil
}
