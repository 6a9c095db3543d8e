package dashboard

import (
	"context"
	"testing"

	"clientdesk/internal/model"

	"github.com/stretchr/testify/require"
)

type stubProjects struct {
	all      []model.Project
	assigned map[model.ID][]model.Project
}

func (s stubProjects) List(context.Context) ([]model.Project, error) { return s.all, nil }

func (s stubProjects) ListAssigned(_ context.Context, id model.ID) ([]model.Project, error) {
	return s.assigned[id], nil
}

func TestOverview(t *testing.T) {
	src := stubProjects{
		all: []model.Project{
			{ID: 1, Status: model.StatusPending},
			{ID: 2, Status: model.StatusInProgress},
			{ID: 3, Status: model.StatusCompleted},
		},
		assigned: map[model.ID][]model.Project{
			7: {{ID: 2, Status: model.StatusInProgress}},
		},
	}
	svc := NewService(src)

	admin, err := svc.Overview(context.Background(), 1, model.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admin.Projects, 3)
	require.Equal(t, model.ProjectStats{Total: 3, Pending: 1, InProgress: 1, Completed: 1}, admin.Stats)

	dev, err := svc.Overview(context.Background(), 7, model.RoleDeveloper)
	require.NoError(t, err)
	require.Len(t, dev.Projects, 1)
	require.Equal(t, 1, dev.Stats.InProgress)

	_, err = svc.Overview(context.Background(), 7, model.Role("client"))
	require.Error(t, err)
}
