package project

import (
	"context"
	"errors"
	"testing"
	"time"

	mqcontracts "clientdesk/contracts/mq"
	"clientdesk/internal/model"
	"clientdesk/internal/repository"
	"clientdesk/internal/repository/mocks"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	projects *mocks.ProjectRepository
	timeline *mocks.TimelineRepository
	notes    *mocks.NoteRepository
	events   *mocks.EventRecorder
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		projects: &mocks.ProjectRepository{},
		timeline: &mocks.TimelineRepository{},
		notes:    &mocks.NoteRepository{},
		events:   &mocks.EventRecorder{},
	}
	f.svc = NewService(mocks.Transactor{}, f.projects, f.timeline, f.notes, f.events, zap.NewNop())
	t.Cleanup(func() {
		f.projects.AssertExpectations(t)
		f.timeline.AssertExpectations(t)
		f.notes.AssertExpectations(t)
		f.events.AssertExpectations(t)
	})
	return f
}

func validInquiry() model.Inquiry {
	return model.Inquiry{
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		Phone:        "+1 (555) 123-4567",
		ProjectType:  "website",
		Requirements: "A landing page",
		Timeline:     "asap",
	}
}

func TestSubmit_CreatesPendingProjectAndRecordsEvent(t *testing.T) {
	f := newFixture(t)
	created := time.Now()

	f.projects.On("Create", mock.Anything, mock.AnythingOfType("*model.Project")).
		Run(func(args mock.Arguments) {
			p := args.Get(1).(*model.Project)
			p.ID = 42
			p.Status = model.StatusPending
			p.CreatedAt = created
		}).
		Return(nil)
	f.events.On("Record", mock.Anything, mqcontracts.AggregateProject, model.ID(42), mqcontracts.RoutingInquirySubmitted,
		mock.MatchedBy(func(p mqcontracts.InquirySubmittedPayload) bool {
			return p.ProjectID == 42 && p.Email == "ada@example.com"
		})).
		Return(nil)

	p, err := f.svc.Submit(context.Background(), validInquiry())
	require.NoError(t, err)
	require.Equal(t, model.ID(42), p.ID)
	require.Equal(t, model.StatusPending, p.Status)
	require.Equal(t, 0, p.Progress)
	require.Equal(t, "asap", p.TimelineRange)
}

func TestSubmit_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(in *model.Inquiry)
		want   string
	}{
		{"missing name", func(in *model.Inquiry) { in.Name = "  " }, "name is required"},
		{"bad email", func(in *model.Inquiry) { in.Email = "not-an-email" }, "valid email"},
		{"bad phone", func(in *model.Inquiry) { in.Phone = "555-CALL-NOW" }, "valid phone"},
		{"missing requirements", func(in *model.Inquiry) { in.Requirements = "" }, "requirements is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			in := validInquiry()
			tc.mutate(&in)

			_, err := f.svc.Submit(context.Background(), in)
			require.ErrorIs(t, err, ErrInvalidInput)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestSubmit_OptionalPhone(t *testing.T) {
	f := newFixture(t)
	f.projects.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.events.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	in := validInquiry()
	in.Phone = ""
	_, err := f.svc.Submit(context.Background(), in)
	require.NoError(t, err)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	f.projects.On("Get", mock.Anything, model.ID(9)).Return(nil, repository.ErrNotFound)

	_, err := f.svc.Get(context.Background(), 9)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGet_IncludesChildren(t *testing.T) {
	f := newFixture(t)
	f.projects.On("Get", mock.Anything, model.ID(1)).Return(&model.Project{ID: 1, Progress: 50}, nil)
	f.timeline.On("ListByProject", mock.Anything, model.ID(1)).Return([]model.TimelineItem{
		{ID: 1, Status: model.TimelineCompleted},
		{ID: 2, Status: model.TimelinePending},
	}, nil)
	f.notes.On("ListByProject", mock.Anything, model.ID(1)).Return([]model.Note{{ID: 3, Content: "hi"}}, nil)

	p, err := f.svc.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, p.TimelineItems, 2)
	require.Len(t, p.Notes, 1)
	require.Equal(t, 50, p.Progress)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateStatus(context.Background(), 1, "Archived")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAddTimelineItem_PersistsProgressWithNewItem(t *testing.T) {
	f := newFixture(t)
	f.timeline.On("Counts", mock.Anything, model.ID(1)).Return(1, 1, nil)
	f.timeline.On("Create", mock.Anything, mock.MatchedBy(func(it *model.TimelineItem) bool {
		return it.Title == "Design" && it.Status == model.TimelinePending
	})).Return(nil)
	f.projects.On("UpdateProgress", mock.Anything, model.ID(1), 50).Return(nil)

	item, err := f.svc.AddTimelineItem(context.Background(), 1, TimelineInput{Title: " Design "})
	require.NoError(t, err)
	require.Equal(t, model.TimelinePending, item.Status)
}

func TestAddTimelineItem_UnknownProject(t *testing.T) {
	f := newFixture(t)
	f.timeline.On("Counts", mock.Anything, model.ID(5)).Return(0, 0, nil)
	f.timeline.On("Create", mock.Anything, mock.Anything).Return(repository.ErrReferenceMissing)

	_, err := f.svc.AddTimelineItem(context.Background(), 5, TimelineInput{Title: "x"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateTimelineItem_RecomputesProgress(t *testing.T) {
	f := newFixture(t)
	f.timeline.On("UpdateStatus", mock.Anything, model.ID(1), model.ID(4), model.TimelineCompleted).
		Return(&model.TimelineItem{ID: 4, ProjectID: 1, Status: model.TimelineCompleted}, nil)
	f.timeline.On("Counts", mock.Anything, model.ID(1)).Return(3, 4, nil)
	f.projects.On("UpdateProgress", mock.Anything, model.ID(1), 75).Return(nil)

	item, err := f.svc.UpdateTimelineItem(context.Background(), 1, 4, "completed")
	require.NoError(t, err)
	require.Equal(t, model.TimelineCompleted, item.Status)
}

func TestUpdateTimelineItem_NotInProject(t *testing.T) {
	f := newFixture(t)
	f.timeline.On("UpdateStatus", mock.Anything, model.ID(1), model.ID(99), model.TimelineCurrent).
		Return(nil, repository.ErrNotFound)

	_, err := f.svc.UpdateTimelineItem(context.Background(), 1, 99, "current")
	require.ErrorIs(t, err, ErrTimelineItemNotFound)
}

func TestListAssigned_MissingTableIsEmpty(t *testing.T) {
	f := newFixture(t)
	f.projects.On("ListByDeveloper", mock.Anything, model.ID(7)).Return(nil, repository.ErrUndefinedTable)

	projects, err := f.svc.ListAssigned(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, projects)
	require.Empty(t, projects)
}

func TestAddNote_RequiresContent(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddNote(context.Background(), 1, "   ")
	require.ErrorIs(t, err, ErrInvalidInput)

	boom := errors.New("boom")
	f.notes.On("Create", mock.Anything, mock.Anything).Return(boom).Once()
	_, err = f.svc.AddNote(context.Background(), 1, "call client")
	require.ErrorIs(t, err, boom)
}
