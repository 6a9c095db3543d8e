package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"clientdesk/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var projectCols = []string{
	"id", "name", "email", "phone", "project_type", "requirements", "status", "date",
	"company", "budget", "timeline", "source", "target_audience", "key_features",
	"completed", "total",
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestTranslate(t *testing.T) {
	require.Nil(t, translate(nil))
	require.ErrorIs(t, translate(&pgconn.PgError{Code: "23505"}), ErrConflict)
	require.ErrorIs(t, translate(&pgconn.PgError{Code: "23503"}), ErrReferenceMissing)
	require.ErrorIs(t, translate(&pgconn.PgError{Code: "42P01"}), ErrUndefinedTable)

	other := errors.New("boom")
	require.Equal(t, other, translate(other))
}

func TestProjectRepository_GetDerivesProgress(t *testing.T) {
	mock := newMock(t)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)FROM inquiries i.*WHERE i.id = \$1`).
		WithArgs(int64(12)).
		WillReturnRows(pgxmock.NewRows(projectCols).AddRow(
			int64(12), "Acme", "a@b.com", "", "website", "Need a site", "Pending", created,
			"", "lt-50k", "asap", "google", "", "",
			int64(3), int64(4),
		))

	p, err := NewProjectRepository(mock, zap.NewNop()).Get(context.Background(), 12)
	require.NoError(t, err)
	require.Equal(t, model.ID(12), p.ID)
	require.Equal(t, model.StatusPending, p.Status)
	require.Equal(t, 75, p.Progress)
	require.Equal(t, "asap", p.TimelineRange)
	require.Empty(t, p.TimelineItems)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_GetNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM inquiries i").
		WithArgs(int64(99)).
		WillReturnRows(pgxmock.NewRows(projectCols))

	_, err := NewProjectRepository(mock, zap.NewNop()).Get(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProjectRepository_PromoteIfPending(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`UPDATE inquiries SET status = 'In Progress' WHERE id = \$1 AND status = 'Pending'`).
		WithArgs(int64(12)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE inquiries SET status = 'In Progress'`).
		WithArgs(int64(12)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewProjectRepository(mock, zap.NewNop())
	promoted, err := repo.PromoteIfPending(context.Background(), 12)
	require.NoError(t, err)
	require.True(t, promoted)

	promoted, err = repo.PromoteIfPending(context.Background(), 12)
	require.NoError(t, err)
	require.False(t, promoted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_ListByDeveloperMissingTable(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("JOIN project_assignments").
		WithArgs(int64(7)).
		WillReturnError(&pgconn.PgError{Code: "42P01", Message: `relation "project_assignments" does not exist`})

	_, err := NewProjectRepository(mock, zap.NewNop()).ListByDeveloper(context.Background(), 7)
	require.ErrorIs(t, err, ErrUndefinedTable)
}

func TestTimelineRepository_UpdateStatusNotInProject(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("UPDATE project_timeline SET status").
		WithArgs("completed", int64(5), int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "project_id", "title", "description", "status", "due_date", "created_at"}))

	_, err := NewTimelineRepository(mock, zap.NewNop()).
		UpdateStatus(context.Background(), 1, 5, model.TimelineCompleted)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTimelineRepository_Counts(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`COUNT\(\*\) FILTER`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"completed", "total"}).AddRow(int64(2), int64(5)))

	completed, total, err := NewTimelineRepository(mock, zap.NewNop()).Counts(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 2, completed)
	require.Equal(t, 5, total)
}

func TestAssignmentRepository_CreateErrors(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("INSERT INTO project_assignments").
		WithArgs(int64(7), int64(12)).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectQuery("INSERT INTO project_assignments").
		WithArgs(int64(8), int64(12)).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	repo := NewAssignmentRepository(mock, zap.NewNop())
	err := repo.Create(context.Background(), &model.Assignment{DeveloperID: 7, ProjectID: 12})
	require.ErrorIs(t, err, ErrConflict)

	err = repo.Create(context.Background(), &model.Assignment{DeveloperID: 8, ProjectID: 12})
	require.ErrorIs(t, err, ErrReferenceMissing)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Dev", "dev@example.com", "hash", "developer").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := NewUserRepository(mock, zap.NewNop()).Create(context.Background(), &model.User{
		Name: "Dev", Email: "dev@example.com", PasswordHash: "hash", Role: model.RoleDeveloper,
	})
	require.ErrorIs(t, err, ErrConflict)
}

func TestSentimentRepository_TrendRoundTrip(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	raw, err := encodeTrend([]model.TrendPoint{{Score: 97, Date: ts}})
	require.NoError(t, err)
	require.JSONEq(t, `[{"score":97,"timestamp":"2024-06-01T12:00:00Z"}]`, string(raw))

	mock := newMock(t)
	mock.ExpectQuery("FROM project_sentiment").
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{
			"project_id", "client_name", "sentiment_label", "confidence_score",
			"relationship_health_score", "summary", "analysis_method", "trend_history",
			"last_analyzed_message", "created_at", "updated_at",
		}).AddRow(
			int64(3), "Acme", "positive", 0.85,
			int32(97), "summary", "fallback", raw,
			"great work", ts, ts,
		))

	s, err := NewSentimentRepository(mock, zap.NewNop()).Get(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, model.SentimentPositive, s.SentimentLabel)
	require.Equal(t, model.MethodFallback, s.AnalysisMethod)
	require.Equal(t, 97, s.RelationshipHealthScore)
	require.Equal(t, []model.TrendPoint{{Score: 97, Date: ts}}, s.TrendHistory)
}

func sentimentRecord(ts time.Time) *model.ProjectSentiment {
	return &model.ProjectSentiment{
		ProjectID:               3,
		ClientName:              "Acme",
		SentimentLabel:          model.SentimentPositive,
		ConfidenceScore:         0.85,
		RelationshipHealthScore: 97,
		Summary:                 "summary",
		AnalysisMethod:          model.MethodFallback,
		TrendHistory:            []model.TrendPoint{{Score: 97, Date: ts}},
		LastAnalyzedMessage:     "great work",
	}
}

func TestSentimentRepository_Upsert(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	raw, err := encodeTrend([]model.TrendPoint{{Score: 97, Date: ts}})
	require.NoError(t, err)

	mock := newMock(t)
	repo := NewSentimentRepository(mock, zap.NewNop())
	upsert := `(?s)INSERT INTO project_sentiment.*ON CONFLICT \(project_id\) DO UPDATE SET.*RETURNING created_at, updated_at`

	for _, updated := range []time.Time{ts, ts.Add(time.Hour)} {
		mock.ExpectQuery(upsert).
			WithArgs(int64(3), "Acme", "positive", 0.85, 97, "summary", "fallback", raw, "great work").
			WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(ts, updated))
	}

	first := sentimentRecord(ts)
	require.NoError(t, repo.Upsert(context.Background(), first))
	require.Equal(t, ts, first.CreatedAt)
	require.Equal(t, ts, first.UpdatedAt)

	// 同一项目再次写入更新原记录，created_at 不变
	second := sentimentRecord(ts)
	require.NoError(t, repo.Upsert(context.Background(), second))
	require.Equal(t, ts, second.CreatedAt)
	require.Equal(t, ts.Add(time.Hour), second.UpdatedAt)

	mock.ExpectQuery(upsert).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	require.ErrorIs(t, repo.Upsert(context.Background(), sentimentRecord(ts)), ErrReferenceMissing)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSentimentRepository_InsertIfAbsent(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mock := newMock(t)
	repo := NewSentimentRepository(mock, zap.NewNop())
	insert := `(?s)INSERT INTO project_sentiment.*ON CONFLICT \(project_id\) DO NOTHING`

	mock.ExpectQuery(insert).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(ts, ts))
	inserted, err := repo.InsertIfAbsent(context.Background(), sentimentRecord(ts))
	require.NoError(t, err)
	require.True(t, inserted)

	// 已有记录：不返回行
	mock.ExpectQuery(insert).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}))
	inserted, err = repo.InsertIfAbsent(context.Background(), sentimentRecord(ts))
	require.NoError(t, err)
	require.False(t, inserted)

	mock.ExpectQuery(insert).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	_, err = repo.InsertIfAbsent(context.Background(), sentimentRecord(ts))
	require.ErrorIs(t, err, ErrReferenceMissing)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_CommitAndRollback(t *testing.T) {
	mock := newMock(t)
	tm := NewTxManager(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE inquiries SET progress").
		WithArgs(40, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	repo := NewProjectRepository(mock, zap.NewNop())
	err := tm.WithinTx(context.Background(), func(ctx context.Context) error {
		return repo.UpdateProgress(ctx, 1, 40)
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()
	boom := errors.New("boom")
	err = tm.WithinTx(context.Background(), func(ctx context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
