package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clientdesk/internal/cache"
	"clientdesk/internal/handler"
	"clientdesk/internal/model"
	"clientdesk/internal/repository"
	"clientdesk/internal/repository/mocks"
	"clientdesk/internal/service/assignment"
	"clientdesk/internal/service/auth"
	"clientdesk/internal/service/dashboard"
	"clientdesk/internal/service/project"
	"clientdesk/internal/service/sentiment"
	"clientdesk/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "router-test-secret"

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubReplayer struct {
	replayed []int64
}

func (s *stubReplayer) ReplayEvent(_ context.Context, id int64) error {
	s.replayed = append(s.replayed, id)
	return nil
}

func (s *stubReplayer) ReplayFailedEvents(context.Context, int) (int, error) { return 3, nil }

type testEnv struct {
	projects    *mocks.ProjectRepository
	timeline    *mocks.TimelineRepository
	notes       *mocks.NoteRepository
	users       *mocks.UserRepository
	assignments *mocks.AssignmentRepository
	sentiments  *mocks.SentimentRepository
	events      *mocks.EventRecorder
	replayer    *stubReplayer
	engine      *gin.Engine
}

func newTestEnv(t *testing.T, requireAuth bool, db Pinger) *testEnv {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	e := &testEnv{
		projects:    &mocks.ProjectRepository{},
		timeline:    &mocks.TimelineRepository{},
		notes:       &mocks.NoteRepository{},
		users:       &mocks.UserRepository{},
		assignments: &mocks.AssignmentRepository{},
		sentiments:  &mocks.SentimentRepository{},
		events:      &mocks.EventRecorder{},
		replayer:    &stubReplayer{},
	}
	tx := mocks.Transactor{}

	projectSvc := project.NewService(tx, e.projects, e.timeline, e.notes, e.events, log)
	assignSvc := assignment.NewService(tx, e.assignments, e.projects, e.users, e.events, log)
	authSvc := auth.NewService(e.users, testSecret, time.Hour, log)
	sentimentSvc := sentiment.NewService(tx, e.sentiments, e.projects, e.events, cache.Nop{}, nil,
		sentiment.NewKeywordClassifier(nil, nil, sentiment.DefaultFallbackConfidence),
		sentiment.Options{FallbackEnabled: true}, log)

	e.engine = NewRouter(Handlers{
		Project:   handler.NewProjectHandler(projectSvc, log),
		Developer: handler.NewDeveloperHandler(assignSvc, log),
		Sentiment: handler.NewSentimentHandler(sentimentSvc, log),
		Auth:      handler.NewAuthHandler(authSvc, log),
		Dashboard: handler.NewDashboardHandler(dashboard.NewService(projectSvc), log),
		Admin:     handler.NewAdminHandler(e.replayer, log),
	}, Options{JWTSecret: testSecret, RequireAuth: requireAuth, DB: db}, log)

	t.Cleanup(func() {
		e.projects.AssertExpectations(t)
		e.timeline.AssertExpectations(t)
		e.assignments.AssertExpectations(t)
		e.users.AssertExpectations(t)
		e.events.AssertExpectations(t)
	})
	return e
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func token(t *testing.T, userID int64, role string) string {
	t.Helper()
	tok, err := util.GenerateJWT(userID, "user@example.com", role, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestHealthEndpoints(t *testing.T) {
	e := newTestEnv(t, false, stubPinger{})

	w, body := e.do(t, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", body["status"])
	require.NotEmpty(t, w.Header().Get("X-Trace-ID"))

	w, body = e.do(t, http.MethodGet, "/readyz", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ready", body["status"])

	w, _ = e.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestReadyz_DBDown(t *testing.T) {
	e := newTestEnv(t, false, stubPinger{err: errors.New("connection refused")})

	w, body := e.do(t, http.MethodGet, "/readyz", nil, "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "db_not_ready", body["status"])
}

func TestSubmitInquiry(t *testing.T) {
	e := newTestEnv(t, false, nil)
	e.projects.On("Create", mock.Anything, mock.AnythingOfType("*model.Project")).
		Run(func(args mock.Arguments) {
			p := args.Get(1).(*model.Project)
			p.ID = 1
			p.Status = model.StatusPending
			p.CreatedAt = time.Now()
		}).
		Return(nil)
	e.events.On("Record", mock.Anything, mock.Anything, model.ID(1), mock.Anything, mock.Anything).Return(nil)

	w, body := e.do(t, http.MethodPost, "/api/submit", map[string]string{
		"name":         "Ada Lovelace",
		"email":        "ada@example.com",
		"projectType":  "website",
		"requirements": "Landing page",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, "Inquiry submitted successfully", body["message"])

	inquiry := body["inquiry"].(map[string]any)
	require.Equal(t, "1", inquiry["id"])
	require.Equal(t, "Pending", inquiry["status"])
	require.EqualValues(t, 0, inquiry["progress"])
}

func TestSubmitInquiry_Validation(t *testing.T) {
	e := newTestEnv(t, false, nil)

	cases := []struct {
		name string
		body map[string]string
		want string
	}{
		{
			name: "missing name",
			body: map[string]string{"email": "a@b.co", "projectType": "app", "requirements": "x"},
			want: "name is required",
		},
		{
			name: "bad email",
			body: map[string]string{"name": "A", "email": "nope", "projectType": "app", "requirements": "x"},
			want: "Please enter a valid email address",
		},
		{
			name: "bad phone",
			body: map[string]string{"name": "A", "email": "a@b.co", "phone": "call me", "projectType": "app", "requirements": "x"},
			want: "Please enter a valid phone number",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := e.do(t, http.MethodPost, "/api/submit", tc.body, "")
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Equal(t, tc.want, body["error"])
		})
	}
}

func TestGetProject_NotFound(t *testing.T) {
	e := newTestEnv(t, false, nil)
	e.projects.On("Get", mock.Anything, model.ID(99)).Return(nil, repository.ErrNotFound)

	w, body := e.do(t, http.MethodGet, "/api/projects/99", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Project not found", body["error"])

	w, _ = e.do(t, http.MethodGet, "/api/projects/abc", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProject_InternalErrorIsGeneric(t *testing.T) {
	e := newTestEnv(t, false, nil)
	e.projects.On("List", mock.Anything).Return(nil, errors.New("pq: password authentication failed"))

	w, body := e.do(t, http.MethodGet, "/api/projects", nil, "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "Failed to fetch projects", body["error"])
}

func TestAssignDeveloper_DuplicateIsConflict(t *testing.T) {
	e := newTestEnv(t, false, nil)
	e.assignments.On("Exists", mock.Anything, model.ID(7), model.ID(12)).Return(false, nil).Once()
	e.assignments.On("Create", mock.Anything, mock.AnythingOfType("*model.Assignment")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.Assignment).ID = 1
		}).
		Return(nil).Once()
	e.projects.On("PromoteIfPending", mock.Anything, model.ID(12)).Return(true, nil).Once()
	e.events.On("Record", mock.Anything, mock.Anything, model.ID(12), mock.Anything, mock.Anything).Return(nil).Once()

	req := map[string]any{"developerId": "7", "projectId": 12}
	w, _ := e.do(t, http.MethodPost, "/api/developers/assign", req, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	e.assignments.On("Exists", mock.Anything, model.ID(7), model.ID(12)).Return(true, nil).Once()
	w, body := e.do(t, http.MethodPost, "/api/developers/assign", req, "")
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "Developer is already assigned to this project", body["error"])

	w, _ = e.do(t, http.MethodPost, "/api/developers/assign", map[string]any{"developerId": 7}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDevelopersAlias(t *testing.T) {
	e := newTestEnv(t, false, nil)
	e.users.On("ListDevelopers", mock.Anything).Return([]model.Developer{{ID: 7, Name: "Dev", Role: model.RoleDeveloper}}, nil).Twice()

	for _, path := range []string{"/api/developers", "/api/users/developers"} {
		w, _ := e.do(t, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestAuthMe(t *testing.T) {
	e := newTestEnv(t, false, nil)

	w, body := e.do(t, http.MethodGet, "/api/auth/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Access token required", body["error"])

	w, body = e.do(t, http.MethodGet, "/api/auth/me", nil, "not-a-token")
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "Invalid or expired token", body["error"])

	w, body = e.do(t, http.MethodGet, "/api/auth/me", nil, token(t, 5, "developer"))
	require.Equal(t, http.StatusOK, w.Code)
	user := body["user"].(map[string]any)
	require.EqualValues(t, 5, user["userId"])
	require.Equal(t, "developer", user["role"])
}

func TestLogin_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	e := newTestEnv(t, false, nil)
	hash, err := util.HashPassword("correct-horse")
	require.NoError(t, err)
	e.users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, repository.ErrNotFound)
	e.users.On("FindByEmail", mock.Anything, "ada@example.com").
		Return(&model.User{ID: 1, Email: "ada@example.com", PasswordHash: hash, Role: model.RoleAdmin}, nil)

	w1, b1 := e.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ghost@example.com", "password": "whatever"}, "")
	w2, b2 := e.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ada@example.com", "password": "wrong-pass"}, "")
	require.Equal(t, http.StatusUnauthorized, w1.Code)
	require.Equal(t, w1.Code, w2.Code)
	require.Equal(t, b1, b2)

	w, body := e.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ada@example.com", "password": "correct-horse"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Login successful", body["message"])
	require.NotEmpty(t, body["token"])
}

func TestRequireAuth_PermissionsByRole(t *testing.T) {
	e := newTestEnv(t, true, nil)

	w, _ := e.do(t, http.MethodGet, "/api/projects", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := e.do(t, http.MethodDelete, "/api/projects/3", nil, token(t, 7, "developer"))
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "insufficient permissions", body["error"])

	e.projects.On("Delete", mock.Anything, model.ID(3)).Return(&model.Project{ID: 3, ClientName: "Acme"}, nil)
	w, body = e.do(t, http.MethodDelete, "/api/projects/3", nil, token(t, 1, "admin"))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Project deleted successfully", body["message"])

	// 公开表单不受影响
	w, _ = e.do(t, http.MethodPost, "/api/submit", map[string]string{}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboard_DeveloperSeesAssignedProjects(t *testing.T) {
	e := newTestEnv(t, false, nil)
	e.projects.On("ListByDeveloper", mock.Anything, model.ID(7)).Return([]model.Project{
		{ID: 12, Status: model.StatusInProgress},
		{ID: 13, Status: model.StatusCompleted},
	}, nil)

	w, body := e.do(t, http.MethodGet, "/api/dashboard", nil, token(t, 7, "developer"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "developer", body["role"])
	stats := body["stats"].(map[string]any)
	require.EqualValues(t, 2, stats["total"])
	require.EqualValues(t, 1, stats["inProgress"])
}

func TestAdminReplay(t *testing.T) {
	e := newTestEnv(t, false, nil)

	w, _ := e.do(t, http.MethodPost, "/admin/outbox/replay?id=4", nil, token(t, 7, "developer"))
	require.Equal(t, http.StatusForbidden, w.Code)

	admin := token(t, 1, "admin")
	w, _ = e.do(t, http.MethodPost, "/admin/outbox/replay", nil, admin)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, body := e.do(t, http.MethodPost, "/admin/outbox/replay?id=4", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "replayed", body["status"])
	require.Equal(t, []int64{4}, e.replayer.replayed)

	w, body = e.do(t, http.MethodPost, "/admin/outbox/replay-failed?limit=abc", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 3, body["success_count"])
	require.EqualValues(t, 100, body["limit"])
}

func TestSentimentAnalyze_KeywordFallback(t *testing.T) {
	e := newTestEnv(t, false, nil)
	e.sentiments.On("Get", mock.Anything, model.ID(5)).Return(nil, repository.ErrNotFound)
	e.sentiments.On("Upsert", mock.Anything, mock.AnythingOfType("*model.ProjectSentiment")).Return(nil)
	e.events.On("Record", mock.Anything, mock.Anything, model.ID(5), mock.Anything, mock.Anything).Return(nil)

	w, body := e.do(t, http.MethodPost, "/api/ai/sentiment", map[string]any{
		"projectId":  5,
		"clientName": "Acme",
		"messages":   []map[string]string{{"text": "The mockups look great."}, {"text": "We love the direction!"}},
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "positive", body["sentimentLabel"])
	require.EqualValues(t, 0.85, body["confidenceScore"])
	require.EqualValues(t, 97, body["relationshipHealthScore"])
}

func TestSentimentGet_NotFound(t *testing.T) {
	e := newTestEnv(t, false, nil)
	e.sentiments.On("Get", mock.Anything, model.ID(8)).Return(nil, repository.ErrNotFound)

	w, body := e.do(t, http.MethodGet, "/api/ai/sentiment/8", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "No sentiment data found for this project", body["error"])
}
