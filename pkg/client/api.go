package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"clientdesk/internal/model"
)

// User 登录/注册返回的用户信息
type User struct {
	ID    model.ID   `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

type AuthResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
	Token   string `json:"token"`
}

// Claims /api/auth/me 返回的 token 内容
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type TimelineItemRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
}

type SentimentRequest struct {
	ProjectID  model.ID                 `json:"projectId"`
	ClientName string                   `json:"clientName"`
	Messages   []model.SentimentMessage `json:"messages"`
}

type SentimentOutcome struct {
	ProjectID               model.ID `json:"projectId"`
	ClientName              string   `json:"clientName"`
	Status                  string   `json:"status"`
	RelationshipHealthScore int      `json:"relationshipHealthScore,omitempty"`
	Error                   string   `json:"error,omitempty"`
}

type GenerateAllResponse struct {
	Message   string             `json:"message"`
	Generated int                `json:"generated"`
	Results   []SentimentOutcome `json:"results"`
}

type Dashboard struct {
	Role     model.Role         `json:"role"`
	Projects []model.Project    `json:"projects"`
	Stats    model.ProjectStats `json:"stats"`
}

func (c *Client) Signup(ctx context.Context, in SignupRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*Claims, error) {
	var out struct {
		User Claims `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var out Dashboard
	if err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitInquiry 公开表单，不需要 token
func (c *Client) SubmitInquiry(ctx context.Context, in model.Inquiry) (*model.Project, error) {
	var out struct {
		Inquiry model.Project `json:"inquiry"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/submit", in, &out); err != nil {
		return nil, err
	}
	return &out.Inquiry, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var out []model.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProject 命中缓存时不访问服务端
func (c *Client) GetProject(ctx context.Context, id model.ID) (*model.Project, error) {
	if p, ok := c.cachedProject(id); ok {
		return p, nil
	}
	var out model.Project
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/projects/%d", id), nil, &out); err != nil {
		return nil, err
	}
	c.storeProject(&out)
	return &out, nil
}

func (c *Client) DeleteProject(ctx context.Context, id model.ID) (*model.Project, error) {
	defer c.invalidate(id)
	var out struct {
		DeletedProject model.Project `json:"deletedProject"`
	}
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/projects/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out.DeletedProject, nil
}

func (c *Client) UpdateProjectStatus(ctx context.Context, id model.ID, status model.ProjectStatus) (*model.Project, error) {
	defer c.invalidate(id)
	var out model.Project
	body := map[string]string{"status": string(status)}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/projects/%d/status", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListNotes(ctx context.Context, projectID model.ID) ([]model.Note, error) {
	var out []model.Note
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/projects/%d/notes", projectID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddNote(ctx context.Context, projectID model.ID, content string) (*model.Note, error) {
	defer c.invalidate(projectID)
	var out model.Note
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/projects/%d/notes", projectID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTimeline(ctx context.Context, projectID model.ID) ([]model.TimelineItem, error) {
	var out []model.TimelineItem
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/projects/%d/timeline", projectID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddTimelineItem(ctx context.Context, projectID model.ID, in TimelineItemRequest) (*model.TimelineItem, error) {
	defer c.invalidate(projectID)
	var out model.TimelineItem
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/projects/%d/timeline", projectID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTimelineItem(ctx context.Context, projectID, itemID model.ID, status model.TimelineStatus) (*model.TimelineItem, error) {
	defer c.invalidate(projectID)
	var out model.TimelineItem
	body := map[string]string{"status": string(status)}
	path := fmt.Sprintf("/api/projects/%d/timeline/%d", projectID, itemID)
	if err := c.do(ctx, http.MethodPut, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListAssignedProjects(ctx context.Context, developerID model.ID) ([]model.Project, error) {
	var out []model.Project
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/projects/assigned/%d", developerID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListDevelopers(ctx context.Context) ([]model.Developer, error) {
	var out []model.Developer
	if err := c.do(ctx, http.MethodGet, "/api/developers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AssignDeveloper 分配可能把项目状态改为 In Progress
func (c *Client) AssignDeveloper(ctx context.Context, developerID, projectID model.ID) (*model.Assignment, error) {
	defer c.invalidate(projectID)
	var out model.Assignment
	body := map[string]model.ID{"developerId": developerID, "projectId": projectID}
	if err := c.do(ctx, http.MethodPost, "/api/developers/assign", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Unassign 不知道对应的项目，清空整个缓存
func (c *Client) Unassign(ctx context.Context, assignmentID model.ID) error {
	defer c.invalidate()
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/developers/assignments/%d", assignmentID), nil, nil)
}

func (c *Client) AnalyzeSentiment(ctx context.Context, in SentimentRequest) (*model.ProjectSentiment, error) {
	var out model.ProjectSentiment
	if err := c.do(ctx, http.MethodPost, "/api/ai/sentiment", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSentiment(ctx context.Context, projectID model.ID) (*model.ProjectSentiment, error) {
	var out model.ProjectSentiment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/ai/sentiment/%d", projectID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GenerateAllSentiment(ctx context.Context) (*GenerateAllResponse, error) {
	var out GenerateAllResponse
	if err := c.do(ctx, http.MethodPost, "/api/ai/sentiment/generate-all", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
