package mq

import "time"

// 路由键
const (
	RoutingInquirySubmitted  = "inquiry.submitted"
	RoutingProjectAssigned   = "project.assigned"
	RoutingSentimentAnalyzed = "sentiment.analyzed"
)

// outbox 中的聚合类型
const (
	AggregateProject   = "project"
	AggregateSentiment = "sentiment"
)

// InquirySubmittedPayload 新询盘提交事件
type InquirySubmittedPayload struct {
	ProjectID    int64     `json:"project_id"`
	ClientName   string    `json:"client_name"`
	Email        string    `json:"email"`
	ProjectType  string    `json:"project_type"`
	Requirements string    `json:"requirements"`
	SubmittedAt  time.Time `json:"submitted_at"`
	TraceID      string    `json:"trace_id,omitempty"`
}

type ProjectAssignedPayload struct {
	AssignmentID int64     `json:"assignment_id"`
	DeveloperID  int64     `json:"developer_id"`
	ProjectID    int64     `json:"project_id"`
	Promoted     bool      `json:"promoted"` // Pending -> In Progress
	AssignedAt   time.Time `json:"assigned_at"`
	TraceID      string    `json:"trace_id,omitempty"`
}

type SentimentAnalyzedPayload struct {
	ProjectID               int64   `json:"project_id"`
	SentimentLabel          string  `json:"sentiment_label"`
	ConfidenceScore         float64 `json:"confidence_score"`
	RelationshipHealthScore int     `json:"relationship_health_score"`
	AnalysisMethod          string  `json:"analysis_method"`
	TraceID                 string  `json:"trace_id,omitempty"`
}
