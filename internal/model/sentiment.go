package model

import (
	"fmt"
	"time"
)

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

func ParseSentimentLabel(s string) (SentimentLabel, error) {
	switch SentimentLabel(s) {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return SentimentLabel(s), nil
	}
	return "", fmt.Errorf("invalid sentiment label %q", s)
}

type AnalysisMethod string

const (
	MethodHuggingFace AnalysisMethod = "huggingface"
	MethodOpenAI      AnalysisMethod = "openai"
	MethodFallback    AnalysisMethod = "fallback"
)

type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendDeclining TrendDirection = "declining"
)

// TrendPoint 趋势历史中的一个点，按追加顺序保存
type TrendPoint struct {
	Score int       `json:"score"`
	Date  time.Time `json:"date"`
}

// SentimentMessage 一条客户沟通记录
type SentimentMessage struct {
	Text string `json:"text"`
	Date string `json:"date,omitempty"`
}

// ProjectSentiment 每个项目一行，重新分析时整行覆盖
type ProjectSentiment struct {
	ProjectID               ID             `json:"projectId"`
	ClientName              string         `json:"clientName"`
	SentimentLabel          SentimentLabel `json:"sentimentLabel"`
	ConfidenceScore         float64        `json:"confidenceScore"`
	RelationshipHealthScore int            `json:"relationshipHealthScore"`
	Summary                 string         `json:"summary"`
	AnalysisMethod          AnalysisMethod `json:"analysisMethod"`
	TrendHistory            []TrendPoint   `json:"trendHistory"`
	TrendDirection          TrendDirection `json:"trendDirection"`
	LastAnalyzedMessage     string         `json:"lastAnalyzedMessage,omitempty"`
	CreatedAt               time.Time      `json:"createdAt"`
	UpdatedAt               time.Time      `json:"updatedAt"`
}
