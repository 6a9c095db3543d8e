package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type TimelineStatus string

const (
	TimelineCompleted TimelineStatus = "completed"
	TimelineCurrent   TimelineStatus = "current"
	TimelinePending   TimelineStatus = "pending"
)

func ParseTimelineStatus(s string) (TimelineStatus, error) {
	switch TimelineStatus(s) {
	case TimelineCompleted, TimelineCurrent, TimelinePending:
		return TimelineStatus(s), nil
	}
	return "", fmt.Errorf("invalid timeline status %q", s)
}

func (s *TimelineStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st, err := ParseTimelineStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// TimelineItem 项目进度节点
type TimelineItem struct {
	ID          ID             `json:"id"`
	ProjectID   ID             `json:"projectId"`
	Title       string         `json:"title"`
	Description *string        `json:"description,omitempty"`
	Status      TimelineStatus `json:"status"`
	Date        *time.Time     `json:"date,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Note 项目备注，只追加
type Note struct {
	ID        ID        `json:"id"`
	ProjectID ID        `json:"projectId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
