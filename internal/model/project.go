package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

type ProjectStatus string

const (
	StatusPending    ProjectStatus = "Pending"
	StatusInProgress ProjectStatus = "In Progress"
	StatusCompleted  ProjectStatus = "Completed"
	StatusCancelled  ProjectStatus = "Cancelled"
)

// ProjectStatuses 所有合法的项目状态
var ProjectStatuses = []ProjectStatus{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

func ParseProjectStatus(s string) (ProjectStatus, error) {
	for _, st := range ProjectStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid project status %q", s)
}

func (s *ProjectStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st, err := ParseProjectStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Project 即客户询盘；表名仍为 inquiries
// TimelineRange 是表单里的期望周期（如 "asap"），TimelineItems 是进度节点
type Project struct {
	ID             ID             `json:"id"`
	ClientName     string         `json:"clientName"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone,omitempty"`
	ProjectType    string         `json:"projectType"`
	Requirements   string         `json:"requirements"`
	Status         ProjectStatus  `json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
	Progress       int            `json:"progress"`
	Company        string         `json:"company,omitempty"`
	Budget         string         `json:"budget,omitempty"`
	TimelineRange  string         `json:"timelineRange,omitempty"`
	Source         string         `json:"source,omitempty"`
	TargetAudience string         `json:"targetAudience,omitempty"`
	KeyFeatures    string         `json:"keyFeatures,omitempty"`
	TimelineItems  []TimelineItem `json:"timelineItems"`
	Notes          []Note         `json:"notes"`
}

// Clone 深拷贝，副本的修改不影响原值
func (p *Project) Clone() *Project {
	cp := *p
	cp.Notes = slices.Clone(p.Notes)
	cp.TimelineItems = slices.Clone(p.TimelineItems)
	for i := range cp.TimelineItems {
		item := &cp.TimelineItems[i]
		if item.Description != nil {
			d := *item.Description
			item.Description = &d
		}
		if item.Date != nil {
			t := *item.Date
			item.Date = &t
		}
	}
	return &cp
}

// Inquiry 公开表单提交的数据
type Inquiry struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone" binding:"omitempty,phone"`
	ProjectType    string `json:"projectType" binding:"required"`
	Requirements   string `json:"requirements" binding:"required"`
	Company        string `json:"company"`
	Budget         string `json:"budget"`
	Timeline       string `json:"timeline"`
	Source         string `json:"source"`
	TargetAudience string `json:"targetAudience"`
	KeyFeatures    string `json:"keyFeatures"`
}

// ProjectStats 仪表盘统计
type ProjectStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
}

func CountStats(projects []Project) ProjectStats {
	stats := ProjectStats{Total: len(projects)}
	for _, p := range projects {
		switch p.Status {
		case StatusPending:
			stats.Pending++
		case StatusInProgress:
			stats.InProgress++
		case StatusCompleted:
			stats.Completed++
		case StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats
}
