package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role 用户角色，只有 admin 与 developer 两种
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleDeveloper:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

func (r Role) String() string { return string(r) }

func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

type User struct {
	ID           ID        `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Developer 开发者列表项，附带已分配项目数
type Developer struct {
	ID               ID        `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Role             Role      `json:"role"`
	CreatedAt        time.Time `json:"createdAt"`
	AssignedProjects int       `json:"assignedProjects"`
}

type Assignment struct {
	ID          ID        `json:"id"`
	DeveloperID ID        `json:"developerId"`
	ProjectID   ID        `json:"projectId"`
	AssignedAt  time.Time `json:"assignedAt"`
}
