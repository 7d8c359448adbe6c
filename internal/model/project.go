package model

import (
	"fmt"
	"strings"
	"time"
)

// ProjectStatus enumerates the lifecycle states of a project.
type ProjectStatus string

const (
	ProjectPlanned   ProjectStatus = "PLANNED"
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectOnHold    ProjectStatus = "ON_HOLD"
	ProjectCompleted ProjectStatus = "COMPLETED"
)

// ParseProjectStatus validates a client-supplied project status.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	st := ProjectStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case ProjectPlanned, ProjectActive, ProjectOnHold, ProjectCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown project status %q", s)
}

// Project represents a row in the `projects` table.
type Project struct {
	ID          uint64        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
