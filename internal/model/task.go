package model

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus enumerates the workflow states of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
)

// ParseTaskStatus validates a client-supplied task status.
func ParseTaskStatus(s string) (TaskStatus, error) {
	st := TaskStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case TaskTodo, TaskInProgress, TaskDone:
		return st, nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// Task represents a row in the `tasks` table. IDs are auto-incremented and
// double as the ordering key for round-robin assignment: the most recent
// assigned task with the same preferred role anchors the rotation.
//
// PreferredRole is nil when no auto-assignment was requested and
// AssignedToID is nil while the task is unassigned.
type Task struct {
	ID            uint64     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        TaskStatus `json:"status"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	ProjectID     uint64     `json:"project_id"`
	SprintID      *uint64    `json:"sprint_id,omitempty"`
	AssignedToID  *uint64    `json:"assigned_to_id,omitempty"`
	PreferredRole *Role      `json:"preferred_role,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
