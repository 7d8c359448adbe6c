// Package queue defines the message payloads exchanged over RabbitMQ and
// the publisher/consumer pair for the task.assigned queue.
package queue

// TaskAssignedEvent is published when the round-robin selector assigns a
// task. It carries enough detail for downstream consumers to log or notify
// without querying the primary database.
type TaskAssignedEvent struct {
	TaskID        uint64 `json:"task_id"`
	TaskTitle     string `json:"task_title"`
	ProjectID     uint64 `json:"project_id"`
	PreferredRole string `json:"preferred_role"`
	AssigneeID    uint64 `json:"assignee_id"`
	AssignedAt    string `json:"assigned_at"`
}
