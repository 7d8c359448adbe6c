package model

import "time"

// Sprint represents a row in the `sprints` table. Every sprint belongs to
// exactly one project; tasks may optionally reference a sprint.
type Sprint struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	ProjectID uint64    `json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
