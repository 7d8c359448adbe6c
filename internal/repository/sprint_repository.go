package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/prms-app/prms-server/internal/model"
)

// SprintRepo provides CRUD operations for sprints.
type SprintRepo struct{ DB *sql.DB }

func NewSprintRepo(db *sql.DB) *SprintRepo { return &SprintRepo{DB: db} }

const sprintColumns = "id, name, start_date, end_date, project_id, created_at, updated_at"

// Create inserts a sprint and reads the row back to populate defaults.
// Pointing at an unknown project yields ErrInvalidReference.
func (r *SprintRepo) Create(ctx context.Context, s *model.Sprint) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO sprints (name, start_date, end_date, project_id) VALUES (?,?,?,?)",
		s.Name, s.StartDate.UTC(), s.EndDate.UTC(), s.ProjectID)
	if err != nil {
		if isFKParentErr(err) {
			return ErrInvalidReference
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.Get(ctx, uint64(id))
	if err != nil {
		return err
	}
	*s = created
	return nil
}

// Get fetches a sprint by id.
func (r *SprintRepo) Get(ctx context.Context, id uint64) (model.Sprint, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+sprintColumns+" FROM sprints WHERE id=? LIMIT 1", id)
	return scanSprint(row)
}

// List returns all sprints ordered by id.
func (r *SprintRepo) List(ctx context.Context) ([]model.Sprint, error) {
	return r.querySprints(ctx, "SELECT "+sprintColumns+" FROM sprints ORDER BY id ASC")
}

// ListByProject returns the sprints belonging to a project.
func (r *SprintRepo) ListByProject(ctx context.Context, projectID uint64) ([]model.Sprint, error) {
	return r.querySprints(ctx,
		"SELECT "+sprintColumns+" FROM sprints WHERE project_id=? ORDER BY id ASC", projectID)
}

// SprintUpdate carries the optional fields of an update; nil means
// "leave unchanged".
type SprintUpdate struct {
	Name      *string
	StartDate *time.Time
	EndDate   *time.Time
	ProjectID *uint64
}

// Update applies the non-nil fields and returns the updated sprint.
func (r *SprintRepo) Update(ctx context.Context, id uint64, upd SprintUpdate) (model.Sprint, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if upd.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *upd.Name)
	}
	if upd.StartDate != nil {
		sets = append(sets, "start_date=?")
		args = append(args, upd.StartDate.UTC())
	}
	if upd.EndDate != nil {
		sets = append(sets, "end_date=?")
		args = append(args, upd.EndDate.UTC())
	}
	if upd.ProjectID != nil {
		sets = append(sets, "project_id=?")
		args = append(args, *upd.ProjectID)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE sprints SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
			if isFKParentErr(err) {
				return model.Sprint{}, ErrInvalidReference
			}
			return model.Sprint{}, err
		}
	}
	return r.Get(ctx, id)
}

// Delete removes a sprint. Tasks referencing it keep existing: the schema
// nulls their sprint_id.
func (r *SprintRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM sprints WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *SprintRepo) querySprints(ctx context.Context, q string, args ...any) ([]model.Sprint, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sprints := []model.Sprint{}
	for rows.Next() {
		s, err := scanSprint(rows)
		if err != nil {
			return nil, err
		}
		sprints = append(sprints, s)
	}
	return sprints, rows.Err()
}

func scanSprint(s scanner) (model.Sprint, error) {
	var sp model.Sprint
	err := s.Scan(&sp.ID, &sp.Name, &sp.StartDate, &sp.EndDate, &sp.ProjectID,
		&sp.CreatedAt, &sp.UpdatedAt)
	return sp, err
}
