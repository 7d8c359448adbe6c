package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/prms-app/prms-server/internal/model"
)

// TaskRepo provides CRUD operations for tasks plus the two queries the
// round-robin selector depends on (LastAssignedBefore, SetAssignee). It
// satisfies the service.TaskStore interface.
type TaskRepo struct{ DB *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{DB: db} }

const taskColumns = "id, title, description, status, due_date, project_id, sprint_id, assigned_to_id, preferred_role, created_at, updated_at"

// Create inserts a task and reads the row back so database defaults and
// timestamps are populated on the provided struct.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tasks (title, description, status, due_date, project_id, sprint_id, assigned_to_id, preferred_role) VALUES (?,?,?,?,?,?,?,?)",
		t.Title, t.Description, t.Status, nullTime(t.DueDate), t.ProjectID,
		nullID(t.SprintID), nullID(t.AssignedToID), nullRole(t.PreferredRole))
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
	created, err := r.GetTask(ctx, uint64(id))
	if err != nil {
		return err
	}
	*t = created
	return nil
}

// GetTask fetches a task by id.
func (r *TaskRepo) GetTask(ctx context.Context, id uint64) (model.Task, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id=? LIMIT 1", id)
	return scanTask(row)
}

// List returns all tasks ordered by id.
func (r *TaskRepo) List(ctx context.Context) ([]model.Task, error) {
	return r.queryTasks(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY id ASC")
}

// ListByProject returns the tasks belonging to a project.
func (r *TaskRepo) ListByProject(ctx context.Context, projectID uint64) ([]model.Task, error) {
	return r.queryTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE project_id=? ORDER BY id ASC", projectID)
}

// ListByAssignee returns the tasks assigned to a user, newest first.
func (r *TaskRepo) ListByAssignee(ctx context.Context, userID uint64) ([]model.Task, error) {
	return r.queryTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE assigned_to_id=? ORDER BY created_at DESC, id DESC", userID)
}

// TaskUpdate carries the optional fields of an update; nil means "leave
// unchanged".
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *model.TaskStatus
	DueDate     *time.Time
}

// Update applies the non-nil fields and returns the updated task.
func (r *TaskRepo) Update(ctx context.Context, id uint64, upd TaskUpdate) (model.Task, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if upd.Title != nil {
		sets = append(sets, "title=?")
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, *upd.Description)
	}
	if upd.Status != nil {
		sets = append(sets, "status=?")
		args = append(args, *upd.Status)
	}
	if upd.DueDate != nil {
		sets = append(sets, "due_date=?")
		args = append(args, upd.DueDate.UTC())
	}
	if len(sets) > 0 {
		args = append(args, id)
		res, err := r.DB.ExecContext(ctx,
			"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
		if err != nil {
			return model.Task{}, err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			// Distinguish "no such row" from "values already identical".
			if _, err := r.GetTask(ctx, id); err != nil {
				return model.Task{}, err
			}
		}
	}
	return r.GetTask(ctx, id)
}

// Delete removes a task. sql.ErrNoRows is returned when nothing matched.
func (r *TaskRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tasks WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// LastAssignedBefore returns the most recent task, by descending id and
// strictly below beforeID, with the given preferred role and an assignee
// drawn from userIDs. sql.ErrNoRows means no anchor exists and the
// rotation starts over. The IN list is never empty: the selector bails
// out earlier with ErrNoEligibleUsers.
func (r *TaskRepo) LastAssignedBefore(ctx context.Context, role model.Role, beforeID uint64, userIDs []uint64) (model.Task, error) {
	if len(userIDs) == 0 {
		return model.Task{}, sql.ErrNoRows
	}
	q := "SELECT " + taskColumns + " FROM tasks WHERE preferred_role=? AND id<? AND assigned_to_id IN (" +
		placeholders(len(userIDs)) + ") ORDER BY id DESC LIMIT 1"
	args := make([]any, 0, len(userIDs)+2)
	args = append(args, role, beforeID)
	for _, id := range userIDs {
		args = append(args, id)
	}
	row := r.DB.QueryRowContext(ctx, q, args...)
	return scanTask(row)
}

// SetAssignee writes assigned_to_id and returns the updated task. No other
// column is touched.
func (r *TaskRepo) SetAssignee(ctx context.Context, taskID, userID uint64) (model.Task, error) {
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE tasks SET assigned_to_id=? WHERE id=?", userID, taskID); err != nil {
		return model.Task{}, err
	}
	return r.GetTask(ctx, taskID)
}

func (r *TaskRepo) queryTasks(ctx context.Context, q string, args ...any) ([]model.Task, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(s scanner) (model.Task, error) {
	var (
		t        model.Task
		dueDate  sql.NullTime
		sprintID sql.NullInt64
		assigned sql.NullInt64
		prefRole sql.NullString
	)
	err := s.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &dueDate,
		&t.ProjectID, &sprintID, &assigned, &prefRole, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.Task{}, err
	}
	if dueDate.Valid {
		d := dueDate.Time.UTC()
		t.DueDate = &d
	}
	if sprintID.Valid {
		v := uint64(sprintID.Int64)
		t.SprintID = &v
	}
	if assigned.Valid {
		v := uint64(assigned.Int64)
		t.AssignedToID = &v
	}
	if prefRole.Valid {
		role := model.Role(prefRole.String)
		t.PreferredRole = &role
	}
	return t, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullID(id *uint64) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullRole(r *model.Role) any {
	if r == nil {
		return nil
	}
	return *r
}
