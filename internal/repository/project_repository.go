package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/prms-app/prms-server/internal/model"
)

// ProjectRepo provides CRUD operations for projects.
type ProjectRepo struct{ DB *sql.DB }

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{DB: db} }

const projectColumns = "id, name, description, status, created_at, updated_at"

// Create inserts a project and reads the row back to populate defaults.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO projects (name, description, status) VALUES (?,?,?)",
		p.Name, p.Description, p.Status)
	if err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicate
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
	*p = created
	return nil
}

// Get fetches a project by id.
func (r *ProjectRepo) Get(ctx context.Context, id uint64) (model.Project, error) {
	var p model.Project
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id=? LIMIT 1", id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// List returns all projects ordered by id.
func (r *ProjectRepo) List(ctx context.Context) ([]model.Project, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+projectColumns+" FROM projects ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ProjectUpdate carries the optional fields of an update; nil means
// "leave unchanged".
type ProjectUpdate struct {
	Name        *string
	Description *string
	Status      *model.ProjectStatus
}

// Update applies the non-nil fields and returns the updated project.
func (r *ProjectRepo) Update(ctx context.Context, id uint64, upd ProjectUpdate) (model.Project, error) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if upd.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *upd.Name)
	}
	if upd.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, *upd.Description)
	}
	if upd.Status != nil {
		sets = append(sets, "status=?")
		args = append(args, *upd.Status)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE projects SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
			if isDuplicateErr(err) {
				return model.Project{}, ErrDuplicate
			}
			return model.Project{}, err
		}
	}
	return r.Get(ctx, id)
}

// Delete removes a project. A project that still has sprints or tasks
// yields ErrConflict via the foreign-key restriction.
func (r *ProjectRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM projects WHERE id=?", id)
	if err != nil {
		if isFKRestrictErr(err) {
			return ErrConflict
		}
		return err
	}
	return requireRow(res)
}
