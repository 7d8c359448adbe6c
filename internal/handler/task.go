package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/prms-app/prms-server/internal/model"
	"github.com/prms-app/prms-server/internal/queue"
	"github.com/prms-app/prms-server/internal/repository"
	"github.com/prms-app/prms-server/internal/service"
)

// TaskHandler serves the task CRUD endpoints plus round-robin assignment.
type TaskHandler struct {
	Tasks    *repository.TaskRepo
	Selector *service.AssignmentSelector
}

func NewTaskHandler(t *repository.TaskRepo, sel *service.AssignmentSelector) *TaskHandler {
	return &TaskHandler{Tasks: t, Selector: sel}
}

type taskReq struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Status        *string    `json:"status"`
	DueDate       *time.Time `json:"dueDate"`
	ProjectID     *uint64    `json:"projectId"`
	SprintID      *uint64    `json:"sprintId"`
	AssignedToID  *uint64    `json:"assignedToId"`
	PreferredRole *string    `json:"preferredRole"`
}

// Create handles POST /v1/tasks. Title and projectId are required; status
// defaults to TODO.
func (h *TaskHandler) Create(c echo.Context) error {
	var req taskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" || req.ProjectID == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and projectId are required"})
	}

	t := model.Task{
		Title:        strings.TrimSpace(*req.Title),
		Status:       model.TaskTodo,
		DueDate:      req.DueDate,
		ProjectID:    *req.ProjectID,
		SprintID:     req.SprintID,
		AssignedToID: req.AssignedToID,
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Status != nil && *req.Status != "" {
		st, err := model.ParseTaskStatus(*req.Status)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		t.Status = st
	}
	if req.PreferredRole != nil && *req.PreferredRole != "" {
		role, err := model.ParseRole(*req.PreferredRole)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid preferredRole"})
		}
		t.PreferredRole = &role
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Tasks.Create(ctx, &t); err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "project, sprint or assignee does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create task failed"})
	}
	return c.JSON(http.StatusCreated, t)
}

// List handles GET /v1/tasks. An optional ?projectId= filter narrows the
// result to one project.
func (h *TaskHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	if raw := c.QueryParam("projectId"); raw != "" {
		pid, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid projectId"})
		}
		items, err := h.Tasks.ListByProject(ctx, pid)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch tasks failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{"items": items})
	}

	items, err := h.Tasks.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch tasks failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/tasks/:id.
func (h *TaskHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	t, err := h.Tasks.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch task failed"})
	}
	return c.JSON(http.StatusOK, t)
}

// Update handles PUT /v1/tasks/:id. Only title, description, status and
// dueDate are updatable here; assignment goes through POST /tasks/:id/assign.
func (h *TaskHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req taskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	upd := repository.TaskUpdate{Description: req.Description, DueDate: req.DueDate}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "title cannot be empty"})
		}
		upd.Title = &title
	}
	if req.Status != nil && *req.Status != "" {
		st, err := model.ParseTaskStatus(*req.Status)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		upd.Status = &st
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	t, err := h.Tasks.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update task failed"})
	}
	return c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /v1/tasks/:id.
func (h *TaskHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete task failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "task deleted"})
}

// Assign handles POST /v1/tasks/:id/assign: round-robin among active users
// holding the task's preferred role. On success an event is published for
// the assignment log consumer; publish failures never fail the request.
func (h *TaskHandler) Assign(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	t, err := h.Selector.Assign(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		case errors.Is(err, service.ErrInvalidRequest):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "task has no preferred role"})
		case errors.Is(err, service.ErrNoEligibleUsers):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no eligible users for the task's preferred role"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign task failed"})
	}

	if t.PreferredRole != nil && t.AssignedToID != nil {
		_ = queue.PublishTaskAssigned(ctx, queue.TaskAssignedEvent{
			TaskID:        t.ID,
			TaskTitle:     t.Title,
			ProjectID:     t.ProjectID,
			PreferredRole: t.PreferredRole.String(),
			AssigneeID:    *t.AssignedToID,
			AssignedAt:    time.Now().UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, t)
}

// ListByUser handles GET /v1/tasks/user/:id and GET /v1/users/:id/tasks.
func (h *TaskHandler) ListByUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	items, err := h.Tasks.ListByAssignee(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch tasks failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
