package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/prms-app/prms-server/internal/model"
	"github.com/prms-app/prms-server/internal/repository"
)

// ProjectHandler serves the project CRUD endpoints. Detail responses embed
// the project's sprints and tasks.
type ProjectHandler struct {
	Projects *repository.ProjectRepo
	Sprints  *repository.SprintRepo
	Tasks    *repository.TaskRepo
}

func NewProjectHandler(p *repository.ProjectRepo, s *repository.SprintRepo, t *repository.TaskRepo) *ProjectHandler {
	return &ProjectHandler{Projects: p, Sprints: s, Tasks: t}
}

type projectReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type projectDetail struct {
	model.Project
	Sprints []model.Sprint `json:"sprints"`
	Tasks   []model.Task   `json:"tasks"`
}

// Create handles POST /v1/projects.
func (h *ProjectHandler) Create(c echo.Context) error {
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "project name is required"})
	}
	p := model.Project{Name: strings.TrimSpace(*req.Name), Status: model.ProjectPlanned}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Status != nil && *req.Status != "" {
		st, err := model.ParseProjectStatus(*req.Status)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		p.Status = st
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Projects.Create(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "project name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create project failed"})
	}
	return c.JSON(http.StatusCreated, p)
}

// List handles GET /v1/projects.
func (h *ProjectHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	items, err := h.Projects.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch projects failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/projects/:id and embeds sprints and tasks.
func (h *ProjectHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	p, err := h.Projects.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch project failed"})
	}
	sprints, err := h.Sprints.ListByProject(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch sprints failed"})
	}
	tasks, err := h.Tasks.ListByProject(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch tasks failed"})
	}
	return c.JSON(http.StatusOK, projectDetail{Project: p, Sprints: sprints, Tasks: tasks})
}

// Update handles PUT /v1/projects/:id. Absent fields stay unchanged.
func (h *ProjectHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	upd := repository.ProjectUpdate{Description: req.Description}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name cannot be empty"})
		}
		upd.Name = &name
	}
	if req.Status != nil && *req.Status != "" {
		st, err := model.ParseProjectStatus(*req.Status)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		upd.Status = &st
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	p, err := h.Projects.Update(ctx, id, upd)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		case errors.Is(err, repository.ErrDuplicate):
			return c.JSON(http.StatusConflict, echo.Map{"error": "project name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update project failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /v1/projects/:id.
func (h *ProjectHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Projects.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "project still has sprints or tasks"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete project failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "project deleted"})
}
