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
	"github.com/prms-app/prms-server/internal/repository"
)

// SprintHandler serves the sprint CRUD endpoints.
type SprintHandler struct {
	Sprints *repository.SprintRepo
}

func NewSprintHandler(s *repository.SprintRepo) *SprintHandler {
	return &SprintHandler{Sprints: s}
}

type sprintReq struct {
	Name      *string    `json:"name"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	ProjectID *uint64    `json:"projectId"`
}

// Create handles POST /v1/sprints. Name, dates and project are required.
func (h *SprintHandler) Create(c echo.Context) error {
	var req sprintReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" ||
		req.StartDate == nil || req.EndDate == nil || req.ProjectID == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, startDate, endDate and projectId are required"})
	}
	if req.EndDate.Before(*req.StartDate) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "endDate must not precede startDate"})
	}
	s := model.Sprint{
		Name:      strings.TrimSpace(*req.Name),
		StartDate: *req.StartDate,
		EndDate:   *req.EndDate,
		ProjectID: *req.ProjectID,
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Sprints.Create(ctx, &s); err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "project does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create sprint failed"})
	}
	return c.JSON(http.StatusCreated, s)
}

// List handles GET /v1/sprints.
func (h *SprintHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	items, err := h.Sprints.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch sprints failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/sprints/:id.
func (h *SprintHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	s, err := h.Sprints.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sprint not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch sprint failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// Update handles PUT /v1/sprints/:id. Absent fields stay unchanged.
func (h *SprintHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req sprintReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	upd := repository.SprintUpdate{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		ProjectID: req.ProjectID,
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name cannot be empty"})
		}
		upd.Name = &name
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	s, err := h.Sprints.Update(ctx, id, upd)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sprint not found"})
		case errors.Is(err, repository.ErrInvalidReference):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "project does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update sprint failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// Delete handles DELETE /v1/sprints/:id.
func (h *SprintHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Sprints.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sprint not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete sprint failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "sprint deleted"})
}
