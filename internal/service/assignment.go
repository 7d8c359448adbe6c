package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/prms-app/prms-server/internal/model"
)

// TaskStore is the slice of task persistence the selector needs. The SQL
// implementation lives in internal/repository; tests supply in-memory fakes.
type TaskStore interface {
	// GetTask returns the task or ErrNotFound.
	GetTask(ctx context.Context, id uint64) (model.Task, error)
	// LastAssignedBefore returns the most recent task (descending id,
	// strictly below beforeID) with the given preferred role whose assignee
	// is one of userIDs, or ErrNotFound when no such task exists.
	LastAssignedBefore(ctx context.Context, role model.Role, beforeID uint64, userIDs []uint64) (model.Task, error)
	// SetAssignee writes assigned_to_id and returns the updated task.
	SetAssignee(ctx context.Context, taskID, userID uint64) (model.Task, error)
}

// UserDirectory exposes the read-only user queries the selector needs.
type UserDirectory interface {
	// ActiveByRole returns active users holding role, ordered by ascending id.
	ActiveByRole(ctx context.Context, role model.Role) ([]model.User, error)
}

// AssignmentSelector picks the next user for a task in round-robin order
// among active users holding the task's preferred role. The rotation cursor
// is not stored anywhere: it is derived from the most recently assigned
// task with the same role, so the scheme self-heals when users come and go.
type AssignmentSelector struct {
	tasks TaskStore
	users UserDirectory

	mu       sync.Mutex
	roleLock map[model.Role]*sync.Mutex
}

// NewAssignmentSelector builds a selector over the given stores.
func NewAssignmentSelector(tasks TaskStore, users UserDirectory) *AssignmentSelector {
	return &AssignmentSelector{
		tasks:    tasks,
		users:    users,
		roleLock: make(map[model.Role]*sync.Mutex),
	}
}

// Assign selects the next eligible user for the task and persists the
// assignment. It fails with ErrNotFound when the task does not exist,
// ErrInvalidRequest when it has no preferred role, and ErrNoEligibleUsers
// when the role has no active users; in every failure case the task is
// left unmodified.
//
// The read-decide-write sequence runs under a per-role mutex. Without it,
// two concurrent assignments for the same role could both read the same
// anchor and hand the same user two tasks in a row.
func (s *AssignmentSelector) Assign(ctx context.Context, taskID uint64) (model.Task, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		if isNotFound(err) {
			return model.Task{}, fmt.Errorf("%w: task %d", ErrNotFound, taskID)
		}
		return model.Task{}, fmt.Errorf("load task: %w", err)
	}
	if task.PreferredRole == nil {
		return model.Task{}, fmt.Errorf("%w: task %d has no preferred role", ErrInvalidRequest, taskID)
	}
	role := *task.PreferredRole

	lock := s.lockFor(role)
	lock.Lock()
	defer lock.Unlock()

	eligible, err := s.users.ActiveByRole(ctx, role)
	if err != nil {
		return model.Task{}, fmt.Errorf("list eligible users: %w", err)
	}
	if len(eligible) == 0 {
		return model.Task{}, fmt.Errorf("%w: role %s", ErrNoEligibleUsers, role)
	}

	ids := make([]uint64, len(eligible))
	for i, u := range eligible {
		ids[i] = u.ID
	}

	next := eligible[0]
	anchor, err := s.tasks.LastAssignedBefore(ctx, role, taskID, ids)
	switch {
	case err == nil:
		next = nextInRotation(eligible, anchor.AssignedToID)
	case isNotFound(err):
		// No prior assignment for this role seeds the rotation at eligible[0].
	default:
		return model.Task{}, fmt.Errorf("find rotation anchor: %w", err)
	}

	updated, err := s.tasks.SetAssignee(ctx, taskID, next.ID)
	if err != nil {
		return model.Task{}, fmt.Errorf("persist assignment: %w", err)
	}
	return updated, nil
}

// nextInRotation returns the user following the anchor assignee in the
// ordered eligible list. When the assignee is nil or no longer present in
// the list (deactivated or role changed since the anchor was written), the
// rotation restarts at the first eligible user.
func nextInRotation(eligible []model.User, assignee *uint64) model.User {
	if assignee == nil {
		return eligible[0]
	}
	for i, u := range eligible {
		if u.ID == *assignee {
			return eligible[(i+1)%len(eligible)]
		}
	}
	return eligible[0]
}

func (s *AssignmentSelector) lockFor(role model.Role) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.roleLock[role]
	if !ok {
		l = &sync.Mutex{}
		s.roleLock[role] = l
	}
	return l
}
