package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prms-app/prms-server/internal/model"
)

// fakeTaskStore keeps tasks in a map and answers LastAssignedBefore the way
// the SQL query does: highest id below beforeID with a matching preferred
// role and an assignee drawn from userIDs.
type fakeTaskStore struct {
	tasks map[uint64]model.Task
}

func newFakeTaskStore(tasks ...model.Task) *fakeTaskStore {
	s := &fakeTaskStore{tasks: make(map[uint64]model.Task, len(tasks))}
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
	return s
}

func (s *fakeTaskStore) GetTask(_ context.Context, id uint64) (model.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	return t, nil
}

func (s *fakeTaskStore) LastAssignedBefore(_ context.Context, role model.Role, beforeID uint64, userIDs []uint64) (model.Task, error) {
	eligible := make(map[uint64]bool, len(userIDs))
	for _, id := range userIDs {
		eligible[id] = true
	}
	var best *model.Task
	for id, t := range s.tasks {
		if id >= beforeID || t.PreferredRole == nil || *t.PreferredRole != role {
			continue
		}
		if t.AssignedToID == nil || !eligible[*t.AssignedToID] {
			continue
		}
		if best == nil || id > best.ID {
			tt := t
			best = &tt
		}
	}
	if best == nil {
		return model.Task{}, ErrNotFound
	}
	return *best, nil
}

func (s *fakeTaskStore) SetAssignee(_ context.Context, taskID, userID uint64) (model.Task, error) {
	t, ok := s.tasks[taskID]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	t.AssignedToID = &userID
	s.tasks[taskID] = t
	return t, nil
}

type fakeUserDirectory struct {
	byRole map[model.Role][]model.User
}

func (d *fakeUserDirectory) ActiveByRole(_ context.Context, role model.Role) ([]model.User, error) {
	return d.byRole[role], nil
}

func devUsers(ids ...uint64) []model.User {
	users := make([]model.User, len(ids))
	for i, id := range ids {
		users[i] = model.User{ID: id, Role: model.RoleDeveloper, IsActive: true}
	}
	return users
}

func devTask(id uint64, assignee *uint64) model.Task {
	role := model.RoleDeveloper
	return model.Task{ID: id, Title: "t", ProjectID: 1, Status: model.TaskTodo, PreferredRole: &role, AssignedToID: assignee}
}

func uintPtr(v uint64) *uint64 { return &v }

func TestAssignRotation(t *testing.T) {
	ctx := context.Background()

	t.Run("first assignment seeds at lowest id", func(t *testing.T) {
		store := newFakeTaskStore(devTask(10, nil))
		sel := NewAssignmentSelector(store, &fakeUserDirectory{byRole: map[model.Role][]model.User{
			model.RoleDeveloper: devUsers(3, 7, 9),
		}})

		got, err := sel.Assign(ctx, 10)
		require.NoError(t, err)
		require.NotNil(t, got.AssignedToID)
		require.Equal(t, uint64(3), *got.AssignedToID)
	})

	t.Run("full cycle wraps back to first user", func(t *testing.T) {
		store := newFakeTaskStore(devTask(10, nil), devTask(11, nil), devTask(12, nil), devTask(13, nil))
		sel := NewAssignmentSelector(store, &fakeUserDirectory{byRole: map[model.Role][]model.User{
			model.RoleDeveloper: devUsers(3, 7, 9),
		}})

		want := []uint64{3, 7, 9, 3}
		for i, taskID := range []uint64{10, 11, 12, 13} {
			got, err := sel.Assign(ctx, taskID)
			require.NoError(t, err)
			require.Equal(t, want[i], *got.AssignedToID, "task %d", taskID)
		}
	})

	t.Run("anchor assignee deactivated restarts rotation", func(t *testing.T) {
		// Task 5 went to user 7, but 7 is no longer active. The anchor query
		// filters on the current eligible set, so task 5 is skipped and the
		// surviving anchor is task 4 (user 3): next is 9.
		store := newFakeTaskStore(
			devTask(4, uintPtr(3)),
			devTask(5, uintPtr(7)),
			devTask(6, nil),
		)
		sel := NewAssignmentSelector(store, &fakeUserDirectory{byRole: map[model.Role][]model.User{
			model.RoleDeveloper: devUsers(3, 9),
		}})

		got, err := sel.Assign(ctx, 6)
		require.NoError(t, err)
		require.Equal(t, uint64(9), *got.AssignedToID)
	})

	t.Run("missing task", func(t *testing.T) {
		sel := NewAssignmentSelector(newFakeTaskStore(), &fakeUserDirectory{})
		_, err := sel.Assign(ctx, 999)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("no preferred role", func(t *testing.T) {
		task := model.Task{ID: 20, ProjectID: 1, Status: model.TaskTodo}
		store := newFakeTaskStore(task)
		sel := NewAssignmentSelector(store, &fakeUserDirectory{})

		_, err := sel.Assign(ctx, 20)
		require.ErrorIs(t, err, ErrInvalidRequest)
		require.Nil(t, store.tasks[20].AssignedToID)
	})

	t.Run("no eligible users leaves task unchanged", func(t *testing.T) {
		store := newFakeTaskStore(devTask(30, nil))
		sel := NewAssignmentSelector(store, &fakeUserDirectory{byRole: map[model.Role][]model.User{}})

		_, err := sel.Assign(ctx, 30)
		require.ErrorIs(t, err, ErrNoEligibleUsers)
		require.Nil(t, store.tasks[30].AssignedToID)
	})

	t.Run("reassignment advances past current assignee", func(t *testing.T) {
		// Assigning the same task twice: the second call anchors on an
		// earlier task, not on the task being assigned.
		store := newFakeTaskStore(devTask(40, uintPtr(3)), devTask(41, nil))
		sel := NewAssignmentSelector(store, &fakeUserDirectory{byRole: map[model.Role][]model.User{
			model.RoleDeveloper: devUsers(3, 7, 9),
		}})

		got, err := sel.Assign(ctx, 41)
		require.NoError(t, err)
		require.Equal(t, uint64(7), *got.AssignedToID)

		got, err = sel.Assign(ctx, 41)
		require.NoError(t, err)
		require.Equal(t, uint64(7), *got.AssignedToID, "same anchor gives the same result")
	})
}

func TestNextInRotation(t *testing.T) {
	eligible := devUsers(3, 7, 9)

	t.Run("nil assignee", func(t *testing.T) {
		require.Equal(t, uint64(3), nextInRotation(eligible, nil).ID)
	})

	t.Run("advances to successor", func(t *testing.T) {
		require.Equal(t, uint64(9), nextInRotation(eligible, uintPtr(7)).ID)
	})

	t.Run("wraps at end of list", func(t *testing.T) {
		require.Equal(t, uint64(3), nextInRotation(eligible, uintPtr(9)).ID)
	})

	t.Run("unknown assignee restarts at first", func(t *testing.T) {
		require.Equal(t, uint64(3), nextInRotation(eligible, uintPtr(42)).ID)
	})
}
