package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Run("accepts every role case-insensitively", func(t *testing.T) {
		for _, in := range []string{"DEVELOPER", "developer", " Designer ", "user", "ADMIN"} {
			r, err := ParseRole(in)
			require.NoError(t, err, in)
			require.Contains(t, Roles, r)
		}
	})

	t.Run("rejects unknown values", func(t *testing.T) {
		for _, in := range []string{"", "MANAGER", "DEV", "DEVELOPERS"} {
			_, err := ParseRole(in)
			require.Error(t, err, "%q", in)
		}
	})
}

func TestParseTaskStatus(t *testing.T) {
	st, err := ParseTaskStatus("in_progress")
	require.NoError(t, err)
	require.Equal(t, TaskInProgress, st)

	_, err = ParseTaskStatus("ARCHIVED")
	require.Error(t, err)
}

func TestParseProjectStatus(t *testing.T) {
	st, err := ParseProjectStatus(" on_hold ")
	require.NoError(t, err)
	require.Equal(t, ProjectOnHold, st)

	_, err = ParseProjectStatus("CANCELLED")
	require.Error(t, err)
}
