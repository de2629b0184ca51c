// pkg/types/results_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test plan and result helpers

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanChanges(t *testing.T) {
	plan := &Plan{
		Writes: []PlannedWrite{
			{Target: Target{Path: "/home/u/.a"}, Status: WriteCreate},
			{Target: Target{Path: "/home/u/.b"}, Status: WriteUnchanged},
			{Target: Target{Path: "/home/u/.c"}, Status: WriteUpdate},
		},
	}

	changes := plan.Changes()
	assert.Len(t, changes, 2)
	assert.Equal(t, "/home/u/.a", changes[0].Target.Path)
	assert.Equal(t, "/home/u/.c", changes[1].Target.Path)
}

func TestResultCount(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		status WriteStatus
		want   int
	}{
		{
			name:   "nil_plan",
			result: &Result{},
			status: WriteCreate,
			want:   0,
		},
		{
			name: "mixed_statuses",
			result: &Result{Plan: &Plan{Writes: []PlannedWrite{
				{Status: WriteCreate},
				{Status: WriteCreate},
				{Status: WriteUnchanged},
			}}},
			status: WriteCreate,
			want:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Count(tt.status))
		})
	}
}

func TestFragmentDirIsEmpty(t *testing.T) {
	assert.True(t, FragmentDir{RelPath: "dot-x.d"}.IsEmpty())
	assert.False(t, FragmentDir{Fragments: []Fragment{{Name: "00"}}}.IsEmpty())
}
