package fragments

import (
	"testing"

	"github.com/arthur-debert/dotpatch/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExcludeSet(t *testing.T) {
	set, err := NewExcludeSet("AGENTS.md", "README.md", "*.orig")
	require.NoError(t, err)

	tests := []struct {
		name string
		want bool
	}{
		{"AGENTS.md", true},
		{"README.md", true},
		{"readme.md", false},
		{"README.md.bak", false},
		{"00-base.orig", true},
		{"00-base", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, set.Match(tt.name))
		})
	}
}

func TestExcludeSetInvalidPattern(t *testing.T) {
	_, err := NewExcludeSet("[unclosed")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	assert.Panics(t, func() { MustExcludeSet("[unclosed") })
}

func TestExcludeSetPatternsIsACopy(t *testing.T) {
	set := MustExcludeSet(DefaultExclude...)
	patterns := set.Patterns()
	patterns[0] = "changed"
	assert.Equal(t, DefaultExclude, set.Patterns())
	assert.False(t, MustExcludeSet().Match("README.md"))
}
