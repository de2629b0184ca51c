package fragments

import (
	"github.com/arthur-debert/dotpatch/pkg/errors"
	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExclude lists the documentation files that are never merged
var DefaultExclude = []string{"AGENTS.md", "README.md"}

// ExcludeSet matches base names that discovery must skip. Patterns use
// doublestar syntax and are case-sensitive; a pattern without glob
// metacharacters matches exactly one name.
type ExcludeSet struct {
	patterns []string
}

// NewExcludeSet validates the patterns and returns a set matching any of them
func NewExcludeSet(patterns ...string) (ExcludeSet, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return ExcludeSet{}, errors.Newf(errors.ErrInvalidInput, "invalid exclude pattern %q", p)
		}
	}
	return ExcludeSet{patterns: append([]string(nil), patterns...)}, nil
}

// MustExcludeSet is NewExcludeSet for patterns known to be valid
func MustExcludeSet(patterns ...string) ExcludeSet {
	set, err := NewExcludeSet(patterns...)
	if err != nil {
		panic(err)
	}
	return set
}

// Match reports whether name is excluded
func (s ExcludeSet) Match(name string) bool {
	for _, p := range s.patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// Patterns returns a copy of the configured patterns
func (s ExcludeSet) Patterns() []string {
	return append([]string(nil), s.patterns...)
}
