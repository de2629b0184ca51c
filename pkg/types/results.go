package types

import (
	"io/fs"
)

// WriteStatus describes what applying a planned write does to its target.
type WriteStatus string

const (
	// WriteCreate means the target does not exist yet
	WriteCreate WriteStatus = "create"

	// WriteUpdate means the target exists with different content
	WriteUpdate WriteStatus = "update"

	// WriteUnchanged means the target already holds the merged content
	WriteUnchanged WriteStatus = "unchanged"
)

// PlannedWrite is the merged content for one target together with what is
// currently on disk.
type PlannedWrite struct {
	Target   Target
	Content  []byte
	Existing []byte
	Mode     fs.FileMode
	Status   WriteStatus
}

// Changed reports whether applying the write touches the filesystem.
func (w PlannedWrite) Changed() bool {
	return w.Status != WriteUnchanged
}

// SkippedDir records a fragment directory that produced no write.
type SkippedDir struct {
	Dir    FragmentDir
	Reason string
}

// Plan is the full set of writes computed from a source tree.
type Plan struct {
	SourceRoot string
	TargetRoot string
	Writes     []PlannedWrite
	Skipped    []SkippedDir
}

// Changes returns the writes that would modify the filesystem.
func (p *Plan) Changes() []PlannedWrite {
	var changed []PlannedWrite
	for _, w := range p.Writes {
		if w.Changed() {
			changed = append(changed, w)
		}
	}
	return changed
}

// Result is the outcome of applying a plan.
type Result struct {
	Plan   *Plan
	DryRun bool

	// Written lists the target paths that were actually written
	Written []string
}

// Count returns the number of writes with the given status.
func (r *Result) Count(status WriteStatus) int {
	if r.Plan == nil {
		return 0
	}
	n := 0
	for _, w := range r.Plan.Writes {
		if w.Status == status {
			n++
		}
	}
	return n
}
