// Package testutil provides utilities for testing dotpatch components.
//
// Key components:
//   - NewTestFS: in-memory filesystem for fast, isolated tests
//   - FileTree / CreateFileTree: declarative source tree setup
//   - ReadFileString: read back targets with test failure on error
//
// All test data should be defined inline, not in external files.
package testutil
