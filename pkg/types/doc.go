// Package types defines the core types and interfaces shared by dotpatch's
// packages: the FS abstraction every component writes through, the
// fragment model produced by discovery, and the plan/result values produced
// by the patcher.
package types
