// Package paths provides centralized path handling for dotpatch.
//
// It resolves the three locations a run depends on:
//
//   - the repository root, used to anchor the default source directory
//     and to find the repository configuration file
//   - the source root, the "patches" tree holding fragment directories
//   - the target root, normally the user's home directory
//
// It also owns dotpatch's XDG state directory, where the log file and the
// run lock live.
//
// # Environment Variables
//
//   - DOTPATCH_ROOT: repository root (default: git toplevel, then cwd)
//   - DOTPATCH_STATE_DIR: state directory (default: $XDG_STATE_HOME/dotpatch)
//   - HOME: default target root
package paths
