package paths

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/dotpatch/pkg/errors"
)

// Environment variable names
const (
	// EnvRoot overrides repository root discovery
	EnvRoot = "DOTPATCH_ROOT"

	// EnvStateDir overrides the XDG state directory for dotpatch
	EnvStateDir = "DOTPATCH_STATE_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Fixed names. These are not user-configurable; the configurable source
// directory lives in pkg/config.
const (
	// DirName is the directory name for dotpatch-specific state
	DirName = "dotpatch"

	// DefaultSourceDir is the default fragment tree, relative to the repository root
	DefaultSourceDir = "patches"

	// LogFileName is the name of the log file
	LogFileName = "dotpatch.log"

	// LockFileName is the name of the run lock
	LockFileName = "dotpatch.lock"
)

// Paths holds the resolved repository root for one invocation
type Paths struct {
	// repoRoot is the repository holding the patches tree
	repoRoot string

	// usedFallback indicates if we fell back to cwd (for warning display)
	usedFallback bool
}

// New creates a new Paths instance with the given repository root.
// If repoRoot is empty, it will be determined from DOTPATCH_ROOT, the
// enclosing git repository, or the current directory, in that order.
func New(repoRoot string) (*Paths, error) {
	p := &Paths{}

	if repoRoot == "" {
		root, usedFallback, err := findRepoRoot()
		if err != nil {
			return nil, err
		}
		p.repoRoot = root
		p.usedFallback = usedFallback
	} else {
		p.repoRoot = ExpandHome(repoRoot)
	}

	absRoot, err := filepath.Abs(p.repoRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to get absolute path for repository root").
			WithPath(p.repoRoot)
	}
	p.repoRoot = absRoot

	return p, nil
}

// RepoRoot returns the repository root
func (p *Paths) RepoRoot() string {
	return p.repoRoot
}

// UsedFallback returns true if the current working directory was used as fallback
func (p *Paths) UsedFallback() bool {
	return p.usedFallback
}

// SourceRoot resolves the fragment tree. An explicit value (from the
// command line) is taken relative to the working directory; otherwise the
// configured value is taken relative to the repository root.
func (p *Paths) SourceRoot(explicit, configured string) (string, error) {
	var root string
	switch {
	case explicit != "":
		abs, err := filepath.Abs(ExpandHome(explicit))
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrIO, "failed to get absolute path for source root").
				WithPath(explicit)
		}
		root = abs
	case configured != "":
		configured = ExpandHome(configured)
		if filepath.IsAbs(configured) {
			root = configured
		} else {
			root = filepath.Join(p.repoRoot, configured)
		}
	default:
		root = filepath.Join(p.repoRoot, DefaultSourceDir)
	}
	return filepath.Clean(root), nil
}

// ResolveHome returns the absolute target root: the explicit value when
// given, else $HOME, else the OS notion of the user's home directory.
func ResolveHome(explicit string) (string, error) {
	home := ExpandHome(explicit)
	if home == "" {
		home = os.Getenv(EnvHome)
	}
	if home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, errors.ErrInvalidInput, "cannot determine home directory")
		}
		home = dir
	}

	abs, err := filepath.Abs(home)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrIO, "failed to get absolute path for target root").
			WithPath(home)
	}
	return filepath.Clean(abs), nil
}

// StateDir returns the directory for dotpatch's log and lock files
func StateDir() string {
	if dir := os.Getenv(EnvStateDir); dir != "" {
		return ExpandHome(dir)
	}
	// adrg/xdg reads the environment once at init; honour later changes
	if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		return filepath.Join(stateHome, DirName)
	}
	return filepath.Join(xdg.StateHome, DirName)
}

// LogFilePath returns the path of the log file
func LogFilePath() string {
	return filepath.Join(StateDir(), LogFileName)
}

// LockFilePath returns the path of the run lock
func LockFilePath() string {
	return filepath.Join(StateDir(), LockFileName)
}

// ConfigCandidates returns the repository configuration files, in lookup order
func (p *Paths) ConfigCandidates() []string {
	return []string{
		filepath.Join(p.repoRoot, ".dotpatch.toml"),
		filepath.Join(p.repoRoot, "dotpatch.toml"),
	}
}

// findRepoRoot determines the repository root using the following priority:
// 1. DOTPATCH_ROOT environment variable (if set)
// 2. Git repository root (found via 'git rev-parse --show-toplevel')
// 3. Current working directory (fallback)
//
// The bool result reports whether the working directory fallback was used.
func findRepoRoot() (string, bool, error) {
	if root := os.Getenv(EnvRoot); root != "" {
		return ExpandHome(root), false, nil
	}

	gitRoot, err := findGitRoot()
	if err == nil && gitRoot != "" {
		return gitRoot, false, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", false, errors.Wrapf(err, errors.ErrIO, "failed to get current directory")
	}

	return cwd, true, nil
}

// findGitRoot attempts to find the root of the current git repository
func findGitRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")

	output, err := cmd.Output()
	if err != nil {
		// Git command failed - not in a git repo or git not installed
		return "", err
	}

	gitRoot := strings.TrimSpace(string(output))
	if gitRoot == "" {
		return "", errors.New(errors.ErrInvalidInput, "git root is empty")
	}

	return gitRoot, nil
}

// ExpandHome expands a leading ~ to the home directory
func ExpandHome(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir := os.Getenv(EnvHome)
		if homeDir == "" {
			dir, err := os.UserHomeDir()
			if err != nil {
				// Can't expand, return as-is
				return path
			}
			homeDir = dir
		}

		if len(path) == 1 {
			return homeDir
		}

		// Handle both ~/ and ~
		if path[1] == '/' || path[1] == filepath.Separator {
			return filepath.Join(homeDir, path[2:])
		}

		// ~something (not the user's home)
		return path
	}

	return path
}
