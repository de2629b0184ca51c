package patcher

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/dotpatch/pkg/errors"
	"github.com/arthur-debert/dotpatch/pkg/filesystem"
	"github.com/arthur-debert/dotpatch/pkg/fragments"
	"github.com/arthur-debert/dotpatch/pkg/logging"
	"github.com/arthur-debert/dotpatch/pkg/mapping"
	"github.com/arthur-debert/dotpatch/pkg/merge"
	"github.com/arthur-debert/dotpatch/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultFileMode is the mode of newly created targets
const DefaultFileMode fs.FileMode = 0644

// Reasons recorded in types.SkippedDir
const (
	SkipEmpty     = "empty"
	SkipMalformed = "malformed"
)

// Options contains configuration for the patcher
type Options struct {
	// SourceRoot is the absolute path of the fragment tree
	SourceRoot string

	// TargetRoot is the absolute path targets are written under, usually $HOME
	TargetRoot string

	// Exclude lists names skipped during discovery
	Exclude fragments.ExcludeSet

	// Formats resolves merge strategies. Nil means merge.DefaultOptions.
	Formats *merge.Registry

	// FileMode is used for targets that do not exist yet. Zero means 0644.
	FileMode fs.FileMode

	// LockPath is the advisory lock taken by Apply. Empty disables locking.
	LockPath string

	DryRun bool

	// Logger defaults to the "patcher" component logger
	Logger *zerolog.Logger

	// Filesystem operations interface for testing
	FS types.FS
}

// Patcher plans and applies fragment merges for one source tree
type Patcher struct {
	sourceRoot string
	targetRoot string
	exclude    fragments.ExcludeSet
	formats    *merge.Registry
	fileMode   fs.FileMode
	lockPath   string
	dryRun     bool
	logger     zerolog.Logger
	fs         types.FS
}

// New creates a patcher. Both roots must be absolute.
func New(opts Options) (*Patcher, error) {
	if !filepath.IsAbs(opts.SourceRoot) {
		return nil, errors.New(errors.ErrInvalidInput, "source root must be absolute").WithPath(opts.SourceRoot)
	}
	if !filepath.IsAbs(opts.TargetRoot) {
		return nil, errors.New(errors.ErrInvalidInput, "target root must be absolute").WithPath(opts.TargetRoot)
	}

	logger := logging.GetLogger("patcher")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	fsys := opts.FS
	if fsys == nil {
		fsys = filesystem.NewOS()
	}

	formats := opts.Formats
	if formats == nil {
		var err error
		formats, err = merge.NewRegistry(merge.DefaultOptions())
		if err != nil {
			return nil, err
		}
	}

	mode := opts.FileMode
	if mode == 0 {
		mode = DefaultFileMode
	}

	return &Patcher{
		sourceRoot: filepath.Clean(opts.SourceRoot),
		targetRoot: filepath.Clean(opts.TargetRoot),
		exclude:    opts.Exclude,
		formats:    formats,
		fileMode:   mode.Perm(),
		lockPath:   opts.LockPath,
		dryRun:     opts.DryRun,
		logger:     logger,
		fs:         fsys,
	}, nil
}

// SourceRoot returns the fragment tree root
func (p *Patcher) SourceRoot() string { return p.sourceRoot }

// TargetRoot returns the destination root
func (p *Patcher) TargetRoot() string { return p.targetRoot }

// Discover returns the fragment directories of the source tree
func (p *Patcher) Discover() ([]types.FragmentDir, error) {
	return fragments.Discover(p.fs, p.sourceRoot, p.exclude)
}

// ResolveTarget maps a fragment directory to its target and merge format
func (p *Patcher) ResolveTarget(dir types.FragmentDir) (types.Target, error) {
	path, err := mapping.ResolveTarget(p.sourceRoot, dir.Path, p.targetRoot)
	if err != nil {
		return types.Target{}, err
	}

	strategy, err := p.formats.ForPath(path)
	if err != nil {
		return types.Target{}, err
	}

	return types.Target{Source: dir, Path: path, Format: strategy.Name()}, nil
}

// Merge reads the target's fragments in order and combines them
func (p *Patcher) Merge(target types.Target) ([]byte, error) {
	strategy, err := p.formats.Strategy(target.Format)
	if err != nil {
		return nil, err
	}

	inputs := make([]merge.Input, 0, len(target.Source.Fragments))
	for _, frag := range target.Source.Fragments {
		content, err := p.fs.ReadFile(frag.Path)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrIO, "cannot read fragment").WithPath(frag.Path)
		}

		p.logger.Trace().
			Str("fragment", frag.Path).
			Int("bytes", len(content)).
			Msg("Read fragment")

		inputs = append(inputs, merge.Input{Name: frag.Name, Path: frag.Path, Content: content})
	}

	return strategy.Merge(inputs)
}

// Plan discovers, resolves and merges every fragment directory without
// writing anything. All path-mapping errors are raised before any merge.
func (p *Patcher) Plan(ctx context.Context) (*types.Plan, error) {
	done := logging.LogOperationStart(p.logger, "plan")
	defer done()

	dirs, err := p.Discover()
	if err != nil {
		return nil, err
	}

	plan := &types.Plan{SourceRoot: p.sourceRoot, TargetRoot: p.targetRoot}

	targets, skipped, err := p.resolveAll(dirs)
	if err != nil {
		return nil, err
	}
	plan.Skipped = skipped

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content, err := p.Merge(target)
		if err != nil {
			return nil, err
		}

		write, err := p.planWrite(target, content)
		if err != nil {
			return nil, err
		}

		p.logger.Debug().
			Str("source", target.Source.RelPath).
			Str("target", target.Path).
			Str("format", target.Format).
			Str("status", string(write.Status)).
			Msg("Planned write")

		plan.Writes = append(plan.Writes, write)
	}

	return plan, nil
}

// resolveAll maps every directory and rejects targets that collide
func (p *Patcher) resolveAll(dirs []types.FragmentDir) ([]types.Target, []types.SkippedDir, error) {
	var targets []types.Target
	var skipped []types.SkippedDir
	owners := make(map[string]string, len(dirs))

	for _, dir := range dirs {
		target, err := p.ResolveTarget(dir)
		if err != nil {
			if errors.GetDetail(err, errors.DetailReason) == mapping.ReasonMalformed {
				p.logger.Warn().
					Err(err).
					Str("directory", dir.Path).
					Msg("Skipping malformed fragment directory")
				skipped = append(skipped, types.SkippedDir{Dir: dir, Reason: SkipMalformed})
				continue
			}
			return nil, nil, err
		}

		if dir.IsEmpty() {
			p.logger.Info().
				Str("directory", dir.Path).
				Msg("Skipping fragment directory with no fragments")
			skipped = append(skipped, types.SkippedDir{Dir: dir, Reason: SkipEmpty})
			continue
		}

		if owner, ok := owners[target.Path]; ok {
			return nil, nil, errors.Newf(errors.ErrPathMapping, "%s and %s both map to %s", owner, dir.RelPath, target.Path).
				WithPath(dir.Path).
				WithDetail(errors.DetailReason, mapping.ReasonDuplicate)
		}
		owners[target.Path] = dir.RelPath
		targets = append(targets, target)
	}

	// A target cannot also be a parent directory of another target
	for _, target := range targets {
		for parent := filepath.Dir(target.Path); parent != p.targetRoot && mapping.IsWithin(p.targetRoot, parent); parent = filepath.Dir(parent) {
			if owner, ok := owners[parent]; ok {
				return nil, nil, errors.Newf(errors.ErrPathMapping, "%s maps to %s, a parent directory of %s", owner, parent, target.Path).
					WithPath(target.Source.Path).
					WithDetail(errors.DetailReason, mapping.ReasonConflict)
			}
		}
	}

	return targets, skipped, nil
}

func (p *Patcher) planWrite(target types.Target, content []byte) (types.PlannedWrite, error) {
	write := types.PlannedWrite{
		Target:  target,
		Content: content,
		Mode:    p.fileMode,
		Status:  types.WriteCreate,
	}

	info, err := p.fs.Stat(target.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return write, nil
		}
		return types.PlannedWrite{}, errors.Wrapf(err, errors.ErrIO, "cannot stat target").WithPath(target.Path)
	}
	if info.IsDir() {
		return types.PlannedWrite{}, errors.New(errors.ErrIO, "target is a directory").WithPath(target.Path)
	}

	existing, err := p.fs.ReadFile(target.Path)
	if err != nil {
		return types.PlannedWrite{}, errors.Wrapf(err, errors.ErrIO, "cannot read target").WithPath(target.Path)
	}

	write.Existing = existing
	write.Mode = info.Mode().Perm()
	if bytes.Equal(existing, content) {
		write.Status = types.WriteUnchanged
	} else {
		write.Status = types.WriteUpdate
	}
	return write, nil
}

// Apply plans and then writes every changed target. In dry-run mode it
// returns the plan without writing.
func (p *Patcher) Apply(ctx context.Context) (*types.Result, error) {
	if !p.dryRun && p.lockPath != "" {
		lock, err := AcquireLock(p.lockPath)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				p.logger.Warn().Err(err).Msg("Failed to release lock")
			}
		}()
	}

	plan, err := p.Plan(ctx)
	if err != nil {
		return nil, err
	}

	result := &types.Result{Plan: plan, DryRun: p.dryRun}
	if p.dryRun {
		p.logger.Info().Int("changes", len(plan.Changes())).Msg("Dry run, nothing written")
		return result, nil
	}

	done := logging.LogOperationStart(p.logger, "apply")
	defer done()

	for _, write := range plan.Writes {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !write.Changed() {
			continue
		}

		if err := p.commit(write); err != nil {
			return result, err
		}

		p.logger.Info().
			Str("target", write.Target.Path).
			Str("status", string(write.Status)).
			Int("fragments", len(write.Target.Source.Fragments)).
			Msg("Wrote target")

		result.Written = append(result.Written, write.Target.Path)
	}

	return result, nil
}

// commit writes through a temp file in the target's directory and renames
// it into place
func (p *Patcher) commit(write types.PlannedWrite) error {
	path := write.Target.Path
	dir := filepath.Dir(path)

	if err := p.fs.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "cannot create target directory").WithPath(dir)
	}

	if info, err := p.fs.Lstat(path); err == nil && info.Mode()&fs.ModeSymlink != 0 {
		p.logger.Warn().Str("target", path).Msg("Replacing symlink with merged file")
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+".dotpatch.tmp")
	// A leftover from a killed run would keep its old mode
	if err := p.fs.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrIO, "cannot remove stale temp file").WithPath(tmp)
	}

	if err := p.fs.WriteFile(tmp, write.Content, write.Mode); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "cannot write target").WithPath(path)
	}

	if err := p.fs.Rename(tmp, path); err != nil {
		_ = p.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrIO, "cannot move target into place").WithPath(path)
	}
	return nil
}
