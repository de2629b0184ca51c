// Package fragments discovers fragment directories in a source tree.
package fragments

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/arthur-debert/dotpatch/pkg/errors"
	"github.com/arthur-debert/dotpatch/pkg/logging"
	"github.com/arthur-debert/dotpatch/pkg/mapping"
	"github.com/arthur-debert/dotpatch/pkg/types"
)

// Discover walks root and returns every "*.d" directory with its fragment
// files. Fragments are the regular files (or symlinks to regular files)
// directly inside the directory, minus excluded names, sorted by name.
// Directories are returned sorted by their path relative to root.
//
// The walk descends into fragment directories too: a "*.d" directory nested
// in another one is a fragment directory of its own.
func Discover(fsys types.FS, root string, exclude ExcludeSet) ([]types.FragmentDir, error) {
	logger := logging.GetLogger("fragments.discover")

	root = filepath.Clean(root)
	info, err := fsys.Stat(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "cannot access source root").WithPath(root)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrInvalidInput, "source root is not a directory").WithPath(root)
	}

	var dirs []types.FragmentDir
	if err := walk(fsys, root, root, exclude, &dirs); err != nil {
		return nil, err
	}

	sort.Slice(dirs, func(i, j int) bool {
		return dirs[i].RelPath < dirs[j].RelPath
	})

	logger.Debug().
		Str("root", root).
		Int("directories", len(dirs)).
		Msg("Discovered fragment directories")

	return dirs, nil
}

func walk(fsys types.FS, root, dir string, exclude ExcludeSet, out *[]types.FragmentDir) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrIO, "cannot read directory").WithPath(dir)
	}

	for _, entry := range entries {
		name := entry.Name()
		if exclude.Match(name) {
			continue
		}
		if !entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, name)
		if mapping.IsFragmentDirName(name) {
			fragDir, err := collect(fsys, root, path, exclude)
			if err != nil {
				return err
			}
			*out = append(*out, fragDir)
		}

		if err := walk(fsys, root, path, exclude, out); err != nil {
			return err
		}
	}
	return nil
}

func collect(fsys types.FS, root, dir string, exclude ExcludeSet) (types.FragmentDir, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return types.FragmentDir{}, errors.Wrapf(err, errors.ErrPathMapping, "fragment directory is not inside source root").
			WithPath(dir)
	}

	fragDir := types.FragmentDir{
		Path:    dir,
		RelPath: filepath.ToSlash(rel),
	}

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return types.FragmentDir{}, errors.Wrapf(err, errors.ErrIO, "cannot read fragment directory").WithPath(dir)
	}

	for _, entry := range entries {
		name := entry.Name()
		if exclude.Match(name) {
			continue
		}

		path := filepath.Join(dir, name)
		regular, err := isRegular(fsys, path, entry)
		if err != nil {
			return types.FragmentDir{}, err
		}
		if !regular {
			continue
		}

		fragDir.Fragments = append(fragDir.Fragments, types.Fragment{Name: name, Path: path})
	}

	sort.Slice(fragDir.Fragments, func(i, j int) bool {
		return fragDir.Fragments[i].Name < fragDir.Fragments[j].Name
	})

	return fragDir, nil
}

// isRegular follows symlinks so linked fragments are merged like plain files
func isRegular(fsys types.FS, path string, entry fs.DirEntry) (bool, error) {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.Type().IsRegular(), nil
	}
	info, err := fsys.Stat(path)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrIO, "cannot resolve fragment symlink").WithPath(path)
	}
	return info.Mode().IsRegular(), nil
}
