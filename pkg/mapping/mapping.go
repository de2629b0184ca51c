// Package mapping translates fragment directory paths into target paths.
//
// The translation is a pure function of the path. Each segment of the path
// below the source root is rewritten on its own:
//
//	dot-config/zed/settings.json.d  ->  .config/zed/settings.json
//
// A "dot-" prefix becomes "." on every segment and the ".d" suffix is
// stripped from the final one. The result is anchored under the target
// root and must stay strictly inside it.
package mapping

import (
	"path/filepath"
	"strings"

	"github.com/arthur-debert/dotpatch/pkg/errors"
)

const (
	// FragmentDirSuffix marks a directory whose files compose one target
	FragmentDirSuffix = ".d"

	// DotPrefix stands in for a leading "." in source tree names
	DotPrefix = "dot-"
)

// Reasons recorded under errors.DetailReason for ErrPathMapping
const (
	ReasonEscape    = "escape"
	ReasonOutside   = "outside-source"
	ReasonMalformed = "malformed"
	ReasonDuplicate = "duplicate"
	ReasonConflict  = "conflict"
)

// IsFragmentDirName reports whether a directory name matches "*.d"
func IsFragmentDirName(name string) bool {
	return strings.HasSuffix(name, FragmentDirSuffix)
}

// RewriteSegment applies the dot- rule to a single path segment. Segments
// without the prefix are returned unchanged.
func RewriteSegment(segment string) string {
	if strings.HasPrefix(segment, DotPrefix) {
		return "." + strings.TrimPrefix(segment, DotPrefix)
	}
	return segment
}

// StripFragmentSuffix removes the ".d" suffix from the final segment
func StripFragmentSuffix(segment string) string {
	return strings.TrimSuffix(segment, FragmentDirSuffix)
}

// rewriteSegments rewrites the segments of dir below the source root, root
// first. The suffix is stripped before the prefix rule so "dot-x.d" becomes
// ".x".
func rewriteSegments(segments []string, dir string) ([]string, error) {
	if len(segments) == 0 {
		return nil, errors.New(errors.ErrPathMapping, "empty fragment directory path").
			WithPath(dir).
			WithDetail(errors.DetailReason, ReasonMalformed)
	}

	out := make([]string, len(segments))
	last := len(segments) - 1
	for i, segment := range segments {
		if i == last {
			if !IsFragmentDirName(segment) {
				return nil, errors.Newf(errors.ErrPathMapping, "%q is not a fragment directory", segment).
					WithPath(dir).
					WithDetail(errors.DetailReason, ReasonMalformed)
			}
			segment = StripFragmentSuffix(segment)
			if segment == "" {
				return nil, errors.New(errors.ErrPathMapping, "fragment directory has no target name").
					WithPath(dir).
					WithDetail(errors.DetailReason, ReasonMalformed)
			}
		}
		out[i] = RewriteSegment(segment)
	}
	return out, nil
}

// ResolveTarget maps a fragment directory under sourceRoot to its target
// path under targetRoot. All three paths must be absolute.
//
// It fails with ErrPathMapping when dir is not inside sourceRoot, when the
// rewritten path would land outside targetRoot (for example a "dot-."
// segment, which rewrites to ".."), or when it would be targetRoot itself.
func ResolveTarget(sourceRoot, dir, targetRoot string) (string, error) {
	sourceRoot = filepath.Clean(sourceRoot)
	dir = filepath.Clean(dir)
	targetRoot = filepath.Clean(targetRoot)

	rel, err := filepath.Rel(sourceRoot, dir)
	if err != nil || rel == "." || !IsWithin(sourceRoot, dir) {
		return "", errors.Newf(errors.ErrPathMapping, "fragment directory is not inside %s", sourceRoot).
			WithPath(dir).
			WithDetail(errors.DetailReason, ReasonOutside)
	}

	segments, err := rewriteSegments(strings.Split(filepath.ToSlash(rel), "/"), dir)
	if err != nil {
		return "", err
	}

	for _, segment := range segments {
		if segment == ".." {
			return "", escapeError(dir, targetRoot)
		}
	}

	target := filepath.Join(append([]string{targetRoot}, segments...)...)
	if target == targetRoot || !IsWithin(targetRoot, target) {
		return "", escapeError(dir, targetRoot)
	}
	return target, nil
}

func escapeError(dir, targetRoot string) error {
	return errors.Newf(errors.ErrPathMapping, "target for fragment directory escapes %s", targetRoot).
		WithPath(dir).
		WithDetail(errors.DetailReason, ReasonEscape)
}

// IsWithin reports whether path is base or lies below it. Both paths are
// compared lexically after cleaning.
func IsWithin(base, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(base), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
