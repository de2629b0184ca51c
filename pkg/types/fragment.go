package types

// Fragment is a single file inside a fragment directory.
type Fragment struct {
	// Name is the file name, the sort key within its directory
	Name string

	// Path is the absolute path of the fragment file
	Path string
}

// FragmentDir is a directory named "<target>.d" whose files compose one
// target file.
type FragmentDir struct {
	// Path is the absolute path of the directory
	Path string

	// RelPath is the slash-separated path relative to the source root
	RelPath string

	// Fragments are the files to merge, sorted by name
	Fragments []Fragment
}

// IsEmpty reports whether the directory has nothing to merge.
func (d FragmentDir) IsEmpty() bool {
	return len(d.Fragments) == 0
}

// Target pairs a fragment directory with the file it composes.
type Target struct {
	Source FragmentDir

	// Path is the absolute destination path under the target root
	Path string

	// Format is the merge strategy name chosen for Path
	Format string
}
