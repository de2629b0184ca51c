// pkg/patcher/patcher_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: In-memory filesystem, real filesystem for mode and mtime checks
// PURPOSE: Test planning and applying fragment merges end to end

package patcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arthur-debert/dotpatch/pkg/errors"
	"github.com/arthur-debert/dotpatch/pkg/filesystem"
	"github.com/arthur-debert/dotpatch/pkg/fragments"
	"github.com/arthur-debert/dotpatch/pkg/mapping"
	"github.com/arthur-debert/dotpatch/pkg/merge"
	"github.com/arthur-debert/dotpatch/pkg/testutil"
	"github.com/arthur-debert/dotpatch/pkg/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sourceRoot = "/repo/patches"
	home       = "/home/user"
)

func newPatcher(t *testing.T, fsys types.FS, mutate ...func(*Options)) *Patcher {
	t.Helper()
	opts := Options{
		SourceRoot: sourceRoot,
		TargetRoot: home,
		Exclude:    fragments.MustExcludeSet(fragments.DefaultExclude...),
		FS:         fsys,
	}
	for _, m := range mutate {
		m(&opts)
	}
	p, err := New(opts)
	require.NoError(t, err)
	return p
}

func TestNew(t *testing.T) {
	_, err := New(Options{SourceRoot: "patches", TargetRoot: home})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	_, err = New(Options{SourceRoot: sourceRoot, TargetRoot: "~"})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestApplyZedExample(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.CreateFileTree(t, fsys, sourceRoot, testutil.FileTree{
		"dot-config/zed/settings.json.d": testutil.FileTree{
			"00-base.json":  `{"theme": "One Dark", "ui_font_size": 16}`,
			"50-vim.jsonc":  "// vim mode\n{\"vim_mode\": true,}\n",
			"90-local.json": `{"ui_font_size": 14}`,
			"README.md":     "not json at all",
		},
	})

	p := newPatcher(t, fsys)
	result, err := p.Apply(context.Background())
	require.NoError(t, err)

	target := filepath.Join(home, ".config/zed/settings.json")
	assert.Equal(t, []string{target}, result.Written)
	assert.Equal(t, 1, result.Count(types.WriteCreate))

	want := "{\n  \"theme\": \"One Dark\",\n  \"ui_font_size\": 14,\n  \"vim_mode\": true\n}\n"
	assert.Equal(t, want, testutil.ReadFileString(t, fsys, target))
}

func TestApplyTextOrderingAndExclusion(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.CreateFileTree(t, fsys, sourceRoot, testutil.FileTree{
		"notes.d/50-c":      "c",
		"notes.d/00-a":      "a",
		"notes.d/10-b":      "b",
		"notes.d/AGENTS.md": "agents",
		"notes.d/README.md": "readme",
		"README.md":         "top-level readme",
	})

	p := newPatcher(t, fsys)
	_, err := p.Apply(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "a\nb\nc", testutil.ReadFileString(t, fsys, filepath.Join(home, "notes")))
	testutil.AssertNotExists(t, fsys, filepath.Join(home, "README.md"))
}

func TestApplyIsIdempotent(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.CreateFileTree(t, fsys, sourceRoot, testutil.FileTree{
		"dot-bashrc.d/00-env":     "export EDITOR=vim\n",
		"dot-bashrc.d/10-aliases": "alias ll='ls -l'\n",
		"dot-gitconfig.d/00-user": "[user]\n  name = me\n",
	})

	p := newPatcher(t, fsys)
	first, err := p.Apply(context.Background())
	require.NoError(t, err)
	assert.Len(t, first.Written, 2)

	bashrc := testutil.ReadFileString(t, fsys, filepath.Join(home, ".bashrc"))

	second, err := p.Apply(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second.Written)
	assert.Equal(t, 2, second.Count(types.WriteUnchanged))
	assert.Equal(t, bashrc, testutil.ReadFileString(t, fsys, filepath.Join(home, ".bashrc")))
}

func TestApplyRerunAfterEdit(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	fsys := filesystem.NewOS()
	testutil.CreateFileTree(t, fsys, src, testutil.FileTree{
		"a.d/00": "one",
		"b.d/00": "two",
	})

	p := newPatcher(t, fsys, func(o *Options) {
		o.SourceRoot = src
		o.TargetRoot = dst
	})
	_, err := p.Apply(context.Background())
	require.NoError(t, err)

	// Backdate both targets so a rewrite would be visible
	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	for _, name := range []string{"a", "b"} {
		require.NoError(t, os.Chtimes(filepath.Join(dst, name), past, past))
	}

	require.NoError(t, os.WriteFile(filepath.Join(src, "a.d", "00"), []byte("uno"), 0644))

	result, err := p.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dst, "a")}, result.Written)

	aData, err := os.ReadFile(filepath.Join(dst, "a"))
	require.NoError(t, err)
	assert.Equal(t, "uno", string(aData))

	bInfo, err := os.Stat(filepath.Join(dst, "b"))
	require.NoError(t, err)
	assert.True(t, bInfo.ModTime().Equal(past), "untouched target must keep its mtime")
}

func TestApplyKeepsExistingMode(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	fsys := filesystem.NewOS()
	testutil.CreateFileTree(t, fsys, src, testutil.FileTree{
		"dot-netrc.d/00": "machine a",
		"fresh.d/00":     "new",
	})
	require.NoError(t, os.WriteFile(filepath.Join(dst, ".netrc"), []byte("old"), 0600))

	p := newPatcher(t, fsys, func(o *Options) {
		o.SourceRoot = src
		o.TargetRoot = dst
	})
	_, err := p.Apply(context.Background())
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dst, ".netrc"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	info, err = os.Stat(filepath.Join(dst, "fresh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	_, err = os.Stat(filepath.Join(dst, ".fresh.dotpatch.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestApplyEscapeWritesNothing(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.CreateFileTree(t, fsys, sourceRoot, testutil.FileTree{
		"a.d/00":                      "safe",
		"dot-./dot-./etc/passwd.d/00": "root::0:0::/:/bin/sh",
	})

	p := newPatcher(t, fsys)
	_, err := p.Apply(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPathMapping))
	assert.Equal(t, mapping.ReasonEscape, errors.GetDetail(err, errors.DetailReason))

	testutil.AssertNotExists(t, fsys, filepath.Join(home, "a"))
	testutil.AssertNotExists(t, fsys, "/etc/passwd")
}

func TestPlanDuplicateTargets(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.CreateFileTree(t, fsys, sourceRoot, testutil.FileTree{
		".vimrc.d/00":    "set nu",
		"dot-vimrc.d/00": "set rnu",
	})

	_, err := newPatcher(t, fsys).Plan(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPathMapping))
	assert.Equal(t, mapping.ReasonDuplicate, errors.GetDetail(err, errors.DetailReason))
}

func TestPlanParentConflict(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.CreateFileTree(t, fsys, sourceRoot, testutil.FileTree{
		"app.d/00":      "file",
		"app/conf.d/00": "nested",
	})

	_, err := newPatcher(t, fsys).Plan(context.Background())
	require.Error(t, err)
	assert.Equal(t, mapping.ReasonConflict, errors.GetDetail(err, errors.DetailReason))
}

func TestPlanSkips(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.CreateFileTree(t, fsys, sourceRoot, testutil.FileTree{
		"empty.d/README.md": "docs only",
		".d/00":             "nameless",
		"ok.d/00":           "fine",
	})

	plan, err := newPatcher(t, fsys).Plan(context.Background())
	require.NoError(t, err)

	require.Len(t, plan.Writes, 1)
	assert.Equal(t, filepath.Join(home, "ok"), plan.Writes[0].Target.Path)

	reasons := map[string]string{}
	for _, s := range plan.Skipped {
		reasons[s.Dir.RelPath] = s.Reason
	}
	assert.Equal(t, map[string]string{"empty.d": SkipEmpty, ".d": SkipMalformed}, reasons)
}

func TestPlanStatuses(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.CreateFileTree(t, fsys, sourceRoot, testutil.FileTree{
		"new.d/00":  "n",
		"same.d/00": "s",
		"diff.d/00": "d2",
	})
	testutil.CreateFileTree(t, fsys, home, testutil.FileTree{
		"same": "s",
		"diff": "d1",
	})

	plan, err := newPatcher(t, fsys).Plan(context.Background())
	require.NoError(t, err)

	statuses := map[string]types.WriteStatus{}
	for _, w := range plan.Writes {
		statuses[filepath.Base(w.Target.Path)] = w.Status
	}
	assert.Equal(t, map[string]types.WriteStatus{
		"new":  types.WriteCreate,
		"same": types.WriteUnchanged,
		"diff": types.WriteUpdate,
	}, statuses)
	assert.Len(t, plan.Changes(), 2)

	// Planning never writes
	testutil.AssertNotExists(t, fsys, filepath.Join(home, "new"))
	assert.Equal(t, "d1", testutil.ReadFileString(t, fsys, filepath.Join(home, "diff")))
}

func TestPlanTargetIsDirectory(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.CreateFileTree(t, fsys, sourceRoot, testutil.FileTree{"x.d/00": "x"})
	require.NoError(t, fsys.MkdirAll(filepath.Join(home, "x"), 0755))

	_, err := newPatcher(t, fsys).Plan(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrIO))
	assert.Equal(t, filepath.Join(home, "x"), errors.GetDetail(err, errors.DetailPath))
}

// faultFS fails reads, writes or renames of chosen paths. Writes are
// matched on the directory so the temp file next to a target fails too.
type faultFS struct {
	types.FS
	unreadable  map[string]bool
	unwritable  map[string]bool
	unrenamable map[string]bool
}

func (f *faultFS) ReadFile(name string) ([]byte, error) {
	if f.unreadable[name] {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return f.FS.ReadFile(name)
}

func (f *faultFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	if f.unwritable[filepath.Dir(name)] {
		return &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return f.FS.WriteFile(name, data, perm)
}

func (f *faultFS) Rename(oldpath, newpath string) error {
	if f.unrenamable[newpath] {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fs.ErrPermission}
	}
	return f.FS.Rename(oldpath, newpath)
}

func TestPlanUnreadableFragment(t *testing.T) {
	mem := testutil.NewTestFS()
	testutil.CreateFileTree(t, mem, sourceRoot, testutil.FileTree{
		"a.d/00": "a",
		"b.d/00": "b",
		"b.d/10": "locked",
	})
	locked := filepath.Join(sourceRoot, "b.d", "10")
	fsys := &faultFS{FS: mem, unreadable: map[string]bool{locked: true}}

	_, err := newPatcher(t, fsys).Apply(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrIO))
	assert.Equal(t, locked, errors.GetDetail(err, errors.DetailPath))

	// Merging happens while planning, so nothing was written
	testutil.AssertNotExists(t, mem, filepath.Join(home, "a"))
	testutil.AssertNotExists(t, mem, filepath.Join(home, "b"))
}

func TestApplyUnwritableTarget(t *testing.T) {
	mem := testutil.NewTestFS()
	testutil.CreateFileTree(t, mem, sourceRoot, testutil.FileTree{
		"a.d/00":     "new a",
		"sub/b.d/00": "new b",
		"z.d/00":     "new z",
	})
	testutil.CreateFileTree(t, mem, home, testutil.FileTree{
		"sub": testutil.FileTree{},
		"z":   "old z",
	})
	sub := filepath.Join(home, "sub")
	fsys := &faultFS{FS: mem, unwritable: map[string]bool{sub: true}}

	result, err := newPatcher(t, fsys).Apply(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrIO))
	assert.Equal(t, filepath.Join(sub, "b"), errors.GetDetail(err, errors.DetailPath))

	// The target before the failure is written, the ones after are untouched
	require.NotNil(t, result)
	assert.Equal(t, []string{filepath.Join(home, "a")}, result.Written)
	assert.Equal(t, "new a", testutil.ReadFileString(t, mem, filepath.Join(home, "a")))
	testutil.AssertNotExists(t, mem, filepath.Join(sub, "b"))
	assert.Equal(t, "old z", testutil.ReadFileString(t, mem, filepath.Join(home, "z")))
}

func TestApplyRenameFailureKeepsTarget(t *testing.T) {
	mem := testutil.NewTestFS()
	testutil.CreateFileTree(t, mem, sourceRoot, testutil.FileTree{"x.d/00": "new"})
	testutil.CreateFileTree(t, mem, home, testutil.FileTree{"x": "old"})
	target := filepath.Join(home, "x")
	fsys := &faultFS{FS: mem, unrenamable: map[string]bool{target: true}}

	_, err := newPatcher(t, fsys).Apply(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrIO))
	assert.Equal(t, target, errors.GetDetail(err, errors.DetailPath))

	assert.Equal(t, "old", testutil.ReadFileString(t, mem, target))
	testutil.AssertNotExists(t, mem, filepath.Join(home, ".x.dotpatch.tmp"))
}

func TestApplyReadOnlyTargetRoot(t *testing.T) {
	base := afero.NewMemMapFs()
	testutil.CreateFileTree(t, filesystem.NewAferoFS(base), sourceRoot, testutil.FileTree{
		"dot-config/app.conf.d/00": "key = value",
	})
	fsys := filesystem.NewAferoFS(afero.NewReadOnlyFs(base))

	p := newPatcher(t, fsys)
	plan, err := p.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, plan.Writes, 1)
	assert.Equal(t, types.WriteCreate, plan.Writes[0].Status)

	_, err = p.Apply(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrIO))
	assert.Equal(t, filepath.Join(home, ".config"), errors.GetDetail(err, errors.DetailPath))
	_, statErr := base.Stat(filepath.Join(home, ".config", "app.conf"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestApplyDryRun(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.CreateFileTree(t, fsys, sourceRoot, testutil.FileTree{"x.d/00": "x"})

	p := newPatcher(t, fsys, func(o *Options) { o.DryRun = true })
	result, err := p.Apply(context.Background())
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Empty(t, result.Written)
	assert.Equal(t, 1, result.Count(types.WriteCreate))
	testutil.AssertNotExists(t, fsys, filepath.Join(home, "x"))
}

func TestApplyCancelled(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.CreateFileTree(t, fsys, sourceRoot, testutil.FileTree{"x.d/00": "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPatcher(t, fsys).Apply(ctx)
	require.ErrorIs(t, err, context.Canceled)
	testutil.AssertNotExists(t, fsys, filepath.Join(home, "x"))
}

func TestApplyMergeErrorStopsRun(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.CreateFileTree(t, fsys, sourceRoot, testutil.FileTree{
		"a.d/00":        "fine",
		"bad.json.d/00": `{"a": 1}`,
		"bad.json.d/10": `{"a": `,
	})

	_, err := newPatcher(t, fsys).Apply(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrMerge))
	assert.Equal(t, filepath.Join(sourceRoot, "bad.json.d", "10"), errors.GetDetail(err, errors.DetailPath))
	testutil.AssertNotExists(t, fsys, filepath.Join(home, "a"))
}

func TestApplyJSONAsPlainConcatenation(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.CreateFileTree(t, fsys, sourceRoot, testutil.FileTree{
		"dot-config/zed/settings.json.d": testutil.FileTree{
			"50-c": "c\n",
			"00-a": "a\n",
			"10-b": "b\n",
		},
	})

	registry, err := merge.NewRegistry(merge.Options{Formats: map[string]string{"json": merge.FormatText}})
	require.NoError(t, err)

	_, err = newPatcher(t, fsys, func(o *Options) { o.Formats = registry }).Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", testutil.ReadFileString(t, fsys, filepath.Join(home, ".config/zed/settings.json")))

	// The default json strategy parses each fragment
	_, err = newPatcher(t, fsys).Plan(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrMerge))
}

func TestApplyStrictFormats(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.CreateFileTree(t, fsys, sourceRoot, testutil.FileTree{"app.conf.d/00": "k=v"})

	opts := merge.DefaultOptions()
	opts.Strict = true
	registry, err := merge.NewRegistry(opts)
	require.NoError(t, err)

	_, err = newPatcher(t, fsys, func(o *Options) { o.Formats = registry }).Apply(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnsupportedFormat))
}

func TestApplyLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "state", "dotpatch.lock")
	held, err := AcquireLock(lockPath)
	require.NoError(t, err)

	fsys := testutil.NewTestFS()
	testutil.CreateFileTree(t, fsys, sourceRoot, testutil.FileTree{"x.d/00": "x"})
	p := newPatcher(t, fsys, func(o *Options) { o.LockPath = lockPath })

	_, err = p.Apply(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrLocked))

	require.NoError(t, held.Release())
	_, err = p.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x", testutil.ReadFileString(t, fsys, filepath.Join(home, "x")))
}
