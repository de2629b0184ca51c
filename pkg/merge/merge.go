package merge

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/dotpatch/pkg/errors"
)

// Strategy names
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatXML  = "xml"
)

// DefaultFormats maps file extensions (without the dot) to strategies
var DefaultFormats = map[string]string{
	"txt":   FormatText,
	"json":  FormatJSON,
	"jsonc": FormatJSON,
	"yaml":  FormatYAML,
	"yml":   FormatYAML,
	"toml":  FormatTOML,
	"xml":   FormatXML,
}

// Input is one fragment's content
type Input struct {
	Name    string
	Path    string
	Content []byte
}

// Strategy merges ordered fragments into one document
type Strategy interface {
	Name() string
	Merge(inputs []Input) ([]byte, error)
}

// Options configures the registry and its strategies
type Options struct {
	// TextSeparator is placed between text fragments
	TextSeparator string

	// Indent is the indentation width for json, yaml and xml output
	Indent int

	// Strict rejects extensions with no configured strategy instead of
	// falling back to text
	Strict bool

	// Formats adds or overrides extension to strategy mappings
	Formats map[string]string
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		TextSeparator: "\n",
		Indent:        2,
	}
}

// Registry resolves a target path to its merge strategy
type Registry struct {
	strategies map[string]Strategy
	byExt      map[string]string
	strict     bool
}

// NewRegistry builds a registry from options. Unknown strategy names in
// Formats are rejected.
func NewRegistry(opts Options) (*Registry, error) {
	if opts.Indent < 0 {
		return nil, errors.Newf(errors.ErrInvalidInput, "indent must not be negative, got %d", opts.Indent)
	}

	r := &Registry{
		strategies: map[string]Strategy{
			FormatText: textStrategy{separator: []byte(opts.TextSeparator)},
			FormatJSON: jsonStrategy{indent: opts.Indent},
			FormatYAML: yamlStrategy{indent: opts.Indent},
			FormatTOML: tomlStrategy{},
			FormatXML:  xmlStrategy{indent: opts.Indent},
		},
		byExt:  make(map[string]string, len(DefaultFormats)+len(opts.Formats)),
		strict: opts.Strict,
	}

	for ext, name := range DefaultFormats {
		r.byExt[ext] = name
	}

	// Apply overrides in a fixed order so error reporting is stable
	exts := make([]string, 0, len(opts.Formats))
	for ext := range opts.Formats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		name := strings.ToLower(opts.Formats[ext])
		if _, ok := r.strategies[name]; !ok {
			return nil, errors.Newf(errors.ErrUnsupportedFormat, "unknown merge format %q for extension %q", name, ext)
		}
		r.byExt[normalizeExt(ext)] = name
	}

	return r, nil
}

// Strategy returns a strategy by name
func (r *Registry) Strategy(name string) (Strategy, error) {
	s, ok := r.strategies[name]
	if !ok {
		return nil, errors.Newf(errors.ErrUnsupportedFormat, "unknown merge format %q", name)
	}
	return s, nil
}

// ForPath returns the strategy for a target path. Files without an
// extension, including dotfiles such as ".bashrc", are text.
func (r *Registry) ForPath(path string) (Strategy, error) {
	ext := Extension(path)
	if ext == "" {
		return r.strategies[FormatText], nil
	}

	if name, ok := r.byExt[ext]; ok {
		return r.strategies[name], nil
	}

	if r.strict {
		return nil, errors.Newf(errors.ErrUnsupportedFormat, "unsupported format %q", ext).WithPath(path)
	}
	return r.strategies[FormatText], nil
}

// Extension returns the lower-cased extension of path without its dot.
// Leading dots of the base name do not start an extension.
func Extension(path string) string {
	base := strings.TrimLeft(filepath.Base(path), ".")
	return normalizeExt(filepath.Ext(base))
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func mergeError(in Input, message string, err error) error {
	if err == nil {
		return errors.Newf(errors.ErrMerge, "%s: %s", in.Name, message).WithPath(in.Path)
	}
	return errors.Wrapf(err, errors.ErrMerge, "%s: %s", in.Name, message).WithPath(in.Path)
}
