package style

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/dotpatch/pkg/errors"
	"github.com/arthur-debert/dotpatch/pkg/patcher"
	"github.com/arthur-debert/dotpatch/pkg/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"
)

// Renderer turns plans and results into terminal output
type Renderer struct {
	format Format
	home   string
}

// NewRenderer creates a renderer. Paths under home are shown with "~".
// FormatAuto renders like FormatTerminal; callers resolve it with
// Format.Resolve first.
func NewRenderer(format Format, home string) *Renderer {
	return &Renderer{format: format, home: filepath.Clean(home)}
}

func (r *Renderer) paint(s lipgloss.Style, text string) string {
	if r.format == FormatText {
		return text
	}
	return s.Render(text)
}

// DisplayPath abbreviates paths under home
func (r *Renderer) DisplayPath(path string) string {
	if r.home == "" || r.home == "." {
		return path
	}
	if path == r.home {
		return "~"
	}
	if rel, err := filepath.Rel(r.home, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.Join("~", rel)
	}
	return path
}

// RenderResult reports what an apply did, or would do in a dry run
func (r *Renderer) RenderResult(result *types.Result) string {
	var b strings.Builder
	plan := result.Plan

	if result.DryRun {
		b.WriteString(r.paint(TitleStyle, "Dry run, no files written") + "\n")
	}

	for _, w := range plan.Changes() {
		verb := string(w.Status)
		if result.DryRun {
			verb = "would " + verb
		}
		fmt.Fprintf(&b, "%s %s %s\n",
			r.paint(StatusStyle(w.Status), fmt.Sprintf("%-12s", verb)),
			r.paint(PathStyle, r.DisplayPath(w.Target.Path)),
			r.paint(MutedStyle, fmt.Sprintf("(%s, %s)", w.Target.Format, pluralize(len(w.Target.Source.Fragments), "fragment"))),
		)
	}

	for _, s := range plan.Skipped {
		fmt.Fprintf(&b, "%s %s %s\n",
			r.paint(MutedStyle, fmt.Sprintf("%-12s", "skip")),
			s.Dir.RelPath,
			r.paint(MutedStyle, "("+s.Reason+")"),
		)
	}

	b.WriteString(r.summary(result))
	return b.String()
}

func (r *Renderer) summary(result *types.Result) string {
	created := result.Count(types.WriteCreate)
	updated := result.Count(types.WriteUpdate)
	unchanged := result.Count(types.WriteUnchanged)

	if created+updated == 0 {
		return r.paint(SuccessStyle, "Everything up to date") +
			r.paint(MutedStyle, fmt.Sprintf(" (%s)", pluralize(unchanged, "target"))) + "\n"
	}

	return fmt.Sprintf("%d created, %d updated, %d unchanged\n", created, updated, unchanged)
}

// RenderList renders a table of fragment directories and their targets
func (r *Renderer) RenderList(plan *types.Plan) (string, error) {
	if len(plan.Writes) == 0 && len(plan.Skipped) == 0 {
		return r.paint(MutedStyle, "No fragment directories found") + "\n", nil
	}

	data := pterm.TableData{{"SOURCE", "TARGET", "FORMAT", "FRAGMENTS", "STATUS"}}
	for _, w := range plan.Writes {
		data = append(data, []string{
			w.Target.Source.RelPath,
			r.DisplayPath(w.Target.Path),
			w.Target.Format,
			fmt.Sprint(len(w.Target.Source.Fragments)),
			string(w.Status),
		})
	}
	for _, s := range plan.Skipped {
		data = append(data, []string{s.Dir.RelPath, "-", "-", fmt.Sprint(len(s.Dir.Fragments)), "skip: " + s.Reason})
	}

	table := pterm.DefaultTable.WithHasHeader().WithData(data)
	if r.format == FormatText {
		table = table.WithHeaderStyle(pterm.NewStyle()).WithSeparatorStyle(pterm.NewStyle())
	}
	out, err := table.Srender()
	if err != nil {
		return "", err
	}
	return out + "\n", nil
}

// RenderDiff renders the line diff of one planned write
func (r *Renderer) RenderDiff(write types.PlannedWrite, lines []patcher.DiffLine) string {
	var b strings.Builder

	before := r.DisplayPath(write.Target.Path)
	if write.Status == types.WriteCreate {
		before = "/dev/null"
	}
	b.WriteString(r.paint(TitleStyle, "--- "+before) + "\n")
	b.WriteString(r.paint(TitleStyle, "+++ "+r.DisplayPath(write.Target.Path)) + "\n")

	for _, line := range lines {
		switch line.Op {
		case patcher.DiffInsert:
			b.WriteString(r.paint(InsertStyle, "+"+line.Text) + "\n")
		case patcher.DiffDelete:
			b.WriteString(r.paint(DeleteStyle, "-"+line.Text) + "\n")
		case patcher.DiffSkip:
			b.WriteString(r.paint(HunkStyle, fmt.Sprintf("@@ %s unchanged @@", pluralize(line.Skipped, "line"))) + "\n")
		default:
			b.WriteString(" " + line.Text + "\n")
		}
	}
	return b.String()
}

// RenderError formats an error for stderr
func (r *Renderer) RenderError(err error) string {
	msg := r.paint(ErrorStyle, "Error:") + " " + err.Error()
	if path := errors.GetDetail(err, errors.DetailPath); path != "" && !strings.Contains(err.Error(), path) {
		msg += "\n  " + r.paint(MutedStyle, "path: ") + r.paint(PathStyle, path)
	}
	return msg
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
