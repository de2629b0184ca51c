package patcher

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffOp is the kind of a diff line
type DiffOp int

const (
	DiffEqual DiffOp = iota
	DiffInsert
	DiffDelete
	// DiffSkip stands for a run of equal lines left out by CompactDiff
	DiffSkip
)

// DiffLine is one line of a line diff, without its newline. For DiffSkip
// lines Skipped holds the number of lines left out.
type DiffLine struct {
	Op      DiffOp
	Text    string
	Skipped int
}

// LineDiff compares two contents line by line
func LineDiff(before, after []byte) []DiffLine {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []DiffLine
	for _, d := range diffs {
		op := DiffEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = DiffInsert
		case diffmatchpatch.DiffDelete:
			op = DiffDelete
		}
		for _, line := range splitLines(d.Text) {
			out = append(out, DiffLine{Op: op, Text: line})
		}
	}
	return out
}

// CompactDiff keeps context equal lines around each change and replaces
// longer equal runs with a single DiffSkip line. A negative context is
// treated as zero.
func CompactDiff(lines []DiffLine, context int) []DiffLine {
	if context < 0 {
		context = 0
	}

	var out []DiffLine
	i := 0
	for i < len(lines) {
		if lines[i].Op != DiffEqual {
			out = append(out, lines[i])
			i++
			continue
		}

		j := i
		for j < len(lines) && lines[j].Op == DiffEqual {
			j++
		}

		head := context
		if i == 0 {
			head = 0
		}
		tail := context
		if j == len(lines) {
			tail = 0
		}

		if j-i <= head+tail {
			out = append(out, lines[i:j]...)
		} else {
			out = append(out, lines[i:i+head]...)
			out = append(out, DiffLine{Op: DiffSkip, Skipped: j - i - head - tail})
			out = append(out, lines[j-tail:j]...)
		}
		i = j
	}
	return out
}

// splitLines splits on newlines. A trailing newline does not produce an
// extra empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
