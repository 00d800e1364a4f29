package generator

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// maxDiffLines bounds the edit-script search; generated resources are small
// and anything larger is summarized instead.
const maxDiffLines = 5000

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("22"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("52"))
)

type editKind int

const (
	editKeep editKind = iota
	editInsert
	editDelete
)

type edit struct {
	kind    editKind
	oldLine int // 1-based, 0 for inserts
	newLine int // 1-based, 0 for deletes
	text    string
}

// Diff renders a unified diff between the resource on disk and the body that
// would replace it. It returns "" when the two are identical.
func Diff(name string, current, generated []byte) string {
	if bytes.Equal(current, generated) {
		return ""
	}
	if bytes.IndexByte(current, 0) >= 0 || bytes.IndexByte(generated, 0) >= 0 {
		return "Binary files differ\n"
	}

	a := splitLines(string(current))
	b := splitLines(string(generated))
	if len(a) > maxDiffLines || len(b) > maxDiffLines {
		return fmt.Sprintf("Files too large for diff (%d and %d lines)\n", len(a), len(b))
	}

	edits := myers(a, b)
	width := terminalWidth() - 10

	var buf strings.Builder
	buf.WriteString(headerStyle.Render("--- "+name+" (on disk)") + "\n")
	buf.WriteString(headerStyle.Render("+++ "+name+" (generated)") + "\n")
	for _, h := range hunks(edits, 3) {
		buf.WriteString(hunkStyle.Render(h.header()) + "\n")
		for _, e := range h.edits {
			text := truncate(e.text, width)
			switch e.kind {
			case editInsert:
				buf.WriteString(addedStyle.Render("+"+text) + "\n")
			case editDelete:
				buf.WriteString(removedStyle.Render("-"+text) + "\n")
			default:
				buf.WriteString(" " + text + "\n")
			}
		}
	}
	return buf.String()
}

// myers computes the shortest edit script between a and b
// ("An O(ND) Difference Algorithm and Its Variations", Myers 1986).
func myers(a, b []string) []edit {
	n, m := len(a), len(b)
	offset := n + m + 1
	v := make([]int, 2*offset+1)
	var trace [][]int

	for d := 0; d <= n+m; d++ {
		trace = append(trace, append([]int(nil), v...))
		done := false
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[offset+k] = x
			if x >= n && y >= m {
				done = true
				break
			}
		}
		if done {
			break
		}
	}

	var script []edit
	x, y := n, m
	for d := len(trace) - 1; d >= 0; d-- {
		vd := trace[d]
		k := x - y
		var prevK int
		if k == -d || (k != d && vd[offset+k-1] < vd[offset+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := vd[offset+prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			script = append(script, edit{kind: editKeep, oldLine: x + 1, newLine: y + 1, text: a[x]})
		}
		if d == 0 {
			break
		}
		if x == prevX {
			y--
			script = append(script, edit{kind: editInsert, newLine: y + 1, text: b[y]})
		} else {
			x--
			script = append(script, edit{kind: editDelete, oldLine: x + 1, text: a[x]})
		}
	}

	for i, j := 0, len(script)-1; i < j; i, j = i+1, j-1 {
		script[i], script[j] = script[j], script[i]
	}
	return script
}

type hunk struct {
	edits []edit
}

func (h hunk) header() string {
	var oldStart, newStart, oldCount, newCount int
	for _, e := range h.edits {
		if e.oldLine > 0 && (oldStart == 0 || e.oldLine < oldStart) {
			oldStart = e.oldLine
		}
		if e.newLine > 0 && (newStart == 0 || e.newLine < newStart) {
			newStart = e.newLine
		}
		if e.kind != editInsert {
			oldCount++
		}
		if e.kind != editDelete {
			newCount++
		}
	}
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", oldStart, oldCount, newStart, newCount)
}

// hunks groups changed lines with up to context unchanged lines around them.
func hunks(script []edit, context int) []hunk {
	var out []hunk
	i := 0
	for i < len(script) {
		for i < len(script) && script[i].kind == editKeep {
			i++
		}
		if i == len(script) {
			break
		}
		start := max(i-context, 0)
		end := i
		for end < len(script) {
			if script[end].kind != editKeep {
				end++
				continue
			}
			run := end
			for run < len(script) && script[run].kind == editKeep {
				run++
			}
			if run == len(script) || run-end > 2*context {
				end = min(end+context, len(script))
				break
			}
			end = run
		}
		out = append(out, hunk{edits: script[start:end]})
		i = end
	}
	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func truncate(s string, width int) string {
	if width <= 3 {
		width = 80
	}
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	return string([]rune(s)[:width-3]) + "..."
}

// terminalWidth returns the terminal width, defaulting to 80 if unable to detect
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
