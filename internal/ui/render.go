package ui

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	gitdiff "github.com/go-git/go-git/v5/utils/diff"
	"github.com/mattn/go-runewidth"
	"github.com/sergi/go-diff/diffmatchpatch"
)

var (
	addStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	removeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	changedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	lineNoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

const (
	numWidth  = 5 // "%4d "
	separator = " │ "
	tabWidth  = 4
)

type rowKind int

const (
	rowEqual rowKind = iota
	rowChanged
	rowRemoved
	rowAdded
)

// side is one half of a row; num 0 means the side is blank.
type side struct {
	num  int
	text string
}

type row struct {
	kind  rowKind
	left  side
	right side
}

// buildRows aligns the two buffers line by line. Removed lines directly
// followed by added lines are paired up as changed rows.
func buildRows(original, modified string) []row {
	var (
		rows    []row
		pending []side
		oldNum  int
		newNum  int
	)

	flush := func() {
		for _, l := range pending {
			rows = append(rows, row{kind: rowRemoved, left: l})
		}
		pending = nil
	}

	for _, d := range gitdiff.Do(original, modified) {
		lines := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			for _, l := range lines {
				oldNum++
				newNum++
				rows = append(rows, row{kind: rowEqual, left: side{oldNum, l}, right: side{newNum, l}})
			}
		case diffmatchpatch.DiffDelete:
			for _, l := range lines {
				oldNum++
				pending = append(pending, side{oldNum, l})
			}
		case diffmatchpatch.DiffInsert:
			for _, l := range lines {
				newNum++
				if len(pending) > 0 {
					rows = append(rows, row{kind: rowChanged, left: pending[0], right: side{newNum, l}})
					pending = pending[1:]
					continue
				}
				rows = append(rows, row{kind: rowAdded, right: side{newNum, l}})
			}
		}
	}
	flush()

	return rows
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

type renderer struct {
	width   int
	minimap bool

	lexer     chroma.Lexer
	style     *chroma.Style
	formatter chroma.Formatter
}

func newRenderer(width int, minimap bool, language string) renderer {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return renderer{
		width:     width,
		minimap:   minimap,
		lexer:     chroma.Coalesce(lexer),
		style:     styles.Get("monokai"),
		formatter: formatters.Get("terminal256"),
	}
}

func (r renderer) gutter() int {
	if r.minimap {
		return 1
	}
	return 0
}

func (r renderer) sideBySide(rows []row) string {
	half := (r.width - runewidth.StringWidth(separator) - r.gutter()) / 2
	textWidth := max(half-numWidth, 1)

	lines := make([]string, 0, len(rows))
	for _, rw := range rows {
		var b strings.Builder
		b.WriteString(r.cell(rw.left, rw.kind, removeStyle, textWidth))
		b.WriteString(lineNoStyle.Render(separator))
		b.WriteString(r.cell(rw.right, rw.kind, addStyle, textWidth))
		if r.minimap {
			b.WriteString(marker(rw.kind))
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

func (r renderer) cell(s side, kind rowKind, changed lipgloss.Style, width int) string {
	if s.num == 0 {
		return strings.Repeat(" ", numWidth+width)
	}
	text := fit(s.text, width)
	num := lineNoStyle.Render(fmt.Sprintf("%4d ", s.num))
	if kind == rowEqual {
		return num + r.highlight(text)
	}
	return num + changed.Render(text)
}

// stacked draws one column: each run of changes shows its removed lines
// first, then its added lines.
func (r renderer) stacked(rows []row) string {
	textWidth := max(r.width-2*numWidth-2-r.gutter(), 1)

	var lines []string
	for i := 0; i < len(rows); {
		if rows[i].kind == rowEqual {
			rw := rows[i]
			lines = append(lines, r.unified(rw.left.num, rw.right.num, " ", r.highlight(fit(rw.left.text, textWidth)), rowEqual))
			i++
			continue
		}

		j := i
		for j < len(rows) && rows[j].kind != rowEqual {
			j++
		}
		for _, rw := range rows[i:j] {
			if rw.left.num != 0 {
				lines = append(lines, r.unified(rw.left.num, 0, "-", removeStyle.Render(fit(rw.left.text, textWidth)), rowRemoved))
			}
		}
		for _, rw := range rows[i:j] {
			if rw.right.num != 0 {
				lines = append(lines, r.unified(0, rw.right.num, "+", addStyle.Render(fit(rw.right.text, textWidth)), rowAdded))
			}
		}
		i = j
	}
	return strings.Join(lines, "\n")
}

func (r renderer) unified(oldNum, newNum int, prefix, text string, kind rowKind) string {
	num := func(n int) string {
		if n == 0 {
			return "    "
		}
		return fmt.Sprintf("%4d", n)
	}
	line := lineNoStyle.Render(num(oldNum)+" "+num(newNum)+" ") + prefix + " " + text
	if r.minimap {
		line += marker(kind)
	}
	return line
}

func marker(kind rowKind) string {
	switch kind {
	case rowAdded:
		return addStyle.Render("▌")
	case rowRemoved:
		return removeStyle.Render("▌")
	case rowChanged:
		return changedStyle.Render("▌")
	}
	return " "
}

// fit expands tabs and truncates or pads s to exactly width cells.
func fit(s string, width int) string {
	s = strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
	s = runewidth.Truncate(s, width, "…")
	return runewidth.FillRight(s, width)
}

func (r renderer) highlight(code string) string {
	it, err := r.lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := r.formatter.Format(&buf, r.style, it); err != nil {
		return code
	}
	// lexers may append a newline to their input
	return strings.ReplaceAll(buf.String(), "\n", "")
}
