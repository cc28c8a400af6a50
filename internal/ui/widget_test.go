package ui

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func plain(s string) string {
	return ansi.ReplaceAllString(s, "")
}

func TestWidgetState(t *testing.T) {
	w := NewDiffWidget(DefaultOptions(), 80, 20)

	changes := 0
	w.OnChange(func() { changes++ })

	w.SetLoading(true)
	assert.True(t, w.Loading())

	w.SetModel(DiffModel{Original: "a", Modified: "b"})
	assert.False(t, w.Loading())
	assert.Equal(t, 1, w.Version())

	w.SetLoading(true)
	w.SetError(errors.New("boom"))
	assert.False(t, w.Loading())
	assert.EqualError(t, w.Err(), "boom")

	w.SetLoading(true)
	assert.NoError(t, w.Err())

	assert.Equal(t, 5, changes)
}

func TestWidgetResize(t *testing.T) {
	w := NewDiffWidget(DefaultOptions(), 80, 20)
	w.Resize(100, 30)
	width, height := w.Size()
	assert.Equal(t, 100, width)
	assert.Equal(t, 30, height)

	opts := DefaultOptions()
	opts.AutomaticLayout = false
	w = NewDiffWidget(opts, 80, 20)
	w.Resize(100, 30)
	width, height = w.Size()
	assert.Equal(t, 80, width)
	assert.Equal(t, 20, height)
}

func TestBuildRows(t *testing.T) {
	rows := buildRows("a\nb\nc\n", "a\nB\nc\nd\n")

	kinds := make([]rowKind, len(rows))
	for i, r := range rows {
		kinds[i] = r.kind
	}
	assert.Equal(t, []rowKind{rowEqual, rowChanged, rowEqual, rowAdded}, kinds)
	assert.Equal(t, side{2, "b"}, rows[1].left)
	assert.Equal(t, side{2, "B"}, rows[1].right)
	assert.Equal(t, side{4, "d"}, rows[3].right)
	assert.Equal(t, 0, rows[3].left.num)
}

func TestBuildRowsEmptySide(t *testing.T) {
	rows := buildRows("", "x\ny\n")
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, rowAdded, r.kind)
	}

	assert.Empty(t, buildRows("", ""))
}

func TestRenderSideBySide(t *testing.T) {
	w := NewDiffWidget(DefaultOptions(), 60, 20)
	w.SetModel(DiffModel{Original: "one\ntwo\n", Modified: "one\nthree\n"})

	lines := strings.Split(plain(w.Render()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "two")
	assert.Contains(t, lines[1], "│")
	assert.Contains(t, lines[1], "three")
}

func TestRenderStacked(t *testing.T) {
	opts := DefaultOptions()
	opts.SideBySide = false
	w := NewDiffWidget(opts, 60, 20)
	w.SetModel(DiffModel{Original: "one\ntwo\n", Modified: "one\nthree\n"})

	lines := strings.Split(plain(w.Render()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "- two")
	assert.Contains(t, lines[2], "+ three")
}

func TestRenderError(t *testing.T) {
	w := NewDiffWidget(DefaultOptions(), 60, 20)
	w.SetError(errors.New("no route"))
	assert.Contains(t, plain(w.Render()), "Error: no route")
}

func TestFit(t *testing.T) {
	assert.Equal(t, "ab  ", fit("ab", 4))
	assert.Equal(t, "abc…", fit("abcdef", 4))
	assert.Equal(t, "    x", fit("\tx", 5))
}
