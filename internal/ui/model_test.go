package ui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chuhlomin/diff/internal/models"
)

const indexPage = `<form>
<select name="from"><option value="v2">v2</option><option value="v1" selected>v1</option></select>
<select name="to"><option value="v2" selected>v2</option><option value="v1">v1</option></select>
</form>`

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestModelFlow(t *testing.T) {
	_, client := newSite(t, map[string]string{
		"/":                 indexPage,
		"/files/v1/v2.html": changeList,
		"/files/v2/v2.html": `<p>No changes</p>`,
		"/content/v1/a.php": "OLD",
		"/content/v2/a.php": "NEW",
	})

	ctx := context.Background()
	m := NewModel(ctx, client, ViewOptions{Language: "php", Layout: Layout{Threshold: 120}, Widget: DefaultOptions()}, nil)
	defer m.Close()

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Equal(t, Stacked, m.mode)
	assert.False(t, m.widget.Options().SideBySide)

	m, cmd := update(t, m, m.loadTags()())
	require.NoError(t, m.err)
	assert.Equal(t, models.TagPair{From: "v1", To: "v2"}, m.tags)
	require.NotNil(t, cmd)

	m, _ = update(t, m, cmd())
	require.NoError(t, m.err)
	assert.Len(t, m.list.Items(), 3)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.loader.Wait()
	m, _ = update(t, m, widgetChangedMsg{})

	assert.Equal(t, 0, m.files.Selected())
	assert.Equal(t, "OLD", m.widget.Model().Original)
	assert.Equal(t, "NEW", m.widget.Model().Modified)
	assert.Contains(t, plain(m.View()), "NEW")

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{']'}})
	assert.Equal(t, "v2", m.tags.From)
	m, _ = update(t, m, cmd())
	require.NoError(t, m.err)
	assert.Empty(t, m.list.Items())
}

func TestModelFailedListLoadEmptiesList(t *testing.T) {
	_, client := newSite(t, map[string]string{
		"/":                 indexPage,
		"/files/v1/v2.html": changeList,
	})

	m := NewModel(context.Background(), client, ViewOptions{Widget: DefaultOptions()}, nil)
	defer m.Close()

	m, cmd := update(t, m, m.loadTags()())
	m, _ = update(t, m, cmd())
	require.Len(t, m.list.Items(), 3)

	// v1 -> v1 has no published change list
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'}'}})
	assert.Equal(t, models.TagPair{From: "v1", To: "v1"}, m.tags)
	m, _ = update(t, m, cmd())

	assert.Error(t, m.err)
	assert.Empty(t, m.list.Items())
	assert.Empty(t, m.files.Entries())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, -1, m.files.Selected())
}

func TestModelInitialTags(t *testing.T) {
	m := NewModel(context.Background(), nil, ViewOptions{Tags: models.TagPair{From: "v2", To: "v1"}}, nil)
	m.fromTags = []string{"v3", "v2", "v1"}
	m.toTags = []string{"v3", "v2", "v1"}
	assert.Equal(t, models.TagPair{From: "v2", To: "v1"}, m.pickTags())

	m.initial = models.TagPair{From: "nope"}
	assert.Equal(t, models.TagPair{From: "v2", To: "v3"}, m.pickTags())
}

func TestCycleTag(t *testing.T) {
	tags := []string{"a", "b", "c"}
	assert.Equal(t, "b", cycleTag(tags, "a", true))
	assert.Equal(t, "a", cycleTag(tags, "c", true))
	assert.Equal(t, "c", cycleTag(tags, "a", false))
	assert.Equal(t, "x", cycleTag(nil, "x", true))
}

func TestFileItem(t *testing.T) {
	item := fileItem{entry: models.FileEntry{Name: "b.php", OldName: "old/b.php", Operation: models.OpRenamed, Selected: true}}
	assert.Equal(t, "● old/b.php → b.php", item.Title())
	assert.Equal(t, "renamed", item.Description())
	assert.Equal(t, "b.php", item.FilterValue())
}
