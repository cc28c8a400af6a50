package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chuhlomin/diff/internal/models"
)

const fragment = `<!DOCTYPE html>
<html><body>
<ul class="files">
  <li><a href="#" data-tag1="v1" data-tag2="v2" data-name="a.php" data-oldname="a.php" data-op="M">a.php</a></li>
  <li><a href="#" data-tag1="v1" data-tag2="v2" data-name="b.php" data-oldname="old/b.php" data-op="R">b.php</a></li>
  <li><a href="#" data-tag1="v1" data-tag2="v2" data-name="new.php" data-op="A">new.php</a></li>
  <li><span>not an entry</span></li>
</ul>
</body></html>`

func TestParseFileList(t *testing.T) {
	entries, err := ParseFileList(strings.NewReader(fragment))
	require.NoError(t, err)

	assert.Equal(t, []models.FileEntry{
		{Tag1: "v1", Tag2: "v2", Name: "a.php", Operation: models.OpModified},
		{Tag1: "v1", Tag2: "v2", Name: "b.php", OldName: "old/b.php", Operation: models.OpRenamed},
		{Tag1: "v1", Tag2: "v2", Name: "new.php", Operation: models.OpAdded},
	}, entries)
}

func TestParseFileListEmpty(t *testing.T) {
	entries, err := ParseFileList(strings.NewReader(`<p>No changes</p>`))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseTagOptions(t *testing.T) {
	page := `<form>
<select name="from"><option value="2.10-v3877">2.10-v3877</option><option>2.9-v3800</option></select>
<select name="to"><option value="2.10-v3877" selected>2.10-v3877</option></select>
</form>`

	from, to, err := ParseTagOptions(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, []string{"2.10-v3877", "2.9-v3800"}, from)
	assert.Equal(t, []string{"2.10-v3877"}, to)
}
