package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/chuhlomin/diff/internal/models"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrTagNotFound = errors.New("tag not found")
)

// Repo gives read access to tagged snapshots of a repository.
type Repo struct {
	r *gogit.Repository
}

// Open opens src as a local repository when it is a directory, and clones
// it into memory otherwise.
func Open(ctx context.Context, src string) (*Repo, error) {
	if fi, err := os.Stat(src); err == nil && fi.IsDir() {
		return PlainOpen(src)
	}
	return Clone(ctx, src)
}

func PlainOpen(path string) (*Repo, error) {
	r, err := gogit.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Repo{r: r}, nil
}

func Clone(ctx context.Context, url string) (*Repo, error) {
	r, err := gogit.CloneContext(ctx, memory.NewStorage(), nil, &gogit.CloneOptions{
		URL:  url,
		Tags: gogit.AllTags,
	})
	if err != nil {
		return nil, fmt.Errorf("git clone %s: %w", url, err)
	}
	return &Repo{r: r}, nil
}

type Tag struct {
	Name string
	Hash plumbing.Hash
}

// Version is the number after the last "v" in the tag name
// ("2.10-v3877" -> 3877), or 0 when there is none.
func (t Tag) Version() int {
	i := strings.LastIndex(t.Name, "v")
	if i < 0 {
		return 0
	}
	v, err := strconv.Atoi(t.Name[i+1:])
	if err != nil {
		return 0
	}
	return v
}

// Tags lists all tags, newest version first.
func (g *Repo) Tags() ([]Tag, error) {
	refs, err := g.r.Tags()
	if err != nil {
		return nil, fmt.Errorf("get tags: %w", err)
	}

	var tags []Tag
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, Tag{
			Name: ref.Name().Short(),
			Hash: ref.Hash(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	sort.Slice(tags, func(i, j int) bool {
		vi, vj := tags[i].Version(), tags[j].Version()
		if vi != vj {
			return vi > vj
		}
		return tags[i].Name > tags[j].Name
	})

	return tags, nil
}

func (g *Repo) HasTag(name string) bool {
	_, err := g.r.Tag(name)
	return err == nil
}

func (g *Repo) commit(tag string) (*object.Commit, error) {
	ref, err := g.r.Tag(tag)
	if err != nil {
		if errors.Is(err, gogit.ErrTagNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTagNotFound, tag)
		}
		return nil, fmt.Errorf("get tag %s: %w", tag, err)
	}

	// annotated tags point at a tag object, lightweight ones at the commit
	if t, err := g.r.TagObject(ref.Hash()); err == nil {
		c, err := t.Commit()
		if err != nil {
			return nil, fmt.Errorf("get commit for tag %s: %w", tag, err)
		}
		return c, nil
	}

	c, err := g.r.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("get commit for tag %s: %w", tag, err)
	}
	return c, nil
}

func (g *Repo) tree(tag string) (*object.Tree, error) {
	c, err := g.commit(tag)
	if err != nil {
		return nil, err
	}
	t, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("get tree for tag %s: %w", tag, err)
	}
	return t, nil
}

// Changes lists text files that differ between two tags, sorted by name.
func (g *Repo) Changes(ctx context.Context, from, to string) ([]models.FileChange, error) {
	t1, err := g.tree(from)
	if err != nil {
		return nil, err
	}
	t2, err := g.tree(to)
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTreeWithOptions(ctx, t1, t2, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", from, to, err)
	}

	files := make([]models.FileChange, 0, len(changes))
	for _, ch := range changes {
		p, err := ch.PatchContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("patch %s: %w", ch, err)
		}

		patches := p.FilePatches()
		if len(patches) == 0 || patches[0].IsBinary() {
			continue
		}

		fromPath, toPath := ch.From.Name, ch.To.Name
		if fromPath == toPath && !hasChanges(patches[0]) {
			continue
		}

		files = append(files, fileChange(fromPath, toPath))
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Less(files[j])
	})

	return files, nil
}

func fileChange(fromPath, toPath string) models.FileChange {
	switch {
	case fromPath == "":
		return models.FileChange{Name: toPath, Operation: models.OpAdded}
	case toPath == "":
		return models.FileChange{Name: fromPath, Operation: models.OpDeleted}
	case fromPath != toPath:
		return models.FileChange{Name: toPath, OldName: fromPath, Operation: models.OpRenamed}
	}
	return models.FileChange{Name: toPath, Operation: models.OpModified}
}

func hasChanges(patch diff.FilePatch) bool {
	for _, chunk := range patch.Chunks() {
		if chunk.Type() != diff.Equal {
			return true
		}
	}
	return false
}

// FileContent returns the contents of path at tag.
func (g *Repo) FileContent(tag, path string) (string, error) {
	t, err := g.tree(tag)
	if err != nil {
		return "", err
	}

	f, err := t.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return "", fmt.Errorf("%w: %s at %s", ErrNotFound, path, tag)
		}
		return "", fmt.Errorf("get %s at %s: %w", path, tag, err)
	}

	content, err := f.Contents()
	if err != nil {
		return "", fmt.Errorf("read %s at %s: %w", path, tag, err)
	}
	return content, nil
}

// WalkFiles calls fn for every file of the tree at tag.
func (g *Repo) WalkFiles(tag string, fn func(path, content string) error) error {
	t, err := g.tree(tag)
	if err != nil {
		return err
	}

	err = t.Files().ForEach(func(f *object.File) error {
		content, err := f.Contents()
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
		return fn(f.Name, content)
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", tag, err)
	}
	return nil
}
