package site

import (
	"context"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/chuhlomin/diff/internal/git"
	"github.com/chuhlomin/diff/internal/logging"
	"github.com/chuhlomin/diff/internal/models"
)

// Source is the repository view the generator and server read from.
type Source interface {
	Tags() ([]git.Tag, error)
	Changes(ctx context.Context, from, to string) ([]models.FileChange, error)
	WalkFiles(tag string, fn func(path, content string) error) error
}

// Generator writes a static site that needs no server:
//
//	index.html
//	files/<from>/<to>.html
//	content/<tag>/<path>
type Generator struct {
	Source    Source
	Templates *template.Template
	Output    string
	Content   bool
	Log       logging.Logger
}

func (g *Generator) Run(ctx context.Context) error {
	if g.Log == nil {
		g.Log = logging.Nop()
	}

	g.Log.Info("getting tags")
	tags, err := g.Source.Tags()
	if err != nil {
		return fmt.Errorf("get tags: %w", err)
	}

	if err := os.MkdirAll(g.Output, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if err := g.renderIndex(tags); err != nil {
		return fmt.Errorf("render index: %w", err)
	}

	if err := g.renderFilesChanges(ctx, tags); err != nil {
		return fmt.Errorf("render files: %w", err)
	}

	if g.Content {
		g.Log.Info("pulling files", "tags", len(tags))
		if err := g.pullFiles(tags); err != nil {
			return fmt.Errorf("pull files: %w", err)
		}
	}

	return nil
}

func (g *Generator) renderIndex(tags []git.Tag) error {
	f, err := os.Create(filepath.Join(g.Output, "index.html"))
	if err != nil {
		return fmt.Errorf("create index.html: %w", err)
	}
	defer f.Close()

	return RenderIndex(f, g.Templates, tags)
}

func (g *Generator) renderFilesChanges(ctx context.Context, tags []git.Tag) error {
	for _, tag1 := range tags {
		for _, tag2 := range tags {
			if err := ctx.Err(); err != nil {
				return err
			}
			g.Log.Debug("rendering files changes", "from", tag1.Name, "to", tag2.Name)
			if err := g.renderFilesChangesBetweenTags(ctx, tag1.Name, tag2.Name); err != nil {
				return fmt.Errorf("render files for tags %s -> %s: %w", tag1.Name, tag2.Name, err)
			}
		}
	}
	return nil
}

func (g *Generator) renderFilesChangesBetweenTags(ctx context.Context, tag1, tag2 string) error {
	var changes []models.FileChange
	if tag1 != tag2 {
		var err error
		changes, err = g.Source.Changes(ctx, tag1, tag2)
		if err != nil {
			return fmt.Errorf("collect changes: %w", err)
		}
	}

	path, err := g.outputPath(models.FilesPath(models.TagPair{From: tag1, To: tag2}))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	return RenderFiles(f, g.Templates, tag1, tag2, changes)
}

func (g *Generator) pullFiles(tags []git.Tag) error {
	for _, tag := range tags {
		err := g.Source.WalkFiles(tag.Name, func(name, content string) error {
			path, err := g.outputPath(models.ContentPath(tag.Name, name))
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("create dir: %w", err)
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return fmt.Errorf("write file: %w", err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("tag %s: %w", tag.Name, err)
		}
	}
	return nil
}

// outputPath maps a site-relative URL to its file under Output.
func (g *Generator) outputPath(ref string) (string, error) {
	u, err := url.PathUnescape(strings.TrimPrefix(ref, "./"))
	if err != nil {
		return "", fmt.Errorf("output path for %s: %w", ref, err)
	}
	return filepath.Join(g.Output, filepath.FromSlash(u)), nil
}
