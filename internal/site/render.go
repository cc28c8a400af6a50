package site

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"path/filepath"

	"github.com/chuhlomin/diff/internal/git"
	"github.com/chuhlomin/diff/internal/models"
)

//go:embed templates/*.gohtml
var templates embed.FS

const (
	indexTemplate = "index.gohtml"
	filesTemplate = "files.gohtml"
)

// LoadTemplates parses *.gohtml from dir, or the embedded set when dir is empty.
func LoadTemplates(dir string) (*template.Template, error) {
	if dir == "" {
		tmpl, err := template.New("").ParseFS(templates, "templates/*.gohtml")
		if err != nil {
			return nil, fmt.Errorf("parse embedded templates: %w", err)
		}
		return tmpl, nil
	}

	tmpl, err := template.New("").ParseGlob(filepath.Join(dir, "*.gohtml"))
	if err != nil {
		return nil, fmt.Errorf("parse templates from %s: %w", dir, err)
	}
	return tmpl, nil
}

func RenderIndex(w io.Writer, tmpl *template.Template, tags []git.Tag) error {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}

	data := struct {
		Tags     []string
		From, To string
	}{Tags: names}
	if len(names) > 0 {
		data.To = names[0]
		data.From = names[0]
	}
	if len(names) > 1 {
		data.From = names[1]
	}

	if err := tmpl.ExecuteTemplate(w, indexTemplate, data); err != nil {
		return fmt.Errorf("execute %s: %w", indexTemplate, err)
	}
	return nil
}

func RenderFiles(w io.Writer, tmpl *template.Template, tag1, tag2 string, changes []models.FileChange) error {
	if err := tmpl.ExecuteTemplate(w, filesTemplate, struct {
		Tag1    string
		Tag2    string
		Changes []models.FileChange
	}{
		Tag1:    tag1,
		Tag2:    tag2,
		Changes: changes,
	}); err != nil {
		return fmt.Errorf("execute %s: %w", filesTemplate, err)
	}
	return nil
}
