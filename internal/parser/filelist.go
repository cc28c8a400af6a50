package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/chuhlomin/diff/internal/models"
)

// ParseFileList reads a change-list fragment. Every element carrying a
// data-name attribute becomes one entry.
func ParseFileList(r io.Reader) ([]models.FileEntry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse file list: %w", err)
	}

	var entries []models.FileEntry
	walk(doc, func(n *html.Node) {
		name, ok := attr(n, "data-name")
		if !ok {
			return
		}
		tag1, _ := attr(n, "data-tag1")
		tag2, _ := attr(n, "data-tag2")
		oldName, _ := attr(n, "data-oldname")
		op, _ := attr(n, "data-op")

		if oldName == name {
			oldName = ""
		}
		entries = append(entries, models.FileEntry{
			Tag1:      tag1,
			Tag2:      tag2,
			Name:      name,
			OldName:   oldName,
			Operation: models.Operation(op),
		})
	})

	return entries, nil
}

// ParseTagOptions reads the option values of the "from" and "to" selects.
func ParseTagOptions(r io.Reader) (from, to []string, err error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, nil, fmt.Errorf("parse index: %w", err)
	}

	walk(doc, func(n *html.Node) {
		if n.Data != "select" {
			return
		}
		name, _ := attr(n, "name")
		var values []string
		walk(n, func(o *html.Node) {
			if o.Data != "option" {
				return
			}
			v, ok := attr(o, "value")
			if !ok {
				v = strings.TrimSpace(text(o))
			}
			values = append(values, v)
		})

		switch name {
		case "from":
			from = values
		case "to":
			to = values
		}
	})

	return from, to, nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func text(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
