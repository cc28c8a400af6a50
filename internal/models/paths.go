package models

import (
	"net/url"
	"path"
	"strings"
)

// FilesPath is the site-relative URL of the change list between two tags.
func FilesPath(p TagPair) string {
	return sitePath("files", p.From, p.To+".html")
}

// ContentPath is the site-relative URL of file as of tag.
func ContentPath(tag, file string) string {
	return sitePath("content", tag, file)
}

// sitePath keeps every element inside its parent and escapes each segment.
func sitePath(elems ...string) string {
	var segs []string
	for _, e := range elems {
		clean := strings.TrimPrefix(path.Clean("/"+e), "/")
		if clean == "" {
			continue
		}
		for _, s := range strings.Split(clean, "/") {
			segs = append(segs, url.PathEscape(s))
		}
	}
	return "./" + strings.Join(segs, "/")
}
