package fetch

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// LocalTransport serves GETs from a generated site on disk. Like a page
// opened from the filesystem it never knows a status: every reply carries
// status 0, and a missing file is an empty body.
type LocalTransport struct {
	FS fs.FS
}

func (t LocalTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	name := strings.TrimPrefix(path.Clean("/"+req.URL.Path), "/")
	if name == "" {
		name = "index.html"
	}

	b, err := fs.ReadFile(t.FS, name)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return &http.Response{
		Status:        "0",
		StatusCode:    0,
		Proto:         "HTTP/1.0",
		ProtoMajor:    1,
		Header:        make(http.Header),
		Body:          io.NopCloser(bytes.NewReader(b)),
		ContentLength: int64(len(b)),
		Request:       req,
	}, nil
}
