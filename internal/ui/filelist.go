package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/chuhlomin/diff/internal/bus"
	"github.com/chuhlomin/diff/internal/fetch"
	"github.com/chuhlomin/diff/internal/logging"
	"github.com/chuhlomin/diff/internal/models"
	"github.com/chuhlomin/diff/internal/parser"
)

// FileList is the region listing files changed between the selected tags.
// Activating an entry marks it as the only selected one and announces it
// on the bus.
type FileList struct {
	client  *fetch.Client
	signals *bus.Bus[models.FileSelection]
	log     logging.Logger

	mu       sync.Mutex
	tags     models.TagPair
	src      string
	entries  []models.FileEntry
	selected int
	inflight *fetch.Request
}

func NewFileList(client *fetch.Client, signals *bus.Bus[models.FileSelection], log logging.Logger) *FileList {
	if log == nil {
		log = logging.Nop()
	}
	return &FileList{
		client:   client,
		signals:  signals,
		log:      log,
		selected: -1,
	}
}

// SetTags points the list at the change list for p and returns its path.
func (f *FileList) SetTags(p models.TagPair) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tags = p
	f.src = models.FilesPath(p)
	return f.src
}

func (f *FileList) Tags() models.TagPair {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tags
}

func (f *FileList) Source() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.src
}

// Load fetches the current source and replaces the entries. A load still
// in flight for an earlier source is cancelled.
func (f *FileList) Load(ctx context.Context) error {
	f.mu.Lock()
	if f.inflight != nil {
		f.inflight.Cancel()
	}
	src, tags := f.src, f.tags
	req := f.client.Get(ctx, src)
	f.inflight = req
	f.mu.Unlock()

	var entries []models.FileEntry
	resp, err := req.Wait(ctx)
	if err == nil && resp.NotFound() {
		err = fmt.Errorf("no change list for %s → %s", tags.From, tags.To)
	}
	if err == nil {
		entries, err = parser.ParseFileList(strings.NewReader(resp.Body))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inflight != req {
		return fmt.Errorf("load %s: %w", src, fetch.ErrCanceled)
	}
	f.inflight = nil
	if errors.Is(err, fetch.ErrCanceled) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("load %s: %w", src, err)
	}

	// a failed load must not leave the previous pair's entries selectable
	f.entries = entries
	f.selected = -1
	if err != nil {
		return fmt.Errorf("load %s: %w", src, err)
	}
	f.log.Debug("file list loaded", "src", src, "entries", len(entries))
	return nil
}

// Entries returns a copy of the current entries.
func (f *FileList) Entries() []models.FileEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.FileEntry(nil), f.entries...)
}

// Selected is the index of the selected entry, or -1.
func (f *FileList) Selected() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selected
}

// Activate selects entry i and publishes its selection.
func (f *FileList) Activate(i int) error {
	f.mu.Lock()
	if i < 0 || i >= len(f.entries) {
		f.mu.Unlock()
		return fmt.Errorf("activate: index %d out of range [0, %d)", i, len(f.entries))
	}
	if f.selected >= 0 {
		f.entries[f.selected].Selected = false
	}
	f.entries[i].Selected = true
	f.selected = i
	sel := f.entries[i].Selection()
	f.mu.Unlock()

	f.log.Debug("file activated", "file", sel.File, "old_file", sel.OldFile)
	f.signals.Publish(sel)
	return nil
}
