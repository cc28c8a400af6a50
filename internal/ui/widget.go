package ui

import (
	"sync"
)

// Options are the diff widget toggles. Only SideBySide changes after
// construction.
type Options struct {
	SideBySide      bool
	ReadOnly        bool
	AutomaticLayout bool
	Minimap         bool
}

func DefaultOptions() Options {
	return Options{
		SideBySide:      true,
		ReadOnly:        true,
		AutomaticLayout: true,
	}
}

// DiffModel is the pair of buffers the widget compares.
type DiffModel struct {
	Original string
	Modified string
	Language string
}

// DiffWidget holds the two content buffers and renders them as a diff.
// It is safe for concurrent use; background loads update it while the
// UI goroutine renders it.
type DiffWidget struct {
	mu       sync.Mutex
	opts     Options
	model    DiffModel
	version  int
	loading  bool
	err      error
	width    int
	height   int
	onChange func()
}

func NewDiffWidget(opts Options, width, height int) *DiffWidget {
	return &DiffWidget{opts: opts, width: width, height: height}
}

// OnChange registers fn to be called after every state change. fn must
// not block.
func (w *DiffWidget) OnChange(fn func()) {
	w.mu.Lock()
	w.onChange = fn
	w.mu.Unlock()
}

func (w *DiffWidget) changed() {
	w.mu.Lock()
	fn := w.onChange
	w.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// SetModel replaces both buffers in one step and clears loading and error.
func (w *DiffWidget) SetModel(m DiffModel) {
	w.mu.Lock()
	w.model = m
	w.version++
	w.loading = false
	w.err = nil
	w.mu.Unlock()
	w.changed()
}

func (w *DiffWidget) Model() DiffModel {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.model
}

// Version increases with every SetModel.
func (w *DiffWidget) Version() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.version
}

func (w *DiffWidget) SetLoading(loading bool) {
	w.mu.Lock()
	w.loading = loading
	if loading {
		w.err = nil
	}
	w.mu.Unlock()
	w.changed()
}

func (w *DiffWidget) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

// SetError shows err instead of the diff and leaves the loading state.
func (w *DiffWidget) SetError(err error) {
	w.mu.Lock()
	w.err = err
	w.loading = false
	w.mu.Unlock()
	w.changed()
}

func (w *DiffWidget) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *DiffWidget) Options() Options {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.opts
}

func (w *DiffWidget) SetSideBySide(on bool) {
	w.mu.Lock()
	same := w.opts.SideBySide == on
	w.opts.SideBySide = on
	w.mu.Unlock()
	if !same {
		w.changed()
	}
}

// Resize follows the container size when AutomaticLayout is on.
func (w *DiffWidget) Resize(width, height int) {
	w.mu.Lock()
	if !w.opts.AutomaticLayout {
		w.mu.Unlock()
		return
	}
	w.width, w.height = width, height
	w.mu.Unlock()
}

func (w *DiffWidget) Size() (width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// Render draws the current state at the widget's width.
func (w *DiffWidget) Render() string {
	w.mu.Lock()
	model, opts, err, width := w.model, w.opts, w.err, w.width
	w.mu.Unlock()

	if err != nil {
		return errorStyle.Render("Error: " + err.Error())
	}

	r := newRenderer(width, opts.Minimap, model.Language)
	rows := buildRows(model.Original, model.Modified)
	if opts.SideBySide {
		return r.sideBySide(rows)
	}
	return r.stacked(rows)
}
