package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/chuhlomin/diff/internal/bus"
	"github.com/chuhlomin/diff/internal/fetch"
	"github.com/chuhlomin/diff/internal/logging"
	"github.com/chuhlomin/diff/internal/models"
)

// ErrSuperseded is returned by a load cycle that a newer selection replaced.
var ErrSuperseded = errors.New("superseded by a newer selection")

// Target receives the outcome of a load cycle.
type Target interface {
	SetLoading(bool)
	SetModel(DiffModel)
	SetError(error)
}

// Loader fetches both sides of a selected file and hands them to the
// target. Only the latest selection may update the target: starting a
// cycle cancels the one in flight.
type Loader struct {
	client   *fetch.Client
	target   Target
	language string
	log      logging.Logger

	mu      sync.Mutex
	current *cycle
	wg      sync.WaitGroup
}

type cycle struct {
	id       string
	sel      models.FileSelection
	ctx      context.Context
	cancel   context.CancelFunc
	original *fetch.Request
	modified *fetch.Request
}

func (c *cycle) abort() {
	c.original.Cancel()
	c.modified.Cancel()
	c.cancel()
}

func NewLoader(client *fetch.Client, target Target, language string, log logging.Logger) *Loader {
	if log == nil {
		log = logging.Nop()
	}
	return &Loader{
		client:   client,
		target:   target,
		language: language,
		log:      log,
	}
}

// Subscribe starts a cycle for every selection published on b.
func (l *Loader) Subscribe(ctx context.Context, b *bus.Bus[models.FileSelection]) (unsubscribe func()) {
	return b.Subscribe(func(sel models.FileSelection) {
		l.Start(ctx, sel)
	})
}

// Start begins a cycle for sel and returns without waiting for it.
func (l *Loader) Start(ctx context.Context, sel models.FileSelection) {
	c := l.begin(ctx, sel)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		_ = l.finish(c)
	}()
}

// Load runs a cycle for sel to completion.
func (l *Loader) Load(ctx context.Context, sel models.FileSelection) error {
	return l.finish(l.begin(ctx, sel))
}

// Wait blocks until every started cycle has ended.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// Close cancels the cycle in flight and waits for background cycles.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.current != nil {
		l.current.abort()
		l.current = nil
	}
	l.mu.Unlock()
	l.wg.Wait()
}

// begin supersedes the current cycle and issues both fetches.
func (l *Loader) begin(ctx context.Context, sel models.FileSelection) *cycle {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current != nil {
		l.log.Debug("cancel load", "cycle", l.current.id, "file", l.current.sel.File)
		l.current.abort()
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &cycle{
		id:     uuid.NewString(),
		sel:    sel,
		ctx:    ctx,
		cancel: cancel,
	}
	l.current = c
	l.target.SetLoading(true)

	c.original = l.client.Get(ctx, models.ContentPath(sel.Tag1, sel.OriginalFile()))
	c.modified = l.client.Get(ctx, models.ContentPath(sel.Tag2, sel.File))
	l.log.Debug("load", "cycle", c.id, "original", c.original.URL(), "modified", c.modified.URL())

	return c
}

// finish waits for both sides and applies the result unless c was superseded.
func (l *Loader) finish(c *cycle) error {
	var (
		original, modified       *fetch.Response
		originalErr, modifiedErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		original, originalErr = c.original.Wait(c.ctx)
		if originalErr != nil {
			c.modified.Cancel()
		}
		return originalErr
	})
	g.Go(func() error {
		modified, modifiedErr = c.modified.Wait(c.ctx)
		if modifiedErr != nil {
			c.original.Cancel()
		}
		return modifiedErr
	})
	_ = g.Wait()
	err := cause(originalErr, modifiedErr)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current != c {
		return fmt.Errorf("load %s: %w", c.sel.File, ErrSuperseded)
	}
	l.current = nil
	c.cancel()

	if err != nil {
		err = fmt.Errorf("load %s: %w", c.sel.File, err)
		l.log.Warn("load failed", "cycle", c.id, "error", err)
		l.target.SetError(err)
		return err
	}

	l.target.SetModel(DiffModel{
		Original: contentText(original),
		Modified: contentText(modified),
		Language: l.language,
	})
	l.log.Debug("loaded", "cycle", c.id, "file", c.sel.File)
	return nil
}

// cause picks the error that ended a cycle. A side that failed cancels
// its sibling, so the sibling's ErrCanceled is never the cause.
func cause(errs ...error) error {
	var canceled error
	for _, err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, fetch.ErrCanceled):
			if canceled == nil {
				canceled = err
			}
		default:
			return err
		}
	}
	return canceled
}

// contentText treats a missing file as empty: the file did not exist at
// that tag.
func contentText(r *fetch.Response) string {
	if r.NotFound() {
		return ""
	}
	return r.Body
}
