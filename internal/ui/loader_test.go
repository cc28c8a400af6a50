package ui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chuhlomin/diff/internal/bus"
	"github.com/chuhlomin/diff/internal/fetch"
	"github.com/chuhlomin/diff/internal/models"
)

// site serves fixed pages and records every path requested.
type site struct {
	mu    sync.Mutex
	pages map[string]string
	hits  []string
	extra map[string]http.HandlerFunc
}

func (s *site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits = append(s.hits, r.URL.Path)
	h := s.extra[r.URL.Path]
	body, ok := s.pages[r.URL.Path]
	s.mu.Unlock()

	if h != nil {
		h(w, r)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(body))
}

func (s *site) requested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.hits...)
}

func newSite(t *testing.T, pages map[string]string) (*site, *fetch.Client) {
	t.Helper()

	s := &site{pages: pages, extra: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	return s, fetch.NewClient(base, srv.Client())
}

type recorder struct {
	mu      sync.Mutex
	loading []bool
	models  []DiffModel
	errs    []error
}

func (r *recorder) SetLoading(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = append(r.loading, v)
}

func (r *recorder) SetModel(m DiffModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models = append(r.models, m)
}

func (r *recorder) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func TestLoaderLoadsBothSides(t *testing.T) {
	_, client := newSite(t, map[string]string{
		"/content/v1/a.php": "OLD",
		"/content/v2/a.php": "NEW",
	})
	w := NewDiffWidget(DefaultOptions(), 80, 20)
	l := NewLoader(client, w, "php", nil)

	err := l.Load(context.Background(), models.FileSelection{Tag1: "v1", Tag2: "v2", File: "a.php"})
	require.NoError(t, err)

	assert.Equal(t, DiffModel{Original: "OLD", Modified: "NEW", Language: "php"}, w.Model())
	assert.False(t, w.Loading())
	assert.Equal(t, 1, w.Version())
}

func TestLoaderMissingSideIsEmpty(t *testing.T) {
	_, client := newSite(t, map[string]string{
		"/content/v2/new.php": "ADDED",
		"/content/v1/gone.php": "REMOVED",
	})
	w := NewDiffWidget(DefaultOptions(), 80, 20)
	l := NewLoader(client, w, "php", nil)

	require.NoError(t, l.Load(context.Background(), models.FileSelection{Tag1: "v1", Tag2: "v2", File: "new.php"}))
	assert.Equal(t, "", w.Model().Original)
	assert.Equal(t, "ADDED", w.Model().Modified)

	require.NoError(t, l.Load(context.Background(), models.FileSelection{Tag1: "v1", Tag2: "v2", File: "gone.php"}))
	assert.Equal(t, "REMOVED", w.Model().Original)
	assert.Equal(t, "", w.Model().Modified)
}

func TestLoaderRenamedFile(t *testing.T) {
	s, client := newSite(t, map[string]string{
		"/content/v1/old/b.php": "BEFORE",
		"/content/v2/b.php":     "AFTER",
	})
	w := NewDiffWidget(DefaultOptions(), 80, 20)
	l := NewLoader(client, w, "php", nil)

	sel := models.FileSelection{Tag1: "v1", Tag2: "v2", File: "b.php", OldFile: "old/b.php"}
	require.NoError(t, l.Load(context.Background(), sel))

	assert.ElementsMatch(t, []string{"/content/v1/old/b.php", "/content/v2/b.php"}, s.requested())
	assert.Equal(t, "BEFORE", w.Model().Original)
	assert.Equal(t, "AFTER", w.Model().Modified)
}

func TestLoaderFailure(t *testing.T) {
	s, client := newSite(t, map[string]string{
		"/content/v1/a.php": "OLD",
	})
	s.extra["/content/v2/a.php"] = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}
	w := NewDiffWidget(DefaultOptions(), 80, 20)
	l := NewLoader(client, w, "php", nil)

	err := l.Load(context.Background(), models.FileSelection{Tag1: "v1", Tag2: "v2", File: "a.php"})
	require.Error(t, err)

	var statusErr *fetch.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Response.Status)

	assert.False(t, w.Loading())
	assert.Error(t, w.Err())
	assert.Equal(t, 0, w.Version())
}

func TestLoaderReportsFailingSide(t *testing.T) {
	s, client := newSite(t, nil)
	s.extra["/content/v1/a.php"] = func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}
	s.extra["/content/v2/a.php"] = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}
	w := NewDiffWidget(DefaultOptions(), 80, 20)
	l := NewLoader(client, w, "php", nil)

	for i := 0; i < 50; i++ {
		err := l.Load(context.Background(), models.FileSelection{Tag1: "v1", Tag2: "v2", File: "a.php"})

		var statusErr *fetch.StatusError
		require.True(t, errors.As(err, &statusErr), "run %d: %v", i, err)
		assert.Equal(t, http.StatusBadGateway, statusErr.Response.Status)
		assert.NotErrorIs(t, w.Err(), fetch.ErrCanceled)
	}
}

func TestCause(t *testing.T) {
	boom := errors.New("boom")

	assert.NoError(t, cause(nil, nil))
	assert.Equal(t, boom, cause(fetch.ErrCanceled, boom))
	assert.Equal(t, boom, cause(boom, fetch.ErrCanceled))
	assert.ErrorIs(t, cause(fetch.ErrCanceled, nil), fetch.ErrCanceled)
}

func TestLoaderNewSelectionSupersedes(t *testing.T) {
	s, client := newSite(t, map[string]string{
		"/content/v2/slow.php": "SLOW NEW",
		"/content/v1/fast.php": "FAST OLD",
		"/content/v2/fast.php": "FAST NEW",
	})

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	s.extra["/content/v1/slow.php"] = func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-release:
		case <-r.Context().Done():
		}
		_, _ = w.Write([]byte("SLOW OLD"))
	}

	rec := &recorder{}
	l := NewLoader(client, rec, "php", nil)
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() {
		errc <- l.Load(ctx, models.FileSelection{Tag1: "v1", Tag2: "v2", File: "slow.php"})
	}()
	<-started

	require.NoError(t, l.Load(ctx, models.FileSelection{Tag1: "v1", Tag2: "v2", File: "fast.php"}))
	assert.ErrorIs(t, <-errc, ErrSuperseded)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.models, 1)
	assert.Equal(t, "FAST OLD", rec.models[0].Original)
	assert.Equal(t, "FAST NEW", rec.models[0].Modified)
	assert.Empty(t, rec.errs)
	assert.Equal(t, []bool{true, true}, rec.loading)
}

func TestLoaderSubscribe(t *testing.T) {
	_, client := newSite(t, map[string]string{
		"/content/v1/a.php": "OLD",
		"/content/v2/a.php": "NEW",
	})
	w := NewDiffWidget(DefaultOptions(), 80, 20)
	l := NewLoader(client, w, "go", nil)

	signals := bus.New[models.FileSelection]()
	unsubscribe := l.Subscribe(context.Background(), signals)
	defer unsubscribe()

	signals.Publish(models.FileSelection{Tag1: "v1", Tag2: "v2", File: "a.php"})
	l.Wait()

	assert.Equal(t, DiffModel{Original: "OLD", Modified: "NEW", Language: "go"}, w.Model())
}

func TestLoaderClose(t *testing.T) {
	s, client := newSite(t, nil)
	s.extra["/content/v1/a.php"] = func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}
	rec := &recorder{}
	l := NewLoader(client, rec, "php", nil)

	l.Start(context.Background(), models.FileSelection{Tag1: "v1", Tag2: "v2", File: "a.php"})
	l.Close()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Empty(t, rec.models)
	assert.Empty(t, rec.errs)
}
