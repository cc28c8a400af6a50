package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
)

// ErrCanceled is the outcome of a request cancelled before it settled.
var ErrCanceled = errors.New("request canceled")

// statusNoContentIE is the status some transports report in place of 204.
const statusNoContentIE = 1223

// Response is a settled GET.
type Response struct {
	URL    string
	Status int
	Body   string
}

// NotFound reports whether the server said the resource is absent.
func (r *Response) NotFound() bool {
	return r.Status == http.StatusNotFound
}

// StatusError is returned for replies outside the accepted status set.
type StatusError struct {
	Response *Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.Response.URL, e.Response.Status)
}

// Accepted reports whether status resolves a request successfully:
// any 2xx, 404, 1223, or 0 (local load, status unavailable).
func Accepted(status int) bool {
	return (status >= 200 && status < 300) ||
		status == http.StatusNotFound ||
		status == statusNoContentIE ||
		status == 0
}

// Client issues cancellable GET requests.
type Client struct {
	http *http.Client
	base *url.URL
}

// NewClient returns a client resolving relative URLs against base.
// A nil httpClient means http.DefaultClient. Redirects are not followed:
// a 3xx reply is outside the accepted statuses and rejects.
func NewClient(base *url.URL, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	hc := *httpClient
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &Client{http: &hc, base: base}
}

// Resolve turns ref into an absolute URL string.
func (c *Client) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", ref, err)
	}
	if c.base != nil {
		u = c.base.ResolveReference(u)
	}
	return u.String(), nil
}

// Request is an in-flight or settled GET.
type Request struct {
	url    string
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	settled  bool
	canceled bool
	resp     *Response
	err      error
}

// Get starts one GET for ref and returns without waiting for it.
func (c *Client) Get(ctx context.Context, ref string) *Request {
	ctx, cancel := context.WithCancel(ctx)
	r := &Request{
		url:    ref,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	u, err := c.Resolve(ref)
	if err != nil {
		r.settle(nil, err)
		cancel()
		return r
	}
	r.url = u

	go r.run(ctx, c.http)
	return r
}

func (r *Request) run(ctx context.Context, client *http.Client) {
	defer r.cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		r.settle(nil, fmt.Errorf("new request: %w", err))
		return
	}

	res, err := client.Do(req)
	if err != nil {
		r.settle(nil, fmt.Errorf("GET %s: %w", r.url, err))
		return
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		r.settle(nil, fmt.Errorf("read %s: %w", r.url, err))
		return
	}

	resp := &Response{URL: r.url, Status: res.StatusCode, Body: string(body)}
	if !Accepted(resp.Status) {
		r.settle(nil, &StatusError{Response: resp})
		return
	}
	r.settle(resp, nil)
}

// settle records the outcome once. Completions after Cancel are dropped.
func (r *Request) settle(resp *Response, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.settled || r.canceled {
		return
	}
	r.settled = true
	r.resp, r.err = resp, err
	close(r.done)
}

// Cancel aborts the request. It is a no-op once the request has settled.
func (r *Request) Cancel() {
	r.mu.Lock()
	if r.settled || r.canceled {
		r.mu.Unlock()
		return
	}
	r.canceled = true
	r.err = ErrCanceled
	close(r.done)
	r.mu.Unlock()

	r.cancel()
}

// URL returns the resolved request URL.
func (r *Request) URL() string {
	return r.url
}

// Done is closed once the request settles or is cancelled.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the request settles, is cancelled, or ctx ends.
func (r *Request) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-r.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resp, r.err
}
